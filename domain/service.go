package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/language"
)

// ActivityPublisher receives the entries appended by every committed write.
type ActivityPublisher interface {
	Publish(ctx context.Context, ev ActivityEvent) error
}

// View selects which records a listing returns.
type View string

const (
	ViewActive   View = "active"
	ViewArchived View = "archived"
	ViewTrash    View = "trash"
)

func ParseView(s string) (View, error) {
	switch View(strings.ToLower(strings.TrimSpace(s))) {
	case "", ViewActive:
		return ViewActive, nil
	case ViewArchived:
		return ViewArchived, nil
	case ViewTrash:
		return ViewTrash, nil
	}
	return "", invalid("view", fmt.Sprintf("unknown view %q", s))
}

type serviceOptions struct {
	clock     func() time.Time
	newID     func() string
	logger    *log.Logger
	publisher ActivityPublisher
	board     BoardConfig
	collation language.Tag
}

// Option configures a service.
type Option func(*serviceOptions)

func WithClock(clock func() time.Time) Option {
	return func(o *serviceOptions) { o.clock = clock }
}

func WithIDs(newID func() string) Option {
	return func(o *serviceOptions) { o.newID = newID }
}

func WithLogger(logger *log.Logger) Option {
	return func(o *serviceOptions) { o.logger = logger }
}

func WithPublisher(p ActivityPublisher) Option {
	return func(o *serviceOptions) { o.publisher = p }
}

func WithBoard(board BoardConfig) Option {
	return func(o *serviceOptions) { o.board = board }
}

// WithCollation sets the locale used to sort contact names.
func WithCollation(tag language.Tag) Option {
	return func(o *serviceOptions) { o.collation = tag }
}

func newServiceOptions(opts []Option) serviceOptions {
	o := serviceOptions{
		clock:     func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
		logger:    log.StandardLogger(),
		board:     DefaultBoard(),
		collation: language.English,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o serviceOptions) auditor(actor string) *Auditor {
	return NewAuditor(actor, o.clock(), o.newID)
}

func (o serviceOptions) publish(ctx context.Context, entityType string, r *Record, entries []Activity) {
	if o.publisher == nil || len(entries) == 0 {
		return
	}
	ev := ActivityEvent{EntityType: entityType, EntityID: r.ID, OwnerID: r.OwnerID, Entries: entries}
	if err := o.publisher.Publish(ctx, ev); err != nil {
		o.logger.WithError(err).WithFields(log.Fields{"entity": entityType, "id": r.ID, "entries": len(entries)}).Warn("activity publish failed")
	}
}

func indexOwned[E Trackable](items []E, ownerID, id string) int {
	for i, it := range items {
		r := it.Base()
		if r.ID == id && r.ownedBy(ownerID) {
			return i
		}
	}
	return -1
}

// mutateOne runs fn against the record matching id and owner inside a single
// collection read-modify-write and returns the canonical record.
func mutateOne[E Trackable](ctx context.Context, coll *Collection[E], ownerID, id string, fn func(items []E, e E) error) (E, error) {
	var found E
	err := coll.Mutate(ctx, func(items []E) ([]E, error) {
		i := indexOwned(items, ownerID, id)
		if i < 0 {
			return nil, ErrNotFound
		}
		if err := fn(items, items[i]); err != nil {
			return nil, err
		}
		found = items[i]
		return items, nil
	})
	if err != nil {
		var zero E
		return zero, err
	}
	return found, nil
}

func getOwned[E Trackable](ctx context.Context, coll *Collection[E], ownerID, id string) (E, error) {
	items, _, err := coll.Load(ctx)
	if err != nil {
		var zero E
		return zero, err
	}
	i := indexOwned(items, ownerID, id)
	if i < 0 {
		var zero E
		return zero, ErrNotFound
	}
	return items[i], nil
}

// removeOwned drops the matching record. It reports ErrNotFound when no
// record matches.
func removeOwned[E Trackable](ctx context.Context, coll *Collection[E], ownerID, id string) error {
	return coll.Mutate(ctx, func(items []E) ([]E, error) {
		i := indexOwned(items, ownerID, id)
		if i < 0 {
			return nil, ErrNotFound
		}
		return append(items[:i], items[i+1:]...), nil
	})
}

// purgeDeleted drops every soft-deleted record of the owner.
func purgeDeleted[E Trackable](ctx context.Context, coll *Collection[E], ownerID string) (int, error) {
	removed := 0
	err := coll.Mutate(ctx, func(items []E) ([]E, error) {
		removed = 0
		kept := items[:0]
		for _, it := range items {
			r := it.Base()
			if r.ownedBy(ownerID) && r.Deleted {
				removed++
				continue
			}
			kept = append(kept, it)
		}
		if removed == 0 {
			return nil, errUnchanged
		}
		return kept, nil
	})
	return removed, err
}

func newNote(o serviceOptions, actor, text string) (Note, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Note{}, invalid("text", "must not be empty")
	}
	return Note{ID: o.newID(), Text: text, User: actor, CreatedAt: o.clock()}, nil
}
