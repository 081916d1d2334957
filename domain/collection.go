package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"
)

// Blob is a named JSON document together with the version it was read at.
// An empty Version means the document does not exist yet.
type Blob struct {
	Data    []byte
	Version string
}

// errUnchanged lets a mutation skip the write when it changed nothing.
var errUnchanged = errors.New("unchanged")

// AnyVersion makes Put unconditional.
const AnyVersion = "*"

// BlobStore persists named JSON documents with atomic get/set semantics.
type BlobStore interface {
	// Get returns an empty Blob when name does not exist.
	Get(ctx context.Context, name string) (Blob, error)
	// Put stores data when the current version matches ifVersion and returns
	// the new version. ifVersion is AnyVersion for an unconditional write or ""
	// to require that the document does not exist. A mismatch returns
	// ErrConcurrencyConflict.
	Put(ctx context.Context, name string, data []byte, ifVersion string) (string, error)
}

// ConcurrencyMode selects how concurrent collection writers are reconciled.
type ConcurrencyMode string

const (
	// Versioned writes are compare-and-swap on the collection version and
	// re-run the mutation on conflict.
	Versioned ConcurrencyMode = "versioned"
	// LastWriterWins reproduces the legacy unconditional write.
	LastWriterWins ConcurrencyMode = "last-writer-wins"
)

func ParseConcurrencyMode(s string) (ConcurrencyMode, error) {
	switch ConcurrencyMode(s) {
	case "", Versioned:
		return Versioned, nil
	case LastWriterWins:
		return LastWriterWins, nil
	}
	return "", fmt.Errorf("unknown concurrency mode %q", s)
}

const (
	TasksCollection    = "tasks"
	ContactsCollection = "contacts"
)

// Collection is a flat list of entities kept in a single shared blob. Every
// mutation reads the whole list, changes it in memory and writes it back.
type Collection[E any] struct {
	store      BlobStore
	name       string
	mode       ConcurrencyMode
	maxRetries int
	logger     *log.Logger
}

func NewCollection[E any](store BlobStore, name string, mode ConcurrencyMode, maxRetries int, logger *log.Logger) *Collection[E] {
	if store == nil {
		panic("domain.NewCollection: store is nil")
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Collection[E]{store: store, name: name, mode: mode, maxRetries: maxRetries, logger: logger}
}

// Load returns every entity of the collection and the version it was read at.
func (c *Collection[E]) Load(ctx context.Context) ([]E, string, error) {
	blob, err := c.store.Get(ctx, c.name)
	if err != nil {
		return nil, "", fmt.Errorf("load %s: %w", c.name, err)
	}
	var items []E
	if len(blob.Data) > 0 {
		if err := sonic.Unmarshal(blob.Data, &items); err != nil {
			return nil, "", fmt.Errorf("decode %s: %w", c.name, err)
		}
	}
	return items, blob.Version, nil
}

// Mutate applies fn to a freshly loaded copy of the collection and writes the
// returned list back. When fn fails nothing is written. In Versioned mode a
// conflicting concurrent write makes Mutate reload and run fn again, up to
// maxRetries times.
func (c *Collection[E]) Mutate(ctx context.Context, fn func([]E) ([]E, error)) error {
	for attempt := 0; ; attempt++ {
		items, version, err := c.Load(ctx)
		if err != nil {
			return err
		}
		out, err := fn(items)
		if errors.Is(err, errUnchanged) {
			return nil
		}
		if err != nil {
			return err
		}
		data, err := sonic.Marshal(out)
		if err != nil {
			return fmt.Errorf("encode %s: %w", c.name, err)
		}
		cond := version
		if c.mode == LastWriterWins {
			cond = AnyVersion
		}
		if _, err = c.store.Put(ctx, c.name, data, cond); err == nil {
			return nil
		}
		if !errors.Is(err, ErrConcurrencyConflict) {
			return fmt.Errorf("store %s: %w", c.name, err)
		}
		if attempt >= c.maxRetries {
			c.logger.WithFields(log.Fields{"collection": c.name, "attempts": attempt + 1}).Error("collection write conflict retries exhausted")
			return err
		}
		c.logger.WithFields(log.Fields{"collection": c.name, "attempt": attempt + 1, "version": version}).Debug("collection write conflict; reloading")
	}
}
