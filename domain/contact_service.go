package domain

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"
)

const contactEntity = "contact"

// ContactService applies CRM operations to the shared contact collection.
type ContactService struct {
	contacts *Collection[*Contact]
	opts     serviceOptions
}

func NewContactService(contacts *Collection[*Contact], opts ...Option) ContactService {
	return ContactService{contacts: contacts, opts: newServiceOptions(opts)}
}

// List returns the owner's contacts for view, pinned first then by name.
// Contacts have no archived view; it is treated as active.
func (s ContactService) List(ctx context.Context, ownerID string, view View) ([]*Contact, error) {
	items, _, err := s.contacts.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*Contact, 0, len(items))
	for _, c := range items {
		if !c.ownedBy(ownerID) || c.Deleted != (view == ViewTrash) {
			continue
		}
		out = append(out, c)
	}
	SortContacts(out, s.opts.collation)
	return out, nil
}

func (s ContactService) Get(ctx context.Context, ownerID, id string) (*Contact, error) {
	return getOwned(ctx, s.contacts, ownerID, id)
}

func (s ContactService) Create(ctx context.Context, ownerID, actor string, draft ContactDraft) (*Contact, error) {
	name := strings.TrimSpace(draft.Name)
	if name == "" {
		return nil, invalid("name", "must not be empty")
	}
	var c *Contact
	var appended []Activity
	err := s.contacts.Mutate(ctx, func(items []*Contact) ([]*Contact, error) {
		a := s.opts.auditor(actor)
		c = &Contact{
			Record:   Record{ID: s.opts.newID(), OwnerID: ownerID, CreatedAt: a.now},
			Name:     name,
			Email:    strings.TrimSpace(draft.Email),
			Phone:    draft.Phone,
			Company:  draft.Company,
			Role:     draft.Role,
			Summary:  draft.Summary,
			Aliases:  normalizeSet(draft.Aliases),
			Tags:     normalizeSet(draft.Tags),
			Projects: normalizeSet(draft.Projects),
			Notes:    []Note{},
		}
		a.Record(ActivityCreate, "", "", c.Name)
		appended = a.Commit(&c.Record)
		return append(items, c), nil
	})
	if err != nil {
		log.WithError(err).WithField("owner", ownerID).Error("create contact failed")
		return nil, err
	}
	s.opts.publish(ctx, contactEntity, &c.Record, appended)
	return c, nil
}

// Update applies patch and returns the canonical contact with the entries the
// update appended.
func (s ContactService) Update(ctx context.Context, ownerID, id, actor string, patch ContactPatch) (*Contact, []Activity, error) {
	if err := patch.validate(); err != nil {
		return nil, nil, err
	}
	var appended []Activity
	c, err := mutateOne(ctx, s.contacts, ownerID, id, func(_ []*Contact, c *Contact) error {
		a := s.opts.auditor(actor)
		contactSchema.Track(a, c, func() { patch.apply(c) })
		appended = a.Commit(&c.Record)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	s.opts.publish(ctx, contactEntity, &c.Record, appended)
	return c, appended, nil
}

func (s ContactService) SetPinned(ctx context.Context, ownerID, id, actor string, pinned bool) (*Contact, error) {
	return s.commit(ctx, ownerID, id, actor, func(a *Auditor, c *Contact) {
		contactSchema.Track(a, c, func() { c.setPinned(pinned, a.now) })
	})
}

func (s ContactService) SoftDelete(ctx context.Context, ownerID, id, actor string) (*Contact, error) {
	return s.commit(ctx, ownerID, id, actor, func(a *Auditor, c *Contact) { c.softDelete(a) })
}

func (s ContactService) Restore(ctx context.Context, ownerID, id, actor string) (*Contact, error) {
	return s.commit(ctx, ownerID, id, actor, func(a *Auditor, c *Contact) { c.restore(a) })
}

// PermanentDelete removes the contact whether or not it is in the trash.
func (s ContactService) PermanentDelete(ctx context.Context, ownerID, id string) error {
	return removeOwned(ctx, s.contacts, ownerID, id)
}

func (s ContactService) EmptyTrash(ctx context.Context, ownerID string) (int, error) {
	return purgeDeleted(ctx, s.contacts, ownerID)
}

// AddNote appends a note and a matching activity entry.
func (s ContactService) AddNote(ctx context.Context, ownerID, id, actor, text string) (Note, *Contact, error) {
	note, err := newNote(s.opts, actor, text)
	if err != nil {
		return Note{}, nil, err
	}
	c, err := s.commit(ctx, ownerID, id, actor, func(a *Auditor, c *Contact) {
		c.Notes = append(c.Notes, note)
		a.Record(ActivityNote, "", "", note.Text)
	})
	if err != nil {
		return Note{}, nil, err
	}
	return note, c, nil
}

func (s ContactService) commit(ctx context.Context, ownerID, id, actor string, fn func(*Auditor, *Contact)) (*Contact, error) {
	var appended []Activity
	c, err := mutateOne(ctx, s.contacts, ownerID, id, func(_ []*Contact, c *Contact) error {
		a := s.opts.auditor(actor)
		fn(a, c)
		appended = a.Commit(&c.Record)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.opts.publish(ctx, contactEntity, &c.Record, appended)
	return c, nil
}
