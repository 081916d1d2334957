package api

import (
	"context"

	"github.com/austinstudio/meeting-actions-sub000/domain"
)

// TaskService is the board engine the task handlers drive.
type TaskService interface {
	Board() domain.BoardConfig
	List(ctx context.Context, ownerID string, view domain.View) ([]*domain.Task, error)
	Get(ctx context.Context, ownerID, id string) (*domain.Task, error)
	Create(ctx context.Context, ownerID, actor string, draft domain.TaskDraft) (*domain.Task, error)
	CreateBatch(ctx context.Context, ownerID, actor string, drafts []domain.TaskDraft) ([]*domain.Task, error)
	Update(ctx context.Context, ownerID, id, actor string, patch domain.TaskPatch) (*domain.Task, []domain.Activity, error)
	Move(ctx context.Context, ownerID, id, actor, column string, index int) (*domain.Task, error)
	BulkReorder(ctx context.Context, ownerID string, updates []domain.OrderUpdate) (int, error)
	SetPinned(ctx context.Context, ownerID, id, actor string, pinned bool) (*domain.Task, error)
	SetArchived(ctx context.Context, ownerID, id, actor string, archived bool) (*domain.Task, error)
	SoftDelete(ctx context.Context, ownerID, id, actor string) (*domain.Task, error)
	Restore(ctx context.Context, ownerID, id, actor string) (*domain.Task, error)
	PermanentDelete(ctx context.Context, ownerID, id string) error
	EmptyTrash(ctx context.Context, ownerID string) (int, error)
	AddComment(ctx context.Context, ownerID, id, actor, text string) (domain.Note, *domain.Task, error)
}

// ContactService is the CRM engine the contact handlers drive.
type ContactService interface {
	List(ctx context.Context, ownerID string, view domain.View) ([]*domain.Contact, error)
	Get(ctx context.Context, ownerID, id string) (*domain.Contact, error)
	Create(ctx context.Context, ownerID, actor string, draft domain.ContactDraft) (*domain.Contact, error)
	Update(ctx context.Context, ownerID, id, actor string, patch domain.ContactPatch) (*domain.Contact, []domain.Activity, error)
	SetPinned(ctx context.Context, ownerID, id, actor string, pinned bool) (*domain.Contact, error)
	SoftDelete(ctx context.Context, ownerID, id, actor string) (*domain.Contact, error)
	Restore(ctx context.Context, ownerID, id, actor string) (*domain.Contact, error)
	PermanentDelete(ctx context.Context, ownerID, id string) error
	EmptyTrash(ctx context.Context, ownerID string) (int, error)
	AddNote(ctx context.Context, ownerID, id, actor, text string) (domain.Note, *domain.Contact, error)
}

// Identity is the authenticated caller. UserID scopes every record and
// DisplayName is written into activity entries.
type Identity struct {
	UserID      string
	DisplayName string
}

// Authenticator is implemented by types able to resolve callers from headers.
type Authenticator interface {
	IdentityFromAuthHeader(string) (Identity, error)
}

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Services groups the collaborators Register wires into routes.
type Services struct {
	Tasks    TaskService
	Contacts ContactService
	Health   HealthChecker
	// Dedupe is optional. When set, batch creates honour Idempotency-Key.
	Dedupe Deduper
}
