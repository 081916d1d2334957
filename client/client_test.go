package client

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/austinstudio/meeting-actions-sub000/api"
	"github.com/austinstudio/meeting-actions-sub000/domain"
	"github.com/austinstudio/meeting-actions-sub000/storage"
)

type staticAuth struct{}

func (staticAuth) IdentityFromAuthHeader(h string) (api.Identity, error) {
	if h != "Bearer a.b.c" {
		return api.Identity{}, errors.New("bad auth header")
	}
	return api.Identity{UserID: "user", DisplayName: "Ada"}, nil
}

func newTestAPI(t *testing.T) *Client {
	t.Helper()
	logger, _ := test.NewNullLogger()
	store := storage.NewMemory()
	tasks := domain.NewTaskService(
		domain.NewCollection[*domain.Task](store, domain.TasksCollection, domain.Versioned, 3, logger),
		domain.WithLogger(logger),
	)
	contacts := domain.NewContactService(
		domain.NewCollection[*domain.Contact](store, domain.ContactsCollection, domain.Versioned, 3, logger),
		domain.WithLogger(logger),
	)
	e := echo.New()
	api.Register(e, api.Services{Tasks: tasks, Contacts: contacts}, staticAuth{}, logger)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return New(srv.URL, "a.b.c")
}

func TestClientTaskRoundTrip(t *testing.T) {
	c := newTestAPI(t)
	ctx := context.Background()

	created, err := c.CreateTasks(ctx, []domain.TaskDraft{{Task: "draft agenda"}, {Task: "book room"}})
	if err != nil {
		t.Fatalf("create tasks: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(created))
	}

	tags := []string{"bug"}
	task, appended, err := c.UpdateTask(ctx, created[0].ID, domain.TaskPatch{Tags: &tags})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(appended) != 1 || appended[0].NewValue != "bug" {
		t.Fatalf("unexpected appended activity: %#v", appended)
	}
	if task.Activity[0].User != "Ada" {
		t.Fatalf("expected actor from token, got %q", task.Activity[0].User)
	}

	note, task, err := c.AddComment(ctx, created[0].ID, "ship it")
	if err != nil {
		t.Fatalf("comment: %v", err)
	}
	if note.Text != "ship it" || len(task.Comments) != 1 {
		t.Fatalf("unexpected comment result: %#v %#v", note, task.Comments)
	}

	if _, err := c.DeleteTask(ctx, created[1].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	trash, err := c.ListTasks(ctx, domain.ViewTrash)
	if err != nil {
		t.Fatalf("list trash: %v", err)
	}
	if len(trash) != 1 || trash[0].ID != created[1].ID {
		t.Fatalf("unexpected trash: %#v", trash)
	}
	removed, err := c.EmptyTaskTrash(ctx)
	if err != nil || removed != 1 {
		t.Fatalf("empty trash: removed=%d err=%v", removed, err)
	}
}

func TestClientMapsErrors(t *testing.T) {
	c := newTestAPI(t)
	ctx := context.Background()

	if _, err := c.GetTask(ctx, "missing"); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	_, err := c.CreateTask(ctx, domain.TaskDraft{Task: " "})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message == "" {
		t.Fatalf("expected api error with message, got %#v", err)
	}

	unauthorized := New(c.BaseURL, "")
	if _, err := unauthorized.ListTasks(ctx, ""); !errors.As(err, &apiErr) || apiErr.StatusCode != 401 {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestClientContacts(t *testing.T) {
	c := newTestAPI(t)
	ctx := context.Background()

	contact, err := c.CreateContact(ctx, domain.ContactDraft{Name: "Grace"})
	if err != nil {
		t.Fatalf("create contact: %v", err)
	}
	company := "Navy"
	if _, appended, err := c.UpdateContact(ctx, contact.ID, domain.ContactPatch{Company: &company}); err != nil || len(appended) != 1 {
		t.Fatalf("update contact: appended=%v err=%v", appended, err)
	}
	if _, contact, err = c.AddNote(ctx, contact.ID, "likes compilers"); err != nil {
		t.Fatalf("add note: %v", err)
	}
	if len(contact.Notes) != 1 {
		t.Fatalf("expected one note, got %d", len(contact.Notes))
	}
	if _, err := c.DeleteContact(ctx, contact.ID); err != nil {
		t.Fatalf("delete contact: %v", err)
	}
	if _, err := c.RestoreContact(ctx, contact.ID); err != nil {
		t.Fatalf("restore contact: %v", err)
	}
	listed, err := c.ListContacts(ctx, domain.ViewActive)
	if err != nil || len(listed) != 1 {
		t.Fatalf("list contacts: %d err=%v", len(listed), err)
	}
}

func TestClientBoardConfig(t *testing.T) {
	c := newTestAPI(t)
	board, err := c.Board(context.Background())
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	if board.DefaultColumn() != "todo" {
		t.Fatalf("unexpected default column: %q", board.DefaultColumn())
	}
}
