package domain

import (
	"context"
	"errors"
	"testing"
)

func TestContactLifecycle(t *testing.T) {
	svc := newTestContacts(&fakeStore{})
	ctx := context.Background()

	if _, err := svc.Create(ctx, "u1", "ann", ContactDraft{Name: " "}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	c, err := svc.Create(ctx, "u1", "ann", ContactDraft{Name: "Dana Scully", Projects: []string{"x-files"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(c.Activity) != 1 || c.Activity[0].Type != ActivityCreate || c.Deleted {
		t.Fatalf("unexpected new contact %#v", c)
	}

	projects := []string{"x-files", "archive"}
	got, appended, err := svc.Update(ctx, "u1", c.ID, "ann", ContactPatch{Projects: &projects, Name: ptrString("Dana Scully")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(appended) != 1 || appended[0].Field != "projects" || appended[0].NewValue != "x-files, archive" {
		t.Fatalf("unexpected appended %#v", appended)
	}
	if len(got.Activity) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got.Activity))
	}

	note, withNote, err := svc.AddNote(ctx, "u1", c.ID, "ann", "met at the conference")
	if err != nil {
		t.Fatalf("note: %v", err)
	}
	if len(withNote.Notes) != 1 || withNote.Notes[0].ID != note.ID {
		t.Fatalf("note not stored %#v", withNote.Notes)
	}
	last := withNote.Activity[len(withNote.Activity)-1]
	if last.Type != ActivityNote || last.NewValue != "met at the conference" {
		t.Fatalf("unexpected entry %#v", last)
	}

	if _, err := svc.SoftDelete(ctx, "u2", c.ID, "eve"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for other owner, got %v", err)
	}
	if _, err := svc.SoftDelete(ctx, "u1", c.ID, "ann"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	trash, _ := svc.List(ctx, "u1", ViewTrash)
	active, _ := svc.List(ctx, "u1", ViewActive)
	if len(trash) != 1 || len(active) != 0 {
		t.Fatalf("unexpected views trash=%d active=%d", len(trash), len(active))
	}
	restored, err := svc.Restore(ctx, "u1", c.ID, "ann")
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.Deleted || restored.DeletedAt != nil {
		t.Fatalf("expected restored %#v", restored)
	}
	if err := svc.PermanentDelete(ctx, "u1", c.ID); err != nil {
		t.Fatalf("permanent delete: %v", err)
	}
	if _, err := svc.Get(ctx, "u1", c.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected contact gone, got %v", err)
	}
}

func TestContactListPinnedFirst(t *testing.T) {
	svc := newTestContacts(&fakeStore{})
	ctx := context.Background()
	var ids []string
	for _, name := range []string{"Walter", "alice", "Bob"} {
		c, err := svc.Create(ctx, "u1", "ann", ContactDraft{Name: name})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, c.ID)
	}
	if _, err := svc.SetPinned(ctx, "u1", ids[0], "ann", true); err != nil {
		t.Fatalf("pin: %v", err)
	}
	list, err := svc.List(ctx, "u1", ViewActive)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"Walter", "alice", "Bob"}
	for i, name := range want {
		if list[i].Name != name {
			t.Fatalf("position %d: got %s want %s", i, list[i].Name, name)
		}
	}
}

func TestContactEmptyTrash(t *testing.T) {
	fs := &fakeStore{}
	svc := newTestContacts(fs)
	ctx := context.Background()
	c, _ := svc.Create(ctx, "u1", "ann", ContactDraft{Name: "Kim"})
	puts := fs.putCount()
	if n, err := svc.EmptyTrash(ctx, "u1"); err != nil || n != 0 {
		t.Fatalf("expected nothing removed, got %d %v", n, err)
	}
	if fs.putCount() != puts {
		t.Fatalf("empty trash with nothing deleted was written")
	}
	if _, err := svc.SoftDelete(ctx, "u1", c.ID, "ann"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n, err := svc.EmptyTrash(ctx, "u1"); err != nil || n != 1 {
		t.Fatalf("expected 1 removed, got %d %v", n, err)
	}
}
