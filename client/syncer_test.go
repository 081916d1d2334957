package client

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/austinstudio/meeting-actions-sub000/domain"
)

func ptrInt(v int) *int { return &v }

func boardTasks() []*domain.Task {
	return []*domain.Task{
		{Record: domain.Record{ID: "t0"}, Task: "t0", Status: "todo", Order: ptrInt(0)},
		{Record: domain.Record{ID: "t1"}, Task: "t1", Status: "todo", Order: ptrInt(1)},
		{Record: domain.Record{ID: "t2"}, Task: "t2", Status: "todo", Order: ptrInt(2)},
		{Record: domain.Record{ID: "d0"}, Task: "d0", Status: "done", Order: ptrInt(0)},
	}
}

func columnIDs(tasks []*domain.Task) string {
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	return strings.Join(ids, ",")
}

func TestBoardApplyMoveWithinColumn(t *testing.T) {
	b := NewBoard(boardTasks())
	moved, siblings, err := b.ApplyMove("t2", "todo", 0)
	if err != nil {
		t.Fatalf("apply move: %v", err)
	}
	if *moved.Order != 0 {
		t.Fatalf("expected moved task at 0, got %d", *moved.Order)
	}
	if got := columnIDs(b.Column("todo")); got != "t2,t0,t1" {
		t.Fatalf("unexpected column order: %s", got)
	}
	want := map[string]int{"t0": 1, "t1": 2}
	if len(siblings) != len(want) {
		t.Fatalf("unexpected siblings: %#v", siblings)
	}
	for _, u := range siblings {
		if *u.Order != want[u.ID] {
			t.Fatalf("sibling %s: got order %d want %d", u.ID, *u.Order, want[u.ID])
		}
	}
}

func TestBoardApplyMoveAcrossColumns(t *testing.T) {
	b := NewBoard(boardTasks())
	moved, siblings, err := b.ApplyMove("t1", "done", 5)
	if err != nil {
		t.Fatalf("apply move: %v", err)
	}
	if moved.Status != "done" || *moved.Order != 1 {
		t.Fatalf("expected t1 appended to done, got %s/%d", moved.Status, *moved.Order)
	}
	if len(siblings) != 1 || siblings[0].ID != "d0" {
		t.Fatalf("unexpected siblings: %#v", siblings)
	}
	if got := columnIDs(b.Column("todo")); got != "t0,t2" {
		t.Fatalf("source column should be untouched, got %s", got)
	}
	t2, _ := b.Task("t2")
	if *t2.Order != 2 {
		t.Fatalf("expected gap in source column, got %d", *t2.Order)
	}
}

func TestBoardApplyMoveUnknown(t *testing.T) {
	b := NewBoard(boardTasks())
	if _, _, err := b.ApplyMove("nope", "todo", 0); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBoardReconcileReplacesCopy(t *testing.T) {
	b := NewBoard(boardTasks())
	b.Reconcile(&domain.Task{Record: domain.Record{ID: "t0"}, Task: "renamed", Status: "todo", Order: ptrInt(0)})
	b.Reconcile(&domain.Task{Record: domain.Record{ID: "n1"}, Task: "new", Status: "done", Order: ptrInt(1)})

	if t0, _ := b.Task("t0"); t0.Task != "renamed" {
		t.Fatalf("expected canonical copy, got %q", t0.Task)
	}
	if got := columnIDs(b.Column("done")); got != "d0,n1" {
		t.Fatalf("expected unseen task appended, got %s", got)
	}
}

func TestBoardCopiesAreIndependent(t *testing.T) {
	src := boardTasks()
	b := NewBoard(src)
	*src[0].Order = 99
	got, _ := b.Task("t0")
	if *got.Order != 0 {
		t.Fatalf("board must not alias caller tasks")
	}
	*got.Order = 42
	again, _ := b.Task("t0")
	if *again.Order != 0 {
		t.Fatalf("returned copies must not alias board state")
	}
}

func TestSyncerDragAgainstServer(t *testing.T) {
	c := newTestAPI(t)
	ctx := context.Background()
	if _, err := c.CreateTasks(ctx, []domain.TaskDraft{{Task: "a"}, {Task: "b"}, {Task: "c"}}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	tasks, err := c.ListTasks(ctx, domain.ViewActive)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	board := NewBoard(tasks)
	logger, _ := test.NewNullLogger()
	s := NewSyncer(c, board, logger)

	last := tasks[2].ID
	if err := s.Drag(ctx, last, "todo", 0); err != nil {
		t.Fatalf("drag: %v", err)
	}
	s.Wait()

	server, err := c.ListTasks(ctx, domain.ViewActive)
	if err != nil {
		t.Fatalf("list after drag: %v", err)
	}
	if columnIDs(server) != columnIDs(board.Column("todo")) {
		t.Fatalf("server %s and board %s diverged", columnIDs(server), columnIDs(board.Column("todo")))
	}
	if server[0].ID != last {
		t.Fatalf("expected dragged task first, got %s", server[0].ID)
	}
	for i, task := range server {
		if *task.Order != i {
			t.Fatalf("expected contiguous orders, task %s has %d at %d", task.ID, *task.Order, i)
		}
	}
}

type flakyAPI struct {
	mu         sync.Mutex
	updateErr  error
	reorderErr error
	fresh      []*domain.Task
	updates    int
	reorders   int
	lists      int
}

func (f *flakyAPI) ListTasks(context.Context, domain.View) ([]*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	return f.fresh, nil
}

func (f *flakyAPI) UpdateTask(_ context.Context, id string, patch domain.TaskPatch) (*domain.Task, []domain.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	if f.updateErr != nil {
		return nil, nil, f.updateErr
	}
	return &domain.Task{Record: domain.Record{ID: id}, Task: "canonical", Status: *patch.Status, Order: patch.Order}, nil, nil
}

func (f *flakyAPI) ReorderTasks(context.Context, []domain.OrderUpdate) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reorders++
	if f.reorderErr != nil {
		return 0, f.reorderErr
	}
	return 0, nil
}

func TestSyncerRefetchesWhenReorderFails(t *testing.T) {
	fresh := []*domain.Task{{Record: domain.Record{ID: "t0"}, Task: "from server", Status: "todo", Order: ptrInt(0)}}
	fake := &flakyAPI{reorderErr: errors.New("timeout"), fresh: fresh}
	board := NewBoard(boardTasks())
	logger, hook := test.NewNullLogger()
	s := NewSyncer(fake, board, logger)

	if err := s.Drag(context.Background(), "t2", "todo", 0); err != nil {
		t.Fatalf("drag: %v", err)
	}
	s.Wait()

	if fake.updates != 1 || fake.reorders != 1 || fake.lists != 1 {
		t.Fatalf("unexpected calls: updates=%d reorders=%d lists=%d", fake.updates, fake.reorders, fake.lists)
	}
	if got := columnIDs(board.Column("todo")); got != "t0" {
		t.Fatalf("expected board replaced by refetch, got %s", got)
	}
	if entry := hook.LastEntry(); entry == nil || entry.Message != "sync reorder failed" {
		t.Fatalf("expected reorder failure to be logged, got %#v", entry)
	}
}

func TestSyncerSkipsReorderWhenUpdateFails(t *testing.T) {
	fake := &flakyAPI{updateErr: errors.New("offline"), fresh: boardTasks()[:1]}
	board := NewBoard(boardTasks())
	logger, _ := test.NewNullLogger()
	s := NewSyncer(fake, board, logger)

	if err := s.Drag(context.Background(), "t2", "todo", 0); err != nil {
		t.Fatalf("drag: %v", err)
	}
	s.Wait()

	if fake.reorders != 0 {
		t.Fatalf("expected no reorder after failed update, got %d", fake.reorders)
	}
	if fake.lists != 1 {
		t.Fatalf("expected one refetch, got %d", fake.lists)
	}
}

func TestSyncerReconcilesCanonicalTask(t *testing.T) {
	fake := &flakyAPI{}
	board := NewBoard(boardTasks())
	s := NewSyncer(fake, board, nil)

	if err := s.Drag(context.Background(), "t1", "done", 0); err != nil {
		t.Fatalf("drag: %v", err)
	}
	s.Wait()

	got, _ := board.Task("t1")
	if got.Task != "canonical" || got.Status != "done" {
		t.Fatalf("expected canonical copy after sync, got %#v", got)
	}
	if fake.lists != 0 {
		t.Fatalf("expected no refetch on success, got %d", fake.lists)
	}
}

type recordingAPI struct {
	flakyAPI
	pushed []int
}

func (r *recordingAPI) UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, []domain.Activity, error) {
	time.Sleep(50 * time.Microsecond)
	r.mu.Lock()
	r.pushed = append(r.pushed, *patch.Order)
	r.mu.Unlock()
	return r.flakyAPI.UpdateTask(ctx, id, patch)
}

func TestSyncerPushesDragsInOrder(t *testing.T) {
	fake := &recordingAPI{}
	board := NewBoard(boardTasks())
	logger, _ := test.NewNullLogger()
	s := NewSyncer(fake, board, logger)

	const drags = 300
	for i := 0; i < drags; i++ {
		if err := s.Drag(context.Background(), "t0", "todo", i%3); err != nil {
			t.Fatalf("drag %d: %v", i, err)
		}
	}
	s.Wait()

	if len(fake.pushed) != drags {
		t.Fatalf("expected %d pushes, got %d", drags, len(fake.pushed))
	}
	for i, order := range fake.pushed {
		if order != i%3 {
			t.Fatalf("push %d carried order %d, want %d", i, order, i%3)
		}
	}
	got, _ := board.Task("t0")
	if *got.Order != (drags-1)%3 {
		t.Fatalf("board ended at order %d, want %d", *got.Order, (drags-1)%3)
	}
}
