package client

import (
	"slices"
	"sync"

	"github.com/austinstudio/meeting-actions-sub000/domain"
)

// Board is the client side copy of one owner's tasks. Local edits are applied
// here first and replaced once the server answers.
type Board struct {
	mu    sync.Mutex
	tasks []*domain.Task
}

func NewBoard(tasks []*domain.Task) *Board {
	b := &Board{}
	b.Replace(tasks)
	return b
}

// Replace swaps the whole local set, typically after a refetch.
func (b *Board) Replace(tasks []*domain.Task) {
	copies := make([]*domain.Task, 0, len(tasks))
	for _, t := range tasks {
		copies = append(copies, cloneTask(t))
	}
	b.mu.Lock()
	b.tasks = copies
	b.mu.Unlock()
}

// Reconcile replaces the local copy of canonical by the server version. A
// task the board has not seen yet is added.
func (b *Board) Reconcile(canonical *domain.Task) {
	if canonical == nil {
		return
	}
	c := cloneTask(canonical)
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, t := range b.tasks {
		if t.ID == c.ID {
			b.tasks[i] = c
			return
		}
	}
	b.tasks = append(b.tasks, c)
}

// Task returns a copy of one task.
func (b *Board) Task(id string) (*domain.Task, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range b.tasks {
		if t.ID == id {
			return cloneTask(t), true
		}
	}
	return nil, false
}

// Column returns copies of the visible tasks of one column in display order.
func (b *Board) Column(column string) []*domain.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []*domain.Task
	for _, t := range b.tasks {
		if onColumn(t, column) {
			out = append(out, cloneTask(t))
		}
	}
	domain.SortForDisplay(out)
	return out
}

// ApplyMove performs the optimistic move of id to index within column using
// the same rules as the server. It returns the moved task and the order
// updates for every other member of the target column.
func (b *Board) ApplyMove(id, column string, index int) (*domain.Task, []domain.OrderUpdate, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := slices.IndexFunc(b.tasks, func(t *domain.Task) bool { return t.ID == id })
	if i < 0 {
		return nil, nil, domain.ErrNotFound
	}
	moving := b.tasks[i]
	var members []*domain.Task
	for _, t := range b.tasks {
		if t.ID != id && onColumn(t, column) {
			members = append(members, t)
		}
	}
	group := domain.Move(moving, members, column, index)

	siblings := make([]domain.OrderUpdate, 0, len(group)-1)
	for _, t := range group {
		if t.ID == id {
			continue
		}
		order := *t.Order
		siblings = append(siblings, domain.OrderUpdate{ID: t.ID, Order: &order})
	}
	return cloneTask(moving), siblings, nil
}

func onColumn(t *domain.Task, column string) bool {
	return t.Status == column && !t.Deleted && !t.Archived
}

func cloneTask(t *domain.Task) *domain.Task {
	c := *t
	if t.Order != nil {
		order := *t.Order
		c.Order = &order
	}
	c.Tags = slices.Clone(t.Tags)
	c.Subtasks = slices.Clone(t.Subtasks)
	c.Comments = slices.Clone(t.Comments)
	c.Activity = slices.Clone(t.Activity)
	return &c
}
