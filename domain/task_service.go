package domain

import (
	"context"
	"slices"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
)

const taskEntity = "task"

// TaskService applies board operations to the shared task collection.
type TaskService struct {
	tasks *Collection[*Task]
	opts  serviceOptions
}

func NewTaskService(tasks *Collection[*Task], opts ...Option) TaskService {
	return TaskService{tasks: tasks, opts: newServiceOptions(opts)}
}

// Board returns the column layout the service validates against.
func (s TaskService) Board() BoardConfig { return s.opts.board }

// List returns the owner's tasks for view, grouped by column in board order
// and sorted for display within each column.
func (s TaskService) List(ctx context.Context, ownerID string, view View) ([]*Task, error) {
	items, _, err := s.tasks.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*Task, 0, len(items))
	for _, t := range items {
		if !t.ownedBy(ownerID) || !inTaskView(t, view) {
			continue
		}
		out = append(out, t)
	}
	column := make(map[string]int, len(s.opts.board.Columns))
	for i, c := range s.opts.board.Columns {
		column[c.ID] = i
	}
	rank := func(status string) int {
		if i, ok := column[status]; ok {
			return i
		}
		return len(column)
	}
	sort.SliceStable(out, func(i, j int) bool {
		ci, cj := rank(out[i].Status), rank(out[j].Status)
		if ci != cj {
			return ci < cj
		}
		if out[i].Status != out[j].Status {
			return out[i].Status < out[j].Status
		}
		return displayLess(out[i], out[j])
	})
	return out, nil
}

func inTaskView(t *Task, view View) bool {
	switch view {
	case ViewTrash:
		return t.Deleted
	case ViewArchived:
		return !t.Deleted && t.Archived
	}
	return t.visibleOnBoard()
}

// Get returns the canonical task regardless of its lifecycle flags.
func (s TaskService) Get(ctx context.Context, ownerID, id string) (*Task, error) {
	return getOwned(ctx, s.tasks, ownerID, id)
}

// Create adds one task at the end of its column.
func (s TaskService) Create(ctx context.Context, ownerID, actor string, draft TaskDraft) (*Task, error) {
	created, err := s.CreateBatch(ctx, ownerID, actor, []TaskDraft{draft})
	if err != nil {
		return nil, err
	}
	return created[0], nil
}

// CreateBatch adds every draft in a single write. Nothing is written when any
// draft is invalid.
func (s TaskService) CreateBatch(ctx context.Context, ownerID, actor string, drafts []TaskDraft) ([]*Task, error) {
	if len(drafts) == 0 {
		return nil, invalid("tasks", "at least one task is required")
	}
	drafts = slices.Clone(drafts)
	for i := range drafts {
		if err := s.normalizeDraft(&drafts[i]); err != nil {
			return nil, err
		}
	}
	var created []*Task
	var activity [][]Activity
	err := s.tasks.Mutate(ctx, func(items []*Task) ([]*Task, error) {
		created = created[:0]
		activity = activity[:0]
		next := nextRanks(items, ownerID)
		for _, d := range drafts {
			a := s.opts.auditor(actor)
			t := &Task{
				Record:   Record{ID: s.opts.newID(), OwnerID: ownerID, CreatedAt: a.now},
				Task:     d.Task,
				Status:   d.Status,
				Priority: d.Priority,
				Type:     d.Type,
				Assignee: d.Assignee,
				DueDate:  d.DueDate,
				Context:  d.Context,
				Source:   d.Source,
				Tags:     normalizeSet(d.Tags),
				Subtasks: withSubtaskIDs(d.Subtasks, s.opts.newID),
				Comments: []Note{},
			}
			t.SetRank(next[t.Status])
			next[t.Status]++
			a.Record(ActivityCreate, "", "", t.Task)
			activity = append(activity, a.Commit(&t.Record))
			items = append(items, t)
			created = append(created, t)
		}
		return items, nil
	})
	if err != nil {
		log.WithError(err).WithField("owner", ownerID).Error("create tasks failed")
		return nil, err
	}
	for i, t := range created {
		s.opts.publish(ctx, taskEntity, &t.Record, activity[i])
	}
	return created, nil
}

func (s TaskService) normalizeDraft(d *TaskDraft) error {
	d.Task = strings.TrimSpace(d.Task)
	if d.Task == "" {
		return invalid("task", "must not be empty")
	}
	if d.Status == "" {
		d.Status = s.opts.board.DefaultColumn()
	}
	if !s.opts.board.HasColumn(d.Status) {
		return invalid("status", "unknown column "+d.Status)
	}
	if d.Priority == "" {
		d.Priority = PriorityMedium
	}
	if !d.Priority.valid() {
		return invalid("priority", "unknown priority "+string(d.Priority))
	}
	if d.Type == "" {
		d.Type = TaskTypeAction
	}
	if !d.Type.valid() {
		return invalid("type", "unknown type "+string(d.Type))
	}
	return nil
}

// nextRanks returns, per column, the rank one past the highest rank held by
// the owner's visible tasks.
func nextRanks(items []*Task, ownerID string) map[string]int {
	next := make(map[string]int)
	for _, t := range items {
		if !t.ownedBy(ownerID) || !t.visibleOnBoard() || t.Order == nil {
			continue
		}
		if *t.Order+1 > next[t.Status] {
			next[t.Status] = *t.Order + 1
		}
	}
	return next
}

// Update applies patch and returns the canonical task with the entries the
// update appended.
func (s TaskService) Update(ctx context.Context, ownerID, id, actor string, patch TaskPatch) (*Task, []Activity, error) {
	if err := patch.validate(s.opts.board); err != nil {
		return nil, nil, err
	}
	var appended []Activity
	t, err := mutateOne(ctx, s.tasks, ownerID, id, func(_ []*Task, t *Task) error {
		a := s.opts.auditor(actor)
		taskSchema.Track(a, t, func() { patch.apply(t, s.opts.newID) })
		appended = a.Commit(&t.Record)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	s.opts.publish(ctx, taskEntity, &t.Record, appended)
	return t, appended, nil
}

// Move places the task at index within column and renumbers that column.
// Tasks left behind in the source column keep their ranks.
func (s TaskService) Move(ctx context.Context, ownerID, id, actor, column string, index int) (*Task, error) {
	if !s.opts.board.HasColumn(column) {
		return nil, invalid("status", "unknown column "+column)
	}
	var appended []Activity
	t, err := mutateOne(ctx, s.tasks, ownerID, id, func(items []*Task, t *Task) error {
		members := groupMembers(items, ownerID, column)
		a := s.opts.auditor(actor)
		taskSchema.Track(a, t, func() { Move(t, members, column, index) })
		appended = a.Commit(&t.Record)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.opts.publish(ctx, taskEntity, &t.Record, appended)
	return t, nil
}

func groupMembers(items []*Task, ownerID, column string) []*Task {
	var members []*Task
	for _, t := range items {
		if t.ownedBy(ownerID) && t.visibleOnBoard() && t.Status == column {
			members = append(members, t)
		}
	}
	return members
}

// BulkReorder assigns explicit ranks to the owner's tasks. Unknown ids are
// skipped; the number of applied updates is returned.
func (s TaskService) BulkReorder(ctx context.Context, ownerID string, updates []OrderUpdate) (int, error) {
	applied := 0
	err := s.tasks.Mutate(ctx, func(items []*Task) ([]*Task, error) {
		owned := make([]*Task, 0, len(items))
		for _, t := range items {
			if t.ownedBy(ownerID) {
				owned = append(owned, t)
			}
		}
		applied = ApplyOrders(owned, updates)
		if applied == 0 {
			return nil, errUnchanged
		}
		return items, nil
	})
	if err != nil {
		return 0, err
	}
	if skipped := len(updates) - applied; skipped > 0 {
		log.WithFields(log.Fields{"owner": ownerID, "skipped": skipped}).Debug("bulk reorder skipped unknown tasks")
	}
	return applied, nil
}

func (s TaskService) SetPinned(ctx context.Context, ownerID, id, actor string, pinned bool) (*Task, error) {
	return s.track(ctx, ownerID, id, actor, func(a *Auditor, t *Task) error {
		t.setPinned(pinned, a.now)
		return nil
	})
}

// SetArchived archives or unarchives a task. When the board requires it, only
// tasks in a terminal column can be archived.
func (s TaskService) SetArchived(ctx context.Context, ownerID, id, actor string, archived bool) (*Task, error) {
	return s.track(ctx, ownerID, id, actor, func(a *Auditor, t *Task) error {
		if archived && !t.Archived && s.opts.board.Archive.RequireTerminalColumn && !s.opts.board.IsTerminal(t.Status) {
			return invalid("status", "only tasks in a terminal column can be archived")
		}
		t.setArchived(archived, a.now)
		return nil
	})
}

func (s TaskService) SoftDelete(ctx context.Context, ownerID, id, actor string) (*Task, error) {
	return s.commit(ctx, ownerID, id, actor, func(a *Auditor, t *Task) error {
		t.softDelete(a)
		return nil
	})
}

func (s TaskService) Restore(ctx context.Context, ownerID, id, actor string) (*Task, error) {
	return s.commit(ctx, ownerID, id, actor, func(a *Auditor, t *Task) error {
		t.restore(a)
		return nil
	})
}

// PermanentDelete removes the task whether or not it is in the trash.
func (s TaskService) PermanentDelete(ctx context.Context, ownerID, id string) error {
	return removeOwned(ctx, s.tasks, ownerID, id)
}

// EmptyTrash permanently removes every soft-deleted task of the owner.
func (s TaskService) EmptyTrash(ctx context.Context, ownerID string) (int, error) {
	return purgeDeleted(ctx, s.tasks, ownerID)
}

// AddComment appends a comment and a matching activity entry.
func (s TaskService) AddComment(ctx context.Context, ownerID, id, actor, text string) (Note, *Task, error) {
	note, err := newNote(s.opts, actor, text)
	if err != nil {
		return Note{}, nil, err
	}
	t, err := s.commit(ctx, ownerID, id, actor, func(a *Auditor, t *Task) error {
		t.Comments = append(t.Comments, note)
		a.Record(ActivityComment, "", "", note.Text)
		return nil
	})
	if err != nil {
		return Note{}, nil, err
	}
	return note, t, nil
}

// track runs fn under the task field schema so tracked changes are audited.
func (s TaskService) track(ctx context.Context, ownerID, id, actor string, fn func(*Auditor, *Task) error) (*Task, error) {
	return s.commit(ctx, ownerID, id, actor, func(a *Auditor, t *Task) error {
		var err error
		taskSchema.Track(a, t, func() { err = fn(a, t) })
		return err
	})
}

func (s TaskService) commit(ctx context.Context, ownerID, id, actor string, fn func(*Auditor, *Task) error) (*Task, error) {
	var appended []Activity
	t, err := mutateOne(ctx, s.tasks, ownerID, id, func(_ []*Task, t *Task) error {
		a := s.opts.auditor(actor)
		if err := fn(a, t); err != nil {
			return err
		}
		appended = a.Commit(&t.Record)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.opts.publish(ctx, taskEntity, &t.Record, appended)
	return t, nil
}
