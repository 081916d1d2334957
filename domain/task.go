package domain

import (
	"strings"
	"time"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

type TaskType string

const (
	TaskTypeAction      TaskType = "action"
	TaskTypeFollowUp    TaskType = "follow-up"
	TaskTypeEnhancement TaskType = "enhancement"
	TaskTypeBug         TaskType = "bug"
)

func (t TaskType) valid() bool {
	switch t {
	case TaskTypeAction, TaskTypeFollowUp, TaskTypeEnhancement, TaskTypeBug:
		return true
	}
	return false
}

// Subtask is a checklist entry of a task.
type Subtask struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// Task represents a single board item extracted from a meeting.
type Task struct {
	Record
	Task       string     `json:"task"`
	Status     string     `json:"status"`
	Priority   Priority   `json:"priority"`
	Type       TaskType   `json:"type"`
	Assignee   string     `json:"assignee,omitempty"`
	DueDate    string     `json:"dueDate,omitempty"`
	Context    string     `json:"context,omitempty"`
	Source     string     `json:"source,omitempty"`
	Tags       []string   `json:"tags"`
	Subtasks   []Subtask  `json:"subtasks"`
	Order      *int       `json:"order,omitempty"`
	Archived   bool       `json:"archived"`
	ArchivedAt *time.Time `json:"archivedAt"`
	Comments   []Note     `json:"comments"`
}

// Group, Rank, SetRank, SetGroup and IsPinned make Task rankable within its column.
func (t *Task) Group() string { return t.Status }
func (t *Task) SetGroup(g string) { t.Status = g }
func (t *Task) Rank() *int { return t.Order }
func (t *Task) SetRank(order int) { t.Order = &order }
func (t *Task) IsPinned() bool { return t.Pinned }
func (t *Task) Key() string { return t.ID }
func (t *Task) visibleOnBoard() bool { return !t.Deleted && !t.Archived }

// TaskDraft carries the caller supplied fields of a new task.
type TaskDraft struct {
	Task     string    `json:"task"`
	Status   string    `json:"status,omitempty"`
	Priority Priority  `json:"priority,omitempty"`
	Type     TaskType  `json:"type,omitempty"`
	Assignee string    `json:"assignee,omitempty"`
	DueDate  string    `json:"dueDate,omitempty"`
	Context  string    `json:"context,omitempty"`
	Source   string    `json:"source,omitempty"`
	Tags     []string  `json:"tags,omitempty"`
	Subtasks []Subtask `json:"subtasks,omitempty"`
}

// TaskPatch carries a partial update. Nil fields are left untouched.
type TaskPatch struct {
	Task     *string    `json:"task,omitempty"`
	Status   *string    `json:"status,omitempty"`
	Priority *Priority  `json:"priority,omitempty"`
	Type     *TaskType  `json:"type,omitempty"`
	Assignee *string    `json:"assignee,omitempty"`
	DueDate  *string    `json:"dueDate,omitempty"`
	Context  *string    `json:"context,omitempty"`
	Source   *string    `json:"source,omitempty"`
	Tags     *[]string  `json:"tags,omitempty"`
	Subtasks *[]Subtask `json:"subtasks,omitempty"`
	Order    *int       `json:"order,omitempty"`
}

func (p TaskPatch) validate(board BoardConfig) error {
	if p.Task != nil && strings.TrimSpace(*p.Task) == "" {
		return invalid("task", "must not be empty")
	}
	if p.Priority != nil && !p.Priority.valid() {
		return invalid("priority", "unknown priority "+string(*p.Priority))
	}
	if p.Type != nil && !p.Type.valid() {
		return invalid("type", "unknown type "+string(*p.Type))
	}
	if p.Status != nil && !board.HasColumn(*p.Status) {
		return invalid("status", "unknown column "+*p.Status)
	}
	return nil
}

func (p TaskPatch) apply(t *Task, newID func() string) {
	if p.Task != nil {
		t.Task = strings.TrimSpace(*p.Task)
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Assignee != nil {
		t.Assignee = *p.Assignee
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.Context != nil {
		t.Context = *p.Context
	}
	if p.Source != nil {
		t.Source = *p.Source
	}
	if p.Tags != nil {
		t.Tags = normalizeSet(*p.Tags)
	}
	if p.Subtasks != nil {
		t.Subtasks = withSubtaskIDs(*p.Subtasks, newID)
	}
	if p.Order != nil {
		t.SetRank(*p.Order)
	}
}

func withSubtaskIDs(in []Subtask, newID func() string) []Subtask {
	out := make([]Subtask, 0, len(in))
	for _, st := range in {
		if st.ID == "" {
			st.ID = newID()
		}
		out = append(out, st)
	}
	return out
}

// normalizeSet trims values and drops blanks and duplicates, keeping first occurrence order.
func normalizeSet(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
