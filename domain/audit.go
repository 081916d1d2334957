package domain

import (
	"strconv"
	"strings"
	"time"
)

// Field describes how one tracked attribute of E is rendered for comparison
// and storage in the activity trail.
type Field[E any] struct {
	Name   string
	render func(E) string
}

// Scalar tracks a plain value compared by its string form.
func Scalar[E any](name string, get func(E) string) Field[E] {
	return Field[E]{Name: name, render: get}
}

// Flag tracks a boolean attribute.
func Flag[E any](name string, get func(E) bool) Field[E] {
	return Field[E]{Name: name, render: func(e E) string { return strconv.FormatBool(get(e)) }}
}

// List tracks a string set compared by content and stored comma joined.
func List[E any](name string, get func(E) []string) Field[E] {
	return Field[E]{Name: name, render: func(e E) string { return strings.Join(get(e), ", ") }}
}

// Count tracks only the number of items of a collection attribute.
func Count[E any](name string, get func(E) int) Field[E] {
	return Field[E]{Name: name, render: func(e E) string { return strconv.Itoa(get(e)) + " items" }}
}

// Schema is the ordered set of tracked fields of an entity type.
type Schema[E any] struct {
	fields []Field[E]
}

func NewSchema[E any](fields ...Field[E]) Schema[E] {
	return Schema[E]{fields: fields}
}

// Snapshot renders every tracked field of e.
func (s Schema[E]) Snapshot(e E) []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.render(e)
	}
	return out
}

// Track runs mutate on e and records one update entry per tracked field whose
// rendered value changed.
func (s Schema[E]) Track(a *Auditor, e E, mutate func()) {
	before := s.Snapshot(e)
	mutate()
	after := s.Snapshot(e)
	for i, f := range s.fields {
		a.RecordIfChanged(f.Name, before[i], after[i])
	}
}

// Auditor collects activity entries produced by a single request.
type Auditor struct {
	actor   string
	now     time.Time
	newID   func() string
	entries []Activity
}

func NewAuditor(actor string, now time.Time, newID func() string) *Auditor {
	return &Auditor{actor: actor, now: now, newID: newID}
}

// RecordIfChanged appends an update entry only when the values differ.
func (a *Auditor) RecordIfChanged(field, oldValue, newValue string) bool {
	if oldValue == newValue {
		return false
	}
	a.Record(ActivityUpdate, field, oldValue, newValue)
	return true
}

// Record appends an entry unconditionally.
func (a *Auditor) Record(typ ActivityType, field, oldValue, newValue string) {
	a.entries = append(a.entries, Activity{
		ID:        a.newID(),
		Type:      typ,
		Field:     field,
		OldValue:  oldValue,
		NewValue:  newValue,
		User:      a.actor,
		Timestamp: a.now,
	})
}

// Entries returns what has been recorded so far.
func (a *Auditor) Entries() []Activity {
	return a.entries
}

// Changed reports whether anything was recorded.
func (a *Auditor) Changed() bool {
	return len(a.entries) > 0
}

// Commit appends the collected entries to r, applies retention and bumps
// updatedAt when anything was recorded.
func (a *Auditor) Commit(r *Record) []Activity {
	if len(a.entries) == 0 {
		return nil
	}
	r.Log(a.entries...)
	r.Compact(MaxActivity)
	r.touch(a.now)
	return a.entries
}

var taskSchema = NewSchema(
	Scalar("task", func(t *Task) string { return t.Task }),
	Scalar("status", func(t *Task) string { return t.Status }),
	Scalar("priority", func(t *Task) string { return string(t.Priority) }),
	Scalar("type", func(t *Task) string { return string(t.Type) }),
	Scalar("assignee", func(t *Task) string { return t.Assignee }),
	Scalar("dueDate", func(t *Task) string { return t.DueDate }),
	Scalar("context", func(t *Task) string { return t.Context }),
	Scalar("source", func(t *Task) string { return t.Source }),
	List("tags", func(t *Task) []string { return t.Tags }),
	Count("subtasks", func(t *Task) int { return len(t.Subtasks) }),
	Flag("pinned", func(t *Task) bool { return t.Pinned }),
	Flag("archived", func(t *Task) bool { return t.Archived }),
)

var contactSchema = NewSchema(
	Scalar("name", func(c *Contact) string { return c.Name }),
	Scalar("email", func(c *Contact) string { return c.Email }),
	Scalar("phone", func(c *Contact) string { return c.Phone }),
	Scalar("company", func(c *Contact) string { return c.Company }),
	Scalar("role", func(c *Contact) string { return c.Role }),
	Scalar("summary", func(c *Contact) string { return c.Summary }),
	List("aliases", func(c *Contact) []string { return c.Aliases }),
	List("tags", func(c *Contact) []string { return c.Tags }),
	List("projects", func(c *Contact) []string { return c.Projects }),
	Flag("pinned", func(c *Contact) bool { return c.Pinned }),
)
