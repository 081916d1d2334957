package domain

import "time"

// ActivityType classifies an audit entry.
type ActivityType string

const (
	ActivityCreate  ActivityType = "create"
	ActivityUpdate  ActivityType = "update"
	ActivityComment ActivityType = "comment"
	ActivityNote    ActivityType = "note"
	ActivityDelete  ActivityType = "delete"
	ActivityRestore ActivityType = "restore"
)

// MaxActivity is the number of activity entries retained per entity.
const MaxActivity = 50

// Activity is one immutable audit record describing a single change.
type Activity struct {
	ID        string       `json:"id"`
	Type      ActivityType `json:"type"`
	Field     string       `json:"field"`
	OldValue  string       `json:"oldValue"`
	NewValue  string       `json:"newValue"`
	User      string       `json:"user"`
	Timestamp time.Time    `json:"timestamp"`
}

// Note is a free-text annotation. Tasks call them comments, contacts notes.
type Note struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	User      string    `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
}

// ActivityEvent describes entries appended to one entity by a committed write.
type ActivityEvent struct {
	EntityType string     `json:"entityType"`
	EntityID   string     `json:"entityId"`
	OwnerID    string     `json:"ownerId"`
	Entries    []Activity `json:"entries"`
}
