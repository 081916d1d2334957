package domain

import "time"

// Record carries the fields shared by every tracked board entity. It is
// embedded in Task and Contact so the JSON shape stays flat.
type Record struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"ownerId"`
	Pinned    bool       `json:"pinned"`
	PinnedAt  *time.Time `json:"pinnedAt"`
	Deleted   bool       `json:"deleted"`
	DeletedAt *time.Time `json:"deletedAt"`
	Activity  []Activity `json:"activity"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Trackable is implemented by entities whose mutations are audited.
type Trackable interface {
	Base() *Record
}

// Base returns the record itself so embedding types satisfy Trackable.
func (r *Record) Base() *Record { return r }

func (r *Record) ownedBy(ownerID string) bool {
	return r.OwnerID == ownerID
}

// Log appends entries to the activity trail. Retention is applied separately
// by Compact once a request has finished appending.
func (r *Record) Log(entries ...Activity) {
	if len(entries) == 0 {
		return
	}
	r.Activity = append(r.Activity, entries...)
}

// Compact drops the oldest activity entries so at most limit remain.
func (r *Record) Compact(limit int) {
	if limit <= 0 || len(r.Activity) <= limit {
		return
	}
	kept := make([]Activity, limit)
	copy(kept, r.Activity[len(r.Activity)-limit:])
	r.Activity = kept
}

func (r *Record) touch(now time.Time) {
	r.UpdatedAt = now
}

func timePtr(t time.Time) *time.Time {
	return &t
}
