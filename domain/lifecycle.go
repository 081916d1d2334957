package domain

import "time"

// The flags below are independent of each other: pinning, archiving and
// soft deletion never inspect one another. Permanent deletion lives in the
// services since it removes the record from its collection.

func (r *Record) setPinned(pinned bool, now time.Time) {
	if r.Pinned == pinned {
		return
	}
	r.Pinned = pinned
	if pinned {
		r.PinnedAt = timePtr(now)
	} else {
		r.PinnedAt = nil
	}
}

func (t *Task) setArchived(archived bool, now time.Time) {
	if t.Archived == archived {
		return
	}
	t.Archived = archived
	if archived {
		t.ArchivedAt = timePtr(now)
	} else {
		t.ArchivedAt = nil
	}
}

// softDelete hides the record from every view but the trash.
func (r *Record) softDelete(a *Auditor) bool {
	if r.Deleted {
		return false
	}
	r.Deleted = true
	r.DeletedAt = timePtr(a.now)
	a.Record(ActivityDelete, "", "", "")
	return true
}

func (r *Record) restore(a *Auditor) bool {
	if !r.Deleted {
		return false
	}
	r.Deleted = false
	r.DeletedAt = nil
	a.Record(ActivityRestore, "", "", "")
	return true
}
