package job

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusOpen       Status = "open"
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Provenance records where a job came from. It is set explicitly at creation
// time for every job; the legacy signal-based inference only survives in
// InferProvenance for the migration backfill.
type Provenance string

const (
	ProvenanceFeed   Provenance = "feed"
	ProvenanceManual Provenance = "manual"
)

// Job is the canonical cleaning job record. One schema, one status enum,
// one cleaner reference.
type Job struct {
	ID              uuid.UUID
	PropertyAddress string
	// ScheduledDate is the checkout date; time-of-day is not meaningful.
	ScheduledDate      time.Time
	Status             Status
	Provenance         Provenance
	ReservationUID     string
	GuestName          string
	GuestPhoneLastFour string
	ReservationURL     string
	// CleanerID is the uid of the assigned cleaner, empty when unassigned.
	CleanerID string
}

// FeedOwned reports whether the job originated from a calendar feed.
func (j Job) FeedOwned() bool {
	return j.Provenance == ProvenanceFeed
}

// Claimed reports whether a cleaner has picked up or been given this job.
func (j Job) Claimed() bool {
	return j.CleanerID != ""
}

// ReconcilerMayDelete reports whether reconciliation is allowed to remove
// this job when its reservation disappears from the feed. Jobs that have
// progressed past assigned, or that any cleaner holds, stay put.
func (j Job) ReconcilerMayDelete() bool {
	if j.Claimed() {
		return false
	}
	return j.Status == StatusOpen || j.Status == StatusAssigned
}

// InferProvenance applies the historical classification rule used before
// provenance was stored explicitly: a reservation identifier only ever came
// from a calendar feed. Kept for the migration backfill and to assert the
// explicit tag agrees with it.
func InferProvenance(j Job) Provenance {
	if j.ReservationUID != "" {
		return ProvenanceFeed
	}
	return ProvenanceManual
}

// SameFeedFields reports whether the fields the calendar feed owns are equal
// between two jobs. Reconciliation uses this to decide update-vs-no-op.
func (j Job) SameFeedFields(other Job) bool {
	return sameDate(j.ScheduledDate, other.ScheduledDate) &&
		j.GuestName == other.GuestName &&
		j.GuestPhoneLastFour == other.GuestPhoneLastFour &&
		j.ReservationURL == other.ReservationURL
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
