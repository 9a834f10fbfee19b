package calsync

import (
	"github.com/tidyhost/tidyhost/pkg/job"
)

// SkippedJob is a feed-owned job reconciliation decided to leave alone, with
// the reason surfaced to the caller instead of a silent drop.
type SkippedJob struct {
	Job    job.Job
	Reason string
}

// Plan is the minimal set of store operations that converges the stored jobs
// for one address to the latest feed contents.
type Plan struct {
	Create  []job.Job
	Update  []job.Job
	Delete  []job.Job
	Skipped []SkippedJob
}

// Empty reports whether applying the plan would write anything.
func (p Plan) Empty() bool {
	return len(p.Create) == 0 && len(p.Update) == 0 && len(p.Delete) == 0
}

// Reconcile diffs the stored jobs for a property against the candidates
// mapped from the latest feed parse.
//
// Manually created jobs are never touched. Feed-owned jobs are matched to
// candidates by reservation UID: unmatched candidates become creates, matched
// pairs become updates only when a feed-owned field actually changed, and
// unmatched feed-owned jobs become deletes unless they have progressed past
// assigned or a cleaner holds them, in which case they are skipped.
//
// Running Reconcile twice over an unchanged feed yields an empty plan on the
// second run, and the result does not depend on the order of either input.
func Reconcile(stored []job.Job, candidates []job.Job) Plan {
	var plan Plan

	byReservation := make(map[string]job.Job, len(stored))
	for _, existing := range stored {
		if !existing.FeedOwned() {
			continue
		}
		if existing.ReservationUID == "" {
			// Pre-provenance data gone wrong; refuse to guess.
			plan.Skipped = append(plan.Skipped, SkippedJob{
				Job:    existing,
				Reason: "feed-owned job has no reservation id",
			})
			continue
		}
		if _, dup := byReservation[existing.ReservationUID]; dup {
			// A duplicate for a reservation we already track. Earlier sync bugs
			// produced these; clean up the extras where the guard allows.
			if existing.ReconcilerMayDelete() {
				plan.Delete = append(plan.Delete, existing)
			} else {
				plan.Skipped = append(plan.Skipped, SkippedJob{
					Job:    existing,
					Reason: "duplicate reservation job is claimed or in progress",
				})
			}
			continue
		}
		byReservation[existing.ReservationUID] = existing
	}

	seen := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		if _, dup := seen[candidate.ReservationUID]; dup {
			continue
		}
		seen[candidate.ReservationUID] = struct{}{}

		existing, ok := byReservation[candidate.ReservationUID]
		if !ok {
			plan.Create = append(plan.Create, candidate)
			continue
		}
		if existing.SameFeedFields(candidate) {
			continue
		}
		// The feed owns schedule and guest details; identifier, status and
		// cleaner assignment stay as they are.
		merged := existing
		merged.ScheduledDate = candidate.ScheduledDate
		merged.GuestName = candidate.GuestName
		merged.GuestPhoneLastFour = candidate.GuestPhoneLastFour
		merged.ReservationURL = candidate.ReservationURL
		plan.Update = append(plan.Update, merged)
	}

	for uid, existing := range byReservation {
		if _, stillListed := seen[uid]; stillListed {
			continue
		}
		if existing.ReconcilerMayDelete() {
			plan.Delete = append(plan.Delete, existing)
			continue
		}
		plan.Skipped = append(plan.Skipped, SkippedJob{
			Job:    existing,
			Reason: "reservation vanished but job is claimed or in progress",
		})
	}

	return plan
}
