package job

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReconcilerMayDelete(t *testing.T) {
	testCases := []struct {
		name      string
		status    Status
		cleanerId string
		expect    bool
	}{
		{"open and unclaimed", StatusOpen, "", true},
		{"assigned without cleaner", StatusAssigned, "", true},
		{"open but claimed", StatusOpen, "cleaner-7", false},
		{"assigned with cleaner", StatusAssigned, "cleaner-7", false},
		{"in progress", StatusInProgress, "cleaner-7", false},
		{"in progress without cleaner", StatusInProgress, "", false},
		{"completed", StatusCompleted, "cleaner-7", false},
		{"cancelled", StatusCancelled, "", false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			j := Job{Status: tc.status, CleanerID: tc.cleanerId}
			assert.Equal(t, tc.expect, j.ReconcilerMayDelete())
		})
	}
}

func TestInferProvenance_AgreesWithExplicitTag(t *testing.T) {
	fromFeed := Job{Provenance: ProvenanceFeed, ReservationUID: "evt-1@example.com"}
	manual := Job{Provenance: ProvenanceManual}

	assert.Equal(t, fromFeed.Provenance, InferProvenance(fromFeed))
	assert.Equal(t, manual.Provenance, InferProvenance(manual))
}

func TestSameFeedFields(t *testing.T) {
	base := Job{
		ScheduledDate:      time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC),
		GuestName:          "A. Smith",
		GuestPhoneLastFour: "1234",
		ReservationURL:     "https://www.example.com/r/1",
	}

	t.Run("identical feed fields match", func(t *testing.T) {
		other := base
		other.Status = StatusCompleted
		other.CleanerID = "cleaner-7"
		assert.True(t, base.SameFeedFields(other))
	})

	t.Run("same calendar day in another zone matches", func(t *testing.T) {
		other := base
		other.ScheduledDate = time.Date(2024, 6, 5, 9, 30, 0, 0, time.UTC)
		assert.True(t, base.SameFeedFields(other))
	})

	t.Run("different date differs", func(t *testing.T) {
		other := base
		other.ScheduledDate = base.ScheduledDate.AddDate(0, 0, 1)
		assert.False(t, base.SameFeedFields(other))
	})

	t.Run("different guest differs", func(t *testing.T) {
		other := base
		other.GuestName = "B. Jones"
		assert.False(t, base.SameFeedFields(other))
	})

	t.Run("different phone differs", func(t *testing.T) {
		other := base
		other.GuestPhoneLastFour = "9999"
		assert.False(t, base.SameFeedFields(other))
	})
}

func TestFeedOwnedAndClaimed(t *testing.T) {
	assert.True(t, Job{Provenance: ProvenanceFeed}.FeedOwned())
	assert.False(t, Job{Provenance: ProvenanceManual}.FeedOwned())
	assert.True(t, Job{CleanerID: "cleaner-7"}.Claimed())
	assert.False(t, Job{}.Claimed())
}
