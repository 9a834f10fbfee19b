package event_bus

import (
	"time"

	"github.com/google/uuid"
)

const (
	CalendarSyncCompletedEvent EventType = "calendar.sync.completed"
	CleaningJobCreatedEvent    EventType = "job.created"
	CleaningJobDeletedEvent    EventType = "job.deleted"
)

// CalendarSyncCompleted is published after every finished sync of a property's
// calendar feed, whether or not anything changed. Mobile clients' live
// job-list refresh hangs off this event.
type CalendarSyncCompleted struct {
	PropertyID uuid.UUID
	Address    string
	Created    int
	Updated    int
	Deleted    int
	Skipped    int
}

type CleaningJobCreated struct {
	JobID         uuid.UUID
	Address       string
	ScheduledDate time.Time
}

type CleaningJobDeleted struct {
	JobID   uuid.UUID
	Address string
}
