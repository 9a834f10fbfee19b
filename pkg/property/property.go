package property

import (
	"time"

	"github.com/google/uuid"
)

// Property is a host's listing. The postal address is the join key to
// cleaning jobs; CalendarURL, when set, is the external calendar export the
// sync engine pulls reservations from.
type Property struct {
	ID          uuid.UUID
	HostID      int
	Name        string
	Address     string
	CalendarURL string
	LastSyncAt  *time.Time
}

// Linked reports whether the property has a calendar feed configured.
func (p Property) Linked() bool {
	return p.CalendarURL != ""
}
