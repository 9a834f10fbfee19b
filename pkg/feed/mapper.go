package feed

import (
	"github.com/tidyhost/tidyhost/pkg/job"
	"github.com/tidyhost/tidyhost/pkg/property"
)

// MapToJob converts a parsed reservation into a candidate cleaning job for
// the property. The checkout (end) date is when the cleaning happens. The
// mapping is deterministic: no ID is generated here, identity is the
// reservation UID and the store assigns job IDs only on create.
func MapToJob(res Reservation, p property.Property) job.Job {
	return job.Job{
		PropertyAddress:    p.Address,
		ScheduledDate:      res.End,
		Status:             job.StatusOpen,
		Provenance:         job.ProvenanceFeed,
		ReservationUID:     res.UID,
		GuestName:          res.GuestName,
		GuestPhoneLastFour: res.PhoneLastFour,
		ReservationURL:     res.ReservationURL,
	}
}
