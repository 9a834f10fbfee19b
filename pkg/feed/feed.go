package feed

import "time"

// Reservation is a single parsed calendar entry. Reservations are never
// stored; each parse produces them fresh and the mapper consumes them
// immediately.
type Reservation struct {
	// UID is stable across repeated fetches of the same feed. When the feed
	// itself carries no UID, one is synthesized deterministically from the
	// dates and the property address.
	UID            string
	Start          time.Time
	End            time.Time
	GuestName      string
	Description    string
	PhoneLastFour  string
	ReservationURL string
}
