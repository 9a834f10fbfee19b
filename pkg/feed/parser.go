package feed

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"regexp"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	log "github.com/sirupsen/logrus"
)

// ParseWarning records a feed entry that was skipped instead of aborting the
// whole parse.
type ParseWarning struct {
	UID    string
	Reason string
}

var (
	phoneLastFourRe  = regexp.MustCompile(`(?i)last\s*4\s*digits\)?\s*:?\s*([0-9]{4})`)
	reservationURLRe = regexp.MustCompile(`https?://\S+`)
)

// Parse turns raw feed text into reservations. Malformed entries are dropped
// with a warning; only an unreadable feed as a whole is an error. Output
// order carries no meaning downstream.
func Parse(propertyAddress string, body string) ([]Reservation, []ParseWarning, error) {
	if strings.TrimSpace(body) == "" {
		return nil, nil, errors.New("empty feed body")
	}

	cal, err := ical.ParseCalendar(strings.NewReader(body))
	if err != nil {
		return nil, nil, err
	}

	reservations := make([]Reservation, 0)
	warnings := make([]ParseWarning, 0)

	for _, ve := range cal.Events() {
		res, err := parseEvent(propertyAddress, ve)
		if err != nil {
			uid := ""
			if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
				uid = p.Value
			}
			log.Warnf("skipping malformed feed entry %q: %v", uid, err)
			warnings = append(warnings, ParseWarning{UID: uid, Reason: err.Error()})
			continue
		}
		reservations = append(reservations, res)
	}

	log.Debugf("parsed %d reservations (%d entries skipped)", len(reservations), len(warnings))
	return reservations, warnings, nil
}

func parseEvent(propertyAddress string, ve *ical.VEvent) (Reservation, error) {
	var res Reservation

	start, err := eventDate(ve, ical.ComponentPropertyDtStart)
	if err != nil {
		return res, errors.New("missing or unparsable start date")
	}
	res.Start = start

	end, err := eventDate(ve, ical.ComponentPropertyDtEnd)
	if err != nil {
		// Single-day entry; checkout falls on the start date.
		end = start
	}
	res.End = end

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		res.GuestName = strings.TrimSpace(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		res.Description = p.Value
		res.PhoneLastFour = extractPhoneLastFour(p.Value)
		res.ReservationURL = extractReservationURL(p.Value)
	}

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil && p.Value != "" {
		res.UID = p.Value
	} else {
		res.UID = syntheticUID(start, end, propertyAddress)
	}

	return res, nil
}

// eventDate reads a DTSTART/DTEND value at date precision. Feeds of the
// Airbnb export style use VALUE=DATE, but full date-times appear in other
// exports and are truncated to their date.
func eventDate(ve *ical.VEvent, prop ical.ComponentProperty) (time.Time, error) {
	p := ve.GetProperty(prop)
	if p == nil || strings.TrimSpace(p.Value) == "" {
		return time.Time{}, errors.New("missing date property")
	}
	t, err := parseFeedDate(p.Value)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

func parseFeedDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	if strings.Contains(v, "T") {
		return time.Parse("20060102T150405", v)
	}
	return time.Parse("20060102", v)
}

// syntheticUID derives a stable identifier for feeds that carry no UID, so
// that re-parsing the same unchanged entry always yields the same key.
func syntheticUID(start, end time.Time, propertyAddress string) string {
	sum := sha256.Sum256([]byte(start.Format("20060102") + "|" + end.Format("20060102") + "|" + propertyAddress))
	return "synthetic-" + hex.EncodeToString(sum[:8])
}

func extractPhoneLastFour(description string) string {
	if m := phoneLastFourRe.FindStringSubmatch(description); m != nil {
		return m[1]
	}
	return ""
}

func extractReservationURL(description string) string {
	return reservationURLRe.FindString(description)
}
