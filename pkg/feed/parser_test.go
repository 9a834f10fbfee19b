package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAddress = "12 Ocean Ave, Santa Monica, CA"

const airbnbFeed = "BEGIN:VCALENDAR\r\n" +
	"PRODID:-//Airbnb Inc//Hosting Calendar 1.0//EN\r\n" +
	"VERSION:2.0\r\n" +
	"BEGIN:VEVENT\r\n" +
	"DTSTAMP:20240520T000000Z\r\n" +
	"DTSTART;VALUE=DATE:20240601\r\n" +
	"DTEND;VALUE=DATE:20240605\r\n" +
	"UID:evt-1@example.com\r\n" +
	"SUMMARY:A. Smith\r\n" +
	"DESCRIPTION:Reservation URL: https://www.example.com/reservations/details/H\r\n" +
	" MABC123\\nPhone Number (Last 4 Digits): 1234\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"DTSTAMP:20240520T000000Z\r\n" +
	"DTSTART;VALUE=DATE:20240710\r\n" +
	"DTEND;VALUE=DATE:20240715\r\n" +
	"UID:evt-2@example.com\r\n" +
	"SUMMARY:Reserved\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestParse_AirbnbStyleFeed(t *testing.T) {
	// when
	reservations, warnings, err := Parse(testAddress, airbnbFeed)

	// then
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, reservations, 2)

	first := reservations[0]
	assert.Equal(t, "evt-1@example.com", first.UID)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), first.Start)
	assert.Equal(t, time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC), first.End)
	assert.Equal(t, "A. Smith", first.GuestName)
	assert.Equal(t, "1234", first.PhoneLastFour)
	assert.Contains(t, first.ReservationURL, "https://www.example.com/reservations/details/")

	second := reservations[1]
	assert.Equal(t, "evt-2@example.com", second.UID)
	assert.Equal(t, "Reserved", second.GuestName)
	assert.Empty(t, second.PhoneLastFour)
	assert.Empty(t, second.ReservationURL)
}

func TestParse_SkipsEntriesWithoutStartDate(t *testing.T) {
	// given a feed where one entry has no DTSTART
	body := "BEGIN:VCALENDAR\r\n" +
		"VERSION:2.0\r\n" +
		"BEGIN:VEVENT\r\n" +
		"UID:broken@example.com\r\n" +
		"SUMMARY:No dates here\r\n" +
		"END:VEVENT\r\n" +
		"BEGIN:VEVENT\r\n" +
		"DTSTART;VALUE=DATE:20240601\r\n" +
		"DTEND;VALUE=DATE:20240603\r\n" +
		"UID:good@example.com\r\n" +
		"SUMMARY:Fine\r\n" +
		"END:VEVENT\r\n" +
		"END:VCALENDAR\r\n"

	// when
	reservations, warnings, err := Parse(testAddress, body)

	// then the malformed entry is dropped, not fatal
	require.NoError(t, err)
	require.Len(t, reservations, 1)
	assert.Equal(t, "good@example.com", reservations[0].UID)
	require.Len(t, warnings, 1)
	assert.Equal(t, "broken@example.com", warnings[0].UID)
}

func TestParse_SynthesizesDeterministicUID(t *testing.T) {
	// given a feed entry without a UID
	body := "BEGIN:VCALENDAR\r\n" +
		"VERSION:2.0\r\n" +
		"BEGIN:VEVENT\r\n" +
		"DTSTART;VALUE=DATE:20240601\r\n" +
		"DTEND;VALUE=DATE:20240605\r\n" +
		"SUMMARY:Guest\r\n" +
		"END:VEVENT\r\n" +
		"END:VCALENDAR\r\n"

	// when parsing the same text twice
	firstPass, _, err := Parse(testAddress, body)
	require.NoError(t, err)
	secondPass, _, err := Parse(testAddress, body)
	require.NoError(t, err)

	// then the synthesized identifier is stable
	require.Len(t, firstPass, 1)
	require.Len(t, secondPass, 1)
	assert.NotEmpty(t, firstPass[0].UID)
	assert.Equal(t, firstPass[0].UID, secondPass[0].UID)

	// and differs for a different address
	otherAddress, _, err := Parse("99 Elm St", body)
	require.NoError(t, err)
	require.Len(t, otherAddress, 1)
	assert.NotEqual(t, firstPass[0].UID, otherAddress[0].UID)
}

func TestParse_TruncatesDateTimesToDates(t *testing.T) {
	// given an export that uses full date-times
	body := "BEGIN:VCALENDAR\r\n" +
		"VERSION:2.0\r\n" +
		"BEGIN:VEVENT\r\n" +
		"DTSTART:20240601T150000Z\r\n" +
		"DTEND:20240605T110000Z\r\n" +
		"UID:evt-3@example.com\r\n" +
		"END:VEVENT\r\n" +
		"END:VCALENDAR\r\n"

	// when
	reservations, _, err := Parse(testAddress, body)

	// then times are reduced to date precision
	require.NoError(t, err)
	require.Len(t, reservations, 1)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), reservations[0].Start)
	assert.Equal(t, time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC), reservations[0].End)
}

func TestParse_MissingEndFallsBackToStart(t *testing.T) {
	body := "BEGIN:VCALENDAR\r\n" +
		"VERSION:2.0\r\n" +
		"BEGIN:VEVENT\r\n" +
		"DTSTART;VALUE=DATE:20240601\r\n" +
		"UID:evt-4@example.com\r\n" +
		"END:VEVENT\r\n" +
		"END:VCALENDAR\r\n"

	reservations, _, err := Parse(testAddress, body)

	require.NoError(t, err)
	require.Len(t, reservations, 1)
	assert.Equal(t, reservations[0].Start, reservations[0].End)
}

func TestParse_EmptyBodyIsError(t *testing.T) {
	_, _, err := Parse(testAddress, "   ")
	assert.Error(t, err)
}
