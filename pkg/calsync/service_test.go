package calsync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidyhost/tidyhost/internal/event_bus"
	"github.com/tidyhost/tidyhost/internal/utils"
	"github.com/tidyhost/tidyhost/pkg/job"
	"github.com/tidyhost/tidyhost/pkg/property"
)

const feedURL = "https://calendar.example.com/ical/abc.ics"

const twoReservationFeed = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"BEGIN:VEVENT\r\n" +
	"DTSTART;VALUE=DATE:20240601\r\n" +
	"DTEND;VALUE=DATE:20240605\r\n" +
	"UID:evt-1@example.com\r\n" +
	"SUMMARY:A. Smith\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"DTSTART;VALUE=DATE:20240610\r\n" +
	"DTEND;VALUE=DATE:20240614\r\n" +
	"UID:evt-2@example.com\r\n" +
	"SUMMARY:B. Jones\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

const emptyFeed = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nEND:VCALENDAR\r\n"

// fakeFetcher serves a fixed body or error, with an optional hook that runs
// during the fetch.
type fakeFetcher struct {
	mu      sync.Mutex
	body    string
	err     error
	onFetch func()
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (string, error) {
	f.mu.Lock()
	body, err, hook := f.body, f.err, f.onFetch
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return body, err
}

func (f *fakeFetcher) setBody(body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.body = body
}

type syncFixture struct {
	properties *property.RepositoryStub
	jobs       *job.RepositoryStub
	fetcher    *fakeFetcher
	clock      *utils.MockClock
	service    *Service
	property   property.Property
}

func newSyncFixture(t *testing.T, body string) *syncFixture {
	t.Helper()
	properties := property.NewRepositoryStub()
	jobs := job.NewRepositoryStub()
	fetcher := &fakeFetcher{body: body}
	clock := &utils.MockClock{FixedNow: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	service := NewService(properties, jobs, fetcher, event_bus.NewEventBus(), clock, 2)

	p, err := properties.CreateProperty(context.Background(), property.Property{
		HostID:      1,
		Name:        "Beach house",
		Address:     "12 Ocean Ave, Santa Monica, CA",
		CalendarURL: feedURL,
	})
	require.NoError(t, err)

	return &syncFixture{
		properties: properties,
		jobs:       jobs,
		fetcher:    fetcher,
		clock:      clock,
		service:    service,
		property:   p,
	}
}

func TestSyncProperty_CreatesJobsFromFeed(t *testing.T) {
	// given
	f := newSyncFixture(t, twoReservationFeed)

	// when
	summary, err := f.service.SyncProperty(context.Background(), f.property.ID)

	// then
	require.NoError(t, err)
	assert.True(t, summary.Success)
	assert.Equal(t, 2, summary.Created)
	assert.Equal(t, 0, summary.Updated)
	assert.Equal(t, 0, summary.Deleted)

	stored := f.jobs.AllJobs()
	require.Len(t, stored, 2)
	for _, j := range stored {
		assert.Equal(t, job.ProvenanceFeed, j.Provenance)
		assert.Equal(t, f.property.Address, j.PropertyAddress)
		assert.NotEqual(t, uuid.Nil, j.ID)
	}

	// and the sync time was recorded from the clock
	p, err := f.properties.GetProperty(context.Background(), f.property.ID)
	require.NoError(t, err)
	require.NotNil(t, p.LastSyncAt)
	assert.Equal(t, f.clock.FixedNow, *p.LastSyncAt)
}

func TestSyncProperty_SecondSyncIsNoOp(t *testing.T) {
	// given a property already synced once
	f := newSyncFixture(t, twoReservationFeed)
	_, err := f.service.SyncProperty(context.Background(), f.property.ID)
	require.NoError(t, err)
	firstState := f.jobs.AllJobs()

	// when the same feed is synced again
	summary, err := f.service.SyncProperty(context.Background(), f.property.ID)

	// then nothing changes
	require.NoError(t, err)
	assert.True(t, summary.Success)
	assert.Equal(t, 0, summary.Created)
	assert.Equal(t, 0, summary.Updated)
	assert.Equal(t, 0, summary.Deleted)
	assert.Equal(t, firstState, f.jobs.AllJobs())
}

func TestSyncProperty_RemovesVanishedReservations(t *testing.T) {
	// given a synced property whose feed then empties out
	f := newSyncFixture(t, twoReservationFeed)
	_, err := f.service.SyncProperty(context.Background(), f.property.ID)
	require.NoError(t, err)
	f.fetcher.setBody(emptyFeed)

	// when
	summary, err := f.service.SyncProperty(context.Background(), f.property.ID)

	// then the open jobs are removed
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Deleted)
	assert.Empty(t, f.jobs.AllJobs())
}

func TestSyncProperty_KeepsClaimedJobWhenReservationVanishes(t *testing.T) {
	// given a synced property where a cleaner has claimed one job
	f := newSyncFixture(t, twoReservationFeed)
	_, err := f.service.SyncProperty(context.Background(), f.property.ID)
	require.NoError(t, err)

	claimed := f.jobs.AllJobs()[0]
	claimed.Status = job.StatusAssigned
	claimed.CleanerID = "cleaner-7"
	require.NoError(t, f.jobs.UpdateJob(context.Background(), claimed))

	f.fetcher.setBody(emptyFeed)

	// when
	summary, err := f.service.SyncProperty(context.Background(), f.property.ID)

	// then the claimed job is kept and reported as skipped
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Deleted)
	require.Len(t, summary.Skipped, 1)
	assert.Equal(t, claimed.ID, summary.Skipped[0].Job.ID)

	remaining := f.jobs.AllJobs()
	require.Len(t, remaining, 1)
	assert.Equal(t, claimed.ID, remaining[0].ID)
}

func TestSyncProperty_ManualJobsSurviveSync(t *testing.T) {
	// given a manually created job at the same address
	f := newSyncFixture(t, emptyFeed)
	manual, err := f.jobs.CreateJob(context.Background(), job.Job{
		PropertyAddress: f.property.Address,
		ScheduledDate:   time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC),
		Status:          job.StatusOpen,
		Provenance:      job.ProvenanceManual,
	})
	require.NoError(t, err)

	// when the feed has no reservations
	summary, err := f.service.SyncProperty(context.Background(), f.property.ID)

	// then the manual job is untouched
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Deleted)
	remaining := f.jobs.AllJobs()
	require.Len(t, remaining, 1)
	assert.Equal(t, manual.ID, remaining[0].ID)
}

func TestSyncProperty_UnlinkedPropertyIsSuccessfulNoOp(t *testing.T) {
	f := newSyncFixture(t, twoReservationFeed)
	require.NoError(t, f.properties.UpdateCalendarURL(context.Background(), f.property.ID, ""))

	summary, err := f.service.SyncProperty(context.Background(), f.property.ID)

	require.NoError(t, err)
	assert.True(t, summary.Success)
	assert.Empty(t, f.jobs.AllJobs())
}

func TestSyncProperty_UnknownPropertyFails(t *testing.T) {
	f := newSyncFixture(t, twoReservationFeed)

	_, err := f.service.SyncProperty(context.Background(), uuid.New())

	assert.ErrorIs(t, err, property.ErrPropertyNotFound)
}

func TestSyncProperty_FetchFailureLeavesStoreUntouched(t *testing.T) {
	// given a synced property whose feed then becomes unreachable
	f := newSyncFixture(t, twoReservationFeed)
	_, err := f.service.SyncProperty(context.Background(), f.property.ID)
	require.NoError(t, err)
	before := f.jobs.AllJobs()

	f.fetcher.mu.Lock()
	f.fetcher.err = errors.New("connection refused")
	f.fetcher.mu.Unlock()

	// when
	summary, err := f.service.SyncProperty(context.Background(), f.property.ID)

	// then the sync fails without deleting anything
	require.Error(t, err)
	assert.False(t, summary.Success)
	assert.NotEmpty(t, summary.Errors)
	assert.Equal(t, before, f.jobs.AllJobs())
}

func TestSyncProperty_ConcurrentSyncIsRejected(t *testing.T) {
	// given a fetch that blocks until released
	f := newSyncFixture(t, twoReservationFeed)
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	f.fetcher.onFetch = func() {
		once.Do(func() { close(entered) })
		<-release
	}

	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		_, _ = f.service.SyncProperty(context.Background(), f.property.ID)
	}()
	<-entered

	// when a second sync starts while the first holds the guard
	summary, err := f.service.SyncProperty(context.Background(), f.property.ID)

	// then it is rejected immediately, not queued
	assert.ErrorIs(t, err, ErrSyncInProgress)
	assert.False(t, summary.Success)

	close(release)
	<-firstDone

	// and a sync after the first completes is accepted again
	f.fetcher.onFetch = nil
	_, err = f.service.SyncProperty(context.Background(), f.property.ID)
	assert.NoError(t, err)
}

func TestSyncProperty_DiscardsResultsWhenFeedURLChangesMidSync(t *testing.T) {
	// given the host swaps the feed URL while the fetch is in flight
	f := newSyncFixture(t, twoReservationFeed)
	f.fetcher.onFetch = func() {
		err := f.properties.UpdateCalendarURL(context.Background(), f.property.ID, "https://other.example.com/feed.ics")
		require.NoError(t, err)
	}

	// when
	summary, err := f.service.SyncProperty(context.Background(), f.property.ID)

	// then the computed plan is thrown away and nothing is written
	require.NoError(t, err)
	assert.True(t, summary.Discarded)
	assert.Equal(t, 0, summary.Created)
	assert.Empty(t, f.jobs.AllJobs())

	p, err := f.properties.GetProperty(context.Background(), f.property.ID)
	require.NoError(t, err)
	assert.Nil(t, p.LastSyncAt)
}

func TestSyncProperty_CountsPartialApplyFailures(t *testing.T) {
	// given one of the two creates is doomed to fail
	f := newSyncFixture(t, twoReservationFeed)
	f.jobs.FailCreateFor["evt-1@example.com"] = errors.New("insert failed")

	// when
	summary, err := f.service.SyncProperty(context.Background(), f.property.ID)

	// then the batch is not aborted; the failure is counted
	require.NoError(t, err)
	assert.False(t, summary.Success)
	assert.Equal(t, 1, summary.Created)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.ErrorText(), "evt-1@example.com")
	assert.Len(t, f.jobs.AllJobs(), 1)
}

func TestSyncProperty_PublishesCompletionEvent(t *testing.T) {
	f := newSyncFixture(t, twoReservationFeed)

	var received event_bus.CalendarSyncCompleted
	unsub := event_bus.SubscribeTyped[event_bus.CalendarSyncCompleted](f.service.bus, event_bus.CalendarSyncCompletedEvent,
		func(e event_bus.EventT[event_bus.CalendarSyncCompleted]) error {
			received = e.Data
			return nil
		})
	defer unsub()

	_, err := f.service.SyncProperty(context.Background(), f.property.ID)

	require.NoError(t, err)
	assert.Equal(t, f.property.ID, received.PropertyID)
	assert.Equal(t, 2, received.Created)
}

func TestSyncAll_SyncsEveryLinkedPropertyOfHost(t *testing.T) {
	// given two linked properties and one without a feed
	f := newSyncFixture(t, twoReservationFeed)
	second, err := f.properties.CreateProperty(context.Background(), property.Property{
		HostID:      1,
		Name:        "City flat",
		Address:     "5 Main St, Denver, CO",
		CalendarURL: "https://calendar.example.com/ical/def.ics",
	})
	require.NoError(t, err)
	_, err = f.properties.CreateProperty(context.Background(), property.Property{
		HostID:  1,
		Name:    "Cabin",
		Address: "1 Forest Rd, Aspen, CO",
	})
	require.NoError(t, err)

	// when
	summaries, err := f.service.SyncAll(context.Background(), 1)

	// then only the linked properties are synced
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	ids := []uuid.UUID{summaries[0].PropertyID, summaries[1].PropertyID}
	assert.Contains(t, ids, f.property.ID)
	assert.Contains(t, ids, second.ID)
	assert.Len(t, f.jobs.AllJobs(), 4)
}

func TestSyncAll_ContinuesPastFailingProperty(t *testing.T) {
	// given the shared fetcher fails for every property
	f := newSyncFixture(t, twoReservationFeed)
	_, err := f.properties.CreateProperty(context.Background(), property.Property{
		HostID:      1,
		Name:        "City flat",
		Address:     "5 Main St, Denver, CO",
		CalendarURL: "https://calendar.example.com/ical/def.ics",
	})
	require.NoError(t, err)
	f.fetcher.mu.Lock()
	f.fetcher.err = errors.New("connection refused")
	f.fetcher.mu.Unlock()

	// when
	summaries, err := f.service.SyncAll(context.Background(), 1)

	// then the pass itself succeeds and every property reports its failure
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	for _, s := range summaries {
		assert.False(t, s.Success)
		assert.NotEmpty(t, s.Errors)
	}
}

func TestUnlinkFeed_DeletesAllFeedOwnedJobs(t *testing.T) {
	// given synced jobs in every state, plus a manual job
	f := newSyncFixture(t, twoReservationFeed)
	_, err := f.service.SyncProperty(context.Background(), f.property.ID)
	require.NoError(t, err)

	claimed := f.jobs.AllJobs()[0]
	claimed.Status = job.StatusInProgress
	claimed.CleanerID = "cleaner-7"
	require.NoError(t, f.jobs.UpdateJob(context.Background(), claimed))

	manual, err := f.jobs.CreateJob(context.Background(), job.Job{
		PropertyAddress: f.property.Address,
		ScheduledDate:   time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC),
		Provenance:      job.ProvenanceManual,
	})
	require.NoError(t, err)

	// when
	deleted, err := f.service.UnlinkFeed(context.Background(), f.property.Address)

	// then even the claimed feed job is removed; the manual job survives
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	remaining := f.jobs.AllJobs()
	require.Len(t, remaining, 1)
	assert.Equal(t, manual.ID, remaining[0].ID)
}

func TestUnlinkFeed_ReportsFailedDeletions(t *testing.T) {
	f := newSyncFixture(t, twoReservationFeed)
	_, err := f.service.SyncProperty(context.Background(), f.property.ID)
	require.NoError(t, err)

	doomed := f.jobs.AllJobs()[0]
	f.jobs.FailOn[doomed.ID] = errors.New("delete failed")

	deleted, err := f.service.UnlinkFeed(context.Background(), f.property.Address)

	require.Error(t, err)
	assert.Equal(t, 1, deleted)
	assert.Contains(t, err.Error(), doomed.ID.String())
}
