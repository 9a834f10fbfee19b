package calsync

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/tidyhost/tidyhost/internal/event_bus"
	"github.com/tidyhost/tidyhost/internal/utils"
	"github.com/tidyhost/tidyhost/pkg/feed"
	"github.com/tidyhost/tidyhost/pkg/job"
	"github.com/tidyhost/tidyhost/pkg/property"
	"golang.org/x/sync/errgroup"
)

// ErrSyncInProgress is returned when a sync for the same property is already
// running. The caller retries later; syncs are never queued.
var ErrSyncInProgress = errors.New("a sync for this property is already in progress")

// Summary is what every sync attempt resolves to; the UI renders it directly.
type Summary struct {
	PropertyID uuid.UUID
	Address    string
	Success    bool
	Created    int
	Updated    int
	Deleted    int
	Skipped    []SkippedJob
	// Discarded is set when the feed URL changed while this sync was in
	// flight and the computed plan was thrown away unapplied.
	Discarded bool
	Errors    []string
}

// ErrorText flattens the collected operation errors for display.
func (s Summary) ErrorText() string {
	if len(s.Errors) == 0 {
		return ""
	}
	text := s.Errors[0]
	for _, e := range s.Errors[1:] {
		text += "; " + e
	}
	return text
}

// FeedFetcher is the slice of pkg/feed the sync service depends on.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

type Service struct {
	properties    property.Repository
	jobs          job.Repository
	fetcher       FeedFetcher
	bus           *event_bus.EventBus
	clock         utils.Clock
	maxConcurrent int

	guard syncGuard
}

func NewService(properties property.Repository, jobs job.Repository, fetcher FeedFetcher,
	bus *event_bus.EventBus, clock utils.Clock, maxConcurrent int) *Service {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Service{
		properties:    properties,
		jobs:          jobs,
		fetcher:       fetcher,
		bus:           bus,
		clock:         clock,
		maxConcurrent: maxConcurrent,
		guard:         syncGuard{inFlight: make(map[uuid.UUID]struct{})},
	}
}

// SyncProperty runs one full cycle for a property: fetch, parse, map,
// reconcile, apply, record last-sync. A property without a feed URL is a
// successful no-op. Failures to fetch or parse abort this property's sync
// with the store untouched; failures applying individual operations are
// counted and never abort the batch.
func (s *Service) SyncProperty(ctx context.Context, propertyId uuid.UUID) (Summary, error) {
	p, err := s.properties.GetProperty(ctx, propertyId)
	if err != nil {
		return Summary{PropertyID: propertyId}, err
	}
	summary := Summary{PropertyID: propertyId, Address: p.Address}

	if !p.Linked() {
		log.Debugf("property %s has no calendar feed, sync is a no-op", propertyId)
		summary.Success = true
		return summary, nil
	}

	if !s.guard.tryAcquire(propertyId) {
		summary.Errors = append(summary.Errors, ErrSyncInProgress.Error())
		return summary, ErrSyncInProgress
	}
	defer s.guard.release(propertyId)

	feedURL := p.CalendarURL

	body, err := s.fetcher.Fetch(ctx, feedURL)
	if err != nil {
		log.Errorf("calendar fetch failed for property %s: %v", propertyId, err)
		summary.Errors = append(summary.Errors, err.Error())
		return summary, err
	}

	reservations, warnings, err := feed.Parse(p.Address, body)
	if err != nil {
		log.Errorf("calendar parse failed for property %s: %v", propertyId, err)
		summary.Errors = append(summary.Errors, err.Error())
		return summary, err
	}
	for _, w := range warnings {
		log.Warnf("property %s: skipped feed entry %q: %s", propertyId, w.UID, w.Reason)
	}

	candidates := make([]job.Job, 0, len(reservations))
	for _, res := range reservations {
		candidates = append(candidates, feed.MapToJob(res, p))
	}

	stored, err := s.jobs.FindByAddress(ctx, p.Address)
	if err != nil {
		summary.Errors = append(summary.Errors, err.Error())
		return summary, err
	}

	plan := Reconcile(stored, candidates)
	summary.Skipped = plan.Skipped

	// The host may have cleared or swapped the feed while we were fetching.
	// Results computed for a URL the property no longer has must not be
	// written.
	current, err := s.properties.GetProperty(ctx, propertyId)
	if err != nil || current.CalendarURL != feedURL {
		log.Infof("feed URL for property %s changed mid-sync, discarding results", propertyId)
		summary.Success = true
		summary.Discarded = true
		summary.Skipped = nil
		return summary, nil
	}

	s.applyPlan(ctx, plan, &summary)

	if err := s.properties.TouchLastSync(ctx, propertyId, s.clock.Now()); err != nil {
		log.Errorf("failed to record last sync for property %s: %v", propertyId, err)
	}

	summary.Success = len(summary.Errors) == 0
	_ = s.bus.Publish(event_bus.NewEvent(ctx, event_bus.CalendarSyncCompletedEvent, event_bus.CalendarSyncCompleted{
		PropertyID: propertyId,
		Address:    p.Address,
		Created:    summary.Created,
		Updated:    summary.Updated,
		Deleted:    summary.Deleted,
		Skipped:    len(summary.Skipped),
	}))

	log.Infof("calendar sync for property %s: %d created, %d updated, %d deleted, %d skipped, %d errors",
		propertyId, summary.Created, summary.Updated, summary.Deleted, len(summary.Skipped), len(summary.Errors))
	return summary, nil
}

// applyPlan attempts every operation in the plan. A failed operation is
// counted and the rest continue; nothing is rolled back.
func (s *Service) applyPlan(ctx context.Context, plan Plan, summary *Summary) {
	for _, candidate := range plan.Create {
		created, err := s.jobs.CreateJob(ctx, candidate)
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("create %s: %v", candidate.ReservationUID, err))
			continue
		}
		summary.Created++
		_ = s.bus.Publish(event_bus.NewEvent(ctx, event_bus.CleaningJobCreatedEvent, event_bus.CleaningJobCreated{
			JobID:         created.ID,
			Address:       created.PropertyAddress,
			ScheduledDate: created.ScheduledDate,
		}))
	}
	for _, updated := range plan.Update {
		if err := s.jobs.UpdateJob(ctx, updated); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("update %s: %v", updated.ID, err))
			continue
		}
		summary.Updated++
	}
	for _, doomed := range plan.Delete {
		if err := s.jobs.DeleteJob(ctx, doomed.ID); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("delete %s: %v", doomed.ID, err))
			continue
		}
		summary.Deleted++
		_ = s.bus.Publish(event_bus.NewEvent(ctx, event_bus.CleaningJobDeletedEvent, event_bus.CleaningJobDeleted{
			JobID:   doomed.ID,
			Address: doomed.PropertyAddress,
		}))
	}
}

// SyncAll syncs every linked property owned by the host, with bounded
// parallelism, continuing past individual failures.
func (s *Service) SyncAll(ctx context.Context, hostId int) ([]Summary, error) {
	properties, err := s.properties.FindByHost(ctx, hostId)
	if err != nil {
		return nil, err
	}
	return s.syncMany(ctx, properties), nil
}

// SyncAllLinked syncs every linked property across all hosts. This is the
// recurring pass the scheduler drives.
func (s *Service) SyncAllLinked(ctx context.Context) ([]Summary, error) {
	properties, err := s.properties.FindAllLinked(ctx)
	if err != nil {
		return nil, err
	}
	return s.syncMany(ctx, properties), nil
}

func (s *Service) syncMany(ctx context.Context, properties []property.Property) []Summary {
	linked := make([]property.Property, 0, len(properties))
	for _, p := range properties {
		if p.Linked() {
			linked = append(linked, p)
		}
	}

	summaries := make([]Summary, len(linked))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)
	for i, p := range linked {
		g.Go(func() error {
			summary, err := s.SyncProperty(gctx, p.ID)
			if err != nil && len(summary.Errors) == 0 {
				summary.Errors = append(summary.Errors, err.Error())
			}
			summaries[i] = summary
			// A failed property never aborts the bulk pass.
			return nil
		})
	}
	_ = g.Wait()
	return summaries
}

// UnlinkFeed deletes every feed-owned job at the address, regardless of
// status or assignment: the host severing the calendar relationship is a
// stronger signal than a reservation missing from a feed. Returns the number
// deleted; an error lists the deletions that failed.
func (s *Service) UnlinkFeed(ctx context.Context, address string) (int, error) {
	feedOwned, err := s.jobs.FindFeedOwnedByAddress(ctx, address)
	if err != nil {
		return 0, fmt.Errorf("failed to list feed-owned jobs: %w", err)
	}

	deleted := 0
	var failed []string
	for _, j := range feedOwned {
		if err := s.jobs.DeleteJob(ctx, j.ID); err != nil {
			log.Errorf("unlink: failed to delete job %s at %s: %v", j.ID, address, err)
			failed = append(failed, j.ID.String())
			continue
		}
		deleted++
		_ = s.bus.Publish(event_bus.NewEvent(ctx, event_bus.CleaningJobDeletedEvent, event_bus.CleaningJobDeleted{
			JobID:   j.ID,
			Address: j.PropertyAddress,
		}))
	}

	log.Infof("unlinked calendar feed at %s: %d jobs deleted, %d failed", address, deleted, len(failed))
	if len(failed) > 0 {
		return deleted, fmt.Errorf("failed to delete %d of %d feed-owned jobs: %v", len(failed), len(feedOwned), failed)
	}
	return deleted, nil
}

// syncGuard serializes syncs per property. Cross-property syncs are
// independent; there is no global lock.
type syncGuard struct {
	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}
}

func (g *syncGuard) tryAcquire(id uuid.UUID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inFlight[id]; busy {
		return false
	}
	g.inFlight[id] = struct{}{}
	return true
}

func (g *syncGuard) release(id uuid.UUID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inFlight, id)
}
