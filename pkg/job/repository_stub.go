package job

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// RepositoryStub is an in-memory Repository used by service tests.
type RepositoryStub struct {
	mu    sync.RWMutex
	items map[uuid.UUID]Job

	// FailOn makes the next operation on the given job id fail, to exercise
	// partial-failure counting in the reconciler apply phase.
	FailOn map[uuid.UUID]error
	// FailCreateFor makes CreateJob fail for a given reservation uid.
	FailCreateFor map[string]error
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{
		items:         make(map[uuid.UUID]Job),
		FailOn:        make(map[uuid.UUID]error),
		FailCreateFor: make(map[string]error),
	}
}

func (r *RepositoryStub) CreateJob(ctx context.Context, j Job) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err, ok := r.FailCreateFor[j.ReservationUID]; ok {
		return Job{}, err
	}
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	if j.Status == "" {
		j.Status = StatusOpen
	}
	r.items[j.ID] = j
	return j, nil
}

func (r *RepositoryStub) GetJob(ctx context.Context, id uuid.UUID) (Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	j, ok := r.items[id]
	if !ok {
		return Job{}, ErrJobNotFound
	}
	return j, nil
}

func (r *RepositoryStub) UpdateJob(ctx context.Context, j Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err, ok := r.FailOn[j.ID]; ok {
		return err
	}
	if _, exists := r.items[j.ID]; !exists {
		return fmt.Errorf("no job found with id %s", j.ID)
	}
	r.items[j.ID] = j
	return nil
}

func (r *RepositoryStub) DeleteJob(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err, ok := r.FailOn[id]; ok {
		return err
	}
	if _, exists := r.items[id]; !exists {
		return fmt.Errorf("no job found with id %s", id)
	}
	delete(r.items, id)
	return nil
}

func (r *RepositoryStub) FindByAddress(ctx context.Context, address string) ([]Job, error) {
	return r.filter(func(j Job) bool { return j.PropertyAddress == address }), nil
}

func (r *RepositoryStub) FindFeedOwnedByAddress(ctx context.Context, address string) ([]Job, error) {
	return r.filter(func(j Job) bool {
		return j.PropertyAddress == address && j.Provenance == ProvenanceFeed
	}), nil
}

func (r *RepositoryStub) FindByAddressAndStatus(ctx context.Context, address string, status Status) ([]Job, error) {
	return r.filter(func(j Job) bool {
		return j.PropertyAddress == address && j.Status == status
	}), nil
}

func (r *RepositoryStub) filter(keep func(Job) bool) []Job {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Job, 0, len(r.items))
	for _, j := range r.items {
		if keep(j) {
			result = append(result, j)
		}
	}
	sort.Slice(result, func(i, k int) bool {
		return result[i].ScheduledDate.Before(result[k].ScheduledDate)
	})
	return result
}

// AllJobs returns every stored job, for test assertions.
func (r *RepositoryStub) AllJobs() []Job {
	return r.filter(func(Job) bool { return true })
}

// Reset clears the stub between tests.
func (r *RepositoryStub) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = make(map[uuid.UUID]Job)
	r.FailOn = make(map[uuid.UUID]error)
	r.FailCreateFor = make(map[string]error)
}
