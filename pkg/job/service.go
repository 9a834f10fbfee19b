package job

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tidyhost/tidyhost/internal/event_bus"
)

var (
	ErrInvalidTransition = errors.New("invalid job status transition")
	ErrJobNotOpen        = errors.New("job is not open")
)

type Service interface {
	CreateManualJob(ctx context.Context, j Job) (Job, error)
	GetJob(ctx context.Context, id uuid.UUID) (Job, error)
	ListByAddress(ctx context.Context, address string) ([]Job, error)
	ListByAddressAndStatus(ctx context.Context, address string, status Status) ([]Job, error)
	AssignCleaner(ctx context.Context, id uuid.UUID, cleanerUid string) (Job, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, to Status) (Job, error)
}

type ServiceImpl struct {
	repo Repository
	bus  *event_bus.EventBus
}

func NewService(repo Repository, bus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{repo: repo, bus: bus}
}

// CreateManualJob stores a host-created job. Provenance is always manual here;
// feed-derived jobs only ever enter through reconciliation.
func (s *ServiceImpl) CreateManualJob(ctx context.Context, j Job) (Job, error) {
	j.Provenance = ProvenanceManual
	j.ReservationUID = ""
	if j.Status == "" {
		j.Status = StatusOpen
	}
	created, err := s.repo.CreateJob(ctx, j)
	if err != nil {
		return Job{}, fmt.Errorf("failed to store job: %w", err)
	}
	_ = s.bus.Publish(event_bus.NewEvent(ctx, event_bus.CleaningJobCreatedEvent, event_bus.CleaningJobCreated{
		JobID:         created.ID,
		Address:       created.PropertyAddress,
		ScheduledDate: created.ScheduledDate,
	}))
	return created, nil
}

func (s *ServiceImpl) GetJob(ctx context.Context, id uuid.UUID) (Job, error) {
	return s.repo.GetJob(ctx, id)
}

func (s *ServiceImpl) ListByAddress(ctx context.Context, address string) ([]Job, error) {
	return s.repo.FindByAddress(ctx, address)
}

func (s *ServiceImpl) ListByAddressAndStatus(ctx context.Context, address string, status Status) ([]Job, error) {
	return s.repo.FindByAddressAndStatus(ctx, address, status)
}

func (s *ServiceImpl) AssignCleaner(ctx context.Context, id uuid.UUID, cleanerUid string) (Job, error) {
	j, err := s.repo.GetJob(ctx, id)
	if err != nil {
		return Job{}, err
	}
	if j.Status != StatusOpen {
		return Job{}, ErrJobNotOpen
	}
	j.CleanerID = cleanerUid
	j.Status = StatusAssigned
	if err := s.repo.UpdateJob(ctx, j); err != nil {
		return Job{}, fmt.Errorf("failed to assign cleaner: %w", err)
	}
	return j, nil
}

var allowedTransitions = map[Status][]Status{
	StatusOpen:       {StatusAssigned, StatusCancelled},
	StatusAssigned:   {StatusInProgress, StatusOpen, StatusCancelled},
	StatusInProgress: {StatusCompleted},
}

func (s *ServiceImpl) TransitionStatus(ctx context.Context, id uuid.UUID, to Status) (Job, error) {
	j, err := s.repo.GetJob(ctx, id)
	if err != nil {
		return Job{}, err
	}
	allowed := false
	for _, next := range allowedTransitions[j.Status] {
		if next == to {
			allowed = true
			break
		}
	}
	if !allowed {
		return Job{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.Status, to)
	}
	j.Status = to
	if to == StatusOpen {
		// Un-assigning releases the cleaner.
		j.CleanerID = ""
	}
	if err := s.repo.UpdateJob(ctx, j); err != nil {
		return Job{}, fmt.Errorf("failed to update job status: %w", err)
	}
	return j, nil
}
