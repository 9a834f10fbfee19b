package property

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/tidyhost/tidyhost/pkg/host"
)

// CalendarSync is the slice of the sync engine the property service needs
// when a host links, swaps, or clears a feed URL. Implemented by pkg/calsync.
type CalendarSync interface {
	// UnlinkFeed removes every feed-owned job at the address and returns the count.
	UnlinkFeed(ctx context.Context, address string) (int, error)
	// SyncProperty runs a full sync cycle for the property.
	SyncProperty(ctx context.Context, propertyId uuid.UUID) error
}

type Service interface {
	CreateProperty(ctx context.Context, p Property) (Property, error)
	GetProperty(ctx context.Context, id uuid.UUID) (Property, error)
	ListProperties(ctx context.Context) ([]Property, error)
	UpdateProperty(ctx context.Context, p Property) (Property, error)
	DeleteProperty(ctx context.Context, id uuid.UUID) error
	SetCalendarURL(ctx context.Context, id uuid.UUID, url string) error
}

type ServiceImpl struct {
	repo     Repository
	calendar CalendarSync
}

func NewService(repo Repository, calendar CalendarSync) *ServiceImpl {
	return &ServiceImpl{repo: repo, calendar: calendar}
}

func (s *ServiceImpl) CreateProperty(ctx context.Context, p Property) (Property, error) {
	hostId, err := host.CurrentId(ctx)
	if err != nil {
		return Property{}, fmt.Errorf("failed to get current host: %w", err)
	}
	p.HostID = hostId
	created, err := s.repo.CreateProperty(ctx, p)
	if err != nil {
		return Property{}, fmt.Errorf("failed to store property: %w", err)
	}
	if created.Linked() {
		if err := s.calendar.SyncProperty(ctx, created.ID); err != nil {
			// The property exists either way; the first sync can be retried.
			log.Errorf("initial calendar sync for property %s failed: %v", created.ID, err)
		}
	}
	return created, nil
}

func (s *ServiceImpl) GetProperty(ctx context.Context, id uuid.UUID) (Property, error) {
	return s.ownedProperty(ctx, id)
}

func (s *ServiceImpl) ListProperties(ctx context.Context) ([]Property, error) {
	hostId, err := host.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current host: %w", err)
	}
	return s.repo.FindByHost(ctx, hostId)
}

func (s *ServiceImpl) UpdateProperty(ctx context.Context, p Property) (Property, error) {
	existing, err := s.ownedProperty(ctx, p.ID)
	if err != nil {
		return Property{}, err
	}
	if p.Address != existing.Address && existing.Linked() {
		// Jobs are keyed by address; feed-owned ones at the old address would
		// be orphaned, so clear them before the address changes. The URL is
		// blanked first so an in-flight sync discards instead of re-creating
		// old-address jobs behind the cleanup.
		if err := s.repo.UpdateCalendarURL(ctx, p.ID, ""); err != nil {
			return Property{}, err
		}
		if _, err := s.calendar.UnlinkFeed(ctx, existing.Address); err != nil {
			return Property{}, fmt.Errorf("failed to clean up jobs at old address: %w", err)
		}
	}
	if err := s.repo.UpdateProperty(ctx, p); err != nil {
		return Property{}, err
	}
	if p.Address != existing.Address && existing.Linked() {
		if err := s.repo.UpdateCalendarURL(ctx, p.ID, existing.CalendarURL); err != nil {
			return Property{}, err
		}
		if err := s.calendar.SyncProperty(ctx, p.ID); err != nil {
			log.Errorf("calendar re-sync for property %s failed: %v", p.ID, err)
		}
	}
	return s.repo.GetProperty(ctx, p.ID)
}

func (s *ServiceImpl) DeleteProperty(ctx context.Context, id uuid.UUID) error {
	existing, err := s.ownedProperty(ctx, id)
	if err != nil {
		return err
	}
	if existing.Linked() {
		if err := s.repo.UpdateCalendarURL(ctx, id, ""); err != nil {
			return err
		}
		if _, err := s.calendar.UnlinkFeed(ctx, existing.Address); err != nil {
			return fmt.Errorf("failed to remove feed-owned jobs: %w", err)
		}
	}
	return s.repo.DeleteProperty(ctx, id)
}

// SetCalendarURL links, replaces, or clears (url == "") a property's calendar
// feed. Replacing or clearing first blanks the stored URL, then unlinks the
// old feed to completion; only then is the new URL stored and, if present,
// synced. Blanking before the unlink makes any in-flight sync of the old feed
// fail its URL recheck and discard, so old-feed jobs cannot reappear after
// the cleanup. If the unlink fails the property is left unlinked, never
// pointing at a feed whose jobs were only partially removed.
func (s *ServiceImpl) SetCalendarURL(ctx context.Context, id uuid.UUID, url string) error {
	existing, err := s.ownedProperty(ctx, id)
	if err != nil {
		return err
	}

	if existing.Linked() && existing.CalendarURL != url {
		if err := s.repo.UpdateCalendarURL(ctx, id, ""); err != nil {
			return err
		}
		deleted, err := s.calendar.UnlinkFeed(ctx, existing.Address)
		if err != nil {
			return fmt.Errorf("failed to unlink old feed: %w", err)
		}
		log.Infof("unlinked feed for property %s, removed %d jobs", id, deleted)
	}

	if err := s.repo.UpdateCalendarURL(ctx, id, url); err != nil {
		return err
	}

	if url != "" {
		if err := s.calendar.SyncProperty(ctx, id); err != nil {
			return fmt.Errorf("failed to sync new feed: %w", err)
		}
	}
	return nil
}

func (s *ServiceImpl) ownedProperty(ctx context.Context, id uuid.UUID) (Property, error) {
	hostId, err := host.CurrentId(ctx)
	if err != nil {
		return Property{}, fmt.Errorf("failed to get current host: %w", err)
	}
	p, err := s.repo.GetProperty(ctx, id)
	if err != nil {
		return Property{}, err
	}
	if p.HostID != hostId {
		return Property{}, ErrPropertyNotFound
	}
	return p, nil
}
