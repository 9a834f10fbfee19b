package calsync

import (
	"context"

	"github.com/google/uuid"
	"github.com/tidyhost/tidyhost/pkg/property"
)

// PropertyCalendarSync adapts the sync service to the narrow interface the
// property service uses when a host links, swaps, or clears a feed URL.
type PropertyCalendarSync struct {
	service *Service
}

func NewPropertyCalendarSync(service *Service) *PropertyCalendarSync {
	return &PropertyCalendarSync{service: service}
}

var _ property.CalendarSync = (*PropertyCalendarSync)(nil)

func (b *PropertyCalendarSync) UnlinkFeed(ctx context.Context, address string) (int, error) {
	return b.service.UnlinkFeed(ctx, address)
}

func (b *PropertyCalendarSync) SyncProperty(ctx context.Context, propertyId uuid.UUID) error {
	_, err := b.service.SyncProperty(ctx, propertyId)
	return err
}
