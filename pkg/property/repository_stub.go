package property

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RepositoryStub is an in-memory Repository used by service tests.
type RepositoryStub struct {
	mu    sync.RWMutex
	items map[uuid.UUID]Property
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{items: make(map[uuid.UUID]Property)}
}

func (r *RepositoryStub) CreateProperty(ctx context.Context, p Property) (Property, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.items[p.ID] = p
	return p, nil
}

func (r *RepositoryStub) GetProperty(ctx context.Context, id uuid.UUID) (Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[id]
	if !ok {
		return Property{}, ErrPropertyNotFound
	}
	return p, nil
}

func (r *RepositoryStub) FindByHost(ctx context.Context, hostId int) ([]Property, error) {
	return r.filter(func(p Property) bool { return p.HostID == hostId }), nil
}

func (r *RepositoryStub) FindAllLinked(ctx context.Context) ([]Property, error) {
	return r.filter(func(p Property) bool { return p.Linked() }), nil
}

func (r *RepositoryStub) UpdateProperty(ctx context.Context, p Property) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.items[p.ID]
	if !ok {
		return ErrPropertyNotFound
	}
	existing.Name = p.Name
	existing.Address = p.Address
	r.items[p.ID] = existing
	return nil
}

func (r *RepositoryStub) UpdateCalendarURL(ctx context.Context, id uuid.UUID, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok {
		return ErrPropertyNotFound
	}
	p.CalendarURL = url
	r.items[id] = p
	return nil
}

func (r *RepositoryStub) TouchLastSync(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok {
		return ErrPropertyNotFound
	}
	p.LastSyncAt = &at
	r.items[id] = p
	return nil
}

func (r *RepositoryStub) DeleteProperty(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrPropertyNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *RepositoryStub) filter(keep func(Property) bool) []Property {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Property, 0, len(r.items))
	for _, p := range r.items {
		if keep(p) {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, k int) bool { return result[i].Name < result[k].Name })
	return result
}
