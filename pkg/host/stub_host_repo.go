package host

import (
	"context"
)

// StubHostRepo is an in-memory Repo used by service and middleware tests.
type StubHostRepo struct {
	nextId int
	data   map[int]Host
}

func NewStubHostRepo() *StubHostRepo {
	return &StubHostRepo{data: map[int]Host{}}
}

func (s *StubHostRepo) CreateHost(ctx context.Context, h Host) (int, error) {
	s.nextId++
	h.Id = s.nextId
	s.data[s.nextId] = h
	return s.nextId, nil
}

func (s *StubHostRepo) GetHost(ctx context.Context, id int) (Host, error) {
	h, ok := s.data[id]
	if !ok {
		return Host{}, ErrHostNotFound
	}
	return h, nil
}

func (s *StubHostRepo) GetHostByUid(ctx context.Context, uid string) (Host, error) {
	for _, h := range s.data {
		if h.Uid == uid {
			return h, nil
		}
	}
	return Host{}, ErrHostNotFound
}

func (s *StubHostRepo) UpdateHost(ctx context.Context, hostId int, h Host) (Host, error) {
	if _, ok := s.data[hostId]; !ok {
		return Host{}, ErrHostNotFound
	}
	h.Id = hostId
	s.data[hostId] = h
	return h, nil
}
