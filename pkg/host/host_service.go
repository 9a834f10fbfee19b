package host

import (
	"context"
	"fmt"
)

type Service interface {
	GetCurrentHost(ctx context.Context) (Host, error)
	CreateHost(ctx context.Context, h Host) (Host, error)
	GetHostByUid(ctx context.Context, uid string) (Host, error)
	UpdateHost(ctx context.Context, h Host) (Host, error)
}

type ServiceImpl struct {
	repo Repo
}

func NewHostService(repo Repo) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

func (s *ServiceImpl) GetCurrentHost(ctx context.Context) (Host, error) {
	hostId, err := CurrentId(ctx)
	if err != nil {
		return Host{}, fmt.Errorf("failed to get current host: %w", err)
	}
	return s.repo.GetHost(ctx, hostId)
}

func (s *ServiceImpl) CreateHost(ctx context.Context, h Host) (Host, error) {
	id, err := s.repo.CreateHost(ctx, h)
	if err != nil {
		return Host{}, err
	}
	h.Id = id
	return h, nil
}

func (s *ServiceImpl) GetHostByUid(ctx context.Context, uid string) (Host, error) {
	return s.repo.GetHostByUid(ctx, uid)
}

func (s *ServiceImpl) UpdateHost(ctx context.Context, h Host) (Host, error) {
	hostId, err := CurrentId(ctx)
	if err != nil {
		return Host{}, fmt.Errorf("failed to get current host: %w", err)
	}
	return s.repo.UpdateHost(ctx, hostId, h)
}
