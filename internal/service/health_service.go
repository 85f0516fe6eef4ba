package service

import (
	"context"
	"fmt"

	"task_manager/internal/repository"
)

type HealthService struct {
	pinger repository.Pinger
}

func NewHealthService(p repository.Pinger) *HealthService {
	return &HealthService{pinger: p}
}

// Ready reports whether the backing store answers.
func (s *HealthService) Ready(ctx context.Context) error {
	if s.pinger == nil {
		return nil
	}
	if err := s.pinger.Ping(ctx); err != nil {
		return fmt.Errorf("store not ready: %w", err)
	}
	return nil
}
