package service

import (
	"context"

	"github.com/periskope/chat/internal/domain"
	"github.com/periskope/chat/internal/repository"
)

type StatsService struct {
	statsRepo repository.StatsRepository
}

func NewStatsService(statsRepo repository.StatsRepository) *StatsService {
	return &StatsService{statsRepo: statsRepo}
}

func (s *StatsService) Counts(ctx context.Context) (*domain.Stats, error) {
	return s.statsRepo.Counts(ctx)
}
