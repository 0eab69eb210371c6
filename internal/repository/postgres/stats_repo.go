package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/periskope/chat/internal/domain"
)

type StatsRepo struct {
	pool *pgxpool.Pool
}

func NewStatsRepo(pool *pgxpool.Pool) *StatsRepo {
	return &StatsRepo{pool: pool}
}

func (r *StatsRepo) Counts(ctx context.Context) (*domain.Stats, error) {
	query := `
		SELECT
			(SELECT count(*) FROM user_profiles),
			(SELECT count(*) FROM messages),
			(SELECT count(*) FROM contacts)`
	var s domain.Stats
	if err := r.pool.QueryRow(ctx, query).Scan(&s.Users, &s.Messages, &s.Contacts); err != nil {
		return nil, err
	}
	return &s, nil
}
