package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/periskope/chat/internal/domain"
)

const profileColumns = "id, name, phone, description, profile_pic_data, profile_pic_type, updated_at"

type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

func (r *ProfileRepo) Create(ctx context.Context, p *domain.Profile) error {
	query := `
		INSERT INTO user_profiles (id, name, phone, description, updated_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, query, p.ID, p.Name, p.Phone, p.Description, p.UpdatedAt)
	return err
}

func (r *ProfileRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	return r.scanProfile(ctx, "SELECT "+profileColumns+" FROM user_profiles WHERE id = $1", id)
}

func (r *ProfileRepo) GetByPhone(ctx context.Context, phone string) (*domain.Profile, error) {
	return r.scanProfile(ctx, "SELECT "+profileColumns+" FROM user_profiles WHERE phone = $1", phone)
}

// Update writes only the fields set in update and returns the stored row.
func (r *ProfileRepo) Update(ctx context.Context, id uuid.UUID, update domain.ProfileUpdate) (*domain.Profile, error) {
	sets := []string{}
	args := []any{}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Name != nil {
		add("name", *update.Name)
	}
	if update.Phone != nil {
		add("phone", *update.Phone)
	}
	if update.Description != nil {
		add("description", *update.Description)
	}
	if update.Picture != nil {
		add("profile_pic_data", update.Picture.Data)
		add("profile_pic_type", update.Picture.Type)
	}
	add("updated_at", time.Now())
	args = append(args, id)

	query := fmt.Sprintf("UPDATE user_profiles SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), profileColumns)

	return r.scanProfile(ctx, query, args...)
}

func (r *ProfileRepo) scanProfile(ctx context.Context, query string, args ...any) (*domain.Profile, error) {
	var (
		p       domain.Profile
		picData []byte
		picType *string
	)
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&p.ID, &p.Name, &p.Phone, &p.Description, &picData, &picType, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if picData != nil && picType != nil {
		p.Picture = &domain.ProfilePicture{Data: picData, Type: *picType}
	}
	return &p, nil
}
