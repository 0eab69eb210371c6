package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/periskope/chat/internal/domain"
)

type ContactRepo struct {
	pool *pgxpool.Pool
}

func NewContactRepo(pool *pgxpool.Pool) *ContactRepo {
	return &ContactRepo{pool: pool}
}

func (r *ContactRepo) Create(ctx context.Context, c *domain.Contact) error {
	query := `
		INSERT INTO contacts (id, user_id, phone, contact_name, contact_number, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.pool.Exec(ctx, query,
		c.ID, c.UserID, c.OwnerPhone, c.ContactName, c.ContactNumber, c.CreatedAt,
	)
	return err
}

func (r *ContactRepo) ListByOwnerPhone(ctx context.Context, phone string) ([]domain.Contact, error) {
	query := `
		SELECT id, user_id, phone, contact_name, contact_number, created_at
		FROM contacts
		WHERE phone = $1
		ORDER BY lower(contact_name), contact_number`

	rows, err := r.pool.Query(ctx, query, phone)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []domain.Contact
	for rows.Next() {
		var c domain.Contact
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.OwnerPhone, &c.ContactName, &c.ContactNumber, &c.CreatedAt,
		); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}
