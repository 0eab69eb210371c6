package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/periskope/chat/internal/domain"
)

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

// Create inserts msg and fills in the timestamp assigned by the database.
func (r *MessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	id, err := uuid.Parse(msg.ID)
	if err != nil {
		return fmt.Errorf("message id: %w", err)
	}
	query := `
		INSERT INTO messages (id, sender, recipient, content)
		VALUES ($1, $2, $3, $4)
		RETURNING timestamp`
	return r.pool.QueryRow(ctx, query, id, msg.Sender, msg.Recipient, msg.Content).Scan(&msg.Timestamp)
}

func (r *MessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	query := `
		SELECT id::text, sender, recipient, content, timestamp
		FROM messages
		WHERE id = $1`
	var msg domain.Message
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&msg.ID, &msg.Sender, &msg.Recipient, &msg.Content, &msg.Timestamp,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &msg, err
}

// ListConversation returns every message exchanged between a and b, oldest first.
func (r *MessageRepo) ListConversation(ctx context.Context, a, b string) ([]domain.Message, error) {
	query := `
		SELECT id::text, sender, recipient, content, timestamp
		FROM messages
		WHERE (sender = $1 AND recipient = $2) OR (sender = $2 AND recipient = $1)
		ORDER BY timestamp ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, a, b)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID, &msg.Sender, &msg.Recipient, &msg.Content, &msg.Timestamp,
		); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
