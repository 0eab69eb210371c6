package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/periskope/chat/internal/domain"
)

type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
}

type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
	GetByPhone(ctx context.Context, phone string) (*domain.Profile, error)
	Update(ctx context.Context, id uuid.UUID, update domain.ProfileUpdate) (*domain.Profile, error)
}

// SignupStore creates an account and its profile atomically.
type SignupStore interface {
	CreateAccountWithProfile(ctx context.Context, account *domain.Account, profile *domain.Profile) error
}

type ContactRepository interface {
	Create(ctx context.Context, contact *domain.Contact) error
	ListByOwnerPhone(ctx context.Context, phone string) ([]domain.Contact, error)
}

type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error)
	ListConversation(ctx context.Context, a, b string) ([]domain.Message, error)
}

type StatsRepository interface {
	Counts(ctx context.Context) (*domain.Stats, error)
}
