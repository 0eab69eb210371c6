package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/periskope/chat/internal/domain"
	"github.com/periskope/chat/internal/repository"
	"github.com/periskope/chat/pkg/validator"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrNoIdentity      = errors.New("profile has no phone number")
	ErrEmptyUpdate     = errors.New("nothing to update")
)

type ProfileService struct {
	profileRepo repository.ProfileRepository
}

func NewProfileService(profileRepo repository.ProfileRepository) *ProfileService {
	return &ProfileService{profileRepo: profileRepo}
}

func (s *ProfileService) Get(ctx context.Context, accountID uuid.UUID) (*domain.Profile, error) {
	p, err := s.profileRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProfileNotFound
	}
	return p, nil
}

// Update applies the set fields of update. Phone numbers are stored digits-only and must stay unique.
func (s *ProfileService) Update(ctx context.Context, accountID uuid.UUID, update domain.ProfileUpdate) (*domain.Profile, error) {
	if update.IsEmpty() {
		return nil, ErrEmptyUpdate
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		update.Name = &name
	}
	if update.Phone != nil {
		phone := validator.CleanPhone(*update.Phone)
		update.Phone = &phone

		owner, err := s.profileRepo.GetByPhone(ctx, phone)
		if err != nil {
			return nil, err
		}
		if owner != nil && owner.ID != accountID {
			return nil, ErrPhoneTaken
		}
	}

	p, err := s.profileRepo.Update(ctx, accountID, update)
	if err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}
	if p == nil {
		return nil, ErrProfileNotFound
	}
	return p, nil
}

// Identity returns the caller's current phone identity.
func (s *ProfileService) Identity(ctx context.Context, accountID uuid.UUID) (string, error) {
	p, err := s.Get(ctx, accountID)
	if err != nil {
		return "", err
	}
	if p.Phone == "" {
		return "", ErrNoIdentity
	}
	return p.Phone, nil
}
