package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/periskope/chat/internal/domain"
	"github.com/periskope/chat/internal/repository"
	"github.com/periskope/chat/pkg/validator"
)

var ErrNotContactOwner = errors.New("contacts can only be managed by their owner")

type ContactService struct {
	contactRepo repository.ContactRepository
	profiles    *ProfileService
}

func NewContactService(contactRepo repository.ContactRepository, profiles *ProfileService) *ContactService {
	return &ContactService{
		contactRepo: contactRepo,
		profiles:    profiles,
	}
}

type AddContactInput struct {
	Phone         string `json:"phone,omitempty"`
	ContactName   string `json:"contact_name"`
	ContactNumber string `json:"contact_number"`
}

// List returns the caller's contacts. ownerPhone, when given, must be the caller's identity.
func (s *ContactService) List(ctx context.Context, accountID uuid.UUID, ownerPhone string) ([]domain.Contact, error) {
	phone, err := s.ownerPhone(ctx, accountID, ownerPhone)
	if err != nil {
		return nil, err
	}

	contacts, err := s.contactRepo.ListByOwnerPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if contacts == nil {
		contacts = []domain.Contact{}
	}
	return contacts, nil
}

// Add stores a new contact. Duplicate numbers are allowed.
func (s *ContactService) Add(ctx context.Context, accountID uuid.UUID, input AddContactInput) (*domain.Contact, error) {
	phone, err := s.ownerPhone(ctx, accountID, input.Phone)
	if err != nil {
		return nil, err
	}

	c := &domain.Contact{
		ID:            uuid.New(),
		UserID:        accountID,
		OwnerPhone:    phone,
		ContactName:   strings.TrimSpace(input.ContactName),
		ContactNumber: validator.CleanContactNumber(input.ContactNumber),
		CreatedAt:     time.Now(),
	}

	if err := s.contactRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("creating contact: %w", err)
	}
	return c, nil
}

func (s *ContactService) ownerPhone(ctx context.Context, accountID uuid.UUID, claimed string) (string, error) {
	phone, err := s.profiles.Identity(ctx, accountID)
	if err != nil {
		return "", err
	}
	if claimed != "" && claimed != phone {
		return "", ErrNotContactOwner
	}
	return phone, nil
}
