package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/periskope/chat/internal/domain"
	"github.com/periskope/chat/internal/repository"
	"github.com/periskope/chat/pkg/validator"
	"golang.org/x/crypto/argon2"
)

var (
	ErrEmailTaken      = errors.New("email already taken")
	ErrPhoneTaken      = errors.New("phone number already in use")
	ErrInvalidCreds    = errors.New("invalid email or password")
	ErrAccountNotFound = errors.New("account not found")
)

type AuthService struct {
	accountRepo repository.AccountRepository
	profileRepo repository.ProfileRepository
	signups     repository.SignupStore
	jwtSecret   []byte
	tokenTTL    time.Duration
}

func NewAuthService(
	accountRepo repository.AccountRepository,
	profileRepo repository.ProfileRepository,
	signups repository.SignupStore,
	jwtSecret string,
	tokenTTL time.Duration,
) *AuthService {
	return &AuthService{
		accountRepo: accountRepo,
		profileRepo: profileRepo,
		signups:     signups,
		jwtSecret:   []byte(jwtSecret),
		tokenTTL:    tokenTTL,
	}
}

type SignupInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Session *domain.Session `json:"session"`
	Profile *domain.Profile `json:"profile,omitempty"`
}

// Signup creates the account and the profile row holding the caller's phone identity.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	phone := validator.CleanPhone(input.Phone)

	existing, err := s.accountRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	owner, err := s.profileRepo.GetByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if owner != nil {
		return nil, ErrPhoneTaken
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now()
	account := &domain.Account{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
	}
	profile := &domain.Profile{
		ID:        account.ID,
		Phone:     phone,
		UpdatedAt: now,
	}

	if err := s.signups.CreateAccountWithProfile(ctx, account, profile); err != nil {
		return nil, fmt.Errorf("creating account: %w", err)
	}

	session, err := s.newSession(account)
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	return &AuthResponse{Session: session, Profile: profile}, nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	account, err := s.accountRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrInvalidCreds
	}

	if !verifyPassword(input.Password, account.PasswordHash) {
		return nil, ErrInvalidCreds
	}

	session, err := s.newSession(account)
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	return &AuthResponse{Session: session}, nil
}

// Account returns the account behind a validated token.
func (s *AuthService) Account(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

func (s *AuthService) newSession(account *domain.Account) (*domain.Session, error) {
	now := time.Now()
	expires := now.Add(s.tokenTTL)
	claims := jwt.MapClaims{
		"sub":   account.ID.String(),
		"email": account.Email,
		"exp":   expires.Unix(),
		"iat":   now.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}
	return &domain.Session{
		AccessToken: token,
		AccountID:   account.ID,
		Email:       account.Email,
		ExpiresAt:   expires,
	}, nil
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)

	return fmt.Sprintf("%s:%s",
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

func verifyPassword(password, encoded string) bool {
	saltB64, hashB64, ok := strings.Cut(encoded, ":")
	if !ok {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(saltB64)
	if err != nil {
		return false
	}

	expectedHash, err := base64.RawStdEncoding.DecodeString(hashB64)
	if err != nil {
		return false
	}

	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return subtle.ConstantTimeCompare(hash, expectedHash) == 1
}
