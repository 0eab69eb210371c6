// Package memory implements the repository interfaces over in-process maps. It backs the
// service, handler and client tests, which need the server behaviour without a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/periskope/chat/internal/domain"
)

// Store holds every table. Message timestamps come from a clock that advances one second per
// insert, so ordering is deterministic.
type Store struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*domain.Account
	profiles map[uuid.UUID]*domain.Profile
	contacts []domain.Contact
	messages []domain.Message
	clock    time.Time
}

func New() *Store {
	return &Store{
		accounts: make(map[uuid.UUID]*domain.Account),
		profiles: make(map[uuid.UUID]*domain.Profile),
		clock:    time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

type (
	Accounts struct{ *Store }
	Profiles struct{ *Store }
	Contacts struct{ *Store }
	Messages struct{ *Store }
	Stats    struct{ *Store }
)

func (s *Store) Accounts() Accounts { return Accounts{s} }
func (s *Store) Profiles() Profiles { return Profiles{s} }
func (s *Store) Contacts() Contacts { return Contacts{s} }
func (s *Store) Messages() Messages { return Messages{s} }
func (s *Store) Stats() Stats       { return Stats{s} }

// SeedProfile adds an account whose profile carries phone and returns its id. An empty phone
// leaves the profile without an identity.
func (s *Store) SeedProfile(phone string) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.accounts[id] = &domain.Account{ID: id, Email: id.String() + "@example.com"}
	s.profiles[id] = &domain.Profile{ID: id, Phone: phone}
	return id
}

// SeedAccount adds an account with no profile row and returns its id.
func (s *Store) SeedAccount() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.accounts[id] = &domain.Account{ID: id, Email: id.String() + "@example.com"}
	return id
}

func (r Accounts) Create(_ context.Context, a *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *a
	r.accounts[a.ID] = &cp
	return nil
}

func (r Accounts) GetByID(_ context.Context, id uuid.UUID) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r Accounts) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r Accounts) CreateAccountWithProfile(ctx context.Context, a *domain.Account, p *domain.Profile) error {
	if err := r.Create(ctx, a); err != nil {
		return err
	}
	return Profiles(r).Create(ctx, p)
}

func (r Profiles) Create(_ context.Context, p *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.profiles[p.ID] = &cp
	return nil
}

func (r Profiles) GetByID(_ context.Context, id uuid.UUID) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r Profiles) GetByPhone(_ context.Context, phone string) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.Phone == phone {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r Profiles) Update(_ context.Context, id uuid.UUID, u domain.ProfileUpdate) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return nil, nil
	}
	u.Apply(p)
	cp := *p
	return &cp, nil
}

func (r Contacts) Create(_ context.Context, c *domain.Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contacts = append(r.contacts, *c)
	return nil
}

func (r Contacts) ListByOwnerPhone(_ context.Context, phone string) ([]domain.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Contact
	for _, c := range r.contacts {
		if c.OwnerPhone == phone {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r Messages) Create(_ context.Context, msg *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clock = r.clock.Add(time.Second)
	msg.Timestamp = r.clock
	r.messages = append(r.messages, *msg)
	return nil
}

func (r Messages) GetByID(_ context.Context, id uuid.UUID) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, msg := range r.messages {
		if msg.ID == id.String() {
			cp := msg
			return &cp, nil
		}
	}
	return nil, nil
}

func (r Messages) ListConversation(_ context.Context, a, b string) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Message
	for _, msg := range r.messages {
		if msg.Between(a, b) {
			out = append(out, msg)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (r Stats) Counts(_ context.Context) (*domain.Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &domain.Stats{
		Users:    int64(len(r.profiles)),
		Messages: int64(len(r.messages)),
		Contacts: int64(len(r.contacts)),
	}, nil
}
