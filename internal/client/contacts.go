package client

import (
	"context"
	"strings"

	"github.com/periskope/chat/internal/domain"
	"github.com/periskope/chat/pkg/validator"
)

// ContactStore reads and writes the caller's address book. It keeps no cache.
type ContactStore struct {
	api *API
}

func NewContactStore(api *API) *ContactStore {
	return &ContactStore{api: api}
}

func (s *ContactStore) ListContacts(ctx context.Context, ownerIdentity string) ([]domain.Contact, error) {
	contacts, err := s.api.listContacts(ctx, ownerIdentity)
	if err != nil {
		log.Warningf("list contacts: %v", err)
		return []domain.Contact{}, &FetchError{Op: "list contacts", Err: err}
	}
	if contacts == nil {
		contacts = []domain.Contact{}
	}
	return contacts, nil
}

// AddContact validates locally first; invalid input never reaches the backend.
// Duplicate numbers are accepted.
func (s *ContactStore) AddContact(ctx context.Context, ownerIdentity, displayName, contactIdentity string) (*domain.Contact, error) {
	if errs := validator.ValidateContact(displayName, contactIdentity); errs.HasErrors() {
		field, reason := errs.First("contact_name", "contact_number")
		return nil, &ValidationError{Field: field, Reason: reason}
	}

	c, err := s.api.createContact(ctx, ownerIdentity, strings.TrimSpace(displayName), validator.CleanContactNumber(contactIdentity))
	if err != nil {
		log.Warningf("add contact: %v", err)
		return nil, &PersistenceError{Op: "add contact", Err: err}
	}
	return c, nil
}

// FilterContacts keeps contacts whose name or number contains term, ignoring case.
func FilterContacts(contacts []domain.Contact, term string) []domain.Contact {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return contacts
	}
	out := make([]domain.Contact, 0, len(contacts))
	for _, c := range contacts {
		if strings.Contains(strings.ToLower(c.ContactName), term) || strings.Contains(c.ContactNumber, term) {
			out = append(out, c)
		}
	}
	return out
}
