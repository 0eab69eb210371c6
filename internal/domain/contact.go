package domain

import (
	"time"

	"github.com/google/uuid"
)

// Contact is a one-directional address book entry owned by the account whose phone is OwnerPhone.
type Contact struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	OwnerPhone    string    `json:"phone"`
	ContactName   string    `json:"contact_name"`
	ContactNumber string    `json:"contact_number"`
	CreatedAt     time.Time `json:"created_at"`
}

// Label is the name shown for the contact, falling back to the number.
func (c *Contact) Label() string {
	if c.ContactName != "" {
		return c.ContactName
	}
	return c.ContactNumber
}
