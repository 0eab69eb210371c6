package domain

import (
	"time"

	"github.com/google/uuid"
)

// Account is the authentication record. Its ID is assigned at signup and never changes.
type Account struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile is the user-profile row keyed by the account id. Phone is the identity used to
// address messages and contacts.
type Profile struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Phone       string          `json:"phone"`
	Description string          `json:"description"`
	Picture     *ProfilePicture `json:"picture,omitempty"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type ProfilePicture struct {
	Data []byte `json:"data"`
	Type string `json:"type"`
}

// ProfileUpdate lists the fields a profile update may touch. Nil fields are left unchanged.
type ProfileUpdate struct {
	Name        *string         `json:"name,omitempty"`
	Phone       *string         `json:"phone,omitempty"`
	Description *string         `json:"description,omitempty"`
	Picture     *ProfilePicture `json:"picture,omitempty"`
}

func (u ProfileUpdate) IsEmpty() bool {
	return u.Name == nil && u.Phone == nil && u.Description == nil && u.Picture == nil
}

// Apply copies the set fields onto p.
func (u ProfileUpdate) Apply(p *Profile) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Phone != nil {
		p.Phone = *u.Phone
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Picture != nil {
		pic := *u.Picture
		p.Picture = &pic
	}
}

// Session is what the auth endpoints hand back to a client.
type Session struct {
	AccessToken string    `json:"access_token"`
	AccountID   uuid.UUID `json:"account_id"`
	Email       string    `json:"email"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type Stats struct {
	Users    int64 `json:"users"`
	Messages int64 `json:"messages"`
	Contacts int64 `json:"contacts"`
}
