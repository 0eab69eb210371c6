package domain

import (
	"strings"
	"time"
)

// LocalIDPrefix marks ids generated on the client for optimistic placeholders.
const LocalIDPrefix = "local-"

type Message struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// IsLocal reports whether m is an unconfirmed placeholder.
func (m *Message) IsLocal() bool {
	return strings.HasPrefix(m.ID, LocalIDPrefix)
}

// Between reports whether m belongs to the conversation of a and b, in either direction.
func (m *Message) Between(a, b string) bool {
	return (m.Sender == a && m.Recipient == b) || (m.Sender == b && m.Recipient == a)
}
