package ws

import (
	"encoding/json"
	"time"
)

// Event types - Client → Server
const (
	EventTypeSubscribe   = "subscribe"
	EventTypeUnsubscribe = "unsubscribe"
	EventTypePing        = "ping"
)

// Event types - Server → Client
const (
	EventTypeSubscribed = "subscribed"
	EventTypeChange     = "postgres_changes"
	EventTypePong       = "pong"
	EventTypeError      = "error"
)

// Change kinds carried by EventTypeChange. Only inserts are published.
const (
	ChangeInsert = "INSERT"
	ChangeAll    = "*"
)

// TableMessages is the only table clients may subscribe to.
const TableMessages = "messages"

// Event is the base envelope for all WebSocket messages.
type Event struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"ts,omitempty"`
}

// --- Client → Server payloads ---

type SubscribePayload struct {
	Table string `json:"table"`
	Event string `json:"event"`
}

// --- Server → Client payloads ---

type ChangePayload struct {
	Table  string          `json:"table"`
	Event  string          `json:"event"`
	Record json.RawMessage `json:"record"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewEvent creates a server→client event with the current timestamp.
func NewEvent(eventType string, payload any) (*Event, error) {
	evt := &Event{
		Type:      eventType,
		Timestamp: time.Now().Unix(),
	}
	if payload == nil {
		return evt, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	evt.Payload = data
	return evt, nil
}
