package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	writeWait      = 10 * time.Second
	pingInterval   = 30 * time.Second
	maxMessageSize = 4096
	sendBufSize    = 256
)

// Client represents a single WebSocket connection. One account may hold several.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID uuid.UUID

	// subscriptions maps table → change kind filter.
	subscriptions map[string]string
	mu            sync.RWMutex

	send chan []byte
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID) *Client {
	conn.SetReadLimit(maxMessageSize)
	return &Client{
		hub:           hub,
		conn:          conn,
		userID:        userID,
		subscriptions: make(map[string]string),
		send:          make(chan []byte, sendBufSize),
	}
}

// IsSubscribed reports whether a change of kind on table should reach this client.
func (c *Client) IsSubscribed(table, kind string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	filter, ok := c.subscriptions[table]
	return ok && (filter == ChangeAll || filter == kind)
}

func (c *Client) Subscribe(table, kind string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscriptions[table] = kind
}

func (c *Client) Unsubscribe(table string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subscriptions, table)
}

// ReadPump reads client events until the connection fails or ctx ends.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		var event Event
		err := wsjson.Read(ctx, c.conn, &event)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				log.Debugf("client %s disconnected", c.userID)
			} else if ctx.Err() == nil {
				log.Infof("read error from %s: %v", c.userID, err)
			}
			return
		}

		c.handleEvent(ctx, &event)
	}
}

// WritePump writes hub broadcasts to the connection and keeps it alive with pings.
// It returns once the hub closes the send channel.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusGoingAway, "")
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			wctx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(wctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				log.Infof("write error to %s: %v", c.userID, err)
				return
			}

		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pctx)
			cancel()
			if err != nil {
				log.Infof("ping error to %s: %v", c.userID, err)
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// handleEvent routes an incoming client event.
func (c *Client) handleEvent(ctx context.Context, event *Event) {
	switch event.Type {
	case EventTypeSubscribe:
		var p SubscribePayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			c.reply(ctx, errorEvent("INVALID_PAYLOAD", "invalid subscribe payload"))
			return
		}
		if p.Table != TableMessages {
			c.reply(ctx, errorEvent("UNKNOWN_TABLE", "unknown table: "+p.Table))
			return
		}
		if p.Event == "" {
			p.Event = ChangeAll
		}
		if p.Event != ChangeInsert && p.Event != ChangeAll {
			c.reply(ctx, errorEvent("UNSUPPORTED_EVENT", "only INSERT changes are published"))
			return
		}
		c.Subscribe(p.Table, p.Event)
		log.Debugf("%s subscribed to %s %s", c.userID, p.Table, p.Event)
		evt, _ := NewEvent(EventTypeSubscribed, p)
		c.reply(ctx, evt)

	case EventTypeUnsubscribe:
		var p SubscribePayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			c.reply(ctx, errorEvent("INVALID_PAYLOAD", "invalid unsubscribe payload"))
			return
		}
		c.Unsubscribe(p.Table)

	case EventTypePing:
		evt, _ := NewEvent(EventTypePong, nil)
		c.reply(ctx, evt)

	default:
		c.reply(ctx, errorEvent("UNKNOWN_EVENT", "unknown event type: "+event.Type))
	}
}

// reply writes directly to the connection. The send channel belongs to the hub.
func (c *Client) reply(ctx context.Context, evt *Event) {
	if evt == nil {
		return
	}
	wctx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	if err := wsjson.Write(wctx, c.conn, evt); err != nil {
		log.Debugf("reply to %s failed: %v", c.userID, err)
	}
}

func errorEvent(code, message string) *Event {
	evt, _ := NewEvent(EventTypeError, ErrorPayload{Code: code, Message: message})
	return evt
}
