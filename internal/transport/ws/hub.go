package ws

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("ws")

// Hub manages all active WebSocket clients and fans table changes out to subscribers.
type Hub struct {
	clients map[*Client]struct{}
	count   atomic.Int64

	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastMsg
	done       chan struct{}
}

type broadcastMsg struct {
	table string
	event string
	data  []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *broadcastMsg, 256),
		done:       make(chan struct{}),
	}
}

// Run is the Hub's event loop. It returns when ctx is cancelled, after dropping every client.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return nil

		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.count.Store(int64(len(h.clients)))
			log.Debugf("account %s connected (%d total)", client.userID, len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				log.Debugf("account %s disconnected (%d total)", client.userID, len(h.clients))
			}

		case msg := <-h.broadcast:
			for client := range h.clients {
				if !client.IsSubscribed(msg.table, msg.event) {
					continue
				}
				select {
				case client.send <- msg.data:
				default:
					// Client buffer full - disconnect
					log.Warningf("account %s is not keeping up, dropping", client.userID)
					h.drop(client)
				}
			}
		}
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	h.count.Store(int64(len(h.clients)))
	close(client.send)
}

// Register adds a client. It reports false if the hub is no longer running.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// BroadcastChange sends a change event to every client subscribed to table and kind.
func (h *Hub) BroadcastChange(table, kind string, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Errorf("marshal error: %v", err)
		return
	}
	select {
	case h.broadcast <- &broadcastMsg{table: table, event: kind, data: data}:
	case <-h.done:
	}
}
