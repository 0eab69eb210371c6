package client

import (
	"context"
	"sort"
	"strings"

	"github.com/op/go-logging"
	"github.com/periskope/chat/internal/domain"
)

var log = logging.MustGetLogger("client")

// Subscription is a live push channel. Done is closed when the channel stops delivering,
// whether it was closed locally or dropped by the network.
type Subscription interface {
	Close() error
	Done() <-chan struct{}
}

// MessageChannel is the conversation view's view of the backend.
type MessageChannel interface {
	FetchHistory(ctx context.Context, self, peer string) ([]domain.Message, error)
	Send(ctx context.Context, self, peer, content string) error
	OpenLiveUpdates(ctx context.Context, self, peer string, onMessage func(domain.Message)) (Subscription, error)
	CloseLiveUpdates(sub Subscription)
}

// Channel implements MessageChannel over the HTTP API and the realtime websocket.
type Channel struct {
	api *API
}

func NewChannel(api *API) *Channel {
	return &Channel{api: api}
}

// FetchHistory returns the conversation between self and peer, oldest first.
// The result is never nil.
func (c *Channel) FetchHistory(ctx context.Context, self, peer string) ([]domain.Message, error) {
	messages, err := c.api.listMessages(ctx, self, peer)
	if err != nil {
		log.Warningf("fetch history %s/%s: %v", self, peer, err)
		return []domain.Message{}, &FetchError{Op: "fetch history", Err: err}
	}
	if messages == nil {
		return []domain.Message{}, nil
	}
	sortMessages(messages)
	return messages, nil
}

// Send persists a message. Blank content is a no-op. The backend assigns the timestamp.
func (c *Channel) Send(ctx context.Context, self, peer, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	if _, err := c.api.createMessage(ctx, self, peer, content); err != nil {
		log.Warningf("send to %s: %v", peer, err)
		return &PersistenceError{Op: "send message", Err: err}
	}
	return nil
}

// OpenLiveUpdates subscribes to every inserted message. Rows are not filtered here:
// onMessage sees other conversations too, and the caller narrows them.
func (c *Channel) OpenLiveUpdates(ctx context.Context, self, peer string, onMessage func(domain.Message)) (Subscription, error) {
	sub, err := dialLive(ctx, c.api.BaseURL(), c.api.Token(), onMessage)
	if err != nil {
		log.Infof("live updates unavailable for %s/%s: %v", self, peer, err)
		return nil, err
	}
	return sub, nil
}

// CloseLiveUpdates is safe to call repeatedly and with a nil handle.
func (c *Channel) CloseLiveUpdates(sub Subscription) {
	if sub == nil {
		return
	}
	if err := sub.Close(); err != nil {
		log.Debugf("closing live updates: %v", err)
	}
}

func sortMessages(messages []domain.Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})
}
