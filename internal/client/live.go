package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/periskope/chat/internal/domain"
	"github.com/periskope/chat/internal/transport/ws"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	liveDialTimeout = 10 * time.Second
	liveReadLimit   = 64 << 10
)

var errSubscribeRejected = errors.New("subscription rejected")

// liveSubscription is one websocket subscribed to message inserts.
type liveSubscription struct {
	conn   *websocket.Conn
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (s *liveSubscription) Close() error {
	if s == nil {
		return nil
	}
	var err error
	s.once.Do(func() {
		s.cancel()
		err = s.conn.Close(websocket.StatusNormalClosure, "")
	})
	return err
}

func (s *liveSubscription) Done() <-chan struct{} {
	return s.done
}

func realtimeURL(baseURL, token string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/realtime/v1/websocket"
	u.RawQuery = url.Values{"token": {token}}.Encode()
	return u.String(), nil
}

// dialLive connects, subscribes to message inserts and waits for the acknowledgement.
// The read loop runs until ctx ends or the connection drops.
func dialLive(ctx context.Context, baseURL, token string, onMessage func(domain.Message)) (*liveSubscription, error) {
	if token == "" {
		return nil, ErrNotAuthenticated
	}
	endpoint, err := realtimeURL(baseURL, token)
	if err != nil {
		return nil, fmt.Errorf("realtime url: %w", err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	dialCtx, dialCancel := context.WithTimeout(subCtx, liveDialTimeout)
	defer dialCancel()

	conn, _, err := websocket.Dial(dialCtx, endpoint, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("dial realtime: %w", err)
	}
	conn.SetReadLimit(liveReadLimit)

	if err := subscribeInserts(dialCtx, conn); err != nil {
		cancel()
		conn.Close(websocket.StatusNormalClosure, "")
		return nil, err
	}

	sub := &liveSubscription{conn: conn, cancel: cancel, done: make(chan struct{})}
	go sub.readLoop(subCtx, onMessage)
	return sub, nil
}

func subscribeInserts(ctx context.Context, conn *websocket.Conn) error {
	payload, err := json.Marshal(ws.SubscribePayload{Table: ws.TableMessages, Event: ws.ChangeInsert})
	if err != nil {
		return err
	}
	if err := wsjson.Write(ctx, conn, ws.Event{Type: ws.EventTypeSubscribe, Payload: payload}); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	for {
		var evt ws.Event
		if err := wsjson.Read(ctx, conn, &evt); err != nil {
			return fmt.Errorf("waiting for subscribe ack: %w", err)
		}
		switch evt.Type {
		case ws.EventTypeSubscribed:
			return nil
		case ws.EventTypeError:
			var p ws.ErrorPayload
			_ = json.Unmarshal(evt.Payload, &p)
			return fmt.Errorf("%w: %s", errSubscribeRejected, p.Message)
		}
	}
}

func (s *liveSubscription) readLoop(ctx context.Context, onMessage func(domain.Message)) {
	defer close(s.done)
	for {
		var evt ws.Event
		if err := wsjson.Read(ctx, s.conn, &evt); err != nil {
			if ctx.Err() == nil {
				log.Infof("live updates dropped: %v", err)
			}
			return
		}
		if evt.Type != ws.EventTypeChange {
			continue
		}

		var change ws.ChangePayload
		if err := json.Unmarshal(evt.Payload, &change); err != nil {
			log.Warningf("bad change payload: %v", err)
			continue
		}
		if change.Table != ws.TableMessages || change.Event != ws.ChangeInsert {
			continue
		}
		var msg domain.Message
		if err := json.Unmarshal(change.Record, &msg); err != nil {
			log.Warningf("bad message record: %v", err)
			continue
		}
		onMessage(msg)
	}
}
