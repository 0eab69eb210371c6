// Package realtime turns committed message inserts into change events for connected clients.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/op/go-logging"
	"github.com/periskope/chat/internal/domain"
	"github.com/periskope/chat/internal/repository"
)

// Channel is the Postgres NOTIFY channel the insert trigger publishes message ids on.
const Channel = "messages_inserted"

var log = logging.MustGetLogger("realtime")

// Notifier receives each newly committed message.
type Notifier interface {
	NotifyInsert(msg *domain.Message)
}

// Listener holds a dedicated LISTEN connection and forwards every insert to a Notifier.
type Listener struct {
	pool     *pgxpool.Pool
	messages repository.MessageRepository
	notifier Notifier
}

func NewListener(pool *pgxpool.Pool, messages repository.MessageRepository, notifier Notifier) *Listener {
	return &Listener{pool: pool, messages: messages, notifier: notifier}
}

// Run listens until ctx is cancelled, reconnecting with backoff when the connection drops.
func (l *Listener) Run(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 0
	b.MaxInterval = 30 * time.Second

	return backoff.RetryNotify(func() error {
		err := l.listen(ctx, b)
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return err
	}, backoff.WithContext(b, ctx), func(err error, wait time.Duration) {
		log.Warningf("listener dropped: %v (retrying in %s)", err, wait)
	})
}

func (l *Listener) listen(ctx context.Context, b backoff.BackOff) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquiring listen connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+Channel); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	log.Infof("listening on %s", Channel)
	b.Reset()

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			// The connection state is unknown after a failed wait.
			conn.Conn().Close(context.Background())
			return fmt.Errorf("waiting for notification: %w", err)
		}
		l.dispatch(ctx, n.Payload)
	}
}

func (l *Listener) dispatch(ctx context.Context, payload string) {
	id, err := uuid.Parse(payload)
	if err != nil {
		log.Warningf("ignoring malformed notification %q", payload)
		return
	}

	msg, err := l.messages.GetByID(ctx, id)
	if err != nil {
		log.Errorf("loading message %s: %v", id, err)
		return
	}
	if msg == nil {
		return
	}
	l.notifier.NotifyInsert(msg)
}
