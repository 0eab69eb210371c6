package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/periskope/chat/internal/domain"
	"github.com/stretchr/testify/require"
)

type stubMessages struct {
	rows map[uuid.UUID]*domain.Message
}

func (s stubMessages) Create(context.Context, *domain.Message) error { return nil }

func (s stubMessages) GetByID(_ context.Context, id uuid.UUID) (*domain.Message, error) {
	return s.rows[id], nil
}

func (s stubMessages) ListConversation(context.Context, string, string) ([]domain.Message, error) {
	return nil, nil
}

type recordingNotifier struct {
	got []*domain.Message
}

func (r *recordingNotifier) NotifyInsert(msg *domain.Message) {
	r.got = append(r.got, msg)
}

func TestDispatch(t *testing.T) {
	require := require.New(t)

	id := uuid.New()
	row := &domain.Message{ID: id.String(), Sender: "9999999999", Recipient: "8888888888", Content: "hi", Timestamp: time.Now()}
	n := &recordingNotifier{}
	l := NewListener(nil, stubMessages{rows: map[uuid.UUID]*domain.Message{id: row}}, n)

	l.dispatch(context.Background(), id.String())
	l.dispatch(context.Background(), "not-a-uuid")
	l.dispatch(context.Background(), uuid.NewString())

	require.Len(n.got, 1)
	require.Equal(row, n.got[0])
}
