package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/periskope/chat/internal/domain"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const testSecret = "test-secret"

func testToken(t *testing.T) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": uuid.NewString(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	go hub.Run(ctx)

	srv := httptest.NewServer(ServeWS(hub, testSecret))
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, ctx context.Context, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, url+"?token="+testToken(t), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func subscribe(t *testing.T, ctx context.Context, conn *websocket.Conn) {
	t.Helper()
	payload, _ := json.Marshal(SubscribePayload{Table: TableMessages, Event: ChangeInsert})
	require.NoError(t, wsjson.Write(ctx, conn, Event{Type: EventTypeSubscribe, Payload: payload}))

	var ack Event
	require.NoError(t, wsjson.Read(ctx, conn, &ack))
	require.Equal(t, EventTypeSubscribed, ack.Type)
}

func TestServeWSRejectsMissingToken(t *testing.T) {
	_, url := startHub(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, resp, err := websocket.Dial(ctx, url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, 401, resp.StatusCode)
}

func TestInsertReachesEverySubscriber(t *testing.T) {
	require := require.New(t)
	hub, url := startHub(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice := dial(t, ctx, url)
	bob := dial(t, ctx, url)
	subscribe(t, ctx, alice)
	subscribe(t, ctx, bob)
	require.Eventually(func() bool { return hub.ClientCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	msg := &domain.Message{
		ID:        uuid.NewString(),
		Sender:    "9999999999",
		Recipient: "7777777777",
		Content:   "hello",
		Timestamp: time.Now().UTC(),
	}
	NewHubNotifier(hub).NotifyInsert(msg)

	// Delivery is unfiltered: bob gets a row he is not part of.
	for _, conn := range []*websocket.Conn{alice, bob} {
		var evt Event
		require.NoError(wsjson.Read(ctx, conn, &evt))
		require.Equal(EventTypeChange, evt.Type)

		var change ChangePayload
		require.NoError(json.Unmarshal(evt.Payload, &change))
		require.Equal(TableMessages, change.Table)
		require.Equal(ChangeInsert, change.Event)

		var got domain.Message
		require.NoError(json.Unmarshal(change.Record, &got))
		require.Equal(msg.ID, got.ID)
		require.Equal("hello", got.Content)
	}
}

func TestSubscribeRejectsUnknownTable(t *testing.T) {
	require := require.New(t)
	_, url := startHub(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, url)
	payload, _ := json.Marshal(SubscribePayload{Table: "contacts", Event: ChangeInsert})
	require.NoError(wsjson.Write(ctx, conn, Event{Type: EventTypeSubscribe, Payload: payload}))

	var evt Event
	require.NoError(wsjson.Read(ctx, conn, &evt))
	require.Equal(EventTypeError, evt.Type)

	require.NoError(wsjson.Write(ctx, conn, Event{Type: EventTypePing}))
	require.NoError(wsjson.Read(ctx, conn, &evt))
	require.Equal(EventTypePong, evt.Type)
}

func TestIsSubscribed(t *testing.T) {
	c := &Client{subscriptions: make(map[string]string)}
	require.False(t, c.IsSubscribed(TableMessages, ChangeInsert))

	c.Subscribe(TableMessages, ChangeAll)
	require.True(t, c.IsSubscribed(TableMessages, ChangeInsert))

	c.Subscribe(TableMessages, ChangeInsert)
	require.True(t, c.IsSubscribed(TableMessages, ChangeInsert))
	require.False(t, c.IsSubscribed(TableMessages, "DELETE"))

	c.Unsubscribe(TableMessages)
	require.False(t, c.IsSubscribed(TableMessages, ChangeInsert))
}
