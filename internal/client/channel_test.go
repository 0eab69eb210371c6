package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/periskope/chat/internal/domain"
	"github.com/periskope/chat/internal/transport/ws"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

// backend is a stand-in for the chat server: canned REST rows plus the real websocket hub.
type backend struct {
	t   *testing.T
	srv *httptest.Server
	hub *ws.Hub

	mu       sync.Mutex
	messages []domain.Message
	posts    []map[string]string
	requests int
	failPost bool
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{t: t, hub: ws.NewHub()}

	ctx, cancel := context.WithCancel(context.Background())
	go b.hub.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /rest/v1/messages", b.listMessages)
	mux.HandleFunc("POST /rest/v1/messages", b.createMessage)
	mux.HandleFunc("GET /realtime/v1/websocket", ws.ServeWS(b.hub, testSecret))
	b.srv = httptest.NewServer(mux)

	t.Cleanup(func() {
		cancel()
		b.srv.Close()
	})
	return b
}

func (b *backend) listMessages(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests++
	self, peer := r.URL.Query().Get("self"), r.URL.Query().Get("peer")
	out := []domain.Message{}
	for _, m := range b.messages {
		if m.Between(self, peer) {
			out = append(out, m)
		}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

func (b *backend) createMessage(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests++
	if b.failPost {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":"FORBIDDEN","message":"You do not have access to this conversation"}}`))
		return
	}
	var body map[string]string
	json.NewDecoder(r.Body).Decode(&body)
	b.posts = append(b.posts, body)
	m := domain.Message{ID: uuid.NewString(), Sender: body["sender"], Recipient: body["recipient"], Content: body["content"], Timestamp: time.Now().UTC()}
	b.messages = append(b.messages, m)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(m)
}

func (b *backend) requestCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests
}

func (b *backend) api() *API {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": uuid.NewString(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(b.t, err)

	api := NewAPI(b.srv.URL, b.srv.Client())
	api.SetToken(token)
	return api
}

func TestFetchHistorySortsByTimestamp(t *testing.T) {
	require := require.New(t)
	b := newBackend(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	b.messages = []domain.Message{
		{ID: "3", Sender: selfPhone, Recipient: peerPhone, Content: "third", Timestamp: base.Add(2 * time.Minute)},
		{ID: "1", Sender: peerPhone, Recipient: selfPhone, Content: "first", Timestamp: base},
		{ID: "x", Sender: peerPhone, Recipient: otherPhone, Content: "elsewhere", Timestamp: base},
		{ID: "2", Sender: selfPhone, Recipient: peerPhone, Content: "second", Timestamp: base.Add(time.Minute)},
	}

	messages, err := NewChannel(b.api()).FetchHistory(context.Background(), selfPhone, peerPhone)
	require.NoError(err)
	require.Equal([]string{"first", "second", "third"}, contents(messages))
	for i := 1; i < len(messages); i++ {
		require.False(messages[i].Timestamp.Before(messages[i-1].Timestamp))
	}
}

func TestFetchHistoryEmpty(t *testing.T) {
	require := require.New(t)
	b := newBackend(t)

	messages, err := NewChannel(b.api()).FetchHistory(context.Background(), selfPhone, peerPhone)
	require.NoError(err)
	require.NotNil(messages)
	require.Empty(messages)
}

func TestFetchHistoryFailure(t *testing.T) {
	require := require.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"code":"INTERNAL","message":"Something went wrong"}}`))
	}))
	defer srv.Close()

	api := NewAPI(srv.URL, srv.Client())
	api.SetToken("t")
	messages, err := NewChannel(api).FetchHistory(context.Background(), selfPhone, peerPhone)

	var ferr *FetchError
	require.ErrorAs(err, &ferr)
	require.NotNil(messages)
	require.Empty(messages)

	var apiErr *APIError
	require.ErrorAs(err, &apiErr)
	require.Equal("INTERNAL", apiErr.Code)
}

func TestSendTrimsContent(t *testing.T) {
	require := require.New(t)
	b := newBackend(t)

	require.NoError(NewChannel(b.api()).Send(context.Background(), selfPhone, peerPhone, "  hello  "))
	require.Equal([]map[string]string{{"sender": selfPhone, "recipient": peerPhone, "content": "hello"}}, b.posts)
}

func TestSendBlankIsNoop(t *testing.T) {
	require := require.New(t)
	b := newBackend(t)

	require.NoError(NewChannel(b.api()).Send(context.Background(), selfPhone, peerPhone, " \n\t "))
	require.Zero(b.requestCount())
}

func TestSendFailure(t *testing.T) {
	require := require.New(t)
	b := newBackend(t)
	b.failPost = true

	err := NewChannel(b.api()).Send(context.Background(), selfPhone, peerPhone, "hello")
	var perr *PersistenceError
	require.ErrorAs(err, &perr)
}

func TestCloseLiveUpdatesIsIdempotent(t *testing.T) {
	b := newBackend(t)
	ch := NewChannel(b.api())

	require.NotPanics(t, func() {
		ch.CloseLiveUpdates(nil)
		var typedNil *liveSubscription
		ch.CloseLiveUpdates(typedNil)
	})

	sub, err := ch.OpenLiveUpdates(context.Background(), selfPhone, peerPhone, func(domain.Message) {})
	require.NoError(t, err)
	require.NotPanics(t, func() {
		ch.CloseLiveUpdates(sub)
		ch.CloseLiveUpdates(sub)
	})

	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not stop")
	}
}

func TestLiveUpdatesDeliverEveryInsert(t *testing.T) {
	require := require.New(t)
	b := newBackend(t)
	ch := NewChannel(b.api())

	got := make(chan domain.Message, 4)
	sub, err := ch.OpenLiveUpdates(context.Background(), selfPhone, peerPhone, func(m domain.Message) { got <- m })
	require.NoError(err)
	defer ch.CloseLiveUpdates(sub)

	notifier := ws.NewHubNotifier(b.hub)
	rows := []domain.Message{
		{ID: uuid.NewString(), Sender: peerPhone, Recipient: selfPhone, Content: "hi", Timestamp: time.Now().UTC()},
		{ID: uuid.NewString(), Sender: otherPhone, Recipient: "1111111111", Content: "not ours", Timestamp: time.Now().UTC()},
	}
	for i := range rows {
		notifier.NotifyInsert(&rows[i])
	}

	// The channel does not filter; both rows arrive.
	for _, want := range rows {
		select {
		case m := <-got:
			require.Equal(want.ID, m.ID)
			require.Equal(want.Content, m.Content)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for live update")
		}
	}
}

func TestLiveUpdatesRequireToken(t *testing.T) {
	b := newBackend(t)
	api := NewAPI(b.srv.URL, b.srv.Client())

	_, err := NewChannel(api).OpenLiveUpdates(context.Background(), selfPhone, peerPhone, func(domain.Message) {})
	require.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestViewOverRealChannel(t *testing.T) {
	require := require.New(t)
	b := newBackend(t)
	api := b.api()
	v := NewView(staticIdentity{identity: selfPhone}, NewChannel(api))
	defer v.Close()

	require.NoError(v.Mount(context.Background()))
	require.NoError(v.Select(context.Background(), contact(peerPhone)))
	require.Equal(LivePush, v.Snapshot().Live)

	v.SetDraft("hello")
	require.NoError(v.Submit(context.Background()))

	// The server row replaces the placeholder when its insert is published.
	b.mu.Lock()
	row := b.messages[0]
	b.mu.Unlock()
	ws.NewHubNotifier(b.hub).NotifyInsert(&row)

	require.Eventually(func() bool {
		s := v.Snapshot()
		return len(s.Messages) == 1 && s.Messages[0].ID == row.ID
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRealtimeURL(t *testing.T) {
	require := require.New(t)

	u, err := realtimeURL("https://chat.example.com/base/", "abc")
	require.NoError(err)
	require.Equal("wss://chat.example.com/base/realtime/v1/websocket?token=abc", u)

	u, err = realtimeURL("http://localhost:8080", "abc")
	require.NoError(err)
	require.Equal("ws://localhost:8080/realtime/v1/websocket?token=abc", u)
}
