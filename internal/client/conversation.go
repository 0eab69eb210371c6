package client

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/periskope/chat/internal/domain"
	"github.com/periskope/chat/pkg/validator"
)

// Phase is where the view is in its per-selection lifecycle.
type Phase int

const (
	PhaseEmpty Phase = iota
	PhaseLoading
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	default:
		return "empty"
	}
}

// LiveMode reports which source feeds new messages into the view.
type LiveMode int

const (
	LiveNone LiveMode = iota
	LivePush
	LivePolling
)

func (m LiveMode) String() string {
	switch m {
	case LivePush:
		return "push"
	case LivePolling:
		return "polling"
	default:
		return "none"
	}
}

// EmptyHelp is shown while no contact is selected.
const EmptyHelp = "Save a contact first, then select it to start messaging."

// pendingWindow is how long a placeholder may wait for its server echo to replace it.
const pendingWindow = 30 * time.Second

// State is a copy of what a renderer needs.
type State struct {
	Phase    Phase
	Self     string
	Selected *domain.Contact
	Messages []domain.Message
	Draft    string
	Live     LiveMode
	Degraded bool
	// ScrollToEnd is set when the message list was replaced or grew.
	ScrollToEnd bool
	Err         error
}

// IdentitySource resolves who "self" is.
type IdentitySource interface {
	ResolveOwnIdentity(ctx context.Context) (string, error)
}

type pending struct {
	inFlight bool
}

// View owns the message list of the selected conversation. It performs optimistic sends,
// folds in pushed and polled rows, and keeps at most one live source per selection.
type View struct {
	identity IdentitySource
	channel  MessageChannel

	pollInterval time.Duration
	now          func() time.Time

	mu       sync.Mutex
	onChange func(State)

	life context.Context
	stop context.CancelFunc

	self     string
	degraded bool
	closed   bool

	gen      uint64
	phase    Phase
	selected *domain.Contact
	messages []domain.Message
	pending  map[string]*pending
	draft    string
	lastErr  error

	live     LiveMode
	cancel   context.CancelFunc
	sub      Subscription
	scrolled bool
}

type ViewOption func(*View)

// WithPollInterval changes the centre of the jittered polling window.
func WithPollInterval(d time.Duration) ViewOption {
	return func(v *View) { v.pollInterval = d }
}

func withClock(now func() time.Time) ViewOption {
	return func(v *View) { v.now = now }
}

func NewView(identity IdentitySource, channel MessageChannel, opts ...ViewOption) *View {
	life, stop := context.WithCancel(context.Background())
	v := &View{
		identity:     identity,
		channel:      channel,
		pollInterval: DefaultPollInterval,
		now:          time.Now,
		life:         life,
		stop:         stop,
		pending:      make(map[string]*pending),
		messages:     []domain.Message{},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// OnChange registers the render callback. It is called outside the view's lock.
func (v *View) OnChange(fn func(State)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.onChange = fn
}

// Mount resolves the caller's identity. A missing profile is not an error: the view
// stays usable but degraded, and never fetches, sends or subscribes.
func (v *View) Mount(ctx context.Context) error {
	self, err := v.identity.ResolveOwnIdentity(ctx)

	v.mu.Lock()
	switch {
	case err == nil:
		v.self, v.degraded = self, false
	case errors.Is(err, ErrProfileMissing):
		v.self, v.degraded = "", true
		v.lastErr = err
		err = nil
	}
	v.mu.Unlock()

	v.emit()
	return err
}

// Select switches the view to contact. Reselecting the current contact refetches.
// A nil contact clears the selection.
func (v *View) Select(ctx context.Context, contact *domain.Contact) error {
	if contact == nil {
		v.Clear()
		return nil
	}

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrViewClosed
	}
	v.teardownLocked()
	v.gen++
	gen := v.gen
	c := *contact
	v.selected = &c
	v.messages = []domain.Message{}
	v.pending = make(map[string]*pending)
	v.lastErr = nil

	if v.degraded || v.self == "" {
		v.phase = PhaseReady
		v.lastErr = ErrProfileMissing
		v.mu.Unlock()
		v.emit()
		return nil
	}

	v.phase = PhaseLoading
	self, peer := v.self, c.ContactNumber
	selCtx, cancel := context.WithCancel(v.life)
	v.cancel = cancel
	v.mu.Unlock()
	v.emit()

	history, fetchErr := v.channel.FetchHistory(ctx, self, peer)

	v.mu.Lock()
	if gen != v.gen {
		v.mu.Unlock()
		return nil
	}
	if history == nil {
		history = []domain.Message{}
	}
	v.messages = history
	v.phase = PhaseReady
	v.lastErr = fetchErr
	v.scrolled = true
	v.mu.Unlock()
	v.emit()

	v.startLive(selCtx, gen, self, peer)
	return fetchErr
}

// Clear drops the selection and its live source.
func (v *View) Clear() {
	v.mu.Lock()
	v.teardownLocked()
	v.gen++
	v.selected = nil
	v.messages = []domain.Message{}
	v.pending = make(map[string]*pending)
	v.phase = PhaseEmpty
	v.lastErr = nil
	v.mu.Unlock()
	v.emit()
}

// Close unmounts the view. Later events are ignored.
func (v *View) Close() {
	v.mu.Lock()
	v.teardownLocked()
	v.gen++
	v.closed = true
	v.onChange = nil
	v.mu.Unlock()
	v.stop()
}

func (v *View) SetDraft(text string) {
	v.mu.Lock()
	v.draft = text
	v.mu.Unlock()
	v.emit()
}

// Submit appends an optimistic placeholder for the draft, then persists it. The placeholder
// is removed again if the backend rejects the write.
func (v *View) Submit(ctx context.Context) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrViewClosed
	}
	if v.degraded || v.self == "" {
		v.mu.Unlock()
		return ErrProfileMissing
	}
	if v.selected == nil {
		v.mu.Unlock()
		return ErrNoSelection
	}
	if errs := validator.ValidateMessage(v.draft); errs.HasErrors() {
		field, reason := errs.First("content")
		v.mu.Unlock()
		return &ValidationError{Field: field, Reason: reason}
	}

	placeholder := domain.Message{
		ID:        domain.LocalIDPrefix + uuid.NewString(),
		Sender:    v.self,
		Recipient: v.selected.ContactNumber,
		Content:   strings.TrimSpace(v.draft),
		Timestamp: v.now(),
	}
	v.messages = append(v.messages, placeholder)
	v.pending[placeholder.ID] = &pending{inFlight: true}
	v.draft = ""
	v.scrolled = true
	gen := v.gen
	v.mu.Unlock()
	v.emit()

	err := v.channel.Send(ctx, placeholder.Sender, placeholder.Recipient, placeholder.Content)

	v.mu.Lock()
	if err != nil {
		v.removeLocked(placeholder.ID)
		delete(v.pending, placeholder.ID)
		// A failure for an earlier selection is not reported against the current one.
		if gen == v.gen {
			v.lastErr = err
		}
	} else if p, ok := v.pending[placeholder.ID]; ok {
		p.inFlight = false
	}
	v.mu.Unlock()
	v.emit()
	return err
}

// Snapshot returns a copy of the current state.
func (v *View) Snapshot() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

func (v *View) snapshotLocked() State {
	s := State{
		Phase:       v.phase,
		Self:        v.self,
		Messages:    append([]domain.Message(nil), v.messages...),
		Draft:       v.draft,
		Live:        v.live,
		Degraded:    v.degraded,
		ScrollToEnd: v.scrolled,
		Err:         v.lastErr,
	}
	if s.Messages == nil {
		s.Messages = []domain.Message{}
	}
	if v.selected != nil {
		c := *v.selected
		s.Selected = &c
	}
	return s
}

func (v *View) emit() {
	v.mu.Lock()
	fn := v.onChange
	s := v.snapshotLocked()
	v.scrolled = false
	v.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}

// startLive opens the push channel, or polls if it cannot be opened. Both are bound to selCtx.
func (v *View) startLive(selCtx context.Context, gen uint64, self, peer string) {
	sub, err := v.channel.OpenLiveUpdates(selCtx, self, peer, func(msg domain.Message) {
		v.receive(gen, msg)
	})

	v.mu.Lock()
	if gen != v.gen {
		v.mu.Unlock()
		v.channel.CloseLiveUpdates(sub)
		return
	}
	if err != nil || sub == nil {
		v.startPollingLocked(selCtx, gen, self, peer)
		v.mu.Unlock()
		v.emit()
		return
	}
	v.sub = sub
	v.live = LivePush
	v.mu.Unlock()
	v.emit()

	go v.watch(selCtx, gen, sub, self, peer)

	// Rows committed between the first fetch and the subscription are never pushed.
	if history, err := v.channel.FetchHistory(selCtx, self, peer); err == nil {
		v.refresh(gen, history)
	}
}

// watch falls back to polling when the push channel drops while the selection is still live.
func (v *View) watch(selCtx context.Context, gen uint64, sub Subscription, self, peer string) {
	select {
	case <-selCtx.Done():
		return
	case <-sub.Done():
	}

	v.mu.Lock()
	if gen != v.gen || selCtx.Err() != nil {
		v.mu.Unlock()
		return
	}
	log.Infof("push channel for %s dropped, polling instead", peer)
	v.sub = nil
	v.startPollingLocked(selCtx, gen, self, peer)
	v.mu.Unlock()
	v.emit()
}

func (v *View) startPollingLocked(selCtx context.Context, gen uint64, self, peer string) {
	v.live = LivePolling
	go poll(selCtx, v.pollInterval, func(ctx context.Context) {
		history, err := v.channel.FetchHistory(ctx, self, peer)
		if err != nil {
			return
		}
		v.refresh(gen, history)
	})
}

// teardownLocked stops the current live source. The selection context is the one token
// shared by the subscription and the poller.
func (v *View) teardownLocked() {
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	if v.sub != nil {
		v.channel.CloseLiveUpdates(v.sub)
		v.sub = nil
	}
	v.live = LiveNone
}

// receive folds one pushed row into the conversation.
func (v *View) receive(gen uint64, msg domain.Message) {
	v.mu.Lock()
	if gen != v.gen || v.selected == nil || !msg.Between(v.self, v.selected.ContactNumber) {
		v.mu.Unlock()
		return
	}
	if v.indexLocked(msg.ID) >= 0 {
		v.mu.Unlock()
		return
	}

	if i := v.matchPlaceholderLocked(msg); i >= 0 {
		delete(v.pending, v.messages[i].ID)
		v.messages[i] = msg
	} else {
		v.messages = append(v.messages, msg)
		v.scrolled = true
	}
	v.mu.Unlock()
	v.emit()
}

// refresh merges a fetched history into the list. Rows already shown but missing from
// history were pushed after the fetch and stay. Placeholders still waiting for their row
// are kept at the end.
func (v *View) refresh(gen uint64, history []domain.Message) {
	v.mu.Lock()
	if gen != v.gen {
		v.mu.Unlock()
		return
	}

	known := make(map[string]struct{}, len(v.messages))
	for _, m := range v.messages {
		if !m.IsLocal() {
			known[m.ID] = struct{}{}
		}
	}
	claimed := make(map[string]struct{})

	var kept []domain.Message
	for _, m := range v.messages {
		if !m.IsLocal() {
			continue
		}
		if id := matchFresh(m, history, known, claimed); id != "" {
			claimed[id] = struct{}{}
			delete(v.pending, m.ID)
			continue
		}
		p := v.pending[m.ID]
		if p != nil && (p.inFlight || v.now().Sub(m.Timestamp) <= pendingWindow) {
			kept = append(kept, m)
			continue
		}
		delete(v.pending, m.ID)
	}

	fetched := make(map[string]struct{}, len(history))
	for _, m := range history {
		fetched[m.ID] = struct{}{}
	}
	next := make([]domain.Message, 0, len(history)+len(kept))
	next = append(next, history...)
	for _, m := range v.messages {
		if _, ok := fetched[m.ID]; !ok && !m.IsLocal() {
			next = append(next, m)
		}
	}
	sortMessages(next)
	next = append(next, kept...)
	grew := len(next) > len(v.messages)
	v.messages = next
	if grew {
		v.scrolled = true
	}
	v.mu.Unlock()
	v.emit()
}

// matchFresh finds a row in history, not seen before and not yet claimed, that confirms placeholder p.
func matchFresh(p domain.Message, history []domain.Message, known, claimed map[string]struct{}) string {
	for _, m := range history {
		if _, ok := known[m.ID]; ok {
			continue
		}
		if _, ok := claimed[m.ID]; ok {
			continue
		}
		if m.Sender == p.Sender && m.Recipient == p.Recipient && strings.TrimSpace(m.Content) == p.Content {
			return m.ID
		}
	}
	return ""
}

// matchPlaceholderLocked returns the oldest pending placeholder that msg confirms, or -1.
func (v *View) matchPlaceholderLocked(msg domain.Message) int {
	if msg.Sender != v.self {
		return -1
	}
	content := strings.TrimSpace(msg.Content)
	now := v.now()
	for i, m := range v.messages {
		if !m.IsLocal() {
			continue
		}
		if _, ok := v.pending[m.ID]; !ok {
			continue
		}
		if m.Recipient == msg.Recipient && m.Content == content && now.Sub(m.Timestamp) <= pendingWindow {
			return i
		}
	}
	return -1
}

func (v *View) indexLocked(id string) int {
	for i, m := range v.messages {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func (v *View) removeLocked(id string) {
	if i := v.indexLocked(id); i >= 0 {
		v.messages = append(v.messages[:i], v.messages[i+1:]...)
	}
}
