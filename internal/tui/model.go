// Package tui is the terminal front end. It renders client.View state and forwards
// selection, input and submit events back to it.
package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/op/go-logging"
	"github.com/periskope/chat/internal/client"
	"github.com/periskope/chat/internal/domain"
)

var log = logging.MustGetLogger("tui")

const requestTimeout = 15 * time.Second

// Deps are the client components the UI drives.
type Deps struct {
	API      *client.API
	Identity *client.IdentityResolver
	Contacts *client.ContactStore
	Channel  client.MessageChannel
	Sessions *client.SessionStore
}

type screen int

const (
	screenLogin screen = iota
	screenChat
	screenProfile
)

// Messages flowing back into Update.
type (
	authDoneMsg struct {
		resp *client.AuthResponse
		err  error
	}
	mountedMsg struct {
		feed *viewFeed
		err  error
	}
	viewChangedMsg struct {
		feed  *viewFeed
		state client.State
	}
	contactsMsg struct {
		contacts []domain.Contact
		err      error
	}
	contactAddedMsg struct {
		contact *domain.Contact
		err     error
	}
	opDoneMsg struct {
		err error
	}
	profileLoadedMsg struct {
		profile *domain.Profile
		stats   *domain.Stats
		err     error
	}
	profileSavedMsg struct {
		profile *domain.Profile
		err     error
	}
	loggedOutMsg struct{}
	resumeMsg    struct{}
)

// viewFeed turns View change callbacks into tea messages. Only the latest state matters,
// so notifications coalesce.
type viewFeed struct {
	view    *client.View
	changes chan struct{}
	stop    chan struct{}
}

func newViewFeed(deps Deps) *viewFeed {
	f := &viewFeed{
		view:    client.NewView(deps.Identity, deps.Channel),
		changes: make(chan struct{}, 1),
		stop:    make(chan struct{}),
	}
	f.view.OnChange(func(client.State) {
		select {
		case f.changes <- struct{}{}:
		default:
		}
	})
	return f
}

func (f *viewFeed) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-f.changes:
			return viewChangedMsg{feed: f, state: f.view.Snapshot()}
		case <-f.stop:
			return nil
		}
	}
}

func (f *viewFeed) close() {
	f.view.Close()
	close(f.stop)
}

// Model is the root bubbletea model.
type Model struct {
	deps   Deps
	screen screen
	width  int
	height int

	login   loginForm
	chat    chatPane
	profile profileForm

	feed    *viewFeed
	status  string
	isError bool
}

// New builds the UI. resumed means a stored session token is already set on deps.API.
func New(deps Deps, resumed bool) Model {
	m := Model{
		deps:    deps,
		login:   newLoginForm(),
		chat:    newChatPane(),
		profile: newProfileForm(),
	}
	if resumed {
		m.screen = screenChat
	}
	return m
}

// Init runs on a copy of the model, so a resumed session is mounted through a message.
func (m Model) Init() tea.Cmd {
	if m.screen == screenChat {
		return func() tea.Msg { return resumeMsg{} }
	}
	return m.login.focus()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.chat.resize(msg.Width, msg.Height-2)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			if m.feed != nil {
				m.feed.close()
			}
			return m, tea.Quit
		}

	case authDoneMsg:
		m.login.busy = false
		if msg.err != nil {
			m.setError(authErrorText(msg.err))
			return m, nil
		}
		m.saveSession(msg.resp.Session, "")
		m.screen = screenChat
		m.setStatus("Signed in as " + msg.resp.Session.Email)
		cmd := m.startSession()
		return m, cmd

	case mountedMsg:
		if msg.feed != m.feed {
			return m, nil
		}
		if errors.Is(msg.err, client.ErrNotAuthenticated) {
			return m.toLogin("Your session has expired. Please sign in again.")
		}
		if msg.err != nil {
			m.setError(msg.err.Error())
		}
		state := m.feed.view.Snapshot()
		m.chat.state = state
		if state.Degraded {
			m.setError("Add a phone number in your profile (ctrl+p) to start messaging.")
		} else if state.Self != "" {
			m.rememberIdentity(state.Self)
		}
		return m, tea.Batch(m.loadContacts(state.Self), m.feed.wait())

	case viewChangedMsg:
		if msg.feed != m.feed {
			return m, nil
		}
		m.chat.apply(msg.state)
		return m, m.feed.wait()

	case contactsMsg:
		if msg.err != nil {
			m.setError("Could not load contacts.")
		}
		m.chat.setContacts(msg.contacts)
		return m, nil

	case contactAddedMsg:
		m.chat.add.pending = false
		if msg.err != nil {
			m.setError(msg.err.Error())
			return m, nil
		}
		m.chat.closeAddForm()
		m.setStatus("Saved " + msg.contact.Label())
		return m, m.loadContacts(m.chat.state.Self)

	case opDoneMsg:
		if msg.err != nil {
			var verr *client.ValidationError
			if !errors.As(msg.err, &verr) {
				log.Warningf("conversation: %v", msg.err)
			}
			m.setError(msg.err.Error())
		}
		return m, nil

	case profileLoadedMsg:
		if msg.err != nil {
			m.setError("Could not load your profile.")
		}
		m.profile.load(msg.profile, msg.stats)
		return m, nil

	case profileSavedMsg:
		m.profile.saving = false
		if msg.err != nil {
			m.setError(msg.err.Error())
			return m, nil
		}
		m.profile.load(msg.profile, m.profile.stats)
		m.deps.Identity.Invalidate()
		m.screen = screenChat
		m.setStatus("Profile saved")
		// The phone identity may have changed: remount.
		cmd := m.startSession()
		return m, cmd

	case loggedOutMsg:
		return m.toLogin("Signed out")

	case resumeMsg:
		cmd := m.startSession()
		return m, cmd
	}

	switch m.screen {
	case screenLogin:
		return m.updateLogin(msg)
	case screenProfile:
		return m.updateProfile(msg)
	default:
		return m.updateChat(msg)
	}
}

func (m Model) View() string {
	var body string
	switch m.screen {
	case screenLogin:
		body = m.login.view(m.width)
	case screenProfile:
		body = m.profile.view(m.width)
	default:
		body = m.chat.view()
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, m.statusLine())
}

func (m Model) statusLine() string {
	if m.status == "" {
		return mutedStyle.Render("ctrl+c quit")
	}
	if m.isError {
		return errorStyle.Render(m.status)
	}
	return mutedStyle.Render(m.status)
}

func (m *Model) setStatus(s string) {
	m.status, m.isError = s, false
}

func (m *Model) setError(s string) {
	m.status, m.isError = s, true
}

// startSession replaces the conversation view and mounts the new one.
func (m *Model) startSession() tea.Cmd {
	if m.feed != nil {
		m.feed.close()
	}
	feed := newViewFeed(m.deps)
	m.feed = feed
	m.chat.reset()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return mountedMsg{feed: feed, err: feed.view.Mount(ctx)}
	}
}

func (m Model) toLogin(status string) (tea.Model, tea.Cmd) {
	if m.feed != nil {
		m.feed.close()
		m.feed = nil
	}
	m.deps.Identity.Invalidate()
	if m.deps.Sessions != nil {
		if err := m.deps.Sessions.Clear(); err != nil {
			log.Warningf("clearing session: %v", err)
		}
	}
	m.screen = screenLogin
	m.login = newLoginForm()
	m.setStatus(status)
	cmd := m.login.focus()
	return m, cmd
}

func (m Model) logout() tea.Cmd {
	api := m.deps.API
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := api.SignOut(ctx); err != nil {
			log.Infof("sign out: %v", err)
		}
		return loggedOutMsg{}
	}
}

func (m Model) loadContacts(owner string) tea.Cmd {
	store := m.deps.Contacts
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		contacts, err := store.ListContacts(ctx, owner)
		return contactsMsg{contacts: contacts, err: err}
	}
}

func (m Model) saveSession(s *domain.Session, identity string) {
	if m.deps.Sessions == nil || s == nil {
		return
	}
	err := m.deps.Sessions.Save(&client.StoredSession{
		AccessToken: s.AccessToken,
		AccountID:   s.AccountID,
		Email:       s.Email,
		Identity:    identity,
		ExpiresAt:   s.ExpiresAt,
	})
	if err != nil {
		log.Warningf("saving session: %v", err)
	}
}

func (m Model) rememberIdentity(identity string) {
	if m.deps.Sessions == nil {
		return
	}
	stored, err := m.deps.Sessions.Load()
	if err != nil || stored == nil || stored.Identity == identity {
		return
	}
	stored.Identity = identity
	if err := m.deps.Sessions.Save(stored); err != nil {
		log.Warningf("saving session: %v", err)
	}
}

func authErrorText(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		if len(apiErr.Fields) > 0 {
			for _, msg := range apiErr.Fields {
				return msg
			}
		}
		if apiErr.Message != "" {
			return apiErr.Message
		}
	}
	return err.Error()
}
