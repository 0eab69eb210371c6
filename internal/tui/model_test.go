package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/periskope/chat/internal/client"
	"github.com/periskope/chat/internal/domain"
	"github.com/stretchr/testify/require"
)

func press(m Model, keys ...tea.KeyMsg) Model {
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(Model)
	}
	return m
}

func typed(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	ctrlN = tea.KeyMsg{Type: tea.KeyCtrlN}
	ctrlR = tea.KeyMsg{Type: tea.KeyCtrlR}
)

func TestLoginValidatesLocally(t *testing.T) {
	require := require.New(t)
	m := New(Deps{}, false)
	m.Init()

	m = press(m, enter, enter)
	require.Equal("Email is required", m.login.errText)
	require.False(m.login.busy)

	m = press(m, ctrlR)
	require.True(m.login.signup)
	require.Equal(3, m.login.fieldCount())
	require.Empty(m.login.errText)
}

func TestProfileChangesOnlyEditedFields(t *testing.T) {
	require := require.New(t)
	f := newProfileForm()
	f.load(&domain.Profile{Name: "Alice", Phone: "9999999999", Description: "hi"}, &domain.Stats{Users: 2})

	require.True(f.changes().IsEmpty())

	f.inputs[fieldName].SetValue("  Alicia ")
	update := f.changes()
	require.NotNil(update.Name)
	require.Equal("Alicia", *update.Name)
	require.Nil(update.Phone)
	require.Nil(update.Description)
	require.Contains(f.view(0), "2 users")
}

func TestConversationRendering(t *testing.T) {
	require := require.New(t)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	c := newChatPane()

	c.state = client.State{}
	require.Contains(c.conversation(now), client.EmptyHelp)

	c.state = client.State{Degraded: true}
	require.Contains(c.conversation(now), "ctrl+p")

	bob := &domain.Contact{ContactName: "Bob", ContactNumber: "8888888888"}
	c.state = client.State{Phase: client.PhaseReady, Self: "9999999999", Selected: bob}
	require.Contains(c.conversation(now), "No messages yet")

	c.state.Messages = []domain.Message{
		{ID: "1", Sender: "8888888888", Recipient: "9999999999", Content: "hi alice", Timestamp: now.Add(-5 * time.Minute)},
		{ID: domain.LocalIDPrefix + "x", Sender: "9999999999", Recipient: "8888888888", Content: "hey bob", Timestamp: now},
	}
	out := c.conversation(now)
	require.Contains(out, "Bob")
	require.Contains(out, "You")
	require.Contains(out, "hi alice")
	require.Contains(out, "sending…")
}

func TestContactFilter(t *testing.T) {
	require := require.New(t)
	m := New(Deps{}, true)
	m.chat.setContacts([]domain.Contact{
		{ContactName: "Bob", ContactNumber: "8888888888"},
		{ContactName: "Carol", ContactNumber: "7777777777"},
	})
	require.Len(m.chat.visible, 2)

	m = press(m, typed("/"), typed("car"))
	require.Equal(focusFilter, m.chat.focus)
	require.Len(m.chat.visible, 1)
	require.Equal("Carol", m.chat.visible[0].ContactName)
	require.Equal("Carol", m.chat.current().ContactName)
}

func TestAddContactNeedsIdentity(t *testing.T) {
	require := require.New(t)
	m := New(Deps{}, true)

	m = press(m, ctrlN)
	require.True(m.chat.add.open)

	m = press(m, typed("Bob"), enter, typed("8888888888"), enter)
	require.True(m.isError)
	require.Contains(m.status, "phone number")
	require.False(m.chat.add.pending)
}
