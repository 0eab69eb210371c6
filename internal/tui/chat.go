package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/periskope/chat/internal/client"
	"github.com/periskope/chat/internal/domain"
)

const sidebarWidth = 30

type chatFocus int

const (
	focusContacts chatFocus = iota
	focusFilter
	focusInput
)

type addForm struct {
	open    bool
	field   int
	name    textinput.Model
	number  textinput.Model
	pending bool
}

type chatPane struct {
	width, height int

	contacts []domain.Contact
	visible  []domain.Contact
	cursor   int
	focus    chatFocus

	filter   textinput.Model
	input    textinput.Model
	viewport viewport.Model
	add      addForm

	state client.State
}

func newChatPane() chatPane {
	filter := textinput.New()
	filter.Placeholder = "Search contacts..."
	filter.CharLimit = 64

	input := textinput.New()
	input.Placeholder = "Type a message..."
	input.CharLimit = 4000

	name := textinput.New()
	name.Placeholder = "Name"
	name.CharLimit = 100

	number := textinput.New()
	number.Placeholder = "10-digit mobile number"
	number.CharLimit = 20

	return chatPane{
		filter:   filter,
		input:    input,
		viewport: viewport.New(80, 20),
		add:      addForm{name: name, number: number},
	}
}

func (c *chatPane) resize(width, height int) {
	c.width, c.height = width, height
	// borders, header and input footer
	c.viewport.Width = max(width-sidebarWidth-4, 10)
	c.viewport.Height = max(height-7, 3)
	c.input.Width = c.viewport.Width - 4
	c.render()
}

// reset forgets everything tied to the previous session.
func (c *chatPane) reset() {
	c.contacts, c.visible = nil, nil
	c.cursor = 0
	c.focus = focusContacts
	c.filter.SetValue("")
	c.filter.Blur()
	c.input.SetValue("")
	c.input.Blur()
	c.closeAddForm()
	c.state = client.State{}
	c.render()
}

func (c *chatPane) apply(state client.State) {
	c.state = state
	c.render()
	if state.ScrollToEnd {
		c.viewport.GotoBottom()
	}
}

func (c *chatPane) setContacts(contacts []domain.Contact) {
	c.contacts = contacts
	c.refilter()
}

func (c *chatPane) refilter() {
	c.visible = client.FilterContacts(c.contacts, c.filter.Value())
	if c.cursor >= len(c.visible) {
		c.cursor = max(len(c.visible)-1, 0)
	}
}

func (c *chatPane) openAddForm() tea.Cmd {
	c.add.open = true
	c.add.field = 0
	c.add.pending = false
	c.add.name.SetValue("")
	c.add.number.SetValue("")
	c.add.number.Blur()
	c.input.Blur()
	c.filter.Blur()
	return c.add.name.Focus()
}

func (c *chatPane) closeAddForm() {
	c.add.open = false
	c.add.pending = false
	c.add.name.Blur()
	c.add.number.Blur()
}

func (c *chatPane) setFocus(f chatFocus) tea.Cmd {
	c.focus = f
	c.filter.Blur()
	c.input.Blur()
	switch f {
	case focusFilter:
		return c.filter.Focus()
	case focusInput:
		return c.input.Focus()
	}
	return nil
}

func (c *chatPane) current() *domain.Contact {
	if c.cursor < 0 || c.cursor >= len(c.visible) {
		return nil
	}
	contact := c.visible[c.cursor]
	return &contact
}

func (m Model) updateChat(msg tea.Msg) (tea.Model, tea.Cmd) {
	c := &m.chat
	var cmd tea.Cmd

	key, isKey := msg.(tea.KeyMsg)
	if !isKey {
		switch {
		case c.add.open:
			cmd = c.updateAddInputs(msg)
		case c.focus == focusInput:
			c.input, cmd = c.input.Update(msg)
		}
		return m, cmd
	}

	if c.add.open {
		return m.updateAddForm(key)
	}

	switch key.String() {
	case "ctrl+n":
		cmd = c.openAddForm()
		return m, cmd
	case "ctrl+p":
		m.screen = screenProfile
		cmd = m.profile.open()
		return m, tea.Batch(cmd, m.loadProfile())
	case "ctrl+l":
		return m, m.logout()
	case "tab":
		cmd = c.setFocus((c.focus + 1) % 3)
		return m, cmd
	case "shift+tab":
		cmd = c.setFocus((c.focus + 2) % 3)
		return m, cmd
	case "pgup":
		c.viewport.HalfViewUp()
		return m, nil
	case "pgdown":
		c.viewport.HalfViewDown()
		return m, nil
	}

	switch c.focus {
	case focusFilter:
		switch key.String() {
		case "esc", "enter":
			cmd = c.setFocus(focusContacts)
			return m, cmd
		}
		c.filter, cmd = c.filter.Update(msg)
		c.refilter()
		return m, cmd

	case focusInput:
		switch key.String() {
		case "esc":
			cmd = c.setFocus(focusContacts)
			return m, cmd
		case "enter":
			text := c.input.Value()
			c.input.SetValue("")
			if m.feed == nil {
				return m, nil
			}
			m.feed.view.SetDraft(text)
			return m, m.submit()
		}
		c.input, cmd = c.input.Update(msg)
		if m.feed != nil {
			m.feed.view.SetDraft(c.input.Value())
		}
		return m, cmd
	}

	switch key.String() {
	case "up", "k":
		if c.cursor > 0 {
			c.cursor--
		}
	case "down", "j":
		if c.cursor < len(c.visible)-1 {
			c.cursor++
		}
	case "/":
		cmd = c.setFocus(focusFilter)
		return m, cmd
	case "enter", "right", "l":
		contact := c.current()
		if contact == nil || m.feed == nil {
			return m, nil
		}
		cmd = c.setFocus(focusInput)
		return m, tea.Batch(cmd, m.selectContact(contact))
	case "esc":
		if m.feed != nil {
			m.feed.view.Clear()
		}
	}
	return m, nil
}

func (c *chatPane) updateAddInputs(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if c.add.field == 0 {
		c.add.name, cmd = c.add.name.Update(msg)
	} else {
		c.add.number, cmd = c.add.number.Update(msg)
	}
	return cmd
}

func (m Model) updateAddForm(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := &m.chat
	var cmd tea.Cmd
	switch key.String() {
	case "esc":
		c.closeAddForm()
		return m, nil
	case "tab", "shift+tab", "up", "down":
		c.add.field = 1 - c.add.field
		c.add.name.Blur()
		c.add.number.Blur()
		if c.add.field == 0 {
			cmd = c.add.name.Focus()
		} else {
			cmd = c.add.number.Focus()
		}
		return m, cmd
	case "enter":
		if c.add.field == 0 {
			c.add.field = 1
			c.add.name.Blur()
			cmd = c.add.number.Focus()
			return m, cmd
		}
		if c.add.pending {
			return m, nil
		}
		if c.state.Self == "" {
			m.setError("Add a phone number in your profile (ctrl+p) before saving contacts.")
			return m, nil
		}
		c.add.pending = true
		return m, m.addContact(c.add.name.Value(), c.add.number.Value())
	}
	cmd = c.updateAddInputs(key)
	return m, cmd
}

func (m Model) selectContact(contact *domain.Contact) tea.Cmd {
	view := m.feed.view
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return opDoneMsg{err: view.Select(ctx, contact)}
	}
}

func (m Model) submit() tea.Cmd {
	view := m.feed.view
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return opDoneMsg{err: view.Submit(ctx)}
	}
}

func (m Model) addContact(name, number string) tea.Cmd {
	store := m.deps.Contacts
	owner := m.chat.state.Self
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		contact, err := store.AddContact(ctx, owner, name, number)
		return contactAddedMsg{contact: contact, err: err}
	}
}

// render refreshes the viewport content from the current state.
func (c *chatPane) render() {
	c.viewport.SetContent(c.conversation(time.Now()))
}

func (c *chatPane) conversation(now time.Time) string {
	s := c.state
	switch {
	case s.Degraded:
		return mutedStyle.Render("Your profile has no phone number yet. Add one with ctrl+p to start messaging.")
	case s.Selected == nil:
		return mutedStyle.Render(client.EmptyHelp)
	case s.Phase == client.PhaseLoading:
		return mutedStyle.Render("Loading messages...")
	case len(s.Messages) == 0:
		return mutedStyle.Render("No messages yet. Say hello!")
	}

	width := max(c.viewport.Width-2, 10)
	var b strings.Builder
	for i, msg := range s.Messages {
		if i > 0 {
			b.WriteString("\n")
		}
		name, style := s.Selected.Label(), otherMessageStyle
		if msg.Sender == s.Self {
			name, style = "You", ownMessageStyle
		}
		meta := relativeTime(now, msg.Timestamp)
		if msg.IsLocal() {
			meta = "sending…"
		}
		b.WriteString(style.Render(name) + " " + mutedStyle.Render(meta) + "\n")
		b.WriteString(lipgloss.NewStyle().Width(width).Render(msg.Content) + "\n")
	}
	return b.String()
}

func (c chatPane) view() string {
	return lipgloss.JoinHorizontal(lipgloss.Top, c.sidebarView(), c.chatView())
}

func (c chatPane) sidebarView() string {
	inner := sidebarWidth - 4
	rows := []string{titleStyle.Render("Contacts"), c.filter.View(), ""}
	if len(c.visible) == 0 {
		if len(c.contacts) == 0 {
			rows = append(rows, mutedStyle.Render(fitString("No contacts yet", inner)))
		} else {
			rows = append(rows, mutedStyle.Render(fitString("No matches", inner)))
		}
	}
	for i, contact := range c.visible {
		label := fitString(contact.Label(), inner-2)
		if i == c.cursor {
			rows = append(rows, selectedItemStyle.Render(label))
		} else {
			rows = append(rows, unselectedItemStyle.Render(label))
		}
	}

	rows = append(rows, "")
	if c.add.open {
		rows = append(rows,
			titleStyle.Render("New contact"),
			c.add.name.View(),
			c.add.number.View(),
			mutedStyle.Render("enter save · esc cancel"),
		)
	} else {
		rows = append(rows, mutedStyle.Render("ctrl+n add contact"))
	}
	rows = append(rows, mutedStyle.Render("ctrl+p profile"), mutedStyle.Render("ctrl+l sign out"))

	style := focusBorder(sidebarStyle, c.focus != focusInput || c.add.open).
		Width(sidebarWidth - 2)
	if c.height > 2 {
		style = style.Height(c.height - 2)
	}
	return style.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (c chatPane) chatView() string {
	title := "No conversation"
	if c.state.Selected != nil {
		title = c.state.Selected.Label()
		if c.state.Selected.ContactName != "" {
			title = fmt.Sprintf("%s (%s)", c.state.Selected.ContactName, c.state.Selected.ContactNumber)
		}
	}
	if c.state.Live != client.LiveNone {
		title += "  " + mutedStyle.Render(c.state.Live.String())
	}

	header := headerStyle.Width(c.viewport.Width).Render(title)
	footer := footerStyle.Width(c.viewport.Width).Render(c.input.View())
	body := lipgloss.JoinVertical(lipgloss.Left, header, c.viewport.View(), footer)
	return focusBorder(chatWindowStyle, c.focus == focusInput && !c.add.open).Render(body)
}
