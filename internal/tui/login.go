package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/periskope/chat/pkg/validator"
)

const (
	fieldEmail = iota
	fieldPassword
	fieldPhone
)

type loginForm struct {
	inputs  []textinput.Model
	focused int
	signup  bool
	errText string
	busy    bool
}

func newLoginForm() loginForm {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.CharLimit = 254

	password := textinput.New()
	password.Placeholder = "Password"
	password.EchoMode = textinput.EchoPassword
	password.CharLimit = 72

	phone := textinput.New()
	phone.Placeholder = "10-digit phone number"
	phone.CharLimit = 20

	return loginForm{inputs: []textinput.Model{email, password, phone}}
}

// fieldCount is the number of visible inputs; the phone field only exists while signing up.
func (f *loginForm) fieldCount() int {
	if f.signup {
		return 3
	}
	return 2
}

func (f *loginForm) focus() tea.Cmd {
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
	if f.focused >= f.fieldCount() {
		f.focused = 0
	}
	return f.inputs[f.focused].Focus()
}

func (f *loginForm) move(delta int) tea.Cmd {
	n := f.fieldCount()
	f.focused = (f.focused + delta + n) % n
	return f.focus()
}

func (f *loginForm) values() (email, password, phone string) {
	return strings.TrimSpace(f.inputs[fieldEmail].Value()),
		f.inputs[fieldPassword].Value(),
		f.inputs[fieldPhone].Value()
}

// validate checks the form locally and reports the first problem, if any.
func (f *loginForm) validate() string {
	email, password, phone := f.values()
	if f.signup {
		errs := validator.ValidateSignup(email, password, phone)
		_, msg := errs.First("email", "password", "phone")
		return msg
	}
	errs := validator.ValidateLogin(email, password)
	_, msg := errs.First("email", "password")
	return msg
}

func (m Model) updateLogin(msg tea.Msg) (tea.Model, tea.Cmd) {
	f := &m.login
	var cmd tea.Cmd
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down":
			cmd = f.move(1)
			return m, cmd
		case "shift+tab", "up":
			cmd = f.move(-1)
			return m, cmd
		case "ctrl+r":
			f.signup = !f.signup
			f.errText = ""
			cmd = f.focus()
			return m, cmd
		case "enter":
			if f.focused < f.fieldCount()-1 {
				cmd = f.move(1)
				return m, cmd
			}
			if f.busy {
				return m, nil
			}
			if problem := f.validate(); problem != "" {
				f.errText = problem
				return m, nil
			}
			f.errText = ""
			f.busy = true
			m.setStatus("Signing in…")
			return m, m.authenticate()
		}
	}

	f.inputs[f.focused], cmd = f.inputs[f.focused].Update(msg)
	return m, cmd
}

func (m Model) authenticate() tea.Cmd {
	api := m.deps.API
	email, password, phone := m.login.values()
	signup := m.login.signup
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if signup {
			resp, err := api.SignUp(ctx, email, password, validator.CleanPhone(phone))
			return authDoneMsg{resp: resp, err: err}
		}
		resp, err := api.SignIn(ctx, email, password)
		return authDoneMsg{resp: resp, err: err}
	}
}

func (f loginForm) view(width int) string {
	title := "Sign in"
	toggle := "ctrl+r create an account"
	if f.signup {
		title = "Create account"
		toggle = "ctrl+r sign in instead"
	}

	labels := []string{"Email", "Password", "Phone"}
	rows := []string{titleStyle.Render(title), ""}
	for i := 0; i < f.fieldCount(); i++ {
		rows = append(rows, mutedStyle.Render(labels[i]), f.inputs[i].View(), "")
	}
	if f.errText != "" {
		rows = append(rows, errorStyle.Render(f.errText), "")
	}
	rows = append(rows, mutedStyle.Render("tab next field · enter submit · "+toggle))

	box := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	if width <= 0 {
		return box
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, box)
}
