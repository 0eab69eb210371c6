package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/periskope/chat/internal/domain"
	"github.com/periskope/chat/pkg/validator"
)

const (
	fieldName = iota
	fieldProfilePhone
	fieldDescription
)

type profileForm struct {
	inputs  []textinput.Model
	focused int

	profile *domain.Profile
	stats   *domain.Stats
	errText string
	saving  bool
}

func newProfileForm() profileForm {
	name := textinput.New()
	name.Placeholder = "Display name"
	name.CharLimit = 100

	phone := textinput.New()
	phone.Placeholder = "10-digit phone number"
	phone.CharLimit = 20

	description := textinput.New()
	description.Placeholder = "A few words about you"
	description.CharLimit = 500

	return profileForm{inputs: []textinput.Model{name, phone, description}}
}

// open resets the form for a fresh load.
func (f *profileForm) open() tea.Cmd {
	f.errText = ""
	f.saving = false
	f.focused = fieldName
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
	return f.inputs[fieldName].Focus()
}

func (f *profileForm) load(profile *domain.Profile, stats *domain.Stats) {
	f.stats = stats
	if profile == nil {
		return
	}
	f.profile = profile
	f.inputs[fieldName].SetValue(profile.Name)
	f.inputs[fieldProfilePhone].SetValue(profile.Phone)
	f.inputs[fieldDescription].SetValue(profile.Description)
}

func (f *profileForm) move(delta int) tea.Cmd {
	f.inputs[f.focused].Blur()
	f.focused = (f.focused + delta + len(f.inputs)) % len(f.inputs)
	return f.inputs[f.focused].Focus()
}

// changes builds an update holding only the fields that differ from the loaded profile.
func (f *profileForm) changes() domain.ProfileUpdate {
	var current domain.Profile
	if f.profile != nil {
		current = *f.profile
	}
	var update domain.ProfileUpdate
	if v := strings.TrimSpace(f.inputs[fieldName].Value()); v != current.Name {
		update.Name = &v
	}
	if v := strings.TrimSpace(f.inputs[fieldProfilePhone].Value()); v != current.Phone {
		update.Phone = &v
	}
	if v := strings.TrimSpace(f.inputs[fieldDescription].Value()); v != current.Description {
		update.Description = &v
	}
	return update
}

func (m Model) updateProfile(msg tea.Msg) (tea.Model, tea.Cmd) {
	f := &m.profile
	var cmd tea.Cmd
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			m.screen = screenChat
			return m, nil
		case "tab", "down":
			cmd = f.move(1)
			return m, cmd
		case "shift+tab", "up":
			cmd = f.move(-1)
			return m, cmd
		case "enter":
			if f.focused < len(f.inputs)-1 {
				cmd = f.move(1)
				return m, cmd
			}
			if f.saving {
				return m, nil
			}
			update := f.changes()
			if update.IsEmpty() {
				f.errText = "Nothing to save"
				return m, nil
			}
			if errs := validator.ValidateProfile(update.Name, update.Phone, update.Description); errs.HasErrors() {
				_, f.errText = errs.First("name", "phone", "description")
				return m, nil
			}
			f.errText = ""
			f.saving = true
			return m, m.saveProfile(update)
		}
	}

	f.inputs[f.focused], cmd = f.inputs[f.focused].Update(msg)
	return m, cmd
}

func (m Model) loadProfile() tea.Cmd {
	api := m.deps.API
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		profile, err := api.Profile(ctx)
		if err != nil {
			return profileLoadedMsg{err: err}
		}
		stats, err := api.Stats(ctx)
		if err != nil {
			// Stats are informational only.
			log.Infof("loading stats: %v", err)
		}
		return profileLoadedMsg{profile: profile, stats: stats}
	}
}

func (m Model) saveProfile(update domain.ProfileUpdate) tea.Cmd {
	api := m.deps.API
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		profile, err := api.UpdateProfile(ctx, update)
		return profileSavedMsg{profile: profile, err: err}
	}
}

func (f profileForm) view(width int) string {
	labels := []string{"Name", "Phone", "About"}
	rows := []string{titleStyle.Render("Your profile"), ""}
	for i, in := range f.inputs {
		rows = append(rows, mutedStyle.Render(labels[i]), in.View(), "")
	}
	if f.errText != "" {
		rows = append(rows, errorStyle.Render(f.errText), "")
	}
	if f.stats != nil {
		rows = append(rows, mutedStyle.Render(fmt.Sprintf("%d users · %d messages · %d contacts",
			f.stats.Users, f.stats.Messages, f.stats.Contacts)), "")
	}
	rows = append(rows, mutedStyle.Render("enter save · esc back"))

	box := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	if width <= 0 {
		return box
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, box)
}
