package cli

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"wb-content-manager/internal/profile"
)

type manageMode int

const (
	manageModeBrowse manageMode = iota
	manageModeAddName
	manageModeEditKey
	manageModeDeleteConfirm
)

type manageModel struct {
	configPath string
	store      *profile.Store
	cursor     int
	mode       manageMode
	input      textinput.Model
	editName   string

	statusMessage string
	fatalErr      error
}

var (
	manageTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	manageMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	manageErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	manageOKStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	manageSelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Bold(true)
)

func runManage(args []string) error {
	fs := flag.NewFlagSet("manage", flag.ContinueOnError)
	config := fs.String("config", "", "profile store path")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !stdinIsTTY() {
		return errors.New("manage requires an interactive terminal (TTY)")
	}

	store, err := loadProfileStore(strings.TrimSpace(*config))
	if err != nil {
		return err
	}
	m := manageModel{
		configPath: strings.TrimSpace(*config),
		store:      store,
		cursor:     store.Selected,
		mode:       manageModeBrowse,
	}
	finalModel, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "tty") {
			return errors.New("manage requires an interactive terminal (TTY)")
		}
		return err
	}
	if fm, ok := finalModel.(manageModel); ok {
		return fm.fatalErr
	}
	return nil
}

func (m manageModel) Init() tea.Cmd {
	return nil
}

func (m manageModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		if m.mode == manageModeAddName || m.mode == manageModeEditKey {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	switch m.mode {
	case manageModeBrowse:
		return m.updateBrowse(keyMsg)
	case manageModeAddName, manageModeEditKey:
		return m.updateInput(keyMsg)
	case manageModeDeleteConfirm:
		return m.updateDeleteConfirm(keyMsg)
	}
	return m, nil
}

func (m manageModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.store.Profiles)-1 {
			m.cursor++
		}
	case "enter", " ":
		m.store.Selected = m.cursor
		m.statusMessage = m.save(fmt.Sprintf("selected %q", m.current().Name))
	case "a":
		m.mode = manageModeAddName
		m.input = newManageInput("profile name", false)
		m.statusMessage = ""
		return m, textinput.Blink
	case "e":
		m.mode = manageModeEditKey
		m.editName = m.current().Name
		m.input = newManageInput("API key", true)
		m.statusMessage = ""
		return m, textinput.Blink
	case "d":
		if len(m.store.Profiles) > 1 {
			m.mode = manageModeDeleteConfirm
			m.statusMessage = ""
		} else {
			m.statusMessage = "cannot remove the last profile"
		}
	}
	return m, nil
}

func (m manageModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.mode = manageModeBrowse
		return m, nil
	case "enter":
		value := strings.TrimSpace(m.input.Value())
		if value == "" {
			m.statusMessage = "value is required"
			return m, nil
		}
		if m.mode == manageModeAddName {
			if err := m.store.Add(value); err != nil {
				m.statusMessage = err.Error()
				return m, nil
			}
			m.cursor = m.store.Selected
			m.statusMessage = m.save(fmt.Sprintf("added %q", value))
		} else {
			if err := m.store.SetAPIKey(m.editName, value); err != nil {
				m.statusMessage = err.Error()
				return m, nil
			}
			m.statusMessage = m.save(fmt.Sprintf("key updated for %q", m.editName))
		}
		m.mode = manageModeBrowse
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m manageModel) updateDeleteConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		name := m.current().Name
		if err := m.store.Remove(name); err != nil {
			m.statusMessage = err.Error()
		} else {
			if m.cursor >= len(m.store.Profiles) {
				m.cursor = len(m.store.Profiles) - 1
			}
			m.statusMessage = m.save(fmt.Sprintf("removed %q", name))
		}
		m.mode = manageModeBrowse
	case "n", "N", "esc":
		m.mode = manageModeBrowse
	case "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m *manageModel) save(okMessage string) string {
	if err := m.store.Save(); err != nil {
		m.fatalErr = err
		return "save failed: " + err.Error()
	}
	return okMessage
}

func (m manageModel) current() profile.Profile {
	if m.cursor < 0 || m.cursor >= len(m.store.Profiles) {
		return profile.Profile{}
	}
	return m.store.Profiles[m.cursor]
}

func newManageInput(placeholder string, masked bool) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 256
	ti.Width = 48
	if masked {
		ti.EchoMode = textinput.EchoPassword
	}
	ti.Focus()
	return ti
}

func (m manageModel) View() string {
	var b strings.Builder
	b.WriteString(manageTitleStyle.Render("API profiles"))
	b.WriteString("\n\n")

	for i, p := range m.store.Profiles {
		marker := "  "
		if i == m.store.Selected {
			marker = manageOKStyle.Render("* ")
		}
		key := manageMutedStyle.Render("no key")
		if p.APIKey != "" {
			key = manageMutedStyle.Render("key set")
		}
		line := fmt.Sprintf("%s%s  %s", marker, p.Name, key)
		if i == m.cursor {
			line = manageSelStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}

	switch m.mode {
	case manageModeAddName:
		b.WriteString("\nnew profile name:\n" + m.input.View() + "\n")
	case manageModeEditKey:
		b.WriteString(fmt.Sprintf("\nAPI key for %q:\n%s\n", m.editName, m.input.View()))
	case manageModeDeleteConfirm:
		b.WriteString(manageErrorStyle.Render(fmt.Sprintf("\ndelete profile %q? (y/n)\n", m.current().Name)))
	}

	if m.statusMessage != "" {
		b.WriteString("\n" + m.statusMessage + "\n")
	}
	b.WriteString(manageMutedStyle.Render("\nenter select | a add | e set key | d delete | q quit\n"))
	return b.String()
}
