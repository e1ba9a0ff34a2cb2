package posts

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/gramkit/gramreply/internal/policy"
)

// mode is the current input state of the manager.
type mode int

const (
	modeList mode = iota
	modeAddID
	modeAddReply
	modeAddDM
	modeConfirmRemove
)

// Model is the BubbleTea model for the posts manager.
type Model struct {
	store    *policy.Store
	policies []policy.Policy

	cursor int
	mode   mode
	input  textinput.Model

	// add-flow accumulator
	pendingID      string
	pendingReplies []string

	status  string
	lastErr error
	theme   Theme
	width   int
}

// New creates a posts manager over the given store.
func New(store *policy.Store) (*Model, error) {
	policies, err := store.Load()
	if err != nil {
		return nil, err
	}

	input := textinput.New()
	input.CharLimit = 500

	return &Model{
		store:    store,
		policies: policies,
		input:    input,
		theme:    NewDefaultTheme(),
	}, nil
}

// Run starts the interactive program and blocks until it exits.
func Run(store *policy.Store) error {
	m, err := New(store)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m).Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if m.mode == modeList {
			return m.updateList(msg)
		}
		return m.updateInput(msg)
	}
	return m, nil
}

func (m *Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.policies)-1 {
			m.cursor++
		}
	case "a":
		m.mode = modeAddID
		m.pendingID = ""
		m.pendingReplies = nil
		m.input.Placeholder = "post ID"
		m.input.SetValue("")
		m.input.Focus()
		return m, textinput.Blink
	case "e":
		if p, ok := m.selected(); ok {
			m.apply(m.store.SetEnabled(p.PostID, !p.Enabled),
				fmt.Sprintf("post %s %s", p.PostID, onOff(!p.Enabled)))
		}
	case "d", "x":
		if _, ok := m.selected(); ok {
			m.mode = modeConfirmRemove
		}
	}
	return m, nil
}

func (m *Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.mode = modeList
		m.status = "cancelled"
		return m, nil
	case "enter":
		return m.submit()
	case "y":
		if m.mode == modeConfirmRemove {
			if p, ok := m.selected(); ok {
				m.apply(m.store.Remove(p.PostID), fmt.Sprintf("post %s removed", p.PostID))
				if m.cursor >= len(m.policies) && m.cursor > 0 {
					m.cursor--
				}
			}
			m.mode = modeList
			return m, nil
		}
	case "n":
		if m.mode == modeConfirmRemove {
			m.mode = modeList
			return m, nil
		}
	}

	if m.mode == modeConfirmRemove {
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit advances the add flow one step.
func (m *Model) submit() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(m.input.Value())

	switch m.mode {
	case modeAddID:
		if value == "" {
			return m, nil
		}
		m.pendingID = value
		m.mode = modeAddReply
		m.input.Placeholder = "public reply (empty to finish; {username} is substituted)"
		m.input.SetValue("")
	case modeAddReply:
		if value != "" {
			m.pendingReplies = append(m.pendingReplies, value)
			m.input.SetValue("")
			return m, nil
		}
		m.mode = modeAddDM
		m.input.Placeholder = "DM message (empty for none)"
		m.input.SetValue("")
	case modeAddDM:
		m.apply(m.store.Set(policy.Policy{
			PostID:         m.pendingID,
			Enabled:        true,
			CommentReplies: m.pendingReplies,
			DMMessage:      value,
		}), fmt.Sprintf("post %s saved", m.pendingID))
		m.mode = modeList
	}
	return m, nil
}

// apply runs a store mutation, reloads the list, and records the outcome.
func (m *Model) apply(err error, okStatus string) {
	if err != nil {
		m.lastErr = err
		m.status = ""
		return
	}
	m.lastErr = nil
	m.status = okStatus

	policies, loadErr := m.store.Load()
	if loadErr != nil {
		m.lastErr = loadErr
		return
	}
	m.policies = policies
}

func (m *Model) selected() (policy.Policy, bool) {
	if m.cursor < 0 || m.cursor >= len(m.policies) {
		return policy.Policy{}, false
	}
	return m.policies[m.cursor], true
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.theme.Title.Render("gramreply — monitored posts"))
	b.WriteString("\n")
	b.WriteString(m.theme.Dim.Render(m.store.Path()))
	b.WriteString("\n\n")

	if len(m.policies) == 0 {
		b.WriteString(m.theme.Dim.Render("no posts configured"))
		b.WriteString("\n")
	}
	for i, p := range m.policies {
		b.WriteString(m.renderRow(i, p))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch m.mode {
	case modeAddID, modeAddReply, modeAddDM:
		b.WriteString(m.theme.Prompt.Render(m.promptLabel()))
		b.WriteString("\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")
		if m.mode == modeAddReply && len(m.pendingReplies) > 0 {
			b.WriteString(m.theme.Dim.Render(fmt.Sprintf("%d repl%s queued", len(m.pendingReplies), plural(len(m.pendingReplies)))))
			b.WriteString("\n")
		}
	case modeConfirmRemove:
		if p, ok := m.selected(); ok {
			b.WriteString(m.theme.Status.Render(fmt.Sprintf("remove post %s? (y/n)", p.PostID)))
			b.WriteString("\n")
		}
	default:
		b.WriteString(m.theme.Dim.Render("a add · e toggle · d remove · ↑/↓ move · q quit"))
		b.WriteString("\n")
	}

	if m.lastErr != nil {
		b.WriteString(m.theme.ErrorText.Render("error: " + m.lastErr.Error()))
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString(m.theme.Status.Render(m.status))
		b.WriteString("\n")
	}

	return b.String()
}

func (m *Model) renderRow(i int, p policy.Policy) string {
	marker := "  "
	style := m.theme.Disabled
	if p.Enabled {
		style = m.theme.Enabled
	}
	line := fmt.Sprintf("%s %s  replies:%d  dm:%s",
		style.Render(dot(p.Enabled)), p.PostID, len(p.CommentReplies), yesNo(p.DMMessage != ""))

	if i == m.cursor && m.mode == modeList {
		marker = "> "
		return m.theme.Selected.Render(marker + line)
	}
	return marker + line
}

func (m *Model) promptLabel() string {
	switch m.mode {
	case modeAddID:
		return "new post ID:"
	case modeAddReply:
		return "public replies, one per line (empty line to finish):"
	case modeAddDM:
		return "DM template:"
	}
	return ""
}

func dot(enabled bool) string {
	if enabled {
		return "●"
	}
	return "○"
}

func onOff(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func plural(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
