// Package command implements the ":" command palette.
package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/planner/internal/theme"
)

// ErrUnknown is returned by Parse for an unrecognized command.
var ErrUnknown = errors.New("unknown command")

// Command is a parsed palette command.
type Command struct {
	Name string
	Args []string
}

// known maps each command name to its accepted argument count range.
var known = map[string][2]int{
	"sort":        {1, 1},
	"status":      {1, 1},
	"tag":         {0, 8},
	"favorites":   {0, 0},
	"renormalize": {0, 0},
	"template":    {0, 1},
	"reload":      {0, 0},
	"quit":        {0, 0},
}

var aliases = map[string]string{
	"q":       "quit",
	"refresh": "reload",
	"tags":    "tag",
	"fav":     "favorites",
}

// Parse splits a palette line into a Command.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, ErrUnknown
	}

	name := strings.ToLower(fields[0])
	if alias, ok := aliases[name]; ok {
		name = alias
	}
	bounds, ok := known[name]
	if !ok {
		return Command{}, fmt.Errorf("%w: %s", ErrUnknown, fields[0])
	}
	args := fields[1:]
	if len(args) < bounds[0] || len(args) > bounds[1] {
		return Command{}, fmt.Errorf("%s takes %d to %d arguments", name, bounds[0], bounds[1])
	}
	return Command{Name: name, Args: args}, nil
}

// CommandMsg is emitted when the user executes a command.
type CommandMsg struct {
	Command Command
	Err     error
}

// CancelMsg is emitted when the palette is dismissed.
type CancelMsg struct{}

// Model is the command palette view.
type Model struct {
	input textinput.Model
	width int
}

// New creates a new command palette model.
func New(width int) Model {
	ti := textinput.New()
	ti.Placeholder = "sort az | status active | tag work | template 2026-10-20"
	ti.Prompt = ": "
	ti.Width = width - 6

	return Model{input: ti, width: width}
}

// Update handles key input for the palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "enter":
			line := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			m.input.Blur()
			cmd, err := Parse(line)
			return m, func() tea.Msg { return CommandMsg{Command: cmd, Err: err} }
		case "esc":
			m.input.Reset()
			m.input.Blur()
			return m, func() tea.Msg { return CancelMsg{} }
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the palette.
func (m Model) View() string {
	return lipgloss.NewStyle().
		Foreground(theme.ColorWhite).
		Padding(0, 1).
		Width(m.width).
		Render(m.input.View())
}

// SetWidth updates the palette width.
func (m *Model) SetWidth(width int) {
	m.width = width
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}
