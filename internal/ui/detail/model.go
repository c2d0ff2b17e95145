// Package detail renders a single item with its sub-actions, completion
// ledger and cross-collection links.
package detail

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/planner/internal/keys"
	"github.com/nhle/planner/internal/ledger"
	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/theme"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// ToggleMsg asks the parent to toggle a sub-action.
type ToggleMsg struct {
	ItemID string
	Key    string
}

// RemoveEntryMsg asks the parent to delete one ledger entry.
type RemoveEntryMsg struct {
	ItemID string
	Index  int
}

// Model is the item detail view. The cursor walks the sub-actions first,
// then the ledger entries.
type Model struct {
	item     *model.Item
	links    []model.Link
	viewport viewport.Model
	keys     *keys.KeyMap
	cursor   int
	width    int
	height   int
}

// New creates a detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// Item returns the item on display.
func (m Model) Item() (model.Item, bool) {
	if m.item == nil {
		return model.Item{}, false
	}
	return *m.item, true
}

// Cursor returns the selected row.
func (m Model) Cursor() int { return m.cursor }

func (m Model) rows() int {
	if m.item == nil {
		return 0
	}
	return len(m.item.Metadata.SubActions) + len(m.item.Metadata.CompletedDates)
}

// Update handles key presses.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok || m.item == nil {
		return m, nil
	}

	subs := m.item.Metadata.SubActions
	switch {
	case key.Matches(km, m.keys.Back):
		return m, func() tea.Msg { return BackMsg{} }

	case key.Matches(km, m.keys.Down):
		if m.cursor < m.rows()-1 {
			m.cursor++
		}
		m.render()
		return m, nil

	case key.Matches(km, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		m.render()
		return m, nil

	case key.Matches(km, m.keys.Toggle):
		if m.cursor < len(subs) {
			out := ToggleMsg{ItemID: m.item.ID, Key: subs[m.cursor].Key()}
			return m, func() tea.Msg { return out }
		}
		return m, nil

	case key.Matches(km, m.keys.RemoveEntry):
		if i := m.cursor - len(subs); i >= 0 && i < len(m.item.Metadata.CompletedDates) {
			out := RemoveEntryMsg{ItemID: m.item.ID, Index: i}
			return m, func() tea.Msg { return out }
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	if m.item == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No item selected")
	}
	return m.viewport.View()
}

// SetItem replaces the item, keeping the cursor in range. Nil links keep
// the current links when it is the item already on display.
func (m *Model) SetItem(it model.Item, links []model.Link) {
	if m.item == nil || m.item.ID != it.ID {
		m.cursor = 0
		m.links = nil
		m.viewport.GotoTop()
	}
	if links != nil {
		m.links = links
	}
	m.item = &it
	m.cursor = max(min(m.cursor, m.rows()-1), 0)
	m.render()
}

// SetLinks replaces the links of the current item.
func (m *Model) SetLinks(id string, links []model.Link) {
	if m.item == nil || m.item.ID != id {
		return
	}
	m.links = links
	m.render()
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	m.render()
}

func (m *Model) render() {
	m.viewport.SetContent(m.renderContent())
}

func (m Model) row(i int, s string) string {
	if i == m.cursor {
		return theme.SelectedItemStyle.Render(s)
	}
	return theme.ListItemStyle.Render(s)
}

func (m Model) renderContent() string {
	if m.item == nil {
		return ""
	}
	it := m.item
	meta := it.Metadata

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	headStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	label := theme.DimmedStyle
	sep := lipgloss.NewStyle().Foreground(theme.ColorSubtle).Render(strings.Repeat("─", max(min(m.width-4, 80), 0)))

	sections := []string{
		titleStyle.Render(it.Title),
		lipgloss.JoinHorizontal(lipgloss.Top,
			theme.StatusStyle(string(it.Status)).Render(string(it.Status)),
			"  ", label.Render(string(it.RecurrenceOrOneOff())),
			"  ", theme.StreakStyle.Render(fmt.Sprintf("streak %d", meta.Streak)),
		),
		"",
	}
	if it.DueDate != nil {
		sections = append(sections, label.Render("Due:     ")+it.DueDate.Format("Mon Jan 2, 2006"))
	}
	if meta.Kind != "" {
		sections = append(sections, label.Render("Kind:    ")+string(meta.Kind))
	}
	if len(meta.Tags) > 0 {
		sections = append(sections, label.Render("Tags:    ")+theme.TagStyle.Render("#"+strings.Join(meta.Tags, " #")))
	}
	if it.Content != "" {
		sections = append(sections, "", it.Content)
	}

	sections = append(sections, "", sep, "", headStyle.Render(fmt.Sprintf("Sub-actions (%d)", len(meta.SubActions))))
	if len(meta.SubActions) == 0 {
		sections = append(sections, theme.HelpStyle.Render("  none"))
	}
	for i, sa := range meta.SubActions {
		box := "[ ]"
		if slices.Contains(meta.CompletedSubActions, sa.Key()) {
			box = "[x]"
		}
		line := box + " " + sa.Text
		if sa.TaskMasterID != "" {
			line += theme.DimmedStyle.Render(" → linked")
		}
		sections = append(sections, m.row(i, line))
	}

	sections = append(sections, "", headStyle.Render(fmt.Sprintf("Ledger (%d)", len(meta.CompletedDates))))
	if len(meta.CompletedDates) == 0 {
		sections = append(sections, theme.HelpStyle.Render("  no completions yet"))
	}
	for i, entry := range meta.CompletedDates {
		line := entry
		if ledger.IsBonus(entry) {
			line = theme.FavoriteStyle.Render("★ ") + entry
		}
		sections = append(sections, m.row(len(meta.SubActions)+i, line))
	}

	if len(m.links) > 0 {
		sections = append(sections, "", headStyle.Render("Links"))
		for _, l := range m.links {
			sections = append(sections, "  "+linkLine(*it, l))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// linkLine describes the other side of l as seen from it.
func linkLine(it model.Item, l model.Link) string {
	other := l.TaskMasterTitle
	if it.Collection == model.CollectionTaskMaster {
		other = l.ScheduleTitle
	}
	if l.Dangling {
		return theme.OverdueStyle.Render("dangling link")
	}
	if l.SubAction != "" {
		return fmt.Sprintf("%s (via %s)", other, l.SubAction)
	}
	return other
}
