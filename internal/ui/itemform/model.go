// Package itemform is the create/edit form for schedule and task-master
// items.
package itemform

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/theme"
)

// SubmitMsg carries the filled-in item. ID is empty for a new item.
type SubmitMsg struct {
	ID   string
	Item model.Item
}

// CancelMsg is sent when the user aborts the form.
type CancelMsg struct{}

// bindings holds field values on the heap so huh's Value pointers stay
// valid across Bubble Tea model copies.
type bindings struct {
	title        string
	content      string
	recurrence   string
	dueDate      string
	tags         string
	kind         string
	taskMasterID string
}

// Model is the item form.
type Model struct {
	form        *huh.Form
	fb          *bindings
	coll        model.Collection
	original    model.Item
	editing     bool
	taskMasters []model.Item
	width       int
	height      int
}

// New creates an empty form.
func New(width, height int) Model {
	return Model{
		fb:     &bindings{},
		width:  width,
		height: height,
	}
}

// SetOptions sets the task-master items offered as link targets.
func (m *Model) SetOptions(taskMasters []model.Item) {
	m.taskMasters = taskMasters
}

// Editing reports whether the form edits an existing item.
func (m Model) Editing() bool { return m.editing }

// StartCreate resets the form for a new item of coll.
func (m *Model) StartCreate(coll model.Collection) tea.Cmd {
	m.coll = coll
	m.editing = false
	m.original = model.Item{Collection: coll}
	*m.fb = bindings{recurrence: string(model.RecurrenceOneOff)}
	if coll == model.CollectionTaskMaster {
		m.fb.kind = string(model.KindTask)
	}
	m.form = m.build()
	return m.form.Init()
}

// StartEdit fills the form from it.
func (m *Model) StartEdit(it model.Item) tea.Cmd {
	m.coll = it.Collection
	m.editing = true
	m.original = it.Clone()
	*m.fb = bindings{
		title:        it.Title,
		content:      it.Content,
		recurrence:   string(it.RecurrenceOrOneOff()),
		tags:         strings.Join(it.Metadata.Tags, ", "),
		kind:         string(it.Metadata.Kind),
		taskMasterID: it.Metadata.TaskMasterID,
	}
	if it.DueDate != nil {
		m.fb.dueDate = it.DueDate.Format(time.DateOnly)
	}
	m.form = m.build()
	return m.form.Init()
}

// Update handles messages for the form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		return m, m.submit()
	case huh.StateAborted:
		return m, func() tea.Msg { return CancelMsg{} }
	}
	return m, cmd
}

// View renders the form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	heading := "New item"
	if m.editing {
		heading = "Edit item"
	}
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1).
		Render(heading)

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(title + "\n" + m.form.View())
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) build() *huh.Form {
	fields := []huh.Field{
		huh.NewInput().
			Title("Title").
			Placeholder("What needs doing?").
			Value(&m.fb.title).
			Validate(validateRequired("Title")),
		huh.NewText().
			Title("Content").
			Placeholder("Optional notes...").
			Value(&m.fb.content),
		huh.NewSelect[string]().
			Title("Recurrence").
			Options(
				huh.NewOption("One-off", string(model.RecurrenceOneOff)),
				huh.NewOption("Daily", string(model.RecurrenceDaily)),
				huh.NewOption("Weekly", string(model.RecurrenceWeekly)),
				huh.NewOption("Monthly", string(model.RecurrenceMonthly)),
				huh.NewOption("Quarterly", string(model.RecurrenceQuarterly)),
			).
			Value(&m.fb.recurrence),
		huh.NewInput().
			Title("Due date").
			Placeholder("YYYY-MM-DD (optional)").
			Value(&m.fb.dueDate).
			Validate(validateOptionalDate),
		huh.NewInput().
			Title("Tags").
			Placeholder("comma separated").
			Value(&m.fb.tags),
	}

	if m.coll == model.CollectionTaskMaster {
		fields = append(fields, huh.NewSelect[string]().
			Title("Kind").
			Options(
				huh.NewOption("Task", string(model.KindTask)),
				huh.NewOption("Ticket", string(model.KindTicket)),
				huh.NewOption("Course", string(model.KindCourse)),
				huh.NewOption("Resource", string(model.KindResource)),
				huh.NewOption("Idea", string(model.KindIdea)),
				huh.NewOption("Audition", string(model.KindAudition)),
			).
			Value(&m.fb.kind))
	} else {
		fields = append(fields, m.linkField())
	}

	return huh.NewForm(huh.NewGroup(fields...)).
		WithWidth(m.formWidth()).
		WithHeight(m.formHeight())
}

// linkField offers the task-master items a schedule item can follow.
func (m *Model) linkField() huh.Field {
	opts := []huh.Option[string]{huh.NewOption("None", "")}
	known := false
	for _, tm := range m.taskMasters {
		opts = append(opts, huh.NewOption(tm.Title, tm.ID))
		known = known || tm.ID == m.fb.taskMasterID
	}
	if m.fb.taskMasterID != "" && !known {
		opts = append(opts, huh.NewOption("(missing) "+m.fb.taskMasterID, m.fb.taskMasterID))
	}
	return huh.NewSelect[string]().
		Title("Linked task-master item").
		Options(opts...).
		Value(&m.fb.taskMasterID)
}

// item builds the submitted item from the bindings.
func (m Model) item() model.Item {
	it := m.original.Clone()
	it.Collection = m.coll
	it.Title = strings.TrimSpace(m.fb.title)
	it.Content = m.fb.content
	it.Recurrence = model.ParseRecurrence(m.fb.recurrence)
	it.DueDate = nil
	if d, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(m.fb.dueDate), time.Local); err == nil {
		it.DueDate = &d
	}
	it.Metadata.Tags = splitTags(m.fb.tags)
	if m.coll == model.CollectionTaskMaster {
		it.Metadata.Kind = model.Kind(m.fb.kind)
	} else {
		it.Metadata.TaskMasterID = m.fb.taskMasterID
	}
	return it
}

func (m Model) submit() tea.Cmd {
	out := SubmitMsg{Item: m.item()}
	if m.editing {
		out.ID = m.original.ID
	}
	return func() tea.Msg { return out }
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}

func (m Model) formHeight() int {
	return max(m.height-4, 10)
}

func validateRequired(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func validateOptionalDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := time.Parse(time.DateOnly, s); err != nil {
		return fmt.Errorf("invalid date, use YYYY-MM-DD")
	}
	return nil
}
