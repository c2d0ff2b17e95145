// Package app is the Bubble Tea front end. All screen state lives in
// State and changes only through typed messages handled by Update.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/nhle/planner/internal/keys"
	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/recurrence"
	"github.com/nhle/planner/internal/sync"
	"github.com/nhle/planner/internal/ui"
	"github.com/nhle/planner/internal/ui/calendar"
	"github.com/nhle/planner/internal/ui/command"
	"github.com/nhle/planner/internal/ui/detail"
	helpview "github.com/nhle/planner/internal/ui/help"
	"github.com/nhle/planner/internal/ui/itemform"
	"github.com/nhle/planner/internal/ui/itemlist"
	"github.com/nhle/planner/internal/view"
)

// Mode is the active screen.
type Mode int

const (
	ModeList Mode = iota
	ModeSearch
	ModeCommand
	ModeHelp
	ModeCalendar
	ModeDetail
	ModeForm
)

// Model is the root Bubble Tea model.
type Model struct {
	ctx        context.Context
	backend    Backend
	eval       recurrence.Evaluator
	dispatcher *sync.Dispatcher
	log        zerolog.Logger
	now        func() time.Time

	keys    *keys.KeyMap
	layout  ui.Layout
	help     help.Model
	overlay  helpview.Model
	search   textinput.Model
	palette  command.Model
	detail   detail.Model
	form     itemform.Model

	state   State
	mode    Mode
	toastID int
	ready   bool

	calendarTitle string
	calendarCells []recurrence.Cell
}

// Option customizes a Model.
type Option func(*Model)

// WithDispatcher listens for finished link-sync jobs and reloads after
// each one.
func WithDispatcher(d *sync.Dispatcher) Option {
	return func(m *Model) { m.dispatcher = d }
}

// WithLogger sets the logger used for sync failures.
func WithLogger(log zerolog.Logger) Option {
	return func(m *Model) { m.log = log }
}

// WithClock replaces the time source used for optimistic completions.
func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

// New creates the root model. ctx carries the authenticated user for
// every backend call.
func New(ctx context.Context, b Backend, eval recurrence.Evaluator, coll model.Collection, opts ...Option) Model {
	si := textinput.New()
	si.Placeholder = "search titles, content, tags..."
	si.Prompt = "/ "
	km := keys.DefaultKeyMap()

	m := Model{
		ctx:     ctx,
		backend: b,
		eval:    eval,
		log:     zerolog.Nop(),
		now:     time.Now,
		keys:    km,
		layout:  ui.NewLayout(80, 24),
		help:    help.New(),
		overlay: helpview.New(km, 80),
		search:  si,
		palette: command.New(80),
		detail:  detail.New(km, 80, 20),
		form:    itemform.New(80, 20),
		state:   NewState(coll),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// State returns a copy of the current screen state.
func (m Model) State() State {
	return m.state
}

// Mode returns the active screen.
func (m Model) Mode() Mode {
	return m.mode
}

// Init loads the first list and starts listening for sync results.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.load()}
	if m.dispatcher != nil {
		cmds = append(cmds, m.dispatcher.WaitForResult())
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.help.Width = msg.Width - 4
		m.search.Width = msg.Width - 6
		m.palette.SetWidth(msg.Width)
		m.overlay.SetWidth(msg.Width)
		m.detail.SetSize(msg.Width, m.layout.ContentHeight())
		m.form.SetSize(msg.Width, m.layout.ContentHeight())
		m.ready = true
		return m, nil

	case itemsLoadedMsg:
		if msg.coll != m.state.Collection {
			return m, nil
		}
		m.state.Loading = false
		if msg.err != nil {
			return m, m.toast(plannerMessage(msg.err))
		}
		focus := ""
		if it, ok := m.state.Selected(); ok {
			focus = it.ID
		}
		m.state.setItems(msg.items, focus)
		return m, nil

	case persistedMsg:
		if msg.err != nil {
			m.log.Warn().Err(msg.err).Str("action", msg.action).Msg("action failed")
			return m, m.fail(msg.err)
		}
		if msg.item != nil {
			m.state.replace(*msg.item)
			m.refreshDetail(*msg.item)
			return m, nil
		}
		return m, m.load()

	case toastExpiredMsg:
		if msg.id == m.toastID {
			m.state.Toast = ""
		}
		return m, nil

	case sync.ResultMsg:
		if msg.Err != nil {
			m.log.Error().Err(msg.Err).Str("job", msg.Job).Msg("link sync failed")
		}
		if m.dispatcher == nil {
			return m, m.load()
		}
		return m, tea.Batch(m.load(), m.dispatcher.WaitForResult())

	case calendarLoadedMsg:
		if msg.err != nil {
			m.mode = ModeList
			return m, m.toast(plannerMessage(msg.err))
		}
		m.calendarTitle, m.calendarCells = msg.title, msg.cells
		return m, nil

	case linksLoadedMsg:
		if msg.err != nil {
			m.log.Warn().Err(msg.err).Str("item", msg.id).Msg("loading links")
			return m, nil
		}
		m.detail.SetLinks(msg.id, msg.links)
		return m, nil

	case DetailMsg:
		i := m.state.indexOf(msg.ID)
		if i < 0 {
			return m, nil
		}
		m.mode = ModeDetail
		m.detail.SetItem(m.state.Items[i], nil)
		return m, m.loadLinks(msg.ID)

	case detail.BackMsg:
		m.mode = ModeList
		return m, nil

	case NewItemMsg:
		return m, m.loadForm(nil)

	case EditItemMsg:
		i := m.state.indexOf(msg.ID)
		if i < 0 {
			return m, nil
		}
		it := m.state.Items[i].Clone()
		return m, m.loadForm(&it)

	case formReadyMsg:
		if msg.err != nil {
			return m, m.toast(plannerMessage(msg.err))
		}
		m.form.SetOptions(msg.taskMasters)
		m.mode = ModeForm
		if msg.item == nil {
			return m, m.form.StartCreate(m.state.Collection)
		}
		return m, m.form.StartEdit(*msg.item)

	case itemform.CancelMsg:
		m.mode = ModeList
		return m, nil

	case ReloadMsg:
		m.state.Loading = true
		return m, m.load()

	case SetViewMsg:
		m.state.Options = msg.Options
		m.state.Loading = true
		return m, m.load()

	case CollectionMsg:
		m.state = NewState(msg.Collection)
		m.state.Loading = true
		return m, m.load()

	case CalendarMsg:
		m.mode = ModeCalendar
		m.calendarCells = nil
		return m, m.loadCalendar(msg.ID)

	case command.CommandMsg:
		m.mode = ModeList
		return m.runCommand(msg)

	case command.CancelMsg:
		m.mode = ModeList
		return m, nil

	case CompleteMsg, UndoMsg, MoveMsg, ArchiveMsg, VoidMsg, RestoreMsg, RenormalizeMsg, TemplateMsg,
		detail.ToggleMsg, detail.RemoveEntryMsg:
		return m.apply(msg)

	case itemform.SubmitMsg:
		m.mode = ModeList
		return m.apply(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.mode == ModeForm {
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case ModeSearch:
		return m.handleSearchKey(msg)
	case ModeCommand:
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	case ModeForm:
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd
	case ModeDetail:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd
	case ModeHelp, ModeCalendar:
		if key.Matches(msg, m.keys.Back) || key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Quit) {
			m.mode = ModeList
		}
		return m, nil
	}

	k := m.keys
	selected, hasSelection := m.state.Selected()
	emit := func(msg tea.Msg) tea.Cmd {
		if !hasSelection {
			return nil
		}
		return func() tea.Msg { return msg }
	}

	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit
	case key.Matches(msg, k.Down):
		m.state.Cursor++
		m.state.clamp()
	case key.Matches(msg, k.Up):
		m.state.Cursor--
		m.state.clamp()
	case key.Matches(msg, k.Complete):
		return m, emit(CompleteMsg{ID: selected.ID})
	case key.Matches(msg, k.Bonus):
		return m, emit(CompleteMsg{ID: selected.ID, Bonus: true})
	case key.Matches(msg, k.Undo):
		return m, emit(UndoMsg{ID: selected.ID})
	case key.Matches(msg, k.MoveUp):
		return m, emit(MoveMsg{ID: selected.ID, Offset: -1})
	case key.Matches(msg, k.MoveDown):
		return m, emit(MoveMsg{ID: selected.ID, Offset: 1})
	case key.Matches(msg, k.Archive):
		return m, emit(ArchiveMsg{ID: selected.ID})
	case key.Matches(msg, k.Void):
		return m, emit(VoidMsg{ID: selected.ID})
	case key.Matches(msg, k.Restore):
		return m, emit(RestoreMsg{ID: selected.ID})
	case key.Matches(msg, k.Calendar):
		return m, emit(CalendarMsg{ID: selected.ID})
	case key.Matches(msg, k.Open):
		return m, emit(DetailMsg{ID: selected.ID})
	case key.Matches(msg, k.New):
		return m, func() tea.Msg { return NewItemMsg{} }
	case key.Matches(msg, k.Edit):
		return m, emit(EditItemMsg{ID: selected.ID})
	case key.Matches(msg, k.Collection):
		next := m.state.Collection.Other()
		return m, func() tea.Msg { return CollectionMsg{Collection: next} }
	case key.Matches(msg, k.Status):
		opts := m.state.Options
		opts.Status = opts.Status.Next()
		return m, func() tea.Msg { return SetViewMsg{Options: opts} }
	case key.Matches(msg, k.CycleSort):
		opts := m.state.Options
		opts.Sort = opts.Sort.Next()
		return m, func() tea.Msg { return SetViewMsg{Options: opts} }
	case key.Matches(msg, k.Search):
		m.mode = ModeSearch
		m.search.SetValue(m.state.Options.Search)
		return m, m.search.Focus()
	case key.Matches(msg, k.Command):
		m.mode = ModeCommand
		return m, m.palette.Focus()
	case key.Matches(msg, k.Refresh):
		return m, func() tea.Msg { return ReloadMsg{} }
	case key.Matches(msg, k.Help):
		m.mode = ModeHelp
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		opts := m.state.Options
		opts.Search = m.search.Value()
		if msg.String() == "esc" {
			opts.Search = ""
			m.search.Reset()
		}
		m.search.Blur()
		m.mode = ModeList
		return m, func() tea.Msg { return SetViewMsg{Options: opts} }
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m Model) runCommand(msg command.CommandMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		return m, m.toast(msg.Err.Error())
	}

	opts := m.state.Options
	setView := func() tea.Cmd {
		return func() tea.Msg { return SetViewMsg{Options: opts} }
	}

	args := msg.Command.Args
	switch msg.Command.Name {
	case "sort":
		sort, err := view.ParseSort(args[0])
		if err != nil {
			return m, m.toast(err.Error())
		}
		opts.Sort = sort
		return m, setView()
	case "status":
		status, err := view.ParseStatus(args[0])
		if err != nil {
			return m, m.toast(err.Error())
		}
		opts.Status = status
		return m, setView()
	case "tag":
		opts.Tags = args
		return m, setView()
	case "favorites":
		opts.FavoritesView = !opts.FavoritesView
		return m, setView()
	case "renormalize":
		it, ok := m.state.Selected()
		if !ok {
			return m, nil
		}
		return m.apply(RenormalizeMsg{Bucket: it.Bucket})
	case "template":
		date := m.now()
		if len(args) == 1 {
			d, err := time.ParseInLocation(time.DateOnly, args[0], time.Local)
			if err != nil {
				return m, m.toast(fmt.Sprintf("bad date %q", args[0]))
			}
			date = d
		}
		return m.apply(TemplateMsg{Date: date})
	case "reload":
		return m, func() tea.Msg { return ReloadMsg{} }
	case "quit":
		return m, tea.Quit
	}
	return m, nil
}

// View renders the screen.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(collectionTitle(m.state.Collection), m.viewInfo())
	statusBar := m.layout.RenderStatusBar(m.keyHints(), m.state.Toast)
	return m.layout.RenderWithFrame(header, m.renderContent(), statusBar)
}

func (m Model) renderContent() string {
	height := m.layout.ContentHeight()
	switch m.mode {
	case ModeHelp:
		return m.overlay.View()
	case ModeDetail:
		return m.detail.View()
	case ModeForm:
		return m.form.View()
	case ModeCalendar:
		if m.calendarCells == nil {
			return "Loading calendar..."
		}
		return calendar.View(m.calendarTitle, m.calendarCells, m.eval.WeekStart)
	case ModeSearch:
		return lipgloss.JoinVertical(lipgloss.Left, m.search.View(),
			itemlist.View(m.state.Items, m.state.Cursor, m.layout.Width, height-1, m.now(), m.eval))
	case ModeCommand:
		return lipgloss.JoinVertical(lipgloss.Left, m.palette.View(),
			itemlist.View(m.state.Items, m.state.Cursor, m.layout.Width, height-1, m.now(), m.eval))
	default:
		return itemlist.View(m.state.Items, m.state.Cursor, m.layout.Width, height, m.now(), m.eval)
	}
}

func collectionTitle(c model.Collection) string {
	if c == model.CollectionTaskMaster {
		return "Task Master"
	}
	return "Schedule"
}

func (m Model) viewInfo() string {
	info := fmt.Sprintf("%s · %s · %d", m.state.Options.Status, m.state.Options.Sort, len(m.state.Items))
	if m.state.Options.Search != "" {
		info += fmt.Sprintf(" · %q", m.state.Options.Search)
	}
	if m.state.Loading {
		info += " · loading"
	}
	return info
}

func (m Model) keyHints() string {
	switch m.mode {
	case ModeSearch:
		return "enter apply | esc clear"
	case ModeCommand:
		return "enter run | esc cancel"
	case ModeHelp, ModeCalendar:
		return "esc back"
	case ModeForm:
		return "enter next | ctrl+c cancel"
	case ModeDetail:
		return m.help.ShortHelpView([]key.Binding{m.keys.Up, m.keys.Down, m.keys.Toggle, m.keys.RemoveEntry, m.keys.Back})
	default:
		return m.help.ShortHelpView(m.keys.ShortHelp())
	}
}
