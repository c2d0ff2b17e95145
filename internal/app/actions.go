package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/planner"
	"github.com/nhle/planner/internal/position"
	"github.com/nhle/planner/internal/recurrence"
	"github.com/nhle/planner/internal/store"
	"github.com/nhle/planner/internal/ui/detail"
	"github.com/nhle/planner/internal/ui/itemform"
	"github.com/nhle/planner/internal/view"
)

// toastDuration is how long an error toast stays up.
const toastDuration = 3 * time.Second

// Backend is the action layer the TUI drives. *planner.Service
// satisfies it.
type Backend interface {
	List(ctx context.Context, coll model.Collection, opts view.Options) ([]model.Item, error)
	Create(ctx context.Context, it model.Item) (*model.Item, error)
	Edit(ctx context.Context, coll model.Collection, id string, p store.Patch) (*model.Item, error)
	SmartComplete(ctx context.Context, coll model.Collection, id string, bonus bool) (*model.Item, error)
	Undo(ctx context.Context, coll model.Collection, id string) (*model.Item, error)
	Move(ctx context.Context, coll model.Collection, bucket, id string, offset int) ([]position.Entry, error)
	Archive(ctx context.Context, coll model.Collection, id string) (*model.Item, error)
	Void(ctx context.Context, coll model.Collection, id string) (*model.Item, error)
	Restore(ctx context.Context, coll model.Collection, id string) (*model.Item, error)
	Renormalize(ctx context.Context, coll model.Collection, bucket string) ([]position.Entry, error)
	LoadTemplate(ctx context.Context, coll model.Collection, ids []string, date time.Time) ([]model.Item, error)
	Calendar(ctx context.Context, coll model.Collection, id string, month time.Time) ([]recurrence.Cell, error)
	ToggleSubAction(ctx context.Context, coll model.Collection, id, key string) (*model.Item, error)
	RemoveLedgerEntry(ctx context.Context, coll model.Collection, id string, i int) (*model.Item, error)
	Links(ctx context.Context, coll model.Collection, id string) ([]model.Link, error)
}

// Action messages. Each is applied optimistically to State by Update and
// then persisted by a command.
type (
	CompleteMsg struct {
		ID    string
		Bonus bool
	}
	UndoMsg struct{ ID string }
	MoveMsg struct {
		ID     string
		Offset int
	}
	ArchiveMsg     struct{ ID string }
	VoidMsg        struct{ ID string }
	RestoreMsg     struct{ ID string }
	SetViewMsg     struct{ Options view.Options }
	CollectionMsg  struct{ Collection model.Collection }
	RenormalizeMsg struct{ Bucket string }
	TemplateMsg    struct{ Date time.Time }
	CalendarMsg    struct{ ID string }
	DetailMsg      struct{ ID string }
	NewItemMsg     struct{}
	EditItemMsg    struct{ ID string }
	ReloadMsg      struct{}
)

// itemsLoadedMsg carries a fresh list from the store.
type itemsLoadedMsg struct {
	coll  model.Collection
	items []model.Item
	err   error
}

// persistedMsg reports the outcome of a persistence command.
type persistedMsg struct {
	action string
	item   *model.Item
	err    error
}

type calendarLoadedMsg struct {
	title string
	cells []recurrence.Cell
	err   error
}

type linksLoadedMsg struct {
	id    string
	links []model.Link
	err   error
}

// formReadyMsg opens the item form once its link options are loaded.
// item is nil for a new item.
type formReadyMsg struct {
	taskMasters []model.Item
	item        *model.Item
	err         error
}

type toastExpiredMsg struct{ id int }

func (m Model) load() tea.Cmd {
	b, ctx := m.backend, m.ctx
	coll, opts := m.state.Collection, m.state.Options
	return func() tea.Msg {
		items, err := b.List(ctx, coll, opts)
		return itemsLoadedMsg{coll: coll, items: items, err: err}
	}
}

// persist runs fn as a command and reports the result.
func (m Model) persist(action string, fn func(ctx context.Context) (*model.Item, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		it, err := fn(ctx)
		return persistedMsg{action: action, item: it, err: err}
	}
}

// toast shows msg for toastDuration.
func (m *Model) toast(msg string) tea.Cmd {
	m.toastID++
	id := m.toastID
	m.state.Toast = msg
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}

// fail shows the failure toast and reloads, discarding optimistic state.
func (m *Model) fail(err error) tea.Cmd {
	m.state.Loading = true
	return tea.Batch(m.toast(plannerMessage(err)), m.load())
}

// apply handles an action message: optimistic update plus persistence.
func (m Model) apply(msg tea.Msg) (Model, tea.Cmd) {
	coll := m.state.Collection
	b := m.backend

	switch msg := msg.(type) {
	case CompleteMsg:
		i := m.state.indexOf(msg.ID)
		if i < 0 {
			return m, nil
		}
		updated, outcome := m.eval.SmartComplete(m.state.Items[i], msg.Bonus, m.now())
		if outcome == recurrence.AlreadySatisfied {
			return m, m.toast(planner.ResultOf(planner.ErrAlreadySatisfied).Message)
		}
		m.state.replace(updated)
		return m, m.persist("complete", func(ctx context.Context) (*model.Item, error) {
			return b.SmartComplete(ctx, coll, msg.ID, msg.Bonus)
		})

	case UndoMsg:
		i := m.state.indexOf(msg.ID)
		if i < 0 {
			return m, nil
		}
		updated, changed := recurrence.Undo(m.state.Items[i])
		if !changed {
			return m, nil
		}
		m.state.replace(updated)
		return m, m.persist("undo", func(ctx context.Context) (*model.Item, error) {
			return b.Undo(ctx, coll, msg.ID)
		})

	case MoveMsg:
		if m.state.Options.Sort != view.SortManual {
			return m, m.toast("Switch to manual sort to reorder")
		}
		i := m.state.indexOf(msg.ID)
		if i < 0 {
			return m, nil
		}
		bucket := m.state.Items[i].Bucket
		if !m.state.swap(i, msg.Offset) {
			return m, nil
		}
		return m, m.persist("move", func(ctx context.Context) (*model.Item, error) {
			_, err := b.Move(ctx, coll, bucket, msg.ID, msg.Offset)
			return nil, err
		})

	case ArchiveMsg:
		return m.setStatus(msg.ID, model.StatusArchived, "archive", b.Archive)

	case VoidMsg:
		return m.setStatus(msg.ID, model.StatusVoided, "void", b.Void)

	case RestoreMsg:
		return m.setStatus(msg.ID, model.StatusActive, "restore", b.Restore)

	case RenormalizeMsg:
		bucket := msg.Bucket
		return m, m.persist("renormalize", func(ctx context.Context) (*model.Item, error) {
			_, err := b.Renormalize(ctx, coll, bucket)
			return nil, err
		})

	case detail.ToggleMsg:
		i := m.state.indexOf(msg.ItemID)
		if i < 0 {
			return m, nil
		}
		updated, _, _, err := recurrence.ToggleSubAction(m.state.Items[i], msg.Key)
		if err != nil {
			return m, m.toast(err.Error())
		}
		m.state.replace(updated)
		m.refreshDetail(updated)
		return m, m.persist("toggle", func(ctx context.Context) (*model.Item, error) {
			return b.ToggleSubAction(ctx, coll, msg.ItemID, msg.Key)
		})

	case detail.RemoveEntryMsg:
		i := m.state.indexOf(msg.ItemID)
		if i < 0 {
			return m, nil
		}
		updated, err := recurrence.RemoveEntry(m.state.Items[i], msg.Index)
		if err != nil {
			return m, m.toast(err.Error())
		}
		m.state.replace(updated)
		m.refreshDetail(updated)
		return m, m.persist("remove entry", func(ctx context.Context) (*model.Item, error) {
			return b.RemoveLedgerEntry(ctx, coll, msg.ItemID, msg.Index)
		})

	case itemform.SubmitMsg:
		it := msg.Item
		if msg.ID == "" {
			return m, m.persist("create", func(ctx context.Context) (*model.Item, error) {
				_, err := b.Create(ctx, it)
				return nil, err
			})
		}
		m.state.replace(it)
		p := editPatch(it)
		return m, m.persist("edit", func(ctx context.Context) (*model.Item, error) {
			return b.Edit(ctx, coll, msg.ID, p)
		})

	case TemplateMsg:
		return m, m.persist("template", func(ctx context.Context) (*model.Item, error) {
			_, err := b.LoadTemplate(ctx, coll, nil, msg.Date)
			return nil, err
		})
	}
	return m, nil
}

func (m Model) setStatus(
	id string,
	status model.Status,
	action string,
	fn func(context.Context, model.Collection, string) (*model.Item, error),
) (Model, tea.Cmd) {
	i := m.state.indexOf(id)
	if i < 0 {
		return m, nil
	}
	updated := m.state.Items[i].Clone()
	updated.Status = status
	m.state.replace(updated)

	coll := m.state.Collection
	return m, m.persist(action, func(ctx context.Context) (*model.Item, error) {
		return fn(ctx, coll, id)
	})
}

func (m Model) loadCalendar(id string) tea.Cmd {
	i := m.state.indexOf(id)
	if i < 0 {
		return nil
	}
	title := m.state.Items[i].Title
	b, ctx, coll, now := m.backend, m.ctx, m.state.Collection, m.now()
	return func() tea.Msg {
		cells, err := b.Calendar(ctx, coll, id, now)
		return calendarLoadedMsg{title: title, cells: cells, err: err}
	}
}

// editPatch turns a submitted form into a patch of the edited fields.
func editPatch(it model.Item) store.Patch {
	md := it.Metadata
	p := store.Patch{
		Title:    &it.Title,
		Content:  &it.Content,
		Metadata: &md,
	}
	if it.Recurrence != nil {
		p.Recurrence = it.Recurrence
	} else {
		p.ClearRecurrence = true
	}
	if it.DueDate != nil {
		p.DueDate = it.DueDate
	} else {
		p.ClearDueDate = true
	}
	return p
}

// loadForm fetches the task-master items offered as link targets, then
// opens the form for item (nil for a new one).
func (m Model) loadForm(item *model.Item) tea.Cmd {
	b, ctx := m.backend, m.ctx
	opts := view.Options{Status: view.StatusActive, Sort: view.SortAZ}
	return func() tea.Msg {
		tms, err := b.List(ctx, model.CollectionTaskMaster, opts)
		return formReadyMsg{taskMasters: tms, item: item, err: err}
	}
}

func (m Model) loadLinks(id string) tea.Cmd {
	b, ctx, coll := m.backend, m.ctx, m.state.Collection
	return func() tea.Msg {
		links, err := b.Links(ctx, coll, id)
		return linksLoadedMsg{id: id, links: links, err: err}
	}
}

// refreshDetail shows it in the detail view when that item is open.
func (m *Model) refreshDetail(it model.Item) {
	if cur, ok := m.detail.Item(); ok && cur.ID == it.ID {
		m.detail.SetItem(it, nil)
	}
}

func plannerMessage(err error) string {
	return planner.ResultOf(err).Message
}
