package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"careconnect/internal/config"
	"careconnect/internal/remind"
	"careconnect/internal/tasks"
)

const (
	reminderEvery = time.Minute
	notifyTitle   = "CareConnect reminder"
)

type mode int

const (
	modeList mode = iota
	modeEdit
	modeSearch
)

// TaskStore is the persistence the dashboard needs.
type TaskStore interface {
	FetchTasks() ([]tasks.Task, error)
	AddTask(title, description string, due, now time.Time) (int64, error)
	UpdateTask(id int64, title, description string, due time.Time) error
	Complete(id int64, at time.Time) error
	Reopen(id int64) error
	CompletedAt(id int64) (time.Time, bool, error)
	DeleteTask(id int64) error
	remind.Ledger
}

// editState backs both the add and the edit form. taskID is zero while
// adding a new task.
type editState struct {
	taskID      int64
	title       string
	description string
	due         string
	index       int
}

type reminderTickMsg time.Time

type notifiedMsg struct {
	count int
	err   error
}

type Options struct {
	Now      func() time.Time
	Notifier remind.Notifier
	Logger   zerolog.Logger
}

type Model struct {
	store      TaskStore
	cfg        config.Config
	log        zerolog.Logger
	now        func() time.Time
	tasks      []tasks.Task
	cursor     int
	mode       mode
	input      textinput.Model
	status     string
	filter     tasks.FilterMode
	query      string
	confirmDel bool
	pendingDel *tasks.Task
	edit       *editState
	scanner    *remind.Scanner
	notifier   remind.Notifier
}

func New(store TaskStore, cfg config.Config, opts Options) (Model, error) {
	ts, err := store.FetchTasks()
	if err != nil {
		return Model{}, err
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 40

	m := Model{
		store:  store,
		cfg:    cfg,
		log:    opts.Logger,
		now:    opts.Now,
		tasks:  ts,
		status: "Press 'a' to add, space to complete, '/' to search.",
		input:  ti,
		mode:   modeList,
		filter: cfg.FilterMode(),
	}
	if cfg.Reminders.Enabled && opts.Notifier != nil {
		m.notifier = opts.Notifier
		m.scanner = remind.NewScanner(time.Duration(cfg.Reminders.GraceMinutes) * time.Minute)
	}
	return m, nil
}

func Run(store TaskStore, cfg config.Config, opts Options) error {
	m, err := New(store, cfg, opts)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	if m.scanner == nil {
		return nil
	}
	// Check immediately so a reminder due at startup is not delayed a minute.
	return func() tea.Msg { return reminderTickMsg(m.now()) }
}

func reminderTick() tea.Cmd {
	return tea.Tick(reminderEvery, func(t time.Time) tea.Msg {
		return reminderTickMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.edit != nil {
			return m.updateEditMode(msg.String(), msg)
		}
		if m.confirmDel {
			return m.updateDeleteConfirm(msg.String())
		}
		if m.mode == modeSearch {
			return m.updateSearchMode(msg.String(), msg)
		}
		return m.updateListMode(msg.String())
	case tea.WindowSizeMsg:
		m.input.Width = msg.Width - 10
	case reminderTickMsg:
		return m.checkReminders(time.Time(msg))
	case notifiedMsg:
		if msg.err != nil {
			m.log.Warn().Err(msg.err).Msg("reminder delivery failed")
			m.status = fmt.Sprintf("reminder failed: %v", msg.err)
		}
	}
	return m, nil
}

// view derives what is on screen from the current UI state.
func (m Model) view() tasks.View {
	return tasks.Derive(m.tasks, m.filter, m.query, m.now())
}

func (m Model) selected() (tasks.Task, bool) {
	return m.view().At(m.cursor)
}

func (m *Model) reload() error {
	ts, err := m.store.FetchTasks()
	if err != nil {
		return err
	}
	m.tasks = ts
	m.cursor = clampCursor(m.cursor, m.view().Len())
	return nil
}

func (m *Model) moveTo(id int64) {
	v := m.view()
	for i := 0; i < v.Len(); i++ {
		if t, _ := v.At(i); t.ID == id {
			m.cursor = i
			return
		}
	}
	m.cursor = clampCursor(m.cursor, v.Len())
}

func (m *Model) setFilter(f tasks.FilterMode) {
	m.filter = f
	m.cursor = clampCursor(m.cursor, m.view().Len())
	m.status = "Showing " + filterLabel(f, m.query)
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	n := m.view().Len()
	switch key {
	case "ctrl+c", m.cfg.Keys.Quit:
		return m, tea.Quit
	case m.cfg.Keys.Down, "down":
		if n == 0 {
			return m, nil
		}
		m.cursor = clampCursor(m.cursor+1, n)
	case m.cfg.Keys.Up, "up":
		if m.cursor > 0 {
			m.cursor = clampCursor(m.cursor-1, n)
		}
	case m.cfg.Keys.Add:
		due := m.now().Truncate(time.Hour).Add(time.Hour)
		return m.startEdit(&editState{due: due.Format(tasks.DueInputLayout)}, "New task")
	case m.cfg.Keys.Toggle:
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m.toggle(t)
	case m.cfg.Keys.Delete:
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.confirmDel = true
		m.pendingDel = &t
		m.status = fmt.Sprintf("Delete \"%s\"? y/n", t.Title)
	case m.cfg.Keys.Detail:
		t, ok := m.selected()
		if !ok {
			m.status = "No tasks"
			return m, nil
		}
		m.status = m.detail(t)
	case m.cfg.Keys.Edit:
		t, ok := m.selected()
		if !ok {
			m.status = "No tasks to edit"
			return m, nil
		}
		return m.startEdit(&editState{
			taskID:      t.ID,
			title:       t.Title,
			description: t.Description,
			due:         t.Due.In(m.now().Location()).Format(tasks.DueInputLayout),
		}, "Edit task")
	case m.cfg.Keys.Search:
		m.mode = modeSearch
		m.filter = tasks.FilterSearch
		m.input.SetValue(m.query)
		m.input.Placeholder = "Search title or description"
		m.input.Focus()
		m.status = "Search: type to filter, Enter to keep, Esc to clear"
	case m.cfg.Keys.CycleFilter:
		m.setFilter(m.filter.Next())
	case m.cfg.Keys.ShowAll:
		m.setFilter(tasks.FilterAll)
	case m.cfg.Keys.ShowToday:
		m.setFilter(tasks.FilterToday)
	}
	return m, nil
}

func (m Model) toggle(t tasks.Task) (tea.Model, tea.Cmd) {
	var err error
	if t.Done() {
		err = m.store.Reopen(t.ID)
		if m.scanner != nil {
			m.scanner.Forget(t.ID)
		}
	} else {
		err = m.store.Complete(t.ID, m.now())
	}
	if err != nil {
		m.log.Error().Err(err).Int64("task_id", t.ID).Msg("toggle failed")
		m.status = fmt.Sprintf("toggle failed: %v", err)
		return m, nil
	}
	if err := m.reload(); err != nil {
		m.status = fmt.Sprintf("reload failed: %v", err)
		return m, nil
	}
	if t.Done() {
		m.status = fmt.Sprintf("Marked \"%s\" pending", t.Title)
	} else {
		m.status = fmt.Sprintf("Completed \"%s\"", t.Title)
	}
	return m, nil
}

func (m Model) detail(t tasks.Task) string {
	info := fmt.Sprintf("Task #%d • %s • %s • due %s", t.ID, t.Title, t.Status, tasks.FormatDueDate(t.Due, m.now()))
	if strings.TrimSpace(t.Description) != "" {
		info += " • " + t.Description
	}
	at, ok, err := m.store.CompletedAt(t.ID)
	switch {
	case err != nil:
		m.log.Warn().Err(err).Int64("task_id", t.ID).Msg("read completion")
	case ok:
		info += " • completed " + tasks.FormatDueDate(at, m.now())
	}
	return info
}

func (m Model) updateSearchMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c":
		return m, tea.Quit
	case m.cfg.Keys.Cancel, "esc":
		m.query = ""
		m.input.SetValue("")
		m.input.Blur()
		m.mode = modeList
		m.cursor = clampCursor(m.cursor, m.view().Len())
		m.status = "Search cleared"
		return m, nil
	case m.cfg.Keys.Confirm, "enter":
		m.input.Blur()
		m.mode = modeList
		m.status = fmt.Sprintf("%d matching task(s)", m.view().Len())
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.query = m.input.Value()
		m.cursor = clampCursor(m.cursor, m.view().Len())
		return m, cmd
	}
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N":
		m.status = "Delete cancelled"
		m.confirmDel = false
		m.pendingDel = nil
		return m, nil
	case "y", "Y":
		if m.pendingDel == nil {
			m.status = "Nothing to delete"
			m.confirmDel = false
			return m, nil
		}
		if err := m.store.DeleteTask(m.pendingDel.ID); err != nil {
			m.log.Error().Err(err).Int64("task_id", m.pendingDel.ID).Msg("delete failed")
			m.status = fmt.Sprintf("delete failed: %v", err)
			m.confirmDel = false
			m.pendingDel = nil
			return m, nil
		}
		if err := m.reload(); err != nil {
			m.status = fmt.Sprintf("reload failed: %v", err)
		} else {
			m.status = "Deleted task"
		}
		m.confirmDel = false
		m.pendingDel = nil
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) checkReminders(t time.Time) (tea.Model, tea.Cmd) {
	if m.scanner == nil {
		return m, nil
	}
	due, err := m.scanner.Check(m.store, t, m.tasks)
	if err != nil {
		m.log.Warn().Err(err).Msg("reminder check failed")
		m.status = fmt.Sprintf("reminder check failed: %v", err)
		return m, reminderTick()
	}
	if len(due) == 0 {
		return m, reminderTick()
	}
	m.status = "Reminder: " + remind.Message(due[0], t)
	if len(due) > 1 {
		m.status += fmt.Sprintf(" (+%d more)", len(due)-1)
	}
	m.log.Info().Int("count", len(due)).Msg("sending reminders")

	n := m.notifier
	send := func() tea.Msg {
		return notifiedMsg{count: len(due), err: remind.Send(n, notifyTitle, due, t)}
	}
	return m, tea.Batch(send, reminderTick())
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("CareConnect"))
	b.WriteString("  ")
	b.WriteString(helpStyle.Render(filterLabel(m.filter, m.query)))
	b.WriteString("\n\n")

	if m.edit != nil {
		b.WriteString(m.renderEditBox())
		b.WriteString("\n")
		b.WriteString("Field: " + m.edit.currentLabel())
		b.WriteString("\n")
		b.WriteString(m.input.View())
	} else {
		b.WriteString(m.renderTaskList())
		if m.mode == modeSearch {
			b.WriteString("\nSearch: ")
			b.WriteString(m.input.View())
			b.WriteString("\n")
		}
	}

	b.WriteString("\n\n")
	b.WriteString(statusStyle.Render(m.status))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(renderHelp(m.cfg.Keys)))

	return b.String()
}

func (m Model) renderTaskList() string {
	if len(m.tasks) == 0 {
		return "No tasks yet. Press 'a' to add one.\n"
	}
	v := m.view()
	if v.Len() == 0 {
		return "Nothing matches " + filterLabel(m.filter, m.query) + ".\n"
	}

	ref := m.now()
	var b strings.Builder
	row := 0
	section := func(name string, ts []tasks.Task) {
		b.WriteString(sectionStyle.Render(fmt.Sprintf("%s (%d)", name, len(ts))))
		b.WriteString("\n")
		for _, t := range ts {
			title := t.Title
			checkbox := "[ ]"
			if t.Done() {
				checkbox = "[x]"
				title = doneStyle.Render(title)
			}
			line := fmt.Sprintf("%s %s  %s", checkbox, title, dueStyle.Render(tasks.FormatDueDate(t.Due, ref)))
			if m.cursor == row && m.mode != modeSearch {
				b.WriteString(selectedStyle.Render(line))
			} else {
				b.WriteString(rowStyle.Render(line))
			}
			b.WriteString("\n")
			row++
		}
	}
	section("Pending", v.Pending)
	if m.filter != tasks.FilterToday {
		b.WriteString("\n")
		section("Completed", v.Completed)
	}
	return b.String()
}

func filterLabel(f tasks.FilterMode, query string) string {
	switch f {
	case tasks.FilterToday:
		return "today's tasks"
	case tasks.FilterSearch:
		if strings.TrimSpace(query) == "" {
			return "all tasks (empty search)"
		}
		return fmt.Sprintf("tasks matching %q", strings.TrimSpace(query))
	default:
		return "all tasks"
	}
}

func renderHelp(k config.Keymap) string {
	return fmt.Sprintf("%s/%s move • %s add • %s detail • %s complete/undo • %s delete • %s edit • %s search • %s filter • %s all • %s today • %s quit",
		k.Up, k.Down, k.Add, k.Detail, keyName(k.Toggle), k.Delete, k.Edit, k.Search, k.CycleFilter, k.ShowAll, k.ShowToday, k.Quit)
}

func keyName(k string) string {
	if k == " " {
		return "space"
	}
	return k
}

func (m Model) startEdit(e *editState, heading string) (tea.Model, tea.Cmd) {
	m.edit = e
	m.input.SetValue(e.currentValue())
	m.input.Placeholder = e.currentLabel()
	m.input.Focus()
	m.mode = modeEdit
	m.status = heading + ": tab to move, enter to save/next, esc to cancel"
	return m, textinput.Blink
}

func (m Model) updateEditMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel, "esc":
		m.edit = nil
		m.mode = modeList
		m.input.Blur()
		m.input.SetValue("")
		m.status = "Edit cancelled"
		return m, nil
	case "tab", "down":
		m.edit.setCurrentValue(m.input.Value())
		m.edit.index = wrapIndex(m.edit.index+1, len(editFields()))
		m.syncEditInput()
		return m, nil
	case "shift+tab", "up":
		m.edit.setCurrentValue(m.input.Value())
		m.edit.index = wrapIndex(m.edit.index-1, len(editFields()))
		m.syncEditInput()
		return m, nil
	case m.cfg.Keys.Confirm, "enter":
		m.edit.setCurrentValue(m.input.Value())
		if m.edit.index >= len(editFields())-1 {
			return m.saveEdit()
		}
		m.edit.index++
		m.syncEditInput()
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m *Model) syncEditInput() {
	m.input.SetValue(m.edit.currentValue())
	m.input.Placeholder = m.edit.currentLabel()
	m.status = fmt.Sprintf("Editing %s (field %d of %d). Enter to advance, Esc to cancel.",
		m.edit.currentLabel(), m.edit.index+1, len(editFields()))
}

func (m Model) saveEdit() (tea.Model, tea.Cmd) {
	e := m.edit
	due, err := tasks.ParseDue(e.due, m.now().Location())
	if err != nil {
		m.status = fmt.Sprintf("due date invalid: %v", err)
		return m, nil
	}

	id := e.taskID
	if id == 0 {
		id, err = m.store.AddTask(e.title, e.description, due, m.now())
	} else {
		err = m.store.UpdateTask(id, e.title, e.description, due)
	}
	if err != nil {
		m.log.Error().Err(err).Int64("task_id", id).Msg("save failed")
		m.status = fmt.Sprintf("save failed: %v", err)
		return m, nil
	}
	if m.scanner != nil {
		m.scanner.Forget(id)
	}

	added := e.taskID == 0
	m.edit = nil
	m.mode = modeList
	m.input.Blur()
	m.input.SetValue("")

	if err := m.reload(); err != nil {
		m.status = fmt.Sprintf("reload failed: %v", err)
		return m, nil
	}
	m.moveTo(id)
	if added {
		m.status = "Added task"
	} else {
		m.status = "Task saved"
	}
	return m, nil
}

func editFields() []string {
	return []string{"title", "description", "due (YYYY-MM-DD HH:MM)"}
}

func (e editState) currentLabel() string {
	return editFields()[e.index]
}

func (e editState) currentValue() string {
	switch e.index {
	case 0:
		return e.title
	case 1:
		return e.description
	case 2:
		return e.due
	default:
		return ""
	}
}

func (e *editState) setCurrentValue(v string) {
	switch e.index {
	case 0:
		e.title = v
	case 1:
		e.description = v
	case 2:
		e.due = v
	}
}

func (m Model) renderEditBox() string {
	heading := "New task"
	if m.edit.taskID != 0 {
		heading = fmt.Sprintf("Task #%d", m.edit.taskID)
	}
	values := []string{m.edit.title, m.edit.description, m.edit.due}

	var b strings.Builder
	b.WriteString(sectionStyle.Render(heading))
	b.WriteString("\n")
	for i, name := range editFields() {
		prefix := " "
		if i == m.edit.index {
			prefix = ">"
		}
		val := values[i]
		if strings.TrimSpace(val) == "" {
			val = "(empty)"
		}
		b.WriteString(fmt.Sprintf("%s %-24s : %s\n", prefix, name, val))
	}
	return b.String()
}

func wrapIndex(idx, n int) int {
	if n <= 0 {
		return 0
	}
	idx %= n
	if idx < 0 {
		idx += n
	}
	return idx
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
