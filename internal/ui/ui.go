package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/snipx/internal/highlight"
	"github.com/desertthunder/snipx/internal/models"
	"github.com/desertthunder/snipx/internal/shared"
	"github.com/desertthunder/snipx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ListView ViewState = iota
	DetailView
	FormView
	ConfirmDeleteView
	ShareView
)

// form field focus
const (
	focusTitle = iota
	focusCode
	focusLanguage
	focusCount
)

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	vm       *tasks.ViewModel
	hl       *highlight.Highlighter
	alerts   *AlertBuffer
	progress <-chan tasks.ProgressUpdate
	logger   *log.Logger

	view        ViewState
	width       int
	height      int
	list        list.Model
	showShared  bool
	selected    models.Snippet
	title       textinput.Model
	code        textarea.Model
	focus       int
	langIdx     int
	shareCursor int
	shareFrom   ViewState
	busy        bool
	status      string
	failed      bool
	help        help.Model
	keys        keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
//
// alerts must be the [tasks.Alerter] the view-model was built with; progress may be nil.
func NewModel(ctx context.Context, vm *tasks.ViewModel, hl *highlight.Highlighter, alerts *AlertBuffer, progress <-chan tasks.ProgressUpdate, logger *log.Logger) *Model {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if alerts == nil {
		alerts = NewAlertBuffer()
	}

	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Snippets"

	ti := textinput.New()
	ti.Placeholder = "Title"
	ti.CharLimit = models.MaxTitleLength

	ta := textarea.New()
	ta.Placeholder = "Code"
	ta.ShowLineNumbers = true

	return &Model{
		ctx:      ctx,
		vm:       vm,
		hl:       hl,
		alerts:   alerts,
		progress: progress,
		logger:   logger,
		view:     ListView,
		list:     l,
		title:    ti,
		code:     ta,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init loads every snippet list and starts listening for progress.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.load(), m.waitForProgress())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-8)
		m.title.Width = max(msg.Width-8, 20)
		m.code.SetWidth(max(msg.Width-4, 20))
		m.code.SetHeight(max(msg.Height-14, 5))
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ListView:
			return m.handleListKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		case FormView:
			return m.handleFormKeys(msg)
		case ConfirmDeleteView:
			return m.handleConfirmKeys(msg)
		case ShareView:
			return m.handleShareKeys(msg)
		}

	case Msg:
		switch msg.kind {
		case MsgLoaded:
			return m, m.handleLoaded(msg.result())
		case MsgOpDone:
			return m, m.handleOpDone(msg.result())
		case MsgProgressUpdate:
			update := msg.progress()
			m.status = update.Message
			m.failed = update.Err != nil
			return m, m.waitForProgress()
		}
	}

	return m.updateInputs(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case ListView:
		body = m.renderList()
	case DetailView:
		body = m.renderDetail()
	case FormView:
		body = m.renderForm()
	case ConfirmDeleteView:
		body = m.renderConfirm()
	case ShareView:
		body = m.renderShare()
	}

	status := styles.Status(m.status, m.failed)
	if m.busy {
		status = styles.warn.Render("Working...")
	}
	return fmt.Sprintf("%s\n\n%s\n%s", body, status, m.renderHelp())
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case m.busy:
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if m.selectCurrent() {
			m.view = DetailView
		}
		return m, nil
	case key.Matches(msg, m.keys.create):
		m.vm.CancelEdit()
		return m, m.openForm(m.vm.Form())
	case key.Matches(msg, m.keys.edit):
		if m.selectCurrent() {
			m.vm.StartEdit(m.selected)
			return m, m.openForm(m.vm.Form())
		}
		return m, nil
	case key.Matches(msg, m.keys.remove):
		if m.selectCurrent() {
			m.view = ConfirmDeleteView
		}
		return m, nil
	case key.Matches(msg, m.keys.share):
		if m.selectCurrent() {
			m.openShare(m.selected.ID, ListView)
		}
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		return m, m.load()
	case msg.Type == tea.KeyTab:
		m.showShared = !m.showShared
		return m, m.refreshItems()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = ListView
	case m.busy:
	case key.Matches(msg, m.keys.edit):
		m.vm.StartEdit(m.selected)
		return m, m.openForm(m.vm.Form())
	case key.Matches(msg, m.keys.remove):
		m.view = ConfirmDeleteView
	case key.Matches(msg, m.keys.share):
		m.openShare(m.selected.ID, DetailView)
	}
	return m, nil
}

func (m *Model) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.exit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.vm.CancelEdit()
		m.view = ListView
		return m, nil
	case m.busy:
		return m, nil
	case key.Matches(msg, m.keys.save):
		m.vm.SetForm(m.currentForm())
		return m, m.run(opSave, ListView, m.vm.Save)
	case key.Matches(msg, m.keys.invite):
		m.vm.SetForm(m.currentForm())
		m.openShare(models.NewTarget, FormView)
		return m, nil
	case key.Matches(msg, m.keys.next):
		return m, m.setFocus((m.focus + 1) % focusCount)
	case key.Matches(msg, m.keys.prev):
		return m, m.setFocus((m.focus + focusCount - 1) % focusCount)
	}

	if m.focus == focusLanguage {
		langs := m.languages()
		switch {
		case key.Matches(msg, m.keys.left):
			m.langIdx = (m.langIdx + len(langs) - 1) % len(langs)
		case key.Matches(msg, m.keys.right):
			m.langIdx = (m.langIdx + 1) % len(langs)
		}
		return m, nil
	}
	return m.updateInputs(msg)
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.exit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.no):
		m.view = ListView
	case key.Matches(msg, m.keys.yes):
		id := m.selected.ID
		return m, m.run(opDelete, ListView, func(ctx context.Context) error {
			return m.vm.Remove(ctx, id)
		})
	}
	return m, nil
}

func (m *Model) handleShareKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	candidates := m.vm.Snapshot().ShareCandidates

	switch {
	case key.Matches(msg, m.keys.exit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.vm.CancelShare()
		m.view = m.shareFrom
	case m.busy:
	case key.Matches(msg, m.keys.up):
		if m.shareCursor > 0 {
			m.shareCursor--
		}
	case key.Matches(msg, m.keys.down):
		if m.shareCursor < len(candidates)-1 {
			m.shareCursor++
		}
	case key.Matches(msg, m.keys.toggle):
		if m.shareCursor < len(candidates) {
			m.vm.ToggleRecipient(candidates[m.shareCursor])
		}
	case key.Matches(msg, m.keys.enter):
		return m, m.run(opShare, ListView, m.vm.SubmitShare)
	}
	return m, nil
}

func (m *Model) handleLoaded(r opResult) tea.Cmd {
	m.busy = false
	cmd := m.refreshItems()
	if r.err != nil {
		m.logger.Warn("load incomplete", "error", r.err)
		m.status = fmt.Sprintf("Some lists failed to load: %v", r.err)
		m.failed = true
		return cmd
	}
	m.status = fmt.Sprintf("Loaded %d snippets", len(m.list.Items()))
	m.failed = false
	return cmd
}

func (m *Model) handleOpDone(r opResult) tea.Cmd {
	m.busy = false
	cmd := m.refreshItems()

	alerts := m.alerts.Drain()
	m.status = ""
	if len(alerts) > 0 {
		m.status = alerts[len(alerts)-1]
	}
	m.failed = r.err != nil

	if r.err != nil {
		m.logger.Error("operation failed", "op", r.op, "error", r.err)
		if m.status == "" {
			m.status = r.err.Error()
		}
		switch {
		case r.op == opDelete:
			m.view = ListView
		case r.op == opShare && errors.Is(r.err, shared.ErrShareFailed):
			// the snippet exists now; sharing again must not create it twice
			m.vm.CancelShare()
			m.vm.CancelEdit()
			m.view = ListView
		}
		return cmd
	}

	m.view = r.next
	return cmd
}

// run executes fn off the update loop and reports with [MsgOpDone].
func (m *Model) run(op operation, next ViewState, fn func(context.Context) error) tea.Cmd {
	m.busy = true
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg(op, next, fn(ctx))
	}
}

func (m *Model) load() tea.Cmd {
	m.busy = true
	ctx, vm := m.ctx, m.vm
	return func() tea.Msg {
		return loadedMsg(vm.Load(ctx))
	}
}

func (m *Model) waitForProgress() tea.Cmd {
	if m.progress == nil {
		return nil
	}
	ch := m.progress
	return func() tea.Msg {
		update, ok := <-ch
		if !ok {
			return nil
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) refreshItems() tea.Cmd {
	st := m.vm.Snapshot()
	snippets, title := st.All, "Snippets"
	if m.showShared {
		snippets, title = st.Shared, "Shared with you"
	}
	m.list.Title = title
	return m.list.SetItems(snippetItems(snippets))
}

// selectCurrent copies the highlighted list item into m.selected.
func (m *Model) selectCurrent() bool {
	item, ok := m.list.SelectedItem().(snippetItem)
	if !ok {
		return false
	}
	m.selected = item.snippet
	return true
}

func (m *Model) openForm(f models.Form) tea.Cmd {
	m.title.SetValue(f.Title)
	m.code.SetValue(f.Code)
	langs := m.languages()
	m.langIdx = max(slices.Index(langs, f.Language), 0)
	m.view = FormView
	return m.setFocus(focusTitle)
}

func (m *Model) setFocus(field int) tea.Cmd {
	m.focus = field
	m.title.Blur()
	m.code.Blur()
	switch field {
	case focusTitle:
		return m.title.Focus()
	case focusCode:
		return m.code.Focus()
	}
	return nil
}

func (m *Model) openShare(targetID string, from ViewState) {
	m.vm.OpenShare(targetID)
	m.shareCursor = 0
	m.shareFrom = from
	m.view = ShareView
}

func (m *Model) languages() []models.Language {
	if langs := m.vm.Snapshot().Languages; len(langs) > 0 {
		return langs
	}
	return models.KnownLanguages
}

func (m *Model) currentForm() models.Form {
	langs := m.languages()
	return models.Form{
		Title:    m.title.Value(),
		Code:     m.code.Value(),
		Language: langs[m.langIdx%len(langs)],
	}
}

func (m *Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case ListView:
		m.list, cmd = m.list.Update(msg)
	case FormView:
		switch m.focus {
		case focusTitle:
			m.title, cmd = m.title.Update(msg)
		case focusCode:
			m.code, cmd = m.code.Update(msg)
		}
	}
	return m, cmd
}

func (m *Model) renderList() string {
	return m.list.View()
}

func (m *Model) renderDetail() string {
	s := m.selected
	title := styles.title.Render(s.Title)
	meta := styles.label.Render(fmt.Sprintf("%s • %s • %s", s.Language, s.CreatedAt.Local().Format(timeLayout), s.ID))
	return fmt.Sprintf("%s\n%s\n\n%s", title, meta, m.hl.Terminal(s))
}

func (m *Model) renderForm() string {
	heading := "New snippet"
	if editing, id := m.vm.Editing(); editing {
		heading = fmt.Sprintf("Edit snippet %s", id)
	}

	var langs strings.Builder
	for i, l := range m.languages() {
		if i > 0 {
			langs.WriteString(" ")
		}
		if i == m.langIdx {
			langs.WriteString(styles.selected.Render("[" + string(l) + "]"))
		} else {
			langs.WriteString(styles.label.Render(string(l)))
		}
	}

	langLabel := "Language"
	if m.focus == focusLanguage {
		langLabel = styles.selected.Render("Language ←/→")
	}

	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s\n%s",
		styles.title.Render(heading), m.title.View(), m.code.View(), langLabel, langs.String())
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Delete '%s'?", m.selected.Title))
	info := fmt.Sprintf("\nLanguage: %s\nCreated: %s\n", m.selected.Language, m.selected.CreatedAt.Local().Format(timeLayout))
	return fmt.Sprintf("%s\n%s", title, info)
}

func (m *Model) renderShare() string {
	st := m.vm.Snapshot()
	target := "the new snippet"
	if st.ShareTarget != models.NewTarget {
		target = fmt.Sprintf("'%s'", m.selected.Title)
		if m.shareFrom == FormView {
			target = fmt.Sprintf("'%s'", m.title.Value())
		}
	}

	var b strings.Builder
	b.WriteString(styles.title.Render("Share " + target))
	b.WriteString("\n")
	if len(st.ShareCandidates) == 0 {
		b.WriteString(styles.warn.Render("No other users to share with. Sign in to see users."))
		return b.String()
	}

	for i, name := range st.ShareCandidates {
		cursor := "  "
		if i == m.shareCursor {
			cursor = "> "
		}
		box := "[ ]"
		if slices.Contains(st.ShareSelected, name) {
			box = "[x]"
		}
		line := fmt.Sprintf("%s%s %s", cursor, box, name)
		if i == m.shareCursor {
			line = styles.selected.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m *Model) renderHelp() string {
	var helpKeys []key.Binding
	switch m.view {
	case ListView:
		swap := key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "all/shared"))
		helpKeys = []key.Binding{m.keys.enter, m.keys.create, m.keys.edit, m.keys.remove, m.keys.share, m.keys.refresh, swap, m.keys.quit}
	case DetailView:
		helpKeys = []key.Binding{m.keys.edit, m.keys.remove, m.keys.share, m.keys.back, m.keys.quit}
	case FormView:
		helpKeys = []key.Binding{m.keys.next, m.keys.save, m.keys.invite, m.keys.back, m.keys.exit}
	case ConfirmDeleteView:
		helpKeys = []key.Binding{m.keys.yes, m.keys.no}
	case ShareView:
		submit := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "share"))
		helpKeys = []key.Binding{m.keys.up, m.keys.down, m.keys.toggle, submit, m.keys.back}
	}
	return styles.help.Render(m.help.ShortHelpView(helpKeys))
}
