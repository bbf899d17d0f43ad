package ui

import (
	"context"
	"slices"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/snipx/internal/highlight"
	"github.com/desertthunder/snipx/internal/models"
	"github.com/desertthunder/snipx/internal/services"
	"github.com/desertthunder/snipx/internal/session"
	"github.com/desertthunder/snipx/internal/tasks"
	tu "github.com/desertthunder/snipx/internal/testing"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// send delivers msg and then runs the returned command once, feeding back its result when it is one of ours.
func send(t *testing.T, m *Model, msg tea.Msg) {
	t.Helper()
	_, cmd := m.Update(msg)
	if cmd == nil {
		return
	}
	if out, ok := cmd().(Msg); ok {
		m.Update(out)
	}
}

func newTestModel(t *testing.T, user string) (*Model, *tu.SnippetServer) {
	t.Helper()

	srv := tu.NewSnippetServer(t)
	api := services.NewSnippetService(services.Options{BaseURL: srv.URL})
	storage := session.NewMemoryStorage()
	if user != "" {
		srv.AddUser(user, "pw")
		storage.SetItem(session.KeyLoggedIn, "true")
		storage.SetItem(session.KeyUserName, user)
	}

	alerts := NewAlertBuffer()
	hl, err := highlight.New("", 0)
	if err != nil {
		t.Fatalf("highlight.New() error = %v", err)
	}
	vm, err := tasks.NewViewModel(tasks.Options{
		API:      api,
		Session:  session.NewStore(storage, api, nil),
		Alerter:  alerts,
		Renderer: hl,
	})
	if err != nil {
		t.Fatalf("NewViewModel() error = %v", err)
	}

	m := NewModel(context.Background(), vm, hl, alerts, nil, nil)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m, srv
}

func load(t *testing.T, m *Model) {
	t.Helper()
	m.Update(m.load()())
}

func TestSnippetItem(t *testing.T) {
	created := time.Date(2024, 3, 1, 9, 30, 0, 0, time.Local)
	item := snippetItem{snippet: models.Snippet{
		Title:     "Hello",
		Language:  "HTML",
		CreatedAt: created,
		Origin:    models.OriginMine,
	}}

	if got := item.Title(); got != "Hello" {
		t.Errorf("Title() = %q, want Hello", got)
	}
	if got, want := item.Description(), "markup • 2024-03-01 09:30 • mine"; got != want {
		t.Errorf("Description() = %q, want %q", got, want)
	}
	if got := item.FilterValue(); got != "Hello html" {
		t.Errorf("FilterValue() = %q, want %q", got, "Hello html")
	}

	item.snippet.Origin = ""
	if got := item.Description(); strings.Contains(got, "mine") {
		t.Errorf("Description() = %q, want no origin", got)
	}
}

func TestAlertBuffer(t *testing.T) {
	b := NewAlertBuffer()
	b.Alert("one")
	b.Alert("two")

	if got := b.Drain(); !slices.Equal(got, []string{"one", "two"}) {
		t.Errorf("Drain() = %v, want [one two]", got)
	}
	if got := b.Drain(); len(got) != 0 {
		t.Errorf("second Drain() = %v, want empty", got)
	}
}

func TestModel(t *testing.T) {
	t.Run("Load", func(t *testing.T) {
		m, srv := newTestModel(t, "")
		srv.Seed("", "first", "a", "GO")
		srv.Seed("", "second", "b", "SQL")

		load(t, m)

		if m.busy {
			t.Error("busy after load")
		}
		items := m.list.Items()
		if len(items) != 2 {
			t.Fatalf("items = %d, want 2", len(items))
		}
		if got := items[0].(snippetItem).snippet.Title; got != "second" {
			t.Errorf("first item = %q, want newest first", got)
		}
		if m.status != "Loaded 2 snippets" {
			t.Errorf("status = %q", m.status)
		}
	})

	t.Run("LoadFailure", func(t *testing.T) {
		m, srv := newTestModel(t, "")
		srv.Fail("GET /api/snippets/guest", 500, "boom")

		load(t, m)

		if !m.failed || !strings.Contains(m.status, "Some lists failed to load") {
			t.Errorf("status = %q failed = %v", m.status, m.failed)
		}
	})

	t.Run("Detail", func(t *testing.T) {
		m, srv := newTestModel(t, "")
		srv.Seed("", "hello", "fmt.Println(1)", "GO")
		load(t, m)

		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		if m.view != DetailView {
			t.Fatalf("view = %v, want DetailView", m.view)
		}
		if !strings.Contains(m.View(), "hello") {
			t.Error("detail view missing title")
		}

		m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		if m.view != ListView {
			t.Errorf("view = %v after esc, want ListView", m.view)
		}
	})

	t.Run("Create", func(t *testing.T) {
		m, srv := newTestModel(t, "")
		load(t, m)

		m.Update(runes("n"))
		if m.view != FormView {
			t.Fatalf("view = %v, want FormView", m.view)
		}
		m.title.SetValue("made in tui")
		m.code.SetValue("SELECT 1;")
		m.Update(tea.KeyMsg{Type: tea.KeyTab})
		m.Update(tea.KeyMsg{Type: tea.KeyTab})
		if m.focus != focusLanguage {
			t.Fatalf("focus = %d, want language", m.focus)
		}
		langs := m.languages()
		want := langs[(slices.Index(langs, models.DefaultLanguage)+1)%len(langs)]
		m.Update(tea.KeyMsg{Type: tea.KeyRight})

		send(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})

		if m.view != ListView {
			t.Errorf("view = %v, want ListView", m.view)
		}
		if m.status != "Snippet shared successfully" || m.failed {
			t.Errorf("status = %q failed = %v", m.status, m.failed)
		}
		if srv.Count() != 1 {
			t.Fatalf("server count = %d, want 1", srv.Count())
		}
		items := m.list.Items()
		if len(items) != 1 || items[0].(snippetItem).snippet.Language != want {
			t.Errorf("items = %v, want one %s snippet", items, want)
		}
	})

	t.Run("CreateInvalid", func(t *testing.T) {
		m, srv := newTestModel(t, "")
		m.Update(runes("n"))
		send(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})

		if m.view != FormView {
			t.Errorf("view = %v, want FormView", m.view)
		}
		if m.status != "Failed to share snippet" || !m.failed {
			t.Errorf("status = %q failed = %v", m.status, m.failed)
		}
		if srv.Count() != 0 {
			t.Errorf("server count = %d, want 0", srv.Count())
		}
	})

	t.Run("Edit", func(t *testing.T) {
		m, srv := newTestModel(t, "")
		sn := srv.Seed("", "old", "x", "GO")
		load(t, m)

		m.Update(runes("e"))
		if m.view != FormView || m.title.Value() != "old" {
			t.Fatalf("view = %v title = %q", m.view, m.title.Value())
		}
		m.title.SetValue("new")
		send(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})

		got, _ := srv.Snippet(sn.ID)
		if got.Title != "new" {
			t.Errorf("server title = %q, want new", got.Title)
		}
		if editing, _ := m.vm.Editing(); editing {
			t.Error("still editing after save")
		}
	})

	t.Run("CancelForm", func(t *testing.T) {
		m, srv := newTestModel(t, "")
		srv.Seed("", "old", "x", "GO")
		load(t, m)

		m.Update(runes("e"))
		m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		if m.view != ListView {
			t.Errorf("view = %v, want ListView", m.view)
		}
		if editing, _ := m.vm.Editing(); editing {
			t.Error("still editing after esc")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		m, srv := newTestModel(t, "")
		srv.Seed("", "doomed", "x", "GO")
		load(t, m)

		m.Update(runes("d"))
		if m.view != ConfirmDeleteView {
			t.Fatalf("view = %v, want ConfirmDeleteView", m.view)
		}
		if !strings.Contains(m.View(), "Delete 'doomed'?") {
			t.Error("confirm view missing title")
		}

		send(t, m, runes("y"))

		if srv.Count() != 0 {
			t.Errorf("server count = %d, want 0", srv.Count())
		}
		if m.view != ListView || len(m.list.Items()) != 0 {
			t.Errorf("view = %v items = %d", m.view, len(m.list.Items()))
		}
	})

	t.Run("DeleteDeclined", func(t *testing.T) {
		m, srv := newTestModel(t, "")
		srv.Seed("", "kept", "x", "GO")
		load(t, m)

		m.Update(runes("d"))
		m.Update(runes("n"))
		if m.view != ListView || srv.Count() != 1 {
			t.Errorf("view = %v count = %d", m.view, srv.Count())
		}
	})

	t.Run("DeleteFailure", func(t *testing.T) {
		m, srv := newTestModel(t, "")
		srv.Seed("", "kept", "x", "GO")
		load(t, m)
		srv.Fail("DELETE /api/snippets/{id}", 403, "")

		m.Update(runes("d"))
		send(t, m, runes("y"))

		if m.status != "Delete failed: 403 Forbidden" || !m.failed {
			t.Errorf("status = %q failed = %v", m.status, m.failed)
		}
		if m.view != ListView {
			t.Errorf("view = %v, want ListView", m.view)
		}
	})

	t.Run("Share", func(t *testing.T) {
		m, srv := newTestModel(t, "ada")
		srv.AddUser("bob", "pw")
		srv.AddUser("cy", "pw")
		sn := srv.Seed("ada", "mine", "x", "GO")
		load(t, m)

		m.Update(runes("s"))
		if m.view != ShareView {
			t.Fatalf("view = %v, want ShareView", m.view)
		}
		m.Update(tea.KeyMsg{Type: tea.KeyDown})
		m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
		if !strings.Contains(m.View(), "[x] cy") {
			t.Errorf("share view does not show cy selected:\n%s", m.View())
		}

		send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

		got, _ := srv.Snippet(sn.ID)
		if !slices.Equal(got.Recipients, []string{"cy"}) {
			t.Errorf("recipients = %v, want [cy]", got.Recipients)
		}
		if m.view != ListView || m.status != "Snippet shared with 1 user(s)" {
			t.Errorf("view = %v status = %q", m.view, m.status)
		}
	})

	t.Run("ShareNothingSelected", func(t *testing.T) {
		m, srv := newTestModel(t, "ada")
		srv.AddUser("bob", "pw")
		srv.Seed("ada", "mine", "x", "GO")
		load(t, m)

		m.Update(runes("s"))
		send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

		if m.view != ShareView {
			t.Errorf("view = %v, want ShareView", m.view)
		}
		if m.status != "Select at least one user to share with" {
			t.Errorf("status = %q", m.status)
		}

		m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		if m.view != ListView || m.vm.Snapshot().SharingOpen {
			t.Errorf("view = %v sharing = %v", m.view, m.vm.Snapshot().SharingOpen)
		}
	})

	t.Run("ShareFailedAfterCreate", func(t *testing.T) {
		m, srv := newTestModel(t, "ada")
		srv.AddUser("bob", "pw")
		load(t, m)
		srv.Fail("POST /api/snippets/{id}/share-to", 500, "nope")

		m.Update(runes("n"))
		m.title.SetValue("fresh")
		m.code.SetValue("x")
		m.Update(tea.KeyMsg{Type: tea.KeyCtrlO})
		if m.view != ShareView {
			t.Fatalf("view = %v, want ShareView", m.view)
		}
		m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
		send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

		if srv.Count() != 1 {
			t.Errorf("server count = %d, want created snippet kept", srv.Count())
		}
		if m.view != ListView || m.status != "Share failed: nope" {
			t.Errorf("view = %v status = %q", m.view, m.status)
		}
		if m.vm.Snapshot().SharingOpen {
			t.Error("share selection left open")
		}
	})

	t.Run("ToggleShared", func(t *testing.T) {
		m, srv := newTestModel(t, "ada")
		srv.AddUser("bob", "pw")
		sn := srv.Seed("bob", "from bob", "x", "GO")
		srv.Seed("ada", "mine", "x", "GO")
		load(t, m)

		bob := services.NewSnippetService(services.Options{BaseURL: srv.URL})
		if err := bob.ShareTo(context.Background(), sn.ID, []string{"ada"}); err != nil {
			t.Fatalf("ShareTo() error = %v", err)
		}
		load(t, m)

		m.Update(tea.KeyMsg{Type: tea.KeyTab})
		items := m.list.Items()
		if m.list.Title != "Shared with you" || len(items) != 1 {
			t.Fatalf("title = %q items = %d", m.list.Title, len(items))
		}
		if items[0].(snippetItem).snippet.Title != "from bob" {
			t.Errorf("item = %q", items[0].(snippetItem).snippet.Title)
		}
	})

	t.Run("Progress", func(t *testing.T) {
		m, _ := newTestModel(t, "")
		ch := make(chan tasks.ProgressUpdate, 1)
		m.progress = ch

		_, cmd := m.Update(progressUpdateMsg(tasks.ProgressUpdate{Message: "[1/2] Loaded languages"}))
		if m.status != "[1/2] Loaded languages" {
			t.Errorf("status = %q", m.status)
		}
		if cmd == nil {
			t.Fatal("expected a command waiting for the next update")
		}

		ch <- tasks.ProgressUpdate{Message: "next"}
		if got := cmd().(Msg).progress().Message; got != "next" {
			t.Errorf("next progress = %q", got)
		}
	})

	t.Run("Quit", func(t *testing.T) {
		m, _ := newTestModel(t, "")
		_, cmd := m.Update(runes("q"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("q did not quit")
		}
	})
}
