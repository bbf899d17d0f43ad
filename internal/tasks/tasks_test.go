package tasks

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/snipx/internal/models"
	"github.com/desertthunder/snipx/internal/services"
	"github.com/desertthunder/snipx/internal/session"
	"github.com/desertthunder/snipx/internal/shared"
	tu "github.com/desertthunder/snipx/internal/testing"
)

type alertRecorder struct {
	mu   sync.Mutex
	msgs []string
}

func (a *alertRecorder) Alert(msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.msgs = append(a.msgs, msg)
}

func (a *alertRecorder) last() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.msgs) == 0 {
		return ""
	}
	return a.msgs[len(a.msgs)-1]
}

type mockCacher struct {
	mu        sync.Mutex
	snippets  map[models.Origin][]models.Snippet
	languages []models.Language
	err       error
}

func (m *mockCacher) CacheSnippets(origin models.Origin, snippets []models.Snippet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snippets == nil {
		m.snippets = map[models.Origin][]models.Snippet{}
	}
	m.snippets[origin] = snippets
	return m.err
}

func (m *mockCacher) CacheLanguages(langs []models.Language) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.languages = langs
	return m.err
}

type fixture struct {
	srv     *tu.SnippetServer
	storage *session.MemoryStorage
	alerts  *alertRecorder
	vm      *ViewModel
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()

	srv := tu.NewSnippetServer(t)
	storage := session.NewMemoryStorage()
	api := services.NewSnippetService(services.Options{BaseURL: srv.URL})
	alerts := &alertRecorder{}

	opts.API = api
	opts.Session = session.NewStore(storage, api, nil)
	opts.Alerter = alerts

	vm, err := NewViewModel(opts)
	if err != nil {
		t.Fatalf("failed to create view-model: %v", err)
	}
	return &fixture{srv: srv, storage: storage, alerts: alerts, vm: vm}
}

func (f *fixture) login(name string) {
	f.storage.SetItem(session.KeyLoggedIn, "true")
	f.storage.SetItem(session.KeyUserName, name)
}

func (f *fixture) logout() {
	f.storage.RemoveItem(session.KeyLoggedIn)
	f.storage.RemoveItem(session.KeyUserName)
}

func ids(snippets []models.Snippet) []string {
	out := make([]string, len(snippets))
	for i, s := range snippets {
		out[i] = s.ID
	}
	return out
}

func contains(snippets []models.Snippet, id string) bool {
	return slices.ContainsFunc(snippets, func(s models.Snippet) bool { return s.ID == id })
}

func TestNewViewModel(t *testing.T) {
	t.Run("Requires API", func(t *testing.T) {
		_, err := NewViewModel(Options{Session: session.NewStore(session.NewMemoryStorage(), nil, nil)})
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("Requires Session", func(t *testing.T) {
		_, err := NewViewModel(Options{API: services.NewSnippetService(services.Options{})})
		if !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("Initial State", func(t *testing.T) {
		f := newFixture(t, Options{})
		st := f.vm.Snapshot()

		if st.All == nil || len(st.All) != 0 {
			t.Errorf("expected empty non-nil merged view, got %v", st.All)
		}
		if st.Form.Language != models.DefaultLanguage {
			t.Errorf("expected default language, got %s", st.Form.Language)
		}
		if st.Editing || st.SharingOpen {
			t.Error("expected no edit or share mode")
		}
	})
}

func TestViewModel_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("Signed Out", func(t *testing.T) {
		f := newFixture(t, Options{})
		g1 := f.srv.Seed("", "first", "a", "GO")
		g2 := f.srv.Seed("", "second", "b", "SQL")
		f.srv.Seed("ada", "private", "c", "GO")

		if err := f.vm.Load(ctx); err != nil {
			t.Fatalf("load failed: %v", err)
		}

		st := f.vm.Snapshot()
		if !slices.Equal(ids(st.All), []string{g2.ID, g1.ID}) {
			t.Errorf("expected guest snippets newest first, got %v", ids(st.All))
		}
		if len(st.User) != 0 || len(st.Shared) != 0 || len(st.Users) != 0 {
			t.Errorf("signed-out load must not fetch user data: %+v", st)
		}
		if len(st.Languages) != len(models.KnownLanguages) {
			t.Errorf("expected languages, got %v", st.Languages)
		}

		for _, r := range f.srv.Requests() {
			if strings.Contains(r, "/me") || strings.Contains(r, "/auth/users") {
				t.Errorf("unexpected request %s", r)
			}
		}
	})

	t.Run("Signed In Merges Guest And User", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.srv.AddUser("ada", "pw")
		f.srv.AddUser("ADA2", "pw")
		f.srv.AddUser("bob", "pw")
		g := f.srv.Seed("", "guest", "a", "GO")
		m := f.srv.Seed("ada", "mine", "b", "GO")
		o := f.srv.Seed("bob", "theirs", "c", "GO")
		api := services.NewSnippetService(services.Options{BaseURL: f.srv.URL})
		if err := api.ShareTo(ctx, o.ID, []string{"ada"}); err != nil {
			t.Fatalf("share setup failed: %v", err)
		}
		f.login("ada")

		if err := f.vm.Load(ctx); err != nil {
			t.Fatalf("load failed: %v", err)
		}

		st := f.vm.Snapshot()
		if !slices.Equal(ids(st.All), []string{m.ID, g.ID}) {
			t.Errorf("expected sorted union of guest and user, got %v", ids(st.All))
		}
		if !slices.Equal(ids(st.Shared), []string{o.ID}) {
			t.Errorf("expected shared list, got %v", ids(st.Shared))
		}
		if contains(st.All, o.ID) {
			t.Error("shared snippets are not part of the merged view")
		}
		if !slices.Equal(st.Users, []string{"ADA2", "bob"}) {
			t.Errorf("expected users without self, got %v", st.Users)
		}
	})

	t.Run("Self Excluded Case-Insensitively", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.srv.AddUser("Ada", "pw")
		f.srv.AddUser("bob", "pw")
		f.login("ada")

		f.vm.Load(ctx)
		if users := f.vm.Snapshot().Users; !slices.Equal(users, []string{"bob"}) {
			t.Errorf("expected [bob], got %v", users)
		}
	})

	t.Run("Sign Out Clears User Lists", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.srv.Seed("ada", "mine", "b", "GO")
		f.login("ada")
		f.vm.Load(ctx)
		if len(f.vm.Snapshot().User) != 1 {
			t.Fatal("expected user snippets while signed in")
		}

		f.logout()
		if err := f.vm.Load(ctx); err != nil {
			t.Fatalf("load failed: %v", err)
		}

		st := f.vm.Snapshot()
		if len(st.User) != 0 || len(st.Shared) != 0 || len(st.All) != 0 {
			t.Errorf("expected user state cleared, got %+v", st)
		}
	})

	t.Run("Failed Fetch Keeps Previous List", func(t *testing.T) {
		f := newFixture(t, Options{})
		m := f.srv.Seed("ada", "mine", "b", "GO")
		f.login("ada")
		f.vm.Load(ctx)

		g := f.srv.Seed("", "guest", "a", "GO")
		f.srv.Fail("GET /api/snippets/me", http.StatusInternalServerError, "")

		err := f.vm.Load(ctx)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected joined API error, got %v", err)
		}
		if !strings.Contains(err.Error(), "fetch_mine") {
			t.Errorf("expected error to name the failed fetch, got %v", err)
		}

		st := f.vm.Snapshot()
		if !contains(st.User, m.ID) {
			t.Error("user list should keep its previous value")
		}
		if !contains(st.All, g.ID) || !contains(st.All, m.ID) {
			t.Errorf("successful fetches still apply, got %v", ids(st.All))
		}
	})

	t.Run("Caches Fetched Lists", func(t *testing.T) {
		cache := &mockCacher{err: errors.New("disk full")}
		f := newFixture(t, Options{Cache: cache})
		g := f.srv.Seed("", "guest", "a", "GO")

		if err := f.vm.Load(ctx); err != nil {
			t.Fatalf("cache errors must not fail the load: %v", err)
		}

		cache.mu.Lock()
		defer cache.mu.Unlock()
		if !slices.Equal(ids(cache.snippets[models.OriginGuest]), []string{g.ID}) {
			t.Errorf("expected guest list cached, got %v", cache.snippets[models.OriginGuest])
		}
		if _, ok := cache.snippets[models.OriginMine]; !ok {
			t.Error("signed-out load should clear the cached user list")
		}
		if len(cache.languages) == 0 {
			t.Error("expected languages cached")
		}
	})

	t.Run("Progress", func(t *testing.T) {
		progress := make(chan ProgressUpdate, 10)
		f := newFixture(t, Options{Progress: progress})
		f.login("ada")

		if err := f.vm.Load(ctx); err != nil {
			t.Fatalf("load failed: %v", err)
		}
		close(progress)

		var phases []Phase
		for u := range progress {
			if u.Total != 5 {
				t.Errorf("expected total 5, got %d", u.Total)
			}
			phases = append(phases, u.Phase)
		}
		if len(phases) != 5 {
			t.Errorf("expected 5 updates, got %v", phases)
		}
	})

	t.Run("Full Progress Channel Does Not Block", func(t *testing.T) {
		progress := make(chan ProgressUpdate)
		f := newFixture(t, Options{Progress: progress})

		if err := f.vm.Load(ctx); err != nil {
			t.Fatalf("load failed: %v", err)
		}
	})
}

func TestViewModel_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success Reloads", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.login("ada")
		f.vm.SetForm(models.Form{Title: "new", Code: "x := 1", Language: "GO"})

		created, err := f.vm.Create(ctx)
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}

		if f.alerts.last() != "Snippet shared successfully" {
			t.Errorf("unexpected alert %q", f.alerts.last())
		}
		st := f.vm.Snapshot()
		if !contains(st.All, created.ID) {
			t.Error("created snippet should appear after reload")
		}
		if st.Form.Title != "" || st.Form.Code != "" || st.Form.Language != "GO" {
			t.Errorf("expected title and code cleared, language kept, got %+v", st.Form)
		}
		if stored, _ := f.srv.Snippet(created.ID); stored.Owner != "ada" {
			t.Errorf("expected snippet owned by ada, got %q", stored.Owner)
		}
	})

	t.Run("Guest Create", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.vm.SetForm(models.Form{Title: "anon", Code: "1", Language: "SQL"})

		created, err := f.vm.Create(ctx)
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if stored, _ := f.srv.Snippet(created.ID); stored.Owner != "" {
			t.Errorf("expected guest snippet, got owner %q", stored.Owner)
		}
	})

	t.Run("Server Failure", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.srv.Fail("POST /api/snippets", http.StatusInternalServerError, "")
		form := models.Form{Title: "t", Code: "c", Language: "GO"}
		f.vm.SetForm(form)

		if _, err := f.vm.Create(ctx); err == nil {
			t.Fatal("expected error")
		}
		if f.alerts.last() != "Failed to share snippet" {
			t.Errorf("unexpected alert %q", f.alerts.last())
		}
		if f.vm.Form() != form {
			t.Error("form should be kept on failure")
		}
	})

	t.Run("Invalid Form", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.vm.SetForm(models.Form{Title: " ", Code: "c", Language: "GO"})

		_, err := f.vm.Create(ctx)
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if len(f.srv.Requests()) != 0 {
			t.Errorf("expected no requests, got %v", f.srv.Requests())
		}
	})
}

func TestViewModel_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newFixture(t, Options{})
		sn := f.srv.Seed("", "old", "a", "GO")
		f.vm.Load(ctx)

		f.vm.StartEdit(sn)
		if editing, id := f.vm.Editing(); !editing || id != sn.ID {
			t.Fatalf("expected edit mode for %s", sn.ID)
		}
		form := f.vm.Form()
		form.Title = "renamed"
		f.vm.SetForm(form)

		if err := f.vm.Save(ctx); err != nil {
			t.Fatalf("update failed: %v", err)
		}

		st := f.vm.Snapshot()
		if st.Editing || st.EditID != "" {
			t.Error("expected edit mode to end")
		}
		if st.Form.Title != "" {
			t.Error("expected form cleared")
		}
		if got, _ := f.vm.Find(sn.ID); got.Title != "renamed" {
			t.Errorf("expected reloaded title, got %q", got.Title)
		}
		if f.srv.Count() != 1 {
			t.Error("update must not create a snippet")
		}
	})

	t.Run("Failure Messages", func(t *testing.T) {
		tests := []struct {
			name    string
			message string
			want    string
		}{
			{name: "Server Message", message: "title too long", want: "Update failed: title too long"},
			{name: "Default Message", message: "", want: "Update failed: Failed to update snippet"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := newFixture(t, Options{})
				sn := f.srv.Seed("", "old", "a", "GO")
				f.vm.StartEdit(sn)
				f.srv.Fail("PUT /api/snippets/{id}", http.StatusBadRequest, tt.message)

				if err := f.vm.Update(ctx, sn.ID); err == nil {
					t.Fatal("expected error")
				}
				if f.alerts.last() != tt.want {
					t.Errorf("expected %q, got %q", tt.want, f.alerts.last())
				}
				if editing, _ := f.vm.Editing(); !editing {
					t.Error("failed update should stay in edit mode")
				}
			})
		}
	})

	t.Run("CancelEdit", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.vm.StartEdit(models.Snippet{ID: "x", Title: "t", Code: "c", Language: "PYTHON"})
		f.vm.CancelEdit()

		st := f.vm.Snapshot()
		if st.Editing || st.Form.Title != "" || st.Form.Code != "" {
			t.Errorf("expected edit state cleared, got %+v", st)
		}
	})
}

func TestViewModel_Remove(t *testing.T) {
	ctx := context.Background()

	t.Run("Removed Snippet Disappears", func(t *testing.T) {
		f := newFixture(t, Options{})
		keep := f.srv.Seed("", "keep", "a", "GO")
		gone := f.srv.Seed("", "gone", "b", "GO")
		f.vm.Load(ctx)

		if err := f.vm.Remove(ctx, gone.ID); err != nil {
			t.Fatalf("remove failed: %v", err)
		}

		all := f.vm.All()
		if contains(all, gone.ID) {
			t.Error("removed snippet still listed")
		}
		if !contains(all, keep.ID) {
			t.Error("other snippets should remain")
		}
	})

	t.Run("Failure Alerts Status", func(t *testing.T) {
		f := newFixture(t, Options{})

		err := f.vm.Remove(ctx, "3f2504e0-4f89-41d3-9a0c-0305e82c3301")
		if !errors.Is(err, shared.ErrSnippetNotFound) {
			t.Errorf("expected ErrSnippetNotFound, got %v", err)
		}
		if f.alerts.last() != "Delete failed: 404 Not Found" {
			t.Errorf("unexpected alert %q", f.alerts.last())
		}
	})
}

func TestViewModel_Share(t *testing.T) {
	ctx := context.Background()

	t.Run("New Snippet Creates Then Shares", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.login("ada")
		f.vm.SetForm(models.Form{Title: "to share", Code: "x", Language: "GO"})

		if err := f.vm.ShareExistingOrNew(ctx, []string{"bob"}); err != nil {
			t.Fatalf("share failed: %v", err)
		}

		var posts []string
		for _, r := range f.srv.Requests() {
			if strings.HasPrefix(r, "POST ") {
				posts = append(posts, r)
			}
		}
		if len(posts) != 2 || posts[0] != "POST /api/snippets" || !strings.HasSuffix(posts[1], "/share-to") {
			t.Fatalf("expected create then share, got %v", posts)
		}

		all := f.vm.All()
		if len(all) != 1 {
			t.Fatalf("expected the created snippet after reload, got %d", len(all))
		}
		stored, _ := f.srv.Snippet(all[0].ID)
		if !slices.Equal(stored.Recipients, []string{"bob"}) {
			t.Errorf("expected bob as recipient, got %v", stored.Recipients)
		}
		if f.alerts.last() != "Snippet shared with 1 user(s)" {
			t.Errorf("unexpected alert %q", f.alerts.last())
		}
	})

	t.Run("Failed Share Leaves Created Snippet", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.vm.SetForm(models.Form{Title: "orphan", Code: "x", Language: "GO"})
		f.srv.Fail("POST /api/snippets/{id}/share-to", http.StatusInternalServerError, "share broke")

		err := f.vm.ShareExistingOrNew(ctx, []string{"bob"})
		if !errors.Is(err, shared.ErrShareFailed) {
			t.Fatalf("expected ErrShareFailed, got %v", err)
		}
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest in chain, got %v", err)
		}
		var apiErr *services.APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusInternalServerError {
			t.Errorf("expected *services.APIError with status 500, got %v", err)
		}
		if f.alerts.last() != "Share failed: share broke" {
			t.Errorf("unexpected alert %q", f.alerts.last())
		}
		if f.srv.Count() != 1 {
			t.Errorf("created snippet should remain, got %d", f.srv.Count())
		}
		if len(f.vm.All()) != 1 {
			t.Error("view should reload to show the unshared snippet")
		}
	})

	t.Run("Existing Snippet Shares Directly", func(t *testing.T) {
		f := newFixture(t, Options{})
		sn := f.srv.Seed("ada", "existing", "x", "GO")
		f.vm.StartEdit(sn)

		if err := f.vm.ShareExistingOrNew(ctx, []string{"bob", "cy"}); err != nil {
			t.Fatalf("share failed: %v", err)
		}
		if f.srv.Count() != 1 {
			t.Error("sharing an existing snippet must not create one")
		}
		if stored, _ := f.srv.Snippet(sn.ID); len(stored.Recipients) != 2 {
			t.Errorf("expected 2 recipients, got %v", stored.Recipients)
		}
		if editing, _ := f.vm.Editing(); editing {
			t.Error("expected edit mode to end after sharing")
		}
	})

	t.Run("No Recipients", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.vm.SetForm(models.Form{Title: "t", Code: "c", Language: "GO"})

		err := f.vm.ShareExistingOrNew(ctx, nil)
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if len(f.srv.Requests()) != 0 {
			t.Errorf("expected no requests, got %v", f.srv.Requests())
		}
	})

	t.Run("Selection Flow", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.srv.AddUser("ada", "pw")
		f.srv.AddUser("bob", "pw")
		f.srv.AddUser("cy", "pw")
		sn := f.srv.Seed("ada", "mine", "x", "GO")
		f.login("ada")
		f.vm.Load(ctx)

		f.vm.OpenShare(sn.ID)
		if !f.vm.ToggleRecipient("cy") {
			t.Error("expected cy selected")
		}
		if f.vm.ToggleRecipient("mallory") {
			t.Error("non-candidates cannot be selected")
		}

		st := f.vm.Snapshot()
		if !st.SharingOpen || st.ShareTarget != sn.ID {
			t.Errorf("unexpected share state %+v", st)
		}
		if !slices.Equal(st.ShareCandidates, []string{"bob", "cy"}) {
			t.Errorf("unexpected candidates %v", st.ShareCandidates)
		}

		if err := f.vm.SubmitShare(ctx); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
		if f.vm.Snapshot().SharingOpen {
			t.Error("selection should be discarded after submit")
		}
		if stored, _ := f.srv.Snippet(sn.ID); !slices.Equal(stored.Recipients, []string{"cy"}) {
			t.Errorf("expected cy, got %v", stored.Recipients)
		}
	})

	t.Run("CancelShare", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.vm.OpenShare(models.NewTarget)
		f.vm.CancelShare()

		if f.vm.Snapshot().SharingOpen {
			t.Error("expected selection discarded")
		}
		if err := f.vm.SubmitShare(ctx); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestViewModel_Highlight(t *testing.T) {
	f := newFixture(t, Options{})

	out := string(f.vm.Highlight(models.Snippet{Language: "SHELL", Code: "echo hi"}))
	if !strings.Contains(out, `class="language-bash"`) {
		t.Errorf("expected bash alias, got %s", out)
	}
}
