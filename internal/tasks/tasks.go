// package tasks implements the snippet view-model: the working set of fetched snippets, the edit form
// and the share selection, kept in sync with the REST API after every mutation.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/snipx/internal/highlight"
	"github.com/desertthunder/snipx/internal/models"
	"github.com/desertthunder/snipx/internal/services"
	"github.com/desertthunder/snipx/internal/shared"
)

const (
	msgCreated        = "Snippet shared successfully"
	msgCreateFailed   = "Failed to share snippet"
	msgUpdated        = "Snippet updated successfully"
	msgUpdateFailed   = "Update failed: %s"
	msgUpdateDefault  = "Failed to update snippet"
	msgDeleteFailed   = "Delete failed: %s"
	msgShared         = "Snippet shared with %d user(s)"
	msgShareFailed    = "Share failed: %s"
	msgNoRecipients   = "Select at least one user to share with"
	msgShareNotOpened = "Share selection is not open"
)

// SessionSource reports the persisted session; session.Store implements it.
type SessionSource interface {
	Session() models.Session
}

// Cacher persists fetched lists for offline use.
//
// Errors are logged and never fail the operation that produced the data.
type Cacher interface {
	CacheSnippets(origin models.Origin, snippets []models.Snippet) error
	CacheLanguages(langs []models.Language) error
}

// Alerter shows a user-facing message.
type Alerter interface {
	Alert(msg string)
}

// AlertFunc adapts a function to [Alerter].
type AlertFunc func(msg string)

func (f AlertFunc) Alert(msg string) { f(msg) }

// Renderer produces trusted highlighted HTML for a snippet.
type Renderer interface {
	HTML(s models.Snippet) template.HTML
}

// Options wires a [ViewModel]. API and Session are required; everything else may be nil.
type Options struct {
	API      services.SnippetAPI
	Session  SessionSource
	Cache    Cacher
	Alerter  Alerter
	Renderer Renderer
	Logger   *log.Logger
	Progress chan<- ProgressUpdate
}

// ViewModel holds the snippet lists, form and share selection.
//
// All methods are safe for concurrent use. Fetches started by [ViewModel.Load] apply their results
// independently, so a slow response may land after a later one.
type ViewModel struct {
	api      services.SnippetAPI
	session  SessionSource
	cache    Cacher
	alerter  Alerter
	renderer Renderer
	logger   *log.Logger
	progress chan<- ProgressUpdate

	mu        sync.RWMutex
	guest     []models.Snippet
	user      []models.Snippet
	shared    []models.Snippet
	all       []models.Snippet
	languages []models.Language
	users     []string
	form      models.Form
	editing   bool
	editID    string
	share     *models.ShareSelection
}

// NewViewModel creates a ViewModel with an empty working set and a fresh form.
func NewViewModel(opts Options) (*ViewModel, error) {
	if opts.API == nil {
		return nil, fmt.Errorf("%w: snippet API not initialized", shared.ErrServiceUnavailable)
	}
	if opts.Session == nil {
		return nil, fmt.Errorf("%w: session source not initialized", shared.ErrMissingConfig)
	}

	vm := &ViewModel{
		api:      opts.API,
		session:  opts.Session,
		cache:    opts.Cache,
		alerter:  opts.Alerter,
		renderer: opts.Renderer,
		logger:   opts.Logger,
		progress: opts.Progress,
		guest:    []models.Snippet{},
		user:     []models.Snippet{},
		shared:   []models.Snippet{},
		all:      []models.Snippet{},
		form:     models.NewForm(),
	}
	if vm.alerter == nil {
		vm.alerter = AlertFunc(func(string) {})
	}
	if vm.logger == nil {
		vm.logger = log.New(io.Discard)
	}
	if vm.renderer == nil {
		h, err := highlight.New("", 0)
		if err != nil {
			return nil, err
		}
		vm.renderer = h
	}
	return vm, nil
}

// State is a copy of the view-model's data, safe to read without locking.
type State struct {
	Guest           []models.Snippet
	User            []models.Snippet
	Shared          []models.Snippet
	All             []models.Snippet
	Languages       []models.Language
	Users           []string
	Form            models.Form
	Editing         bool
	EditID          string
	SharingOpen     bool
	ShareTarget     string
	ShareCandidates []string
	ShareSelected   []string
}

// Snapshot copies the current state.
func (vm *ViewModel) Snapshot() State {
	vm.mu.RLock()
	defer vm.mu.RUnlock()

	st := State{
		Guest:     slices.Clone(vm.guest),
		User:      slices.Clone(vm.user),
		Shared:    slices.Clone(vm.shared),
		All:       slices.Clone(vm.all),
		Languages: slices.Clone(vm.languages),
		Users:     slices.Clone(vm.users),
		Form:      vm.form,
		Editing:   vm.editing,
		EditID:    vm.editID,
	}
	if vm.share != nil {
		st.SharingOpen = true
		st.ShareTarget = vm.share.TargetID
		st.ShareCandidates = slices.Clone(vm.share.Candidates)
		st.ShareSelected = vm.share.Selected()
	}
	return st
}

// All returns the merged guest and user view, newest first.
func (vm *ViewModel) All() []models.Snippet {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return slices.Clone(vm.all)
}

// Find looks id up in the merged view and then the shared list.
func (vm *ViewModel) Find(id string) (models.Snippet, bool) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()

	for _, list := range [][]models.Snippet{vm.all, vm.shared} {
		if i := slices.IndexFunc(list, func(s models.Snippet) bool { return s.ID == id }); i >= 0 {
			return list[i], true
		}
	}
	return models.Snippet{}, false
}

// Form returns the current form.
func (vm *ViewModel) Form() models.Form {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.form
}

// SetForm replaces the form contents.
func (vm *ViewModel) SetForm(f models.Form) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.form = f
}

// Highlight renders s as a trusted HTML fragment.
func (vm *ViewModel) Highlight(s models.Snippet) template.HTML {
	return vm.renderer.HTML(s)
}

// recompute rebuilds the merged view from guest and user. Callers hold mu.
func (vm *ViewModel) recompute() {
	vm.all = models.Merge(vm.guest, vm.user)
}

func (vm *ViewModel) sendProgress(update ProgressUpdate) {
	sendProgress(vm.progress, update)
}

func (vm *ViewModel) cacheSnippets(origin models.Origin, snippets []models.Snippet) {
	if vm.cache == nil {
		return
	}
	if err := vm.cache.CacheSnippets(origin, snippets); err != nil {
		vm.logger.Warn("failed to cache snippets", "origin", origin, "error", err)
	}
}

type fetch struct {
	phase Phase
	run   func(ctx context.Context) error
}

// Load refreshes every list from the server.
//
// Guest snippets and languages are always fetched. With an active session the user's own snippets,
// the snippets shared with them and the shareable user names are fetched too; without one those lists
// are emptied. Each fetch applies its own result and recomputes the merged view as soon as it returns.
// A failed fetch leaves its list unchanged; the returned error joins every failure.
func (vm *ViewModel) Load(ctx context.Context) error {
	sess := vm.session.Session()

	fetches := []fetch{
		{FetchGuest, vm.fetchGuest},
		{FetchLanguages, vm.fetchLanguages},
	}
	if sess.Active() {
		name := sess.UserName
		fetches = append(fetches,
			fetch{FetchMine, func(ctx context.Context) error { return vm.fetchMine(ctx, name) }},
			fetch{FetchShared, func(ctx context.Context) error { return vm.fetchShared(ctx, name) }},
			fetch{FetchUsers, func(ctx context.Context) error { return vm.fetchUsers(ctx, name) }},
		)
	} else {
		vm.mu.Lock()
		vm.user = []models.Snippet{}
		vm.shared = []models.Snippet{}
		vm.users = nil
		vm.recompute()
		vm.mu.Unlock()
		vm.cacheSnippets(models.OriginMine, nil)
		vm.cacheSnippets(models.OriginShared, nil)
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
		done atomic.Int32
	)
	total := len(fetches)

	for _, f := range fetches {
		wg.Add(1)
		go func(f fetch) {
			defer wg.Done()

			err := f.run(ctx)
			step := int(done.Add(1))
			if err != nil {
				vm.logger.Warn("fetch failed", "phase", f.phase, "error", err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", f.phase, err))
				mu.Unlock()
				vm.sendProgress(fetchFailedUpdate(f.phase, step, total, err))
				return
			}
			vm.sendProgress(fetchedUpdate(f.phase, step, total))
		}(f)
	}
	wg.Wait()

	return errors.Join(errs...)
}

func (vm *ViewModel) fetchGuest(ctx context.Context) error {
	list, err := vm.api.Guest(ctx)
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.guest = list
	vm.recompute()
	vm.mu.Unlock()
	vm.cacheSnippets(models.OriginGuest, list)
	return nil
}

func (vm *ViewModel) fetchMine(ctx context.Context, name string) error {
	list, err := vm.api.Mine(ctx, name)
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.user = list
	vm.recompute()
	vm.mu.Unlock()
	vm.cacheSnippets(models.OriginMine, list)
	return nil
}

func (vm *ViewModel) fetchShared(ctx context.Context, name string) error {
	list, err := vm.api.SharedWithMe(ctx, name)
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.shared = list
	vm.mu.Unlock()
	vm.cacheSnippets(models.OriginShared, list)
	return nil
}

func (vm *ViewModel) fetchUsers(ctx context.Context, self string) error {
	names, err := vm.api.Users(ctx)
	if err != nil {
		return err
	}
	others := make([]string, 0, len(names))
	for _, n := range names {
		if !strings.EqualFold(n, self) {
			others = append(others, n)
		}
	}
	vm.mu.Lock()
	vm.users = others
	vm.mu.Unlock()
	return nil
}

func (vm *ViewModel) fetchLanguages(ctx context.Context) error {
	langs, err := vm.api.Languages(ctx)
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.languages = langs
	vm.mu.Unlock()
	if vm.cache != nil {
		if err := vm.cache.CacheLanguages(langs); err != nil {
			vm.logger.Warn("failed to cache languages", "error", err)
		}
	}
	return nil
}

// actingUser returns the name to send as X-User-Name, or "" when no session is active.
func (vm *ViewModel) actingUser() string {
	if sess := vm.session.Session(); sess.Active() {
		return sess.UserName
	}
	return ""
}

// Create submits the form as a new snippet, then clears title and code and reloads.
//
// The returned error reports a failed create; a failed reload after a successful create is logged only.
func (vm *ViewModel) Create(ctx context.Context) (*models.Snippet, error) {
	created, err := vm.createSnippet(ctx)
	if err != nil {
		vm.alerter.Alert(msgCreateFailed)
		return nil, err
	}

	vm.alerter.Alert(msgCreated)
	vm.mu.Lock()
	vm.form.Clear()
	vm.mu.Unlock()
	vm.reload(ctx)
	return created, nil
}

func (vm *ViewModel) createSnippet(ctx context.Context) (*models.Snippet, error) {
	form := vm.Form()
	if err := form.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	vm.sendProgress(snippetUpdate(CreateSnippet, 1, 1, fmt.Sprintf("Creating %q...", form.Title)))
	created, err := vm.api.Create(ctx, vm.actingUser(), form)
	if err != nil {
		vm.logger.Error("create failed", "title", form.Title, "error", err)
		return nil, err
	}
	vm.logger.Info("snippet created", "id", created.ID)
	return created, nil
}

func (vm *ViewModel) reload(ctx context.Context) {
	if err := vm.Load(ctx); err != nil {
		vm.logger.Warn("reload after mutation incomplete", "error", err)
	}
}

// Update saves the form over the snippet id, then clears the form, leaves edit mode and reloads.
func (vm *ViewModel) Update(ctx context.Context, id string) error {
	form := vm.Form()
	vm.sendProgress(snippetUpdate(UpdateSnippet, 1, 1, fmt.Sprintf("Updating %s...", id)))

	if _, err := vm.api.Update(ctx, vm.actingUser(), id, form); err != nil {
		msg := services.ServerMessage(err)
		if msg == "" {
			msg = msgUpdateDefault
		}
		vm.alerter.Alert(fmt.Sprintf(msgUpdateFailed, msg))
		vm.logger.Error("update failed", "id", id, "error", err)
		return err
	}

	vm.alerter.Alert(msgUpdated)
	vm.mu.Lock()
	vm.form.Clear()
	vm.editing = false
	vm.editID = ""
	vm.mu.Unlock()
	vm.reload(ctx)
	return nil
}

// Save updates the snippet being edited, or creates a new one when not editing.
func (vm *ViewModel) Save(ctx context.Context) error {
	vm.mu.RLock()
	editing, id := vm.editing, vm.editID
	vm.mu.RUnlock()

	if editing {
		return vm.Update(ctx, id)
	}
	_, err := vm.Create(ctx)
	return err
}

// Remove deletes the snippet id and reloads.
func (vm *ViewModel) Remove(ctx context.Context, id string) error {
	vm.sendProgress(snippetUpdate(DeleteSnippet, 1, 1, fmt.Sprintf("Deleting %s...", id)))

	if err := vm.api.Delete(ctx, id); err != nil {
		vm.alerter.Alert(fmt.Sprintf(msgDeleteFailed, deleteStatus(err)))
		vm.logger.Error("delete failed", "id", id, "error", err)
		return err
	}

	vm.logger.Info("snippet deleted", "id", id)
	vm.reload(ctx)
	return nil
}

func deleteStatus(err error) string {
	var apiErr *services.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("%d %s", apiErr.StatusCode, apiErr.Status)
	}
	return err.Error()
}

// StartEdit enters edit mode for s and copies it into the form.
func (vm *ViewModel) StartEdit(s models.Snippet) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.editing = true
	vm.editID = s.ID
	vm.form = models.FormFrom(s)
}

// CancelEdit leaves edit mode and clears the form.
func (vm *ViewModel) CancelEdit() {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.editing = false
	vm.editID = ""
	vm.form.Clear()
}

// Editing reports whether a snippet is being edited, and which.
func (vm *ViewModel) Editing() (bool, string) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.editing, vm.editID
}

// OpenShare opens the share selection over the last-fetched user names.
//
// targetID names an existing snippet; [models.NewTarget] shares the snippet being edited, or the
// form contents as a new snippet.
func (vm *ViewModel) OpenShare(targetID string) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if targetID == models.NewTarget && vm.editing {
		targetID = vm.editID
	}
	vm.share = models.NewShareSelection(vm.users, targetID)
}

// ToggleRecipient flips name in the open share selection and reports whether it is now selected.
func (vm *ViewModel) ToggleRecipient(name string) bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.share == nil {
		return false
	}
	return vm.share.Toggle(name)
}

// CancelShare discards the share selection.
func (vm *ViewModel) CancelShare() {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.share = nil
}

// SubmitShare shares with the selected recipients of the open selection.
func (vm *ViewModel) SubmitShare(ctx context.Context) error {
	vm.mu.RLock()
	sel := vm.share
	var recipients []string
	if sel != nil {
		recipients = sel.Selected()
	}
	vm.mu.RUnlock()

	if sel == nil {
		vm.alerter.Alert(msgShareNotOpened)
		return fmt.Errorf("%w: share selection not open", shared.ErrInvalidInput)
	}
	return vm.ShareExistingOrNew(ctx, recipients)
}

// shareTarget resolves which existing snippet a share applies to, or "" to create one first.
func (vm *ViewModel) shareTarget() string {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	if vm.share != nil && !vm.share.IsNew() {
		return vm.share.TargetID
	}
	if vm.editing {
		return vm.editID
	}
	return models.NewTarget
}

// ShareExistingOrNew shares the edited (or selected) snippet with recipients. When there is no
// existing snippet, the form is created first and the new id is shared.
//
// Create and share are sequential and not compensated: if sharing fails after a successful create,
// the new snippet stays unshared and the error wraps [shared.ErrShareFailed].
func (vm *ViewModel) ShareExistingOrNew(ctx context.Context, recipients []string) error {
	if len(recipients) == 0 {
		vm.alerter.Alert(msgNoRecipients)
		return fmt.Errorf("%w: no recipients selected", shared.ErrMissingArgument)
	}

	id := vm.shareTarget()
	created := false
	if id == models.NewTarget {
		sn, err := vm.createSnippet(ctx)
		if err != nil {
			vm.alerter.Alert(msgCreateFailed)
			return err
		}
		id, created = sn.ID, true
	}

	vm.sendProgress(snippetUpdate(ShareSnippet, 1, 1, fmt.Sprintf("Sharing %s with %s...", id, strings.Join(recipients, ", "))))
	if err := vm.api.ShareTo(ctx, id, recipients); err != nil {
		msg := services.ServerMessage(err)
		if msg == "" {
			msg = err.Error()
		}
		vm.alerter.Alert(fmt.Sprintf(msgShareFailed, msg))
		vm.logger.Error("share failed", "id", id, "created", created, "error", err)
		if created {
			vm.reload(ctx)
		}
		return fmt.Errorf("%w: %w", shared.ErrShareFailed, err)
	}

	vm.logger.Info("snippet shared", "id", id, "recipients", recipients)
	vm.alerter.Alert(fmt.Sprintf(msgShared, len(recipients)))

	vm.mu.Lock()
	vm.share = nil
	vm.form.Clear()
	vm.editing = false
	vm.editID = ""
	vm.mu.Unlock()
	vm.reload(ctx)
	return nil
}
