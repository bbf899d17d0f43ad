package testing

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/snipx/internal/models"
	"github.com/google/uuid"
)

// StoredSnippet is a snippet held by [SnippetServer] along with its owner and recipients.
type StoredSnippet struct {
	models.Snippet
	Owner      string
	Recipients []string
}

// SnippetServer is an in-memory stand-in for the snippet REST API.
//
// Set Fail to make a route ("POST /api/snippets/{id}/share-to") answer with the given status.
type SnippetServer struct {
	*httptest.Server

	mu        sync.Mutex
	users     map[string]string
	snippets  []*StoredSnippet
	languages []models.Language
	requests  []string
	clock     time.Time
	fail      map[string]failure
}

type failure struct {
	status  int
	message string
}

// NewSnippetServer starts a server that is closed when the test ends.
func NewSnippetServer(t *testing.T) *SnippetServer {
	t.Helper()

	s := &SnippetServer{
		users:     map[string]string{},
		languages: slices.Clone(models.KnownLanguages),
		clock:     time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		fail:      map[string]failure{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("POST /api/auth/register", s.register)
	mux.HandleFunc("GET /api/auth/users", s.listUsers)
	mux.HandleFunc("GET /api/snippets/guest", s.guest)
	mux.HandleFunc("GET /api/snippets/me", s.mine)
	mux.HandleFunc("GET /api/snippets/shared/me", s.sharedWithMe)
	mux.HandleFunc("GET /api/snippets/languages", s.listLanguages)
	mux.HandleFunc("POST /api/snippets", s.create)
	mux.HandleFunc("PUT /api/snippets/{id}", s.update)
	mux.HandleFunc("DELETE /api/snippets/{id}", s.remove)
	mux.HandleFunc("POST /api/snippets/{id}/share-to", s.shareTo)

	s.Server = httptest.NewServer(s.record(mux))
	t.Cleanup(s.Close)
	return s
}

// Fail makes route respond with status and an optional JSON message until cleared with status 0.
func (s *SnippetServer) Fail(route string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.fail, route)
		return
	}
	s.fail[route] = failure{status: status, message: message}
}

// AddUser registers a user directly.
func (s *SnippetServer) AddUser(name, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[name] = password
}

// Seed stores a snippet owned by owner ("" for guest) and returns it.
func (s *SnippetServer) Seed(owner, title, code string, lang models.Language) models.Snippet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(owner, models.Form{Title: title, Code: code, Language: lang}).Snippet
}

// Snippet looks up a stored snippet by id.
func (s *SnippetServer) Snippet(id string) (StoredSnippet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sn := range s.snippets {
		if sn.ID == id {
			return *sn, true
		}
	}
	return StoredSnippet{}, false
}

// Count returns the number of stored snippets.
func (s *SnippetServer) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snippets)
}

// Requests returns "METHOD /path" for every request received, in order.
func (s *SnippetServer) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

func (s *SnippetServer) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Method+" "+r.URL.Path)
		var f failure
		var ok bool
		for route, rf := range s.fail {
			if routeMatches(route, r) {
				f, ok = rf, true
				break
			}
		}
		s.mu.Unlock()

		if ok {
			writeError(w, f.status, f.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// routeMatches compares "METHOD /a/{x}/b" against the request, treating {x} as a wildcard segment.
func routeMatches(route string, r *http.Request) bool {
	method, pattern, found := strings.Cut(route, " ")
	if !found || method != r.Method {
		return false
	}
	want := strings.Split(strings.Trim(pattern, "/"), "/")
	got := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if strings.HasPrefix(want[i], "{") {
			continue
		}
		if want[i] != got[i] {
			return false
		}
	}
	return true
}

func (s *SnippetServer) insert(owner string, form models.Form) *StoredSnippet {
	s.clock = s.clock.Add(time.Minute)
	sn := &StoredSnippet{
		Snippet: models.Snippet{
			ID:        uuid.NewString(),
			Title:     form.Title,
			Code:      form.Code,
			Language:  form.Language,
			CreatedAt: s.clock,
		},
		Owner: owner,
	}
	s.snippets = append(s.snippets, sn)
	return sn
}

func (s *SnippetServer) find(id string) *StoredSnippet {
	for _, sn := range s.snippets {
		if sn.ID == id {
			return sn
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	if message == "" {
		w.WriteHeader(status)
		return
	}
	writeJSON(w, status, map[string]string{"message": message})
}

func decodeCreds(r *http.Request) (name, password string, ok bool) {
	var body struct {
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return "", "", false
	}
	return body.Name, body.Password, true
}

func (s *SnippetServer) login(w http.ResponseWriter, r *http.Request) {
	name, password, ok := decodeCreds(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if !ok || name == "" || s.users[name] != password {
		writeError(w, http.StatusUnauthorized, "")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *SnippetServer) register(w http.ResponseWriter, r *http.Request) {
	name, password, ok := decodeCreds(r)
	if !ok || strings.TrimSpace(name) == "" || password == "" {
		writeError(w, http.StatusBadRequest, "name and password are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[name]; exists {
		writeError(w, http.StatusConflict, "user already exists")
		return
	}
	s.users[name] = password
	w.WriteHeader(http.StatusCreated)
}

func (s *SnippetServer) listUsers(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.users))
	for name := range s.users {
		names = append(names, name)
	}
	slices.Sort(names)

	users := make([]map[string]string, len(names))
	for i, name := range names {
		users[i] = map[string]string{"name": name}
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *SnippetServer) collect(keep func(*StoredSnippet) bool, shared bool) []models.Snippet {
	out := []models.Snippet{}
	for _, sn := range s.snippets {
		if keep(sn) {
			item := sn.Snippet
			item.IsShared = shared
			out = append(out, item)
		}
	}
	return out
}

func (s *SnippetServer) guest(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.collect(func(sn *StoredSnippet) bool { return sn.Owner == "" }, false))
}

func (s *SnippetServer) mine(w http.ResponseWriter, r *http.Request) {
	user := r.Header.Get("X-User-Name")
	if user == "" {
		writeError(w, http.StatusUnauthorized, "missing user")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.collect(func(sn *StoredSnippet) bool { return sn.Owner == user }, false))
}

func (s *SnippetServer) sharedWithMe(w http.ResponseWriter, r *http.Request) {
	user := r.Header.Get("X-User-Name")
	if user == "" {
		writeError(w, http.StatusUnauthorized, "missing user")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.collect(func(sn *StoredSnippet) bool {
		return slices.Contains(sn.Recipients, user)
	}, true))
}

func (s *SnippetServer) listLanguages(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.languages)
}

func decodeForm(r *http.Request) (models.Form, bool) {
	var form models.Form
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		return form, false
	}
	return form, form.Validate() == nil
}

func (s *SnippetServer) create(w http.ResponseWriter, r *http.Request) {
	form, ok := decodeForm(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid snippet")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sn := s.insert(r.Header.Get("X-User-Name"), form)
	writeJSON(w, http.StatusCreated, sn.Snippet)
}

func (s *SnippetServer) update(w http.ResponseWriter, r *http.Request) {
	form, ok := decodeForm(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid snippet")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sn := s.find(r.PathValue("id"))
	if sn == nil {
		writeError(w, http.StatusNotFound, "snippet not found")
		return
	}
	sn.Title, sn.Code, sn.Language = form.Title, form.Code, form.Language
	writeJSON(w, http.StatusOK, sn.Snippet)
}

func (s *SnippetServer) remove(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := r.PathValue("id")
	i := slices.IndexFunc(s.snippets, func(sn *StoredSnippet) bool { return sn.ID == id })
	if i < 0 {
		writeError(w, http.StatusNotFound, "")
		return
	}
	s.snippets = slices.Delete(s.snippets, i, i+1)
	w.WriteHeader(http.StatusNoContent)
}

func (s *SnippetServer) shareTo(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserNames []string `json:"userNames"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.UserNames) == 0 {
		writeError(w, http.StatusBadRequest, "userNames must not be empty")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sn := s.find(r.PathValue("id"))
	if sn == nil {
		writeError(w, http.StatusNotFound, "snippet not found")
		return
	}
	for _, name := range body.UserNames {
		if !slices.Contains(sn.Recipients, name) {
			sn.Recipients = append(sn.Recipients, name)
		}
	}
	w.WriteHeader(http.StatusOK)
}
