package server

import (
	"context"
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/snipx/internal/highlight"
	"github.com/desertthunder/snipx/internal/models"
)

// Source supplies the snippets shown by [PreviewHandler]; tasks.ViewModel implements it.
type Source interface {
	All() []models.Snippet
	Find(id string) (models.Snippet, bool)
	Highlight(s models.Snippet) template.HTML
	Load(ctx context.Context) error
}

// PreviewHandler renders the merged snippet view as HTML.
//
// Routes:
//   - GET /                 all snippets, newest first (?refresh=1 reloads from the API first)
//   - GET /snippets/{id}    one snippet
//   - GET /health           JSON liveness probe
type PreviewHandler struct {
	source Source
	logger *log.Logger
	mux    *http.ServeMux
	title  string
}

// NewPreviewHandler creates a handler over source.
func NewPreviewHandler(source Source, title string, logger *log.Logger) *PreviewHandler {
	if title == "" {
		title = "Snippets"
	}
	h := &PreviewHandler{source: source, logger: logger, title: title, mux: http.NewServeMux()}
	h.mux.HandleFunc("GET /{$}", h.index)
	h.mux.HandleFunc("GET /snippets/{id}", h.show)
	h.mux.HandleFunc("GET /health", h.health)
	return h
}

func (h *PreviewHandler) Routes() []string {
	return []string{"GET /{$}", "GET /snippets/{id}", "GET /health"}
}

func (h *PreviewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

type snippetView struct {
	models.Snippet
	Alias   string
	Created string
	Body    template.HTML
}

func (h *PreviewHandler) view(s models.Snippet) snippetView {
	created := ""
	if !s.CreatedAt.IsZero() {
		created = s.CreatedAt.Local().Format("2006-01-02 15:04")
	}
	return snippetView{
		Snippet: s,
		Alias:   highlight.Alias(s.Language),
		Created: created,
		Body:    h.source.Highlight(s),
	}
}

func (h *PreviewHandler) index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("refresh") == "1" {
		if err := h.source.Load(r.Context()); err != nil {
			h.logger.Warn("refresh incomplete", "error", err)
		}
	}

	all := h.source.All()
	views := make([]snippetView, len(all))
	for i, s := range all {
		views[i] = h.view(s)
	}

	h.render(w, http.StatusOK, pageData{Title: h.title, Snippets: views})
}

func (h *PreviewHandler) show(w http.ResponseWriter, r *http.Request) {
	s, ok := h.source.Find(r.PathValue("id"))
	if !ok {
		h.render(w, http.StatusNotFound, pageData{Title: "Not found", Missing: r.PathValue("id")})
		return
	}
	h.render(w, http.StatusOK, pageData{Title: s.Title, Snippets: []snippetView{h.view(s)}, Single: true})
}

func (h *PreviewHandler) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"snippets": len(h.source.All()),
		"time":     time.Now().UTC().Format(time.RFC3339),
	})
}

type pageData struct {
	Title    string
	Snippets []snippetView
	Single   bool
	Missing  string
}

func (h *PreviewHandler) render(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTmpl.Execute(w, data); err != nil {
		h.logger.Error("failed to render page", "error", err)
	}
}

var pageTmpl = template.Must(template.New("preview").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 960px; margin: 2rem auto; padding: 0 1rem; }
article { margin-bottom: 2rem; }
pre { padding: 1rem; overflow-x: auto; border-radius: 6px; background: #272822; }
.meta { color: #666; font-size: 0.9rem; }
</style>
</head>
<body>
{{if .Missing}}<h1>Not found</h1><p>No snippet with id <code>{{.Missing}}</code>.</p><p><a href="/">Back</a></p>
{{else}}{{if .Single}}<p><a href="/">&larr; All snippets</a></p>{{else}}<h1>{{.Title}}</h1><p class="meta">{{len .Snippets}} snippet(s)</p>{{end}}
{{range .Snippets}}<article id="{{.ID}}">
<h2>{{if $.Single}}{{.Title}}{{else}}<a href="/snippets/{{.ID}}">{{.Title}}</a>{{end}}</h2>
<p class="meta">{{.Language}} ({{.Alias}}){{with .Created}} · {{.}}{{end}}{{if .IsShared}} · shared{{end}}</p>
{{.Body}}
</article>
{{else}}<p>No snippets yet.</p>
{{end}}{{end}}
</body>
</html>
`))
