// Package highlight turns snippet code into pre-rendered, syntax-highlighted output.
//
// The language enum is first mapped to a short alias ("java", "markup", "clike", ...) that also
// names the CSS class on the HTML wrapper. Tokenizing and formatting is done by chroma; rendered
// fragments are kept in an LRU cache keyed by output kind, alias and a digest of the code.
package highlight

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"html"
	"html/template"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/desertthunder/snipx/internal/models"
)

// FallbackAlias is used for any language without an entry in the alias table.
const FallbackAlias = "clike"

// DefaultCacheSize bounds the number of rendered fragments kept in memory.
const DefaultCacheSize = 256

var aliases = map[models.Language]string{
	"JAVA":       "java",
	"JAVASCRIPT": "javascript",
	"TYPESCRIPT": "typescript",
	"PYTHON":     "python",
	"GO":         "go",
	"CSHARP":     "csharp",
	"CPP":        "cpp",
	"HTML":       "markup",
	"CSS":        "css",
	"SQL":        "sql",
	"JSON":       "json",
	"YAML":       "yaml",
	"SHELL":      "bash",
}

// chroma registers some languages under a different name than the alias.
var lexerNames = map[string]string{
	"markup": "html",
}

// Alias maps a language enum value to its highlighter alias. The lookup is exact: anything that
// is not an upper-case enum value, "java" included, gets [FallbackAlias].
func Alias(lang models.Language) string {
	if a, ok := aliases[lang]; ok {
		return a
	}
	return FallbackAlias
}

// Highlighter renders snippets with one chroma style.
type Highlighter struct {
	style     *chroma.Style
	htmlFmt   *chromahtml.Formatter
	termFmt   chroma.Formatter
	cache     *lru.Cache[string, string]
	styleName string
}

// New creates a Highlighter for the named chroma style ("monokai", "github", ...).
//
// Unknown style names fall back to chroma's default style.
func New(styleName string, cacheSize int) (*Highlighter, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create highlight cache: %w", err)
	}

	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}

	return &Highlighter{
		style:     style,
		htmlFmt:   chromahtml.New(chromahtml.WithClasses(false), chromahtml.PreventSurroundingPre(true)),
		termFmt:   formatters.TTY256,
		cache:     cache,
		styleName: style.Name,
	}, nil
}

// Style returns the name of the style in use.
func (h *Highlighter) Style() string {
	return h.styleName
}

// HTML returns a trusted fragment of the form
// <pre class="language-ALIAS"><code class="language-ALIAS">...</code></pre> with inline token styles.
//
// Highlighting never fails: if chroma errors, the code is emitted escaped and unstyled.
func (h *Highlighter) HTML(s models.Snippet) template.HTML {
	alias := Alias(s.Language)
	key := cacheKey("html", alias, s.Code)
	if out, ok := h.cache.Get(key); ok {
		return template.HTML(out)
	}

	var body bytes.Buffer
	if err := h.format(&body, h.htmlFmt, alias, s.Code); err != nil {
		body.Reset()
		body.WriteString(html.EscapeString(s.Code))
	}

	out := fmt.Sprintf(`<pre class="language-%[1]s"><code class="language-%[1]s">%[2]s</code></pre>`, alias, body.String())
	h.cache.Add(key, out)
	return template.HTML(out)
}

// Terminal returns the code with 256-color ANSI escapes for the CLI and TUI.
func (h *Highlighter) Terminal(s models.Snippet) string {
	alias := Alias(s.Language)
	key := cacheKey("term", alias, s.Code)
	if out, ok := h.cache.Get(key); ok {
		return out
	}

	var buf bytes.Buffer
	if err := h.format(&buf, h.termFmt, alias, s.Code); err != nil {
		return s.Code
	}

	out := buf.String()
	h.cache.Add(key, out)
	return out
}

// Len reports how many rendered fragments are cached.
func (h *Highlighter) Len() int {
	return h.cache.Len()
}

func (h *Highlighter) format(buf *bytes.Buffer, f chroma.Formatter, alias, code string) error {
	it, err := lexerFor(alias, code).Tokenise(nil, code)
	if err != nil {
		return fmt.Errorf("tokenise %s: %w", alias, err)
	}
	return f.Format(buf, h.style, it)
}

func lexerFor(alias, code string) chroma.Lexer {
	name := alias
	if n, ok := lexerNames[alias]; ok {
		name = n
	}

	var l chroma.Lexer
	if alias == FallbackAlias {
		l = lexers.Analyse(code)
	} else {
		l = lexers.Get(name)
	}
	if l == nil {
		l = lexers.Fallback
	}
	return chroma.Coalesce(l)
}

func cacheKey(kind, alias, code string) string {
	sum := sha256.Sum256([]byte(code))
	return kind + ":" + alias + ":" + hex.EncodeToString(sum[:])
}
