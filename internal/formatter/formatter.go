// package formatter renders snippet collections as JSON, CSV, Markdown, plain text or HTML.
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/desertthunder/snipx/internal/highlight"
	"github.com/desertthunder/snipx/internal/models"
	"github.com/desertthunder/snipx/internal/shared"
)

// Format is an export file format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
	FormatHTML     Format = "html"
)

// Formats lists every supported format.
var Formats = []Format{FormatJSON, FormatCSV, FormatMarkdown, FormatText, FormatHTML}

// ParseFormat accepts a format name or a common file extension ("md", "text", "htm").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	case "html", "htm":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want json, csv, markdown, txt or html)", shared.ErrInvalidFlag, s)
	}
}

// Ext returns the file extension for f, without the dot.
func (f Format) Ext() string {
	if f == FormatMarkdown {
		return "md"
	}
	return string(f)
}

// Export is a titled collection of snippets.
type Export struct {
	Title       string           `json:"title"`
	User        string           `json:"user,omitempty"`
	GeneratedAt time.Time        `json:"generated_at"`
	Snippets    []models.Snippet `json:"snippets"`
}

// NewExport builds an Export stamped with the current time.
func NewExport(title, user string, snippets []models.Snippet) *Export {
	return &Export{Title: title, User: user, GeneratedAt: time.Now().UTC(), Snippets: snippets}
}

// Render produces export in format f. style names the chroma style used by HTML output.
func Render(export *Export, f Format, style string) ([]byte, error) {
	switch f {
	case FormatJSON:
		return ExportToJSON(export)
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown:
		return ExportToMarkdown(export)
	case FormatText:
		return ExportToText(export)
	case FormatHTML:
		return ExportToHTML(export, style)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, f)
	}
}

// ExportToJSON renders the export as indented JSON.
func ExportToJSON(export *Export) ([]byte, error) {
	return shared.MarshalJSON(export, true)
}

// ExportToCSV renders one row per snippet with columns: ID, Title, Language, Created, Origin, Code
func ExportToCSV(export *Export) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Language", "Created", "Origin", "Code"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, s := range export.Snippets {
		record := []string{
			s.ID,
			s.Title,
			string(s.Language),
			formatTime(s.CreatedAt),
			string(s.Origin),
			s.Code,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders each snippet as a section with a fenced code block tagged by its alias.
func ExportToMarkdown(export *Export) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", export.Title)
	if export.User != "" {
		fmt.Fprintf(&buf, "**User**: %s\n", export.User)
	}
	fmt.Fprintf(&buf, "**Snippets**: %d\n\n", len(export.Snippets))

	for _, s := range export.Snippets {
		fmt.Fprintf(&buf, "## %s\n\n", s.Title)

		meta := fmt.Sprintf("`%s` · %s", s.Language, formatTime(s.CreatedAt))
		if s.Origin != "" {
			meta += " · " + string(s.Origin)
		}
		buf.WriteString(meta + "\n\n")

		fence := codeFence(s.Code)
		fmt.Fprintf(&buf, "%s%s\n%s\n%s\n\n", fence, lexerHint(s.Language), strings.TrimRight(s.Code, "\n"), fence)
	}

	return buf.Bytes(), nil
}

// ExportToText renders a plain listing with the code indented under each title.
func ExportToText(export *Export) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s\n", export.Title)
	fmt.Fprintf(&buf, "Snippets: %d\n\n", len(export.Snippets))

	for i, s := range export.Snippets {
		fmt.Fprintf(&buf, "%d. %s [%s] %s\n", i+1, s.Title, s.Language, formatTime(s.CreatedAt))
		for _, line := range strings.Split(strings.TrimRight(s.Code, "\n"), "\n") {
			buf.WriteString("    " + line + "\n")
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// ExportToHTML renders the Markdown export to a standalone HTML page with inline-styled code blocks.
func ExportToHTML(export *Export, style string) ([]byte, error) {
	md, err := ExportToMarkdown(export)
	if err != nil {
		return nil, err
	}

	if style == "" {
		style = "monokai"
	}
	converter := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle(style),
				highlighting.WithFormatOptions(chromahtml.WithClasses(false)),
			),
		),
		goldmark.WithRendererOptions(html.WithXHTML()),
	)

	var body bytes.Buffer
	if err := converter.Convert(md, &body); err != nil {
		return nil, fmt.Errorf("failed to render markdown: %w", err)
	}

	var page bytes.Buffer
	err = pageTemplate.Execute(&page, struct {
		Title string
		Body  template.HTML
	}{Title: export.Title, Body: template.HTML(body.String())})
	if err != nil {
		return nil, fmt.Errorf("failed to render page: %w", err)
	}
	return page.Bytes(), nil
}

// WriteExport renders export and writes it to path, defaulting to snippets.{ext} in the working directory.
func WriteExport(export *Export, f Format, style, path string) (string, error) {
	if path == "" {
		path = "snippets." + f.Ext()
	}

	data, err := Render(export, f, style)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", f, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", f, err)
	}
	return path, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// Markdown fences take the highlighter alias, except where chroma knows the language by another name.
func lexerHint(lang models.Language) string {
	switch alias := highlight.Alias(lang); alias {
	case "markup":
		return "html"
	case highlight.FallbackAlias:
		return ""
	default:
		return alias
	}
}

// codeFence returns a backtick fence longer than any backtick run in code.
func codeFence(code string) string {
	longest, run := 0, 0
	for _, r := range code {
		if r == '`' {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	return strings.Repeat("`", max(3, longest+1))
}
