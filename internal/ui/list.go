package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/snipx/internal/highlight"
	"github.com/desertthunder/snipx/internal/models"
)

var _ list.Item = snippetItem{}

const timeLayout = "2006-01-02 15:04"

// snippetItem wraps [models.Snippet] to implement [list.Item].
type snippetItem struct {
	snippet models.Snippet
}

func (i snippetItem) FilterValue() string {
	return i.snippet.Title + " " + strings.ToLower(string(i.snippet.Language))
}

func (i snippetItem) Title() string { return i.snippet.Title }

func (i snippetItem) Description() string {
	desc := fmt.Sprintf("%s • %s", highlight.Alias(i.snippet.Language), i.snippet.CreatedAt.Local().Format(timeLayout))
	if i.snippet.Origin != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.snippet.Origin)
	}
	return desc
}

func snippetItems(snippets []models.Snippet) []list.Item {
	items := make([]list.Item, len(snippets))
	for i, s := range snippets {
		items[i] = snippetItem{snippet: s}
	}
	return items
}
