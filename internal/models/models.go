package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTitleLength matches the server's column width for snippet titles.
const MaxTitleLength = 120

// DefaultLanguage is preselected in a fresh [Form].
const DefaultLanguage Language = "JAVA"

var (
	ErrEmptyTitle    = errors.New("title must not be blank")
	ErrTitleTooLong  = fmt.Errorf("title must be at most %d characters", MaxTitleLength)
	ErrEmptyCode     = errors.New("code must not be blank")
	ErrEmptyLanguage = errors.New("language must be set")
)

// Language is a server-side language enum value such as "JAVA" or "PYTHON".
type Language string

// KnownLanguages lists the enum values the server shipped with; the authoritative list comes from GET /api/snippets/languages.
var KnownLanguages = []Language{
	"JAVA", "JAVASCRIPT", "TYPESCRIPT", "PYTHON", "GO", "CSHARP", "CPP",
	"HTML", "CSS", "SQL", "JSON", "YAML", "SHELL",
}

// ParseLanguage normalizes user input ("python", " Go ") to an enum value.
func ParseLanguage(s string) (Language, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", ErrEmptyLanguage
	}
	return Language(s), nil
}

func (l Language) String() string { return string(l) }

// Origin records which list a snippet was fetched from.
type Origin string

const (
	OriginGuest  Origin = "guest"
	OriginMine   Origin = "mine"
	OriginShared Origin = "shared"
)

// Snippet is a snippet as returned by the REST API.
type Snippet struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Code      string    `json:"code"`
	Language  Language  `json:"language"`
	CreatedAt time.Time `json:"createdAt"`
	IsShared  bool      `json:"isShared,omitempty"`
	Origin    Origin    `json:"-"`
}

// WithOrigin returns copies of snippets tagged with origin.
func WithOrigin(snippets []Snippet, origin Origin) []Snippet {
	out := make([]Snippet, len(snippets))
	for i, s := range snippets {
		s.Origin = origin
		out[i] = s
	}
	return out
}

// SortByCreatedDesc sorts snippets newest first. Equal timestamps keep their input order.
func SortByCreatedDesc(snippets []Snippet) {
	sort.SliceStable(snippets, func(i, j int) bool {
		return snippets[i].CreatedAt.After(snippets[j].CreatedAt)
	})
}

// Merge returns a new slice holding the union of the given lists (first occurrence of an id wins), sorted newest first.
func Merge(lists ...[]Snippet) []Snippet {
	total := 0
	for _, l := range lists {
		total += len(l)
	}

	seen := make(map[string]struct{}, total)
	merged := make([]Snippet, 0, total)
	for _, l := range lists {
		for _, s := range l {
			if s.ID != "" {
				if _, ok := seen[s.ID]; ok {
					continue
				}
				seen[s.ID] = struct{}{}
			}
			merged = append(merged, s)
		}
	}

	SortByCreatedDesc(merged)
	return merged
}

// Form holds the create/edit form.
type Form struct {
	Title    string   `json:"title"`
	Code     string   `json:"code"`
	Language Language `json:"language"`
}

// NewForm returns an empty form with [DefaultLanguage] selected.
func NewForm() Form {
	return Form{Language: DefaultLanguage}
}

// FormFrom copies a snippet's editable fields into a form.
func FormFrom(s Snippet) Form {
	return Form{Title: s.Title, Code: s.Code, Language: s.Language}
}

// Clear empties title and code, keeping the selected language.
func (f *Form) Clear() {
	f.Title = ""
	f.Code = ""
}

// Validate applies the same constraints as the server.
func (f Form) Validate() error {
	var errs []error
	title := strings.TrimSpace(f.Title)
	switch {
	case title == "":
		errs = append(errs, ErrEmptyTitle)
	case utf8.RuneCountInString(f.Title) > MaxTitleLength:
		errs = append(errs, ErrTitleTooLong)
	}
	if strings.TrimSpace(f.Code) == "" {
		errs = append(errs, ErrEmptyCode)
	}
	if strings.TrimSpace(string(f.Language)) == "" {
		errs = append(errs, ErrEmptyLanguage)
	}
	return errors.Join(errs...)
}

// Session is the persisted login state.
type Session struct {
	IsLoggedIn bool
	UserName   string
}

// Active reports whether requests should carry the user name.
func (s Session) Active() bool {
	return s.IsLoggedIn && s.UserName != ""
}

// NewTarget marks a share selection whose snippet has not been created yet.
const NewTarget = ""

// ShareSelection is the state of an open share dialog.
type ShareSelection struct {
	Candidates []string
	selected   map[string]bool
	TargetID   string
}

// NewShareSelection opens a selection over candidates for the snippet targetID ([NewTarget] for a snippet still in the form).
func NewShareSelection(candidates []string, targetID string) *ShareSelection {
	c := make([]string, len(candidates))
	copy(c, candidates)
	return &ShareSelection{Candidates: c, selected: make(map[string]bool), TargetID: targetID}
}

// IsNew reports whether sharing must create the snippet first.
func (s *ShareSelection) IsNew() bool {
	return s.TargetID == NewTarget
}

// Toggle flips the selection state of name. Names that are not candidates are ignored.
func (s *ShareSelection) Toggle(name string) bool {
	for _, c := range s.Candidates {
		if c == name {
			s.selected[name] = !s.selected[name]
			return s.selected[name]
		}
	}
	return false
}

// IsSelected reports whether name is currently selected.
func (s *ShareSelection) IsSelected(name string) bool {
	return s.selected[name]
}

// Selected returns the selected names in candidate order.
func (s *ShareSelection) Selected() []string {
	var out []string
	for _, c := range s.Candidates {
		if s.selected[c] {
			out = append(out, c)
		}
	}
	return out
}
