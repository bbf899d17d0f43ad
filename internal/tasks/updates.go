package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Err     error  // Set when the step failed
}

// Operation phase enumeration
type Phase int

const (
	FetchGuest Phase = iota
	FetchMine
	FetchShared
	FetchUsers
	FetchLanguages
	CreateSnippet
	UpdateSnippet
	DeleteSnippet
	ShareSnippet
	ExportSnippets
)

func (p Phase) String() string {
	switch p {
	case FetchGuest:
		return "fetch_guest"
	case FetchMine:
		return "fetch_mine"
	case FetchShared:
		return "fetch_shared"
	case FetchUsers:
		return "fetch_users"
	case FetchLanguages:
		return "fetch_languages"
	case CreateSnippet:
		return "create_snippet"
	case UpdateSnippet:
		return "update_snippet"
	case DeleteSnippet:
		return "delete_snippet"
	case ShareSnippet:
		return "share_snippet"
	case ExportSnippets:
		return "export_snippets"
	default:
		return ""
	}
}

func (p Phase) label() string {
	switch p {
	case FetchGuest:
		return "guest snippets"
	case FetchMine:
		return "your snippets"
	case FetchShared:
		return "snippets shared with you"
	case FetchUsers:
		return "users"
	case FetchLanguages:
		return "languages"
	default:
		return p.String()
	}
}

func fetchedUpdate(p Phase, step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   p,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Loaded %s", step, total, p.label()),
	}
}

func fetchFailedUpdate(p Phase, step, total int, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   p,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, p.label(), err),
		Err:     err,
	}
}

func snippetUpdate(p Phase, step, total int, message string) ProgressUpdate {
	return ProgressUpdate{Phase: p, Step: step, Total: total, Message: message}
}

func exportCompletedUpdate(step, total int, title, file string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportSnippets,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s → %s", step, total, title, file),
	}
}

func exportFailedUpdate(step, total int, title string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportSnippets,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, title, err),
		Err:     err,
	}
}
