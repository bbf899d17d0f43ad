package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/snipx/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgLoaded MsgKind = iota
	MsgOpDone
	MsgProgressUpdate
)

// opResult is the payload of [MsgLoaded] and [MsgOpDone].
type opResult struct {
	op   operation
	err  error
	next ViewState
}

// operation names the view-model call a [MsgOpDone] finished.
type operation int

const (
	opLoad operation = iota
	opSave
	opDelete
	opShare
)

func (o operation) String() string {
	switch o {
	case opLoad:
		return "load"
	case opSave:
		return "save"
	case opDelete:
		return "delete"
	case opShare:
		return "share"
	default:
		return "unknown"
	}
}

// loadedMsg is the constructor for [MsgLoaded]
func loadedMsg(err error) Msg {
	return Msg{kind: MsgLoaded, data: opResult{op: opLoad, err: err}}
}

// opDoneMsg is the constructor for [MsgOpDone]. next is the view to show on success.
func opDoneMsg(op operation, next ViewState, err error) Msg {
	return Msg{kind: MsgOpDone, data: opResult{op: op, err: err, next: next}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

func (m Msg) result() opResult {
	r, _ := m.data.(opResult)
	return r
}

func (m Msg) progress() tasks.ProgressUpdate {
	u, _ := m.data.(tasks.ProgressUpdate)
	return u
}
