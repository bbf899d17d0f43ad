// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI is a front end for the snippet view-model in [tasks.ViewModel]:
//  1. [ListView] : Browse the merged guest and user snippets
//  2. [DetailView] : Read one snippet with terminal syntax highlighting
//  3. [FormView] : Create a snippet or edit the selected one
//  4. [ConfirmDeleteView] : Confirm a delete
//  5. [ShareView] : Pick the users to share with
//
// View-model calls run as tea.Cmds and report back with the Msg union type. Alerts raised by the
// view-model are collected in an [AlertBuffer] and shown on the status line; progress updates flow
// through a channel and replace the status line as they arrive.
package ui
