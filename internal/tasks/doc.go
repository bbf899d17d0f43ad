// Package tasks holds the snippet view-model and the operations that keep it in sync with the server.
//
// # Working Set
//
// [ViewModel] keeps four lists: guest snippets, the signed-in user's snippets, snippets shared with
// the user, and the merged "all" view (guest plus user, newest first, deduplicated by id). The merged
// view is rebuilt wholesale every time guest or user changes.
//
// # Operations
//
//  1. [ViewModel.Load] : concurrent fetch of every list; each result applies on arrival
//  2. [ViewModel.Create] : POST the form, clear title and code, reload
//  3. [ViewModel.Update] : PUT the form over an existing id, leave edit mode, reload
//  4. [ViewModel.Remove] : DELETE by id, reload
//  5. [ViewModel.ShareExistingOrNew] : share the edited snippet, or create the form first and share the new id
//
// Outcomes are reported to an [Alerter] using the same wording as the web client, so the CLI and TUI
// can print them verbatim.
//
// # Progress Reporting
//
// Operations send [ProgressUpdate] values on an optional channel. Sends use select with default so a
// slow or absent reader never blocks an operation.
//
// # Caching
//
// The optional [Cacher] receives every successfully fetched list (repositories.CacheAdapter backs it
// with SQLite). Cache failures are logged and otherwise ignored.
//
// # Bulk Export
//
// [ExportEach] writes one file per snippet through a small worker pool and records the outcome in a
// manifest next to the files.
package tasks
