// Package models defines the client-side data model for the snippet service.
//
// The package contains two categories of types:
//
// 1. Server DTOs: structs decoded straight from REST responses
//   - [Snippet] : A titled block of code tagged with a [Language]
//   - [Language] : Language enum value as sent by the server
//
// 2. Client state: values that only exist on this side of the wire
//   - [Form] : Create/edit form contents with server-equivalent validation
//   - [Session] : Login flag and user name persisted in local storage
//   - [ShareSelection] : Transient recipient picker state for the share dialog
//
// Snippets are immutable from the client's perspective. The only derived values are sort order ([SortByCreatedDesc]) and the display alias computed by the highlight package.
package models
