// Package services implements the HTTP clients for the snippet REST API.
//
// # SnippetAPI Interface
//
// [SnippetAPI] lists every endpoint the client consumes, so the view-model and CLI can be tested against fakes.
// [SnippetService] is the net/http implementation.
//
// # Authentication
//
// The service identifies users by name only: endpoints that act on behalf of a user take the name as the X-User-Name header.
// There are no tokens or cookies; login merely checks credentials.
//
// Deployments behind an authenticating gateway can configure an api_token, which wraps the HTTP client with a static [oauth2.TokenSource].
//
// # Rate Limiting
//
// Requests pass through a [rate.Limiter] so bursty reloads (every mutation triggers a full reload) stay polite.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrServiceUnavailable] : transport failure, no HTTP response
//   - [shared.ErrAPIRequest] : non-2xx response, carried by [APIError]
//   - [shared.ErrSnippetNotFound] : 404 on a snippet path
//   - [shared.ErrInvalidArgument] : malformed snippet id, rejected before any request
//
// # Raw Access
//
// [APIService] performs unparsed GET/POST requests for the "api" debugging commands.
package services
