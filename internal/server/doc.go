// Package server provides HTTP routing, middleware, and the local snippet preview.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
// [BasicRouter] registers [http.ServeMux] method patterns ("GET /health"), so requests with another
// method get a 405 from the mux itself. [Middleware] registered first wraps outermost.
//
// # Middleware
//
//   - [RequestLogger] : one structured log line per request (method, path, status, bytes, duration)
//   - [Recoverer] : converts handler panics into 500 responses
//
// # Preview
//
// [PreviewHandler] renders the view-model's merged snippet list as HTML, highlighting each snippet
// with inline styles so the page needs no external assets. [Serve] runs it until the context is
// canceled and then shuts down gracefully.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
