// Package server implements the local development proxy in front of the generation backend.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// The [BasicRouter] implementation registers method-qualified patterns on an [http.ServeMux].
//
// # Proxy
//
// [ProxyHandler] forwards every request under /api/ to the backend's /api/v1/ root, so a browser or script
// can talk to a single origin. A configured bearer token is attached through an [oauth2.Transport];
// without one the caller's own Authorization header is required and passed through.
// Responses are flushed immediately so analysis event streams reach the caller as they are produced.
//
// # Middleware
//
// [RequestID], [Logger] and [Recover] cover request correlation, structured access logs and panic recovery.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
