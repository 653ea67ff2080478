// Package server implements an in-memory mock of the movie REST API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation registers "METHOD /path/{wildcard}" patterns on [http.ServeMux].
//
// # Mock API
//
// [MockAPI] wires [MovieHandler] behind two middlewares:
//   - [RequestLogger] : one structured log line per request
//   - [RequireAuth] : HS256 bearer check on every route except POST /users and POST /login
//
// Passwords are stored as bcrypt hashes and never returned. Account mutations are restricted to the
// account owner (403 otherwise). Error bodies are JSON {"message": ...}, except duplicate
// registration and user deletion, which answer in plain text like the hosted API.
//
// # Usage
//
// Tests mount [MockAPI.Handler] on an httptest server; `flix mock` serves it on a local port.
package server
