// Package services implements the client for the movie REST API.
//
// # MovieService
//
// [MovieService] lists every remote call the view-models make. [MovieAPI] implements it over HTTP;
// tests substitute fakes or point it at the mock server in package server.
//
// # Authentication
//
// The bearer token comes from an [oauth2.TokenSource], normally the session store's adapter.
// The source is consulted on every request so login and logout take effect immediately.
// When the stored token is a JWT whose exp has passed, authenticated calls fail with
// [KindUnauthorized] without touching the network.
//
// # Error Handling
//
// Every failure is an [*APIError] whose [ErrorKind] is one of:
//   - [KindNetwork] : no response (connection refused, timeout, cancelled context)
//   - [KindUnauthorized] : 401 or 403, or an expired local token
//   - [KindNotFound] : 404
//   - [KindServerError] : any other non-2xx status
//   - [KindValidation] : malformed input caught before sending, or a malformed response
//
// The message is taken from the server's JSON `message`/`error` field or a short plain-text body,
// else a generic message for the kind. Nothing is retried.
//
// # DTOs
//
// Request bodies ([Credentials], [RegisterRequest], [UpdateUserRequest]) validate themselves before
// they are sent. Responses decode into [models.Movie], [models.User] and [LoginResponse] and are
// checked for their identifying fields.
package services
