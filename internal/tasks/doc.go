// Package tasks holds the view-models that keep the server, the stored session and in-memory
// view state consistent.
//
// # View-Models
//
//  1. [Authenticator] : register (never logs in), login (writes the session only on success),
//     logout and current session
//  2. [Catalog] : Idle -> Loading -> Loaded | Failed state machine caching the movie list
//  3. [Synchronizer] : favorite toggles reconciled across memory, session store and server
//  4. [Profile] : activate, update and delete the account
//
// # Consistency Rules
//
// A failed call changes nothing locally. After a successful favorite toggle the in-memory set and
// the stored user's FavoriteMovies are updated by movie id, so all three copies agree. Concurrent
// toggles of one movie and concurrent profile updates are rejected with
// [shared.ErrToggleInProgress] and [shared.ErrUpdateInProgress].
//
// Any Unauthorized response clears the session and is wrapped with [shared.ErrNotAuthenticated].
//
// # Notifications
//
// [NewNotice] maps an [Operation] and its error to the text shown to the user.
//
// All types are safe for use from bubbletea commands running off the event loop.
package tasks
