// Package repositories implements local persistence for the client session.
//
// The session is two string values, `token` and `user`, kept in a key/value backend:
//   - [SQLiteKV] : the durable `storage` table created by the shared migrations
//   - [MemoryKV] : a map, used by tests and throwaway runs
//
// [Store] layers the session rules on top of a backend: both keys are written in one call,
// cleared together, and a read that finds only one of them (or an unreadable user blob) clears
// both and reports [shared.ErrNoSession].
//
// [Store.TokenSource] adapts the stored token to [oauth2.TokenSource] for the API client.
package repositories
