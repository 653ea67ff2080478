// Package models defines domain entities and persistence interfaces for the flix movie client.
//
// The package contains two categories of types:
//
// 1. Remote entities: mirrors of the movie API's JSON documents
//   - [User] : account profile with its favorite movie ids
//   - [Movie] : catalog entry with embedded [Genre] and [Director]
//
// 2. Client state: values the client keeps between commands
//   - [Session] : bearer token plus the logged-in user snapshot
//   - [FavoriteSet] : ordered set of favorite movie ids
//
// [Date] accepts both bare dates and RFC 3339 timestamps because the API returns birthdays in either shape.
package models
