// Package models defines domain entities for the gamescout client.
//
// The package contains two categories of types:
//
// 1. Catalog records received from the discovery API:
//   - [Game] : Immutable catalog snapshot with storage metadata
//   - [User] : Account profile identified by an opaque user key
//
// 2. Client-side conversation and upload state:
//   - [ChatMessage] : One transcript entry; assistant messages accumulate
//     content while a stream is active
//   - [UploadProgress] : One poll result from the upload progress endpoint
//
// The client never mutates catalog records. Conversation state is owned by
// tasks.Transcript and mutated only through its reducer.
package models
