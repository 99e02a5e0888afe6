package services

// Bridges exposing unexported identifiers to the external test package.
var (
	DeriveStreamURL = deriveStreamURL
	DecodeChunk     = decodeChunk
)

type StreamRequest = streamRequest
