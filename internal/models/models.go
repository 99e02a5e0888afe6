package models

import "time"

// StorageType identifies where a game's file lives.
type StorageType string

const (
	StorageOSS     StorageType = "oss"     // object storage, URLs need signing
	StorageNetdisk StorageType = "netdisk" // third-party cloud drive share link
)

// Game represents a catalog record as received from the discovery API.
// Snapshots are immutable; the client only resolves display URLs for
// assets that point at the object-storage domain.
type Game struct {
	ID            int         `json:"id"`
	Name          string      `json:"name"`
	NameEN        string      `json:"name_en,omitempty"`
	Description   string      `json:"description,omitempty"`
	Category      string      `json:"category,omitempty"`
	CoverImageURL string      `json:"cover_image_url,omitempty"`
	GameFileURL   string      `json:"game_file_url,omitempty"`
	FileSize      int64       `json:"file_size,omitempty"`
	StorageType   StorageType `json:"storage_type,omitempty"`
	NetdiskType   string      `json:"netdisk_type,omitempty"`
	Tags          []string    `json:"tags,omitempty"`
}

// NetdiskName maps a netdisk provider token to a display name.
func NetdiskName(provider string) string {
	switch provider {
	case "quark":
		return "Quark Drive"
	case "baidu":
		return "Baidu Netdisk"
	case "aliyun":
		return "Aliyun Drive"
	default:
		return "Cloud Drive"
	}
}

// User represents an account profile. Guests are auto-provisioned accounts
// with no credentials; the opaque UserKey identifies both kinds.
type User struct {
	UserKey   string `json:"user_key"`
	Email     string `json:"email,omitempty"`
	IsGuest   bool   `json:"is_guest,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// UploadStatus enumerates terminal and non-terminal upload states.
type UploadStatus string

const (
	UploadUploading UploadStatus = "uploading"
	UploadCompleted UploadStatus = "completed"
	UploadError     UploadStatus = "error"
)

// UploadProgress is one poll result from the progress endpoint. The server
// is the source of truth each tick; Status is empty while the upload is
// still in flight.
type UploadProgress struct {
	Percent int          `json:"percent"`
	Status  UploadStatus `json:"status,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// GameUpload carries the metadata fields of an upload form submission.
// For netdisk uploads NetdiskURL and NetdiskType are required and no file
// binary is sent.
type GameUpload struct {
	Name        string
	NameEN      string
	Description string
	Category    string
	NetdiskURL  string
	NetdiskType string
	FileSize    int64
	CoverImage  string // local path of an optional cover image
}

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// StreamStatus is the short server-issued token describing what the
// assistant is currently doing. Empty once content starts arriving.
type StreamStatus string

const (
	StatusNone      StreamStatus = ""
	StatusAnalyzing StreamStatus = "analyzing"
	StatusSearching StreamStatus = "searching"
)

// ChatMessage is one transcript entry. User messages are complete at send
// time. Assistant messages start empty with Streaming set and are mutated
// in place by the chat reducer until a terminal chunk arrives.
type ChatMessage struct {
	ID        string
	Role      Role
	Content   string
	Games     []Game
	Status    StreamStatus
	Streaming bool
	CreatedAt time.Time
}
