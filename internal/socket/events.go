package socket

import (
	"encoding/json"

	"notia-client/internal/dto"
)

// Event names are exact strings; there is no wildcard or namespace matching.
const (
	// client -> server
	EventJoinNotebook   = "join-notebook"
	EventLeaveNotebook  = "leave-notebook"
	EventNoteUpdate     = "note-update"
	EventCursorPosition = "cursor-position"

	// server -> client
	EventNoteUpdated  = "note-updated"
	EventNotebookSync = "notebook-sync"
	EventUserJoined   = "user-joined"
	EventUserLeft     = "user-left"
)

// Envelope is the wire frame for every socket message in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type NoteUpdatePayload struct {
	NotebookId string   `json:"notebookId"`
	NoteId     string   `json:"noteId"`
	Title      string   `json:"title,omitempty"`
	Content    []string `json:"content,omitempty"`
}

type NoteUpdatedPayload struct {
	NoteId  string   `json:"noteId"`
	Title   string   `json:"title,omitempty"`
	Content []string `json:"content,omitempty"`
}

type CursorPosition struct {
	Block  int `json:"block"`
	Offset int `json:"offset"`
}

type CursorPositionPayload struct {
	NotebookId string         `json:"notebookId"`
	NoteId     string         `json:"noteId"`
	Position   CursorPosition `json:"position"`
}

type NotebookSyncPayload struct {
	Notebook dto.NotebookWire `json:"notebook"`
}

type UserPresencePayload struct {
	Email string `json:"email"`
}
