package dto

// NoteWire is a note as the backend serializes it. The server identifies
// documents by Mongo-style "_id"; mappers normalize it into entity ids.
type NoteWire struct {
	Id       string   `json:"_id"`
	Title    string   `json:"title"`
	Content  []string `json:"content"`
	Notebook string   `json:"notebook,omitempty"`
}

type CreateNoteRequest struct {
	Title    string   `json:"title"`
	Content  []string `json:"content"`
	Notebook string   `json:"notebook" validate:"required"`
}

// UpdateNoteRequest is a full replace of title+content, not a diff apply.
// Repeating the same update is safe.
type UpdateNoteRequest struct {
	Title   string   `json:"title"`
	Content []string `json:"content"`
}

type DeleteNoteResponse struct {
	Ok bool `json:"ok"`
}
