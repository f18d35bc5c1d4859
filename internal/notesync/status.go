package notesync

// Status tracks the save state of the current edit session. It is not
// persisted and resets to StatusSaved when a note becomes active.
type Status string

const (
	StatusSaved  Status = "saved"
	StatusSaving Status = "saving"
	StatusError  Status = "error"
)
