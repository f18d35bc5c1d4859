package entity

// Notebook is an owned collection of notes. Users is ordered by join time;
// index 0 is the owner. Two or more members means the notebook is shared.
type Notebook struct {
	Id    string
	Title string
	Users []string
	Notes []*Note
}

func (n *Notebook) IsShared() bool {
	return len(n.Users) > 1
}

func (n *Notebook) OwnerId() string {
	if len(n.Users) == 0 {
		return ""
	}
	return n.Users[0]
}

// FindNote returns the note with the given id, or nil.
func (n *Notebook) FindNote(noteId string) *Note {
	for _, note := range n.Notes {
		if note.Id == noteId {
			return note
		}
	}
	return nil
}
