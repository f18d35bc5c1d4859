package mapper

import (
	"notia-client/internal/dto"
	"notia-client/internal/entity"
)

type NoteMapper struct{}

func NewNoteMapper() *NoteMapper {
	return &NoteMapper{}
}

func (m *NoteMapper) ToEntity(w *dto.NoteWire, notebookId string) *entity.Note {
	if w == nil {
		return nil
	}

	// Prefer the explicit notebook reference from the wire if present.
	owner := w.Notebook
	if owner == "" {
		owner = notebookId
	}

	n := &entity.Note{
		Id:         w.Id,
		Title:      w.Title,
		Content:    append([]string(nil), w.Content...),
		NotebookId: owner,
	}
	n.NormalizeContent()
	return n
}

func (m *NoteMapper) ToEntities(wires []dto.NoteWire, notebookId string) []*entity.Note {
	notes := make([]*entity.Note, len(wires))
	for i := range wires {
		notes[i] = m.ToEntity(&wires[i], notebookId)
	}
	return notes
}

func (m *NoteMapper) ToUpdateRequest(n *entity.Note) *dto.UpdateNoteRequest {
	if n == nil {
		return nil
	}
	content := n.Content
	if len(content) == 0 {
		content = []string{""}
	}
	return &dto.UpdateNoteRequest{
		Title:   n.Title,
		Content: append([]string(nil), content...),
	}
}
