package mapper

import (
	"notia-client/internal/dto"
	"notia-client/internal/entity"
)

type NotebookMapper struct {
	noteMapper *NoteMapper
}

func NewNotebookMapper() *NotebookMapper {
	return &NotebookMapper{noteMapper: NewNoteMapper()}
}

func (m *NotebookMapper) ToEntity(w *dto.NotebookWire) *entity.Notebook {
	if w == nil {
		return nil
	}
	return &entity.Notebook{
		Id:    w.Id,
		Title: w.Title,
		Users: append([]string(nil), w.Users...),
		Notes: m.noteMapper.ToEntities(w.Notes, w.Id),
	}
}

func (m *NotebookMapper) ToEntities(wires []dto.NotebookWire) []*entity.Notebook {
	notebooks := make([]*entity.Notebook, len(wires))
	for i := range wires {
		notebooks[i] = m.ToEntity(&wires[i])
	}
	return notebooks
}
