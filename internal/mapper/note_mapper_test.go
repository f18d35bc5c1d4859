package mapper

import (
	"testing"

	"notia-client/internal/dto"
)

func TestNoteMapperToEntity(t *testing.T) {
	m := NewNoteMapper()

	tests := []struct {
		name         string
		wire         *dto.NoteWire
		notebookId   string
		wantOwner    string
		wantContent  []string
		wantNilEntry bool
	}{
		{
			name:        "wire notebook ref wins",
			wire:        &dto.NoteWire{Id: "n1", Title: "t", Content: []string{"x"}, Notebook: "nb-wire"},
			notebookId:  "nb-ctx",
			wantOwner:   "nb-wire",
			wantContent: []string{"x"},
		},
		{
			name:        "context notebook fills missing ref",
			wire:        &dto.NoteWire{Id: "n1", Title: "t", Content: []string{"x"}},
			notebookId:  "nb-ctx",
			wantOwner:   "nb-ctx",
			wantContent: []string{"x"},
		},
		{
			name:        "empty content normalized",
			wire:        &dto.NoteWire{Id: "n1", Title: "t"},
			notebookId:  "nb-ctx",
			wantOwner:   "nb-ctx",
			wantContent: []string{""},
		},
		{
			name:         "nil wire",
			wire:         nil,
			wantNilEntry: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.ToEntity(tt.wire, tt.notebookId)

			if tt.wantNilEntry {
				if got != nil {
					t.Fatalf("got %+v, want nil", got)
				}
				return
			}
			if got.NotebookId != tt.wantOwner {
				t.Errorf("NotebookId = %q, want %q", got.NotebookId, tt.wantOwner)
			}
			if len(got.Content) != len(tt.wantContent) {
				t.Fatalf("Content = %v, want %v", got.Content, tt.wantContent)
			}
			for i := range got.Content {
				if got.Content[i] != tt.wantContent[i] {
					t.Errorf("Content[%d] = %q, want %q", i, got.Content[i], tt.wantContent[i])
				}
			}
		})
	}
}

func TestNotebookMapperPropagatesOwnerToNotes(t *testing.T) {
	m := NewNotebookMapper()

	nb := m.ToEntity(&dto.NotebookWire{
		Id:    "nb1",
		Title: "t",
		Users: []string{"u1", "u2"},
		Notes: []dto.NoteWire{
			{Id: "n1", Title: "a", Content: []string{"x"}},
			{Id: "n2", Title: "b"},
		},
	})

	if !nb.IsShared() {
		t.Error("two users means shared")
	}
	if nb.OwnerId() != "u1" {
		t.Errorf("OwnerId = %q, want u1", nb.OwnerId())
	}
	for _, note := range nb.Notes {
		if note.NotebookId != "nb1" {
			t.Errorf("note %s owner = %q, want nb1", note.Id, note.NotebookId)
		}
		if len(note.Content) == 0 {
			t.Errorf("note %s content must never be empty", note.Id)
		}
	}
}
