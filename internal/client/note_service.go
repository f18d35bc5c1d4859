package client

import (
	"context"
	"net/http"
	"net/url"

	"notia-client/internal/dto"
	"notia-client/internal/entity"
	"notia-client/internal/mapper"
)

type INoteService interface {
	Create(ctx context.Context, notebookId, title string, content []string) (*entity.Note, error)
	Update(ctx context.Context, notebookId, noteId, title string, content []string) (*entity.Note, error)
	Delete(ctx context.Context, notebookId, noteId string) error
}

type noteService struct {
	client *Client
	mapper *mapper.NoteMapper
}

func NewNoteService(c *Client) INoteService {
	return &noteService{
		client: c,
		mapper: mapper.NewNoteMapper(),
	}
}

func (s *noteService) Create(ctx context.Context, notebookId, title string, content []string) (*entity.Note, error) {
	if len(content) == 0 {
		content = []string{""}
	}
	req := dto.CreateNoteRequest{
		Title:    title,
		Content:  content,
		Notebook: notebookId,
	}

	var wire dto.NoteWire
	path := "/notebooks/" + url.PathEscape(notebookId) + "/notes"
	if err := s.client.do(ctx, http.MethodPost, path, &req, &wire); err != nil {
		return nil, err
	}
	return s.mapper.ToEntity(&wire, notebookId), nil
}

// Update is a full replace of title+content against the server copy.
func (s *noteService) Update(ctx context.Context, notebookId, noteId, title string, content []string) (*entity.Note, error) {
	if len(content) == 0 {
		content = []string{""}
	}
	req := dto.UpdateNoteRequest{
		Title:   title,
		Content: content,
	}

	var wire dto.NoteWire
	path := "/notebooks/" + url.PathEscape(notebookId) + "/notes/" + url.PathEscape(noteId)
	if err := s.client.do(ctx, http.MethodPut, path, &req, &wire); err != nil {
		return nil, err
	}
	return s.mapper.ToEntity(&wire, notebookId), nil
}

func (s *noteService) Delete(ctx context.Context, notebookId, noteId string) error {
	path := "/notebooks/" + url.PathEscape(notebookId) + "/notes/" + url.PathEscape(noteId)
	return s.client.do(ctx, http.MethodDelete, path, nil, nil)
}
