package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"notia-client/internal/dto"
	"notia-client/internal/entity"
	"notia-client/internal/mapper"

	"github.com/go-playground/validator/v10"
)

type INotebookService interface {
	List(ctx context.Context) ([]*entity.Notebook, error)
	Show(ctx context.Context, notebookId string) (*entity.Notebook, error)
	Create(ctx context.Context, title string) (*entity.Notebook, error)
	Delete(ctx context.Context, notebookId string) error
	Share(ctx context.Context, notebookId string, emails []string) (*entity.Notebook, error)
	Unshare(ctx context.Context, notebookId, userId string) error
}

type notebookService struct {
	client   *Client
	mapper   *mapper.NotebookMapper
	validate *validator.Validate
}

func NewNotebookService(c *Client) INotebookService {
	return &notebookService{
		client:   c,
		mapper:   mapper.NewNotebookMapper(),
		validate: validator.New(),
	}
}

func (s *notebookService) List(ctx context.Context) ([]*entity.Notebook, error) {
	var wires []dto.NotebookWire
	if err := s.client.do(ctx, http.MethodGet, "/notebooks", nil, &wires); err != nil {
		return nil, err
	}
	return s.mapper.ToEntities(wires), nil
}

func (s *notebookService) Show(ctx context.Context, notebookId string) (*entity.Notebook, error) {
	var wire dto.NotebookWire
	path := "/notebooks/" + url.PathEscape(notebookId)
	if err := s.client.do(ctx, http.MethodGet, path, nil, &wire); err != nil {
		return nil, err
	}
	return s.mapper.ToEntity(&wire), nil
}

func (s *notebookService) Create(ctx context.Context, title string) (*entity.Notebook, error) {
	if title == "" {
		title = "Untitled"
	}
	req := dto.CreateNotebookRequest{Title: title}
	if err := s.validate.Struct(&req); err != nil {
		return nil, err
	}

	var wire dto.NotebookWire
	if err := s.client.do(ctx, http.MethodPost, "/notebooks", &req, &wire); err != nil {
		return nil, err
	}
	return s.mapper.ToEntity(&wire), nil
}

func (s *notebookService) Delete(ctx context.Context, notebookId string) error {
	path := "/notebooks/" + url.PathEscape(notebookId)
	return s.client.do(ctx, http.MethodDelete, path, nil, nil)
}

// Share appends members by email. Malformed emails fail validation here
// and never reach the network layer.
func (s *notebookService) Share(ctx context.Context, notebookId string, emails []string) (*entity.Notebook, error) {
	req := dto.ShareNotebookRequest{Emails: emails}
	if err := s.validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("invalid share request: %w", err)
	}

	var resp dto.ShareNotebookResponse
	path := "/notebooks/" + url.PathEscape(notebookId) + "/share"
	if err := s.client.do(ctx, http.MethodPost, path, &req, &resp); err != nil {
		return nil, err
	}
	if resp.Notebook.Id == "" {
		return nil, fmt.Errorf("invalid response from server")
	}
	return s.mapper.ToEntity(&resp.Notebook), nil
}

// Unshare exists in the HTTP contract but no end-to-end flow uses it;
// membership is append-only from the session's point of view.
func (s *notebookService) Unshare(ctx context.Context, notebookId, userId string) error {
	path := "/notebooks/" + url.PathEscape(notebookId) + "/share/" + url.PathEscape(userId)
	return s.client.do(ctx, http.MethodDelete, path, nil, nil)
}
