package dto

type NotebookWire struct {
	Id    string     `json:"_id"`
	Title string     `json:"title"`
	Users []string   `json:"users"`
	Notes []NoteWire `json:"notes"`
}

type CreateNotebookRequest struct {
	Title string `json:"title" validate:"required"`
}

type ShareNotebookRequest struct {
	Emails []string `json:"emails" validate:"required,min=1,dive,email"`
}

type ShareNotebookResponse struct {
	Notebook NotebookWire `json:"notebook"`
}

type DeleteNotebookResponse struct {
	Ok bool `json:"ok"`
}
