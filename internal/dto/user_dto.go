package dto

type UserDetailsRequest struct {
	UserIds []string `json:"userIds" validate:"required,min=1"`
}
