package dto

type UserWire struct {
	Id          string `json:"_id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

type AuthStatusResponse struct {
	Authenticated bool      `json:"authenticated"`
	User          *UserWire `json:"user,omitempty"`
}

type VerifyGoogleTokenRequest struct {
	Credential string `json:"credential" validate:"required"`
}

type VerifyGoogleTokenResponse struct {
	Success bool      `json:"success"`
	User    *UserWire `json:"user,omitempty"`
}

type LogoutResponse struct {
	Success bool `json:"success"`
}
