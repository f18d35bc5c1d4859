package client

import (
	"context"
	"fmt"
	"net/http"

	"notia-client/internal/dto"
	"notia-client/internal/entity"
	"notia-client/internal/mapper"

	"github.com/golang-jwt/jwt/v5"
)

type IAuthService interface {
	Status(ctx context.Context) (*dto.AuthStatusResponse, error)
	VerifyGoogleToken(ctx context.Context, credential string) (*entity.User, error)
	Logout(ctx context.Context) error
	PeekGoogleCredential(credential string) (*entity.User, error)
}

type authService struct {
	client *Client
	mapper *mapper.UserMapper
}

func NewAuthService(c *Client) IAuthService {
	return &authService{
		client: c,
		mapper: mapper.NewUserMapper(),
	}
}

// Status never fails the caller on transport errors: the session treats any
// failure as unauthenticated, matching the cookie-check semantics.
func (s *authService) Status(ctx context.Context) (*dto.AuthStatusResponse, error) {
	var resp dto.AuthStatusResponse
	if err := s.client.do(ctx, http.MethodGet, "/auth/status", nil, &resp); err != nil {
		return &dto.AuthStatusResponse{Authenticated: false}, err
	}
	return &resp, nil
}

// VerifyGoogleToken sends the Google credential to the backend. The server
// verifies it and sets the HttpOnly session cookie on the response.
func (s *authService) VerifyGoogleToken(ctx context.Context, credential string) (*entity.User, error) {
	req := dto.VerifyGoogleTokenRequest{Credential: credential}
	var resp dto.VerifyGoogleTokenResponse
	if err := s.client.do(ctx, http.MethodPost, "/auth/google/verify", &req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("google token verification rejected")
	}
	return s.mapper.ToEntity(resp.User), nil
}

func (s *authService) Logout(ctx context.Context) error {
	var resp dto.LogoutResponse
	return s.client.do(ctx, http.MethodPost, "/auth/logout", nil, &resp)
}

// PeekGoogleCredential decodes the ID token claims WITHOUT verifying the
// signature. Verification belongs to the server; this is only for showing
// who is about to log in.
func (s *authService) PeekGoogleCredential(credential string) (*entity.User, error) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(credential, claims); err != nil {
		return nil, fmt.Errorf("failed to parse credential: %w", err)
	}

	user := &entity.User{}
	if email, ok := claims["email"].(string); ok {
		user.Email = email
	}
	if name, ok := claims["name"].(string); ok {
		user.DisplayName = name
	}
	if sub, ok := claims["sub"].(string); ok {
		user.Id = sub
	}
	return user, nil
}
