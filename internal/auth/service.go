package auth

import (
	"context"
	"encoding/json"
	"errors"

	"travelmate-web/internal/upstream"
)

// API is the part of the backend client the auth routes need.
type API interface {
	Login(ctx context.Context, creds upstream.Credentials) (json.RawMessage, error)
	Signup(ctx context.Context, creds upstream.Credentials) (json.RawMessage, error)
	Logout(ctx context.Context, token string) error
}

type Service struct {
	api API
}

func NewService(api API) *Service {
	return &Service{api: api}
}

var errCredentials = errors.New("email and password required")

func (s *Service) Login(ctx context.Context, req LoginRequest) (json.RawMessage, error) {
	if req.Email == "" || req.Password == "" {
		return nil, errCredentials
	}
	return s.api.Login(ctx, upstream.Credentials{Email: req.Email, Password: req.Password})
}

func (s *Service) Signup(ctx context.Context, req SignupRequest) (json.RawMessage, error) {
	if req.Email == "" || req.Password == "" {
		return nil, errCredentials
	}
	return s.api.Signup(ctx, upstream.Credentials{Email: req.Email, Password: req.Password, Nickname: req.Nickname})
}

func (s *Service) Logout(ctx context.Context, token string) error {
	return s.api.Logout(ctx, token)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}
