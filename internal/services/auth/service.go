package auth

import (
	"context"
	"strings"

	apperrors "crew-portal/internal/common/errors"
	"crew-portal/internal/models"
	"crew-portal/internal/services"
)

type Service struct {
	backend services.Backend
}

func New(backend services.Backend) *Service {
	return &Service{backend: backend}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a backend token. role selects the crew or
// admin login endpoint.
func (s *Service) Login(ctx context.Context, role, email, password string) (*models.LoginResult, error) {
	if role != models.RoleCrew && role != models.RoleAdmin {
		return nil, apperrors.NewValidationError("Unknown login type", "role: "+role)
	}
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("Email and password are required", "")
	}

	var out models.LoginResult
	if err := s.backend.Post(ctx, "/auth/"+role+"/login", loginRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, apperrors.NewBackendRejectedError(200, "Login failed")
	}
	return &out, nil
}

// Logout revokes the token carried by ctx.
func (s *Service) Logout(ctx context.Context) error {
	return s.backend.Post(ctx, "/auth/logout", nil, nil)
}
