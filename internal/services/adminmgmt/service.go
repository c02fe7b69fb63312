package adminmgmt

import (
	"context"
	"strings"

	apperrors "crew-portal/internal/common/errors"
	"crew-portal/internal/common/validation"
	"crew-portal/internal/models"
	"crew-portal/internal/services"
)

const basePath = "/admins"

type Service struct {
	backend  services.Backend
	observer services.Observer
}

func New(backend services.Backend, observer services.Observer) *Service {
	return &Service{backend: backend, observer: observer}
}

func (s *Service) List(ctx context.Context) ([]models.Admin, error) {
	var out []models.Admin
	if err := s.backend.Get(ctx, basePath, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id models.ID) (*models.Admin, error) {
	if err := services.RequireID("Admin", id); err != nil {
		return nil, err
	}
	var out models.Admin
	if err := s.backend.Get(ctx, services.Path(basePath, string(id)), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) Create(ctx context.Context, in models.AdminInput) (*models.Admin, error) {
	if err := checkInput(&in, true); err != nil {
		return nil, err
	}
	var out models.Admin
	if err := s.backend.Post(ctx, basePath, in, &out); err != nil {
		return nil, err
	}
	services.Emit(ctx, s.observer, services.Event{
		Action:     services.ActionCreate,
		Resource:   services.ResourceAdmin,
		ResourceID: out.ID,
		Details:    map[string]string{"email": in.Email},
	})
	return &out, nil
}

func (s *Service) Update(ctx context.Context, id models.ID, in models.AdminInput) (*models.Admin, error) {
	if err := services.RequireID("Admin", id); err != nil {
		return nil, err
	}
	if err := checkInput(&in, false); err != nil {
		return nil, err
	}
	var out models.Admin
	if err := s.backend.Put(ctx, services.Path(basePath, string(id)), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type statusRequest struct {
	Active bool `json:"active"`
}

// SetActive enables or disables an admin account.
func (s *Service) SetActive(ctx context.Context, id models.ID, active bool) (*models.Admin, error) {
	if err := services.RequireID("Admin", id); err != nil {
		return nil, err
	}
	if services.ActorFrom(ctx).ID == id && !active {
		return nil, apperrors.NewValidationError("You cannot deactivate your own account", "")
	}
	var out models.Admin
	if err := s.backend.Patch(ctx, services.Path(basePath, string(id), "status"), statusRequest{Active: active}, &out); err != nil {
		return nil, err
	}
	action := services.ActionDeactivate
	if active {
		action = services.ActionActivate
	}
	services.Emit(ctx, s.observer, services.Event{
		Action:     action,
		Resource:   services.ResourceAdmin,
		ResourceID: id,
		Details:    map[string]string{"name": out.Name},
	})
	return &out, nil
}

func checkInput(in *models.AdminInput, creating bool) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	if in.Name == "" {
		return apperrors.NewValidationError("Name is required", "")
	}
	if !validation.ValidateEmail(in.Email) {
		return apperrors.NewValidationError("A valid email is required", "email: "+in.Email)
	}
	if in.Phone != "" && !validation.ValidatePhone(in.Phone) {
		return apperrors.NewValidationError("Phone number is not valid", "phone: "+in.Phone)
	}
	if creating && len(in.Password) < 8 {
		return apperrors.NewValidationError("Password must be at least 8 characters", "")
	}
	return nil
}
