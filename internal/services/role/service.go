package role

import (
	"context"
	"net/url"
	"strings"

	apperrors "crew-portal/internal/common/errors"
	"crew-portal/internal/models"
	"crew-portal/internal/services"
)

const (
	rolesPath       = "/roles"
	assignmentsPath = "/admin-roles"
)

type Service struct {
	backend  services.Backend
	observer services.Observer
}

func New(backend services.Backend, observer services.Observer) *Service {
	return &Service{backend: backend, observer: observer}
}

func (s *Service) List(ctx context.Context) ([]models.Role, error) {
	var out []models.Role
	if err := s.backend.Get(ctx, rolesPath, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, in models.RoleInput) (*models.Role, error) {
	if err := checkInput(&in); err != nil {
		return nil, err
	}
	var out models.Role
	if err := s.backend.Post(ctx, rolesPath, in, &out); err != nil {
		return nil, err
	}
	services.Emit(ctx, s.observer, services.Event{
		Action:     services.ActionCreate,
		Resource:   services.ResourceRole,
		ResourceID: out.ID,
		Details:    map[string]string{"name": in.Name, "permissions": strings.Join(in.Permissions, ",")},
	})
	return &out, nil
}

func (s *Service) Update(ctx context.Context, id models.ID, in models.RoleInput) (*models.Role, error) {
	if err := services.RequireID("Role", id); err != nil {
		return nil, err
	}
	if err := checkInput(&in); err != nil {
		return nil, err
	}
	var out models.Role
	if err := s.backend.Put(ctx, services.Path(rolesPath, string(id)), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) Delete(ctx context.Context, id models.ID) error {
	if err := services.RequireID("Role", id); err != nil {
		return err
	}
	if err := s.backend.Delete(ctx, services.Path(rolesPath, string(id)), nil); err != nil {
		return err
	}
	services.Emit(ctx, s.observer, services.Event{
		Action:     services.ActionDelete,
		Resource:   services.ResourceRole,
		ResourceID: id,
	})
	return nil
}

// Assignments lists the roles held by one admin.
func (s *Service) Assignments(ctx context.Context, adminID models.ID) ([]models.AdminRole, error) {
	if err := services.RequireID("Admin", adminID); err != nil {
		return nil, err
	}
	var out []models.AdminRole
	if err := s.backend.Get(ctx, assignmentsPath, url.Values{"adminId": {string(adminID)}}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type assignRequest struct {
	AdminID models.ID `json:"adminId"`
	RoleID  models.ID `json:"roleId"`
}

func (s *Service) Assign(ctx context.Context, adminID, roleID models.ID) (*models.AdminRole, error) {
	if err := services.RequireID("Admin", adminID); err != nil {
		return nil, err
	}
	if err := services.RequireID("Role", roleID); err != nil {
		return nil, err
	}
	var out models.AdminRole
	if err := s.backend.Post(ctx, assignmentsPath, assignRequest{AdminID: adminID, RoleID: roleID}, &out); err != nil {
		return nil, err
	}
	services.Emit(ctx, s.observer, services.Event{
		Action:     services.ActionAssign,
		Resource:   services.ResourceAdmin,
		ResourceID: adminID,
		Details:    map[string]string{"roleId": string(roleID)},
	})
	return &out, nil
}

// Revoke removes an assignment by its own id.
func (s *Service) Revoke(ctx context.Context, assignmentID models.ID) error {
	if err := services.RequireID("Assignment", assignmentID); err != nil {
		return err
	}
	if err := s.backend.Delete(ctx, services.Path(assignmentsPath, string(assignmentID)), nil); err != nil {
		return err
	}
	services.Emit(ctx, s.observer, services.Event{
		Action:     services.ActionRevoke,
		Resource:   services.ResourceRole,
		ResourceID: assignmentID,
	})
	return nil
}

func checkInput(in *models.RoleInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return apperrors.NewValidationError("Role name is required", "")
	}
	perms := make([]string, 0, len(in.Permissions))
	seen := map[string]bool{}
	for _, p := range in.Permissions {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		perms = append(perms, p)
	}
	if len(perms) == 0 {
		return apperrors.NewValidationError("Select at least one permission", "")
	}
	in.Permissions = perms
	return nil
}
