package certificate

import (
	"context"
	"net/url"
	"strings"

	apperrors "crew-portal/internal/common/errors"
	"crew-portal/internal/models"
	"crew-portal/internal/services"
)

const basePath = "/certificates"

type Service struct {
	backend  services.Backend
	observer services.Observer
}

func New(backend services.Backend, observer services.Observer) *Service {
	return &Service{backend: backend, observer: observer}
}

func (s *Service) ListMine(ctx context.Context) ([]models.Certificate, error) {
	var out []models.Certificate
	if err := s.backend.Get(ctx, basePath+"/my", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// List returns all certificates, or one crew member's when crewID is set.
func (s *Service) List(ctx context.Context, crewID models.ID) ([]models.Certificate, error) {
	var q url.Values
	if !crewID.Empty() {
		q = url.Values{"crewId": {string(crewID)}}
	}
	var out []models.Certificate
	if err := s.backend.Get(ctx, basePath, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, in models.CertificateInput) (*models.Certificate, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.CertificateNumber = strings.TrimSpace(in.CertificateNumber)
	if in.Name == "" || in.CertificateNumber == "" || in.IssueDate == "" {
		return nil, apperrors.NewValidationError("Name, certificate number and issue date are required", "")
	}
	var out models.Certificate
	if err := s.backend.Post(ctx, basePath, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) Delete(ctx context.Context, id models.ID) error {
	if err := services.RequireID("Certificate", id); err != nil {
		return err
	}
	return s.backend.Delete(ctx, services.Path(basePath, string(id)), nil)
}

func (s *Service) Verify(ctx context.Context, id models.ID, d models.ReviewDecision) (*models.Certificate, error) {
	return services.Review(ctx, s.backend, s.observer, services.ResourceCertificate, id,
		services.Path(basePath, string(id), "verify"), d,
		func(c models.Certificate) models.CrewRef { return c.Crew })
}
