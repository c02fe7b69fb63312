package employmentdocument

import (
	"context"
	"net/url"
	"strings"

	apperrors "crew-portal/internal/common/errors"
	"crew-portal/internal/models"
	"crew-portal/internal/services"
)

const basePath = "/employment-documents"

type Service struct {
	backend  services.Backend
	observer services.Observer
}

func New(backend services.Backend, observer services.Observer) *Service {
	return &Service{backend: backend, observer: observer}
}

func (s *Service) ListMine(ctx context.Context) ([]models.EmploymentDocument, error) {
	var out []models.EmploymentDocument
	if err := s.backend.Get(ctx, basePath+"/my", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) List(ctx context.Context, status string) ([]models.EmploymentDocument, error) {
	var q url.Values
	if status != "" {
		q = url.Values{"status": {status}}
	}
	var out []models.EmploymentDocument
	if err := s.backend.Get(ctx, basePath, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, in models.EmploymentDocumentInput) (*models.EmploymentDocument, error) {
	in.Title = strings.TrimSpace(in.Title)
	valid := false
	for _, t := range models.EmploymentDocumentTypes {
		if t == in.DocumentType {
			valid = true
		}
	}
	if !valid {
		return nil, apperrors.NewValidationError("Unknown document type", "documentType: "+in.DocumentType)
	}
	if in.Title == "" {
		return nil, apperrors.NewValidationError("Title is required", "")
	}
	var out models.EmploymentDocument
	if err := s.backend.Post(ctx, basePath, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) Review(ctx context.Context, id models.ID, d models.ReviewDecision) (*models.EmploymentDocument, error) {
	return services.Review(ctx, s.backend, s.observer, services.ResourceEmploymentDocument, id,
		services.Path(basePath, string(id), "approval"), d,
		func(doc models.EmploymentDocument) models.CrewRef { return doc.Crew })
}
