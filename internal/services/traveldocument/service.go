package traveldocument

import (
	"context"
	"net/url"
	"strings"

	apperrors "crew-portal/internal/common/errors"
	"crew-portal/internal/models"
	"crew-portal/internal/services"
)

const basePath = "/travel-documents"

type Service struct {
	backend  services.Backend
	observer services.Observer
}

func New(backend services.Backend, observer services.Observer) *Service {
	return &Service{backend: backend, observer: observer}
}

func (s *Service) ListMine(ctx context.Context) ([]models.TravelDocument, error) {
	var out []models.TravelDocument
	if err := s.backend.Get(ctx, basePath+"/my", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) List(ctx context.Context, status string) ([]models.TravelDocument, error) {
	var q url.Values
	if status != "" {
		q = url.Values{"status": {status}}
	}
	var out []models.TravelDocument
	if err := s.backend.Get(ctx, basePath, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, in models.TravelDocumentInput) (*models.TravelDocument, error) {
	if err := checkInput(&in); err != nil {
		return nil, err
	}
	var out models.TravelDocument
	if err := s.backend.Post(ctx, basePath, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) Update(ctx context.Context, id models.ID, in models.TravelDocumentInput) (*models.TravelDocument, error) {
	if err := services.RequireID("Travel document", id); err != nil {
		return nil, err
	}
	if err := checkInput(&in); err != nil {
		return nil, err
	}
	var out models.TravelDocument
	if err := s.backend.Put(ctx, services.Path(basePath, string(id)), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) Delete(ctx context.Context, id models.ID) error {
	if err := services.RequireID("Travel document", id); err != nil {
		return err
	}
	return s.backend.Delete(ctx, services.Path(basePath, string(id)), nil)
}

func (s *Service) Review(ctx context.Context, id models.ID, d models.ReviewDecision) (*models.TravelDocument, error) {
	return services.Review(ctx, s.backend, s.observer, services.ResourceTravelDocument, id,
		services.Path(basePath, string(id), "approval"), d,
		func(doc models.TravelDocument) models.CrewRef { return doc.Crew })
}

func checkInput(in *models.TravelDocumentInput) error {
	in.DocumentNumber = strings.TrimSpace(in.DocumentNumber)
	if !contains(models.TravelDocumentTypes, in.DocumentType) {
		return apperrors.NewValidationError("Unknown document type", "documentType: "+in.DocumentType)
	}
	if in.DocumentNumber == "" || in.ExpiryDate == "" {
		return apperrors.NewValidationError("Document number and expiry date are required", "")
	}
	if in.IssueDate != "" && in.ExpiryDate < in.IssueDate {
		return apperrors.NewValidationError("Expiry date must be after the issue date", "")
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
