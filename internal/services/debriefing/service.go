package debriefing

import (
	"context"
	"net/url"

	"crew-portal/internal/common/validation"
	"crew-portal/internal/models"
	"crew-portal/internal/services"
)

const basePath = "/debriefings"

type Service struct {
	backend  services.Backend
	observer services.Observer
}

func New(backend services.Backend, observer services.Observer) *Service {
	return &Service{backend: backend, observer: observer}
}

func (s *Service) ListMine(ctx context.Context) ([]models.DebriefingForm, error) {
	var out []models.DebriefingForm
	if err := s.backend.Get(ctx, basePath+"/my", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// List returns every submitted form, optionally narrowed by status.
func (s *Service) List(ctx context.Context, status string) ([]models.DebriefingForm, error) {
	var q url.Values
	if status != "" {
		q = url.Values{"status": {status}}
	}
	var out []models.DebriefingForm
	if err := s.backend.Get(ctx, basePath, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id models.ID) (*models.DebriefingForm, error) {
	if err := services.RequireID("Debriefing", id); err != nil {
		return nil, err
	}
	var out models.DebriefingForm
	if err := s.backend.Get(ctx, services.Path(basePath, string(id)), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) Submit(ctx context.Context, in models.DebriefingSubmission) (*models.DebriefingForm, error) {
	if err := validation.Check(validation.SchemaDebriefingSubmit, in); err != nil {
		return nil, err
	}
	var out models.DebriefingForm
	if err := s.backend.Post(ctx, basePath, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) Review(ctx context.Context, id models.ID, d models.ReviewDecision) (*models.DebriefingForm, error) {
	return services.Review(ctx, s.backend, s.observer, services.ResourceDebriefing, id,
		services.Path(basePath, string(id), "review"), d,
		func(f models.DebriefingForm) models.CrewRef { return f.Crew })
}
