package profilerequest

import (
	"context"
	"net/url"
	"strings"

	"crew-portal/internal/common/validation"
	"crew-portal/internal/models"
	"crew-portal/internal/services"
)

const basePath = "/profile-requests"

type Service struct {
	backend  services.Backend
	observer services.Observer
}

func New(backend services.Backend, observer services.Observer) *Service {
	return &Service{backend: backend, observer: observer}
}

func (s *Service) ListMine(ctx context.Context) ([]models.ProfileUpdateRequest, error) {
	var out []models.ProfileUpdateRequest
	if err := s.backend.Get(ctx, basePath+"/my", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) List(ctx context.Context, status string) ([]models.ProfileUpdateRequest, error) {
	var q url.Values
	if status != "" {
		q = url.Values{"status": {status}}
	}
	var out []models.ProfileUpdateRequest
	if err := s.backend.Get(ctx, basePath, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Submit drops blank values before validating, so an untouched form field is
// not sent as a change.
func (s *Service) Submit(ctx context.Context, in models.ProfileRequestInput) (*models.ProfileUpdateRequest, error) {
	changes := make(map[string]string, len(in.Changes))
	for k, v := range in.Changes {
		if v = strings.TrimSpace(v); v != "" {
			changes[k] = v
		}
	}
	in.Changes = changes
	in.Reason = strings.TrimSpace(in.Reason)

	if err := validation.Check(validation.SchemaProfileRequest, in); err != nil {
		return nil, err
	}
	var out models.ProfileUpdateRequest
	if err := s.backend.Post(ctx, basePath, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) Review(ctx context.Context, id models.ID, d models.ReviewDecision) (*models.ProfileUpdateRequest, error) {
	return services.Review(ctx, s.backend, s.observer, services.ResourceProfileRequest, id,
		services.Path(basePath, string(id)), d,
		func(p models.ProfileUpdateRequest) models.CrewRef { return p.Crew })
}
