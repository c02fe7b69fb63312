package services

import (
	"context"
	"strings"

	"crew-portal/internal/models"
)

// Review validates d, PATCHes it to path and emits a review event carrying
// the crew member taken from the updated record.
func Review[T any](ctx context.Context, b Backend, obs Observer, resource string, id models.ID, path string, d models.ReviewDecision, crewOf func(T) models.CrewRef) (*T, error) {
	if err := RequireID(resourceTitle(resource), id); err != nil {
		return nil, err
	}
	d.Remarks = strings.TrimSpace(d.Remarks)
	if err := d.Validate(); err != nil {
		return nil, err
	}

	var out T
	if err := b.Patch(ctx, path, d, &out); err != nil {
		return nil, err
	}

	crew := crewOf(out)
	Emit(ctx, obs, Event{
		Action:     ActionReview,
		Resource:   resource,
		ResourceID: id,
		Status:     d.Status,
		Remarks:    d.Remarks,
		Crew:       &crew,
	})
	return &out, nil
}

func resourceTitle(resource string) string {
	r := strings.ReplaceAll(resource, "_", " ")
	if r == "" {
		return "Resource"
	}
	return strings.ToUpper(r[:1]) + r[1:]
}
