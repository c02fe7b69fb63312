// Package services holds the typed clients for each backend resource. Every
// method maps onto exactly one backend verb and path.
package services

import (
	"context"
	"net/url"
	"strings"

	apperrors "crew-portal/internal/common/errors"
	"crew-portal/internal/models"
)

// Backend is the backend client surface the services depend on.
type Backend interface {
	Get(ctx context.Context, path string, query url.Values, out interface{}) error
	Post(ctx context.Context, path string, body, out interface{}) error
	Put(ctx context.Context, path string, body, out interface{}) error
	Patch(ctx context.Context, path string, body, out interface{}) error
	Delete(ctx context.Context, path string, out interface{}) error
}

// Actor is the signed-in user performing an action.
type Actor struct {
	ID   models.ID
	Name string
	Role string
}

type actorKey struct{}

// WithActor attaches the acting user to ctx.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFrom returns the actor stored by WithActor.
func ActorFrom(ctx context.Context) Actor {
	a, _ := ctx.Value(actorKey{}).(Actor)
	return a
}

// Audit actions.
const (
	ActionReview     = "review"
	ActionStatus     = "status_change"
	ActionAssign     = "role_assign"
	ActionRevoke     = "role_revoke"
	ActionActivate   = "admin_activate"
	ActionDeactivate = "admin_deactivate"
	ActionClose      = "ticket_close"
	ActionCreate     = "create"
	ActionDelete     = "delete"
)

// Resource names used in events.
const (
	ResourceAppointment        = "appointment"
	ResourceDebriefing         = "debriefing"
	ResourceCertificate        = "certificate"
	ResourceTravelDocument     = "travel_document"
	ResourceEmploymentDocument = "employment_document"
	ResourceProfileRequest     = "profile_request"
	ResourceAdmin              = "admin"
	ResourceRole               = "role"
	ResourceTicket             = "support_ticket"
)

// Event describes an admin action worth recording. Crew is set when the
// action concerns a crew member who may be notified.
type Event struct {
	Actor      Actor
	Action     string
	Resource   string
	ResourceID models.ID
	Status     string
	Remarks    string
	Crew       *models.CrewRef
	Details    map[string]string
}

// Observer receives events after the backend acknowledged the change.
// Implementations must not fail the caller.
type Observer interface {
	Observe(ctx context.Context, e Event)
}

// Observers fans an event out to several observers.
type Observers []Observer

func (o Observers) Observe(ctx context.Context, e Event) {
	for _, obs := range o {
		if obs != nil {
			obs.Observe(ctx, e)
		}
	}
}

// Emit fills in the actor from ctx and hands e to obs.
func Emit(ctx context.Context, obs Observer, e Event) {
	if obs == nil {
		return
	}
	if e.Actor.ID.Empty() {
		e.Actor = ActorFrom(ctx)
	}
	obs.Observe(ctx, e)
}

// RequireID rejects empty identifiers before any backend call.
func RequireID(resource string, id models.ID) error {
	if strings.TrimSpace(string(id)) == "" {
		return apperrors.NewValidationError(resource+" id is required", "")
	}
	return nil
}

// Path joins segments after escaping ids.
func Path(base string, segments ...string) string {
	var b strings.Builder
	b.WriteString(base)
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}
