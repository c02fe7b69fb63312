package support

import (
	"context"
	"net/url"
	"strings"

	apperrors "crew-portal/internal/common/errors"
	"crew-portal/internal/common/validation"
	"crew-portal/internal/models"
	"crew-portal/internal/services"
)

const basePath = "/support/tickets"

type Service struct {
	backend  services.Backend
	observer services.Observer
}

func New(backend services.Backend, observer services.Observer) *Service {
	return &Service{backend: backend, observer: observer}
}

func (s *Service) ListMine(ctx context.Context) ([]models.SupportTicket, error) {
	var out []models.SupportTicket
	if err := s.backend.Get(ctx, basePath+"/my", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) List(ctx context.Context, status string) ([]models.SupportTicket, error) {
	var q url.Values
	if status != "" {
		q = url.Values{"status": {status}}
	}
	var out []models.SupportTicket
	if err := s.backend.Get(ctx, basePath, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Open creates a ticket with its first message.
func (s *Service) Open(ctx context.Context, in models.TicketInput) (*models.SupportTicket, error) {
	in.Subject = strings.TrimSpace(in.Subject)
	in.Message = strings.TrimSpace(in.Message)
	if err := validation.Check(validation.SchemaTicketOpen, in); err != nil {
		return nil, err
	}
	var out models.SupportTicket
	if err := s.backend.Post(ctx, basePath, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) Messages(ctx context.Context, ticketID models.ID) ([]models.ChatMessage, error) {
	if err := services.RequireID("Ticket", ticketID); err != nil {
		return nil, err
	}
	var out []models.ChatMessage
	if err := s.backend.Get(ctx, services.Path(basePath, string(ticketID), "messages"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Reply(ctx context.Context, ticketID models.ID, body string) (*models.ChatMessage, error) {
	if err := services.RequireID("Ticket", ticketID); err != nil {
		return nil, err
	}
	in := models.ReplyInput{Body: strings.TrimSpace(body)}
	if err := validation.Check(validation.SchemaTicketReply, in); err != nil {
		return nil, err
	}
	var out models.ChatMessage
	if err := s.backend.Post(ctx, services.Path(basePath, string(ticketID), "messages"), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Service) SetStatus(ctx context.Context, ticketID models.ID, status string) (*models.SupportTicket, error) {
	if err := services.RequireID("Ticket", ticketID); err != nil {
		return nil, err
	}
	known := false
	for _, st := range models.TicketStatuses {
		if st == status {
			known = true
		}
	}
	if !known {
		return nil, apperrors.NewValidationError("Unknown ticket status", "status: "+status)
	}
	var out models.SupportTicket
	if err := s.backend.Patch(ctx, services.Path(basePath, string(ticketID), "status"), statusRequest{Status: status}, &out); err != nil {
		return nil, err
	}
	if status == models.TicketClosed {
		services.Emit(ctx, s.observer, services.Event{
			Action:     services.ActionClose,
			Resource:   services.ResourceTicket,
			ResourceID: ticketID,
			Status:     status,
			Details:    map[string]string{"subject": out.Subject},
		})
	}
	return &out, nil
}

// MarkRead clears the unread counter of a ticket for the caller.
func (s *Service) MarkRead(ctx context.Context, ticketID models.ID) error {
	if err := services.RequireID("Ticket", ticketID); err != nil {
		return err
	}
	return s.backend.Patch(ctx, services.Path(basePath, string(ticketID), "read"), nil, nil)
}

// UnreadCount returns the inbox badge count for role.
func (s *Service) UnreadCount(ctx context.Context, role string) (int, error) {
	path := "/support/inbox/unread"
	switch role {
	case models.RoleCrew:
	case models.RoleAdmin:
		path = "/support/admin/inbox/unread"
	default:
		return 0, apperrors.NewValidationError("Unknown inbox role", "role: "+role)
	}
	var out models.UnreadCount
	if err := s.backend.Get(ctx, path, nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}
