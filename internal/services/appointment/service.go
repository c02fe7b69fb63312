package appointment

import (
	"context"
	"net/url"
	"strings"
	"time"

	apperrors "crew-portal/internal/common/errors"
	"crew-portal/internal/common/validation"
	"crew-portal/internal/models"
	"crew-portal/internal/services"
)

const basePath = "/appointments"

type Service struct {
	backend  services.Backend
	observer services.Observer
}

func New(backend services.Backend, observer services.Observer) *Service {
	return &Service{backend: backend, observer: observer}
}

// Filter narrows the admin appointment list.
type Filter struct {
	Status string
	Date   string
}

func (f Filter) values() url.Values {
	v := url.Values{}
	if f.Status != "" {
		v.Set("status", f.Status)
	}
	if f.Date != "" {
		v.Set("date", f.Date)
	}
	return v
}

func (s *Service) ListMine(ctx context.Context) ([]models.Appointment, error) {
	var out []models.Appointment
	if err := s.backend.Get(ctx, basePath+"/my", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) List(ctx context.Context, f Filter) ([]models.Appointment, error) {
	var out []models.Appointment
	if err := s.backend.Get(ctx, basePath, f.values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id models.ID) (*models.Appointment, error) {
	if err := services.RequireID("Appointment", id); err != nil {
		return nil, err
	}
	var out models.Appointment
	if err := s.backend.Get(ctx, services.Path(basePath, string(id)), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) Slots(ctx context.Context, date string) ([]models.Slot, error) {
	if err := checkDate(date); err != nil {
		return nil, err
	}
	var out []models.Slot
	if err := s.backend.Get(ctx, basePath+"/slots", url.Values{"date": {date}}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Booked(ctx context.Context, date string) ([]models.Appointment, error) {
	if err := checkDate(date); err != nil {
		return nil, err
	}
	var out []models.Appointment
	if err := s.backend.Get(ctx, basePath+"/booked", url.Values{"date": {date}}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AvailableSlots returns the slots on date that are neither booked nor past.
func (s *Service) AvailableSlots(ctx context.Context, date string, now time.Time) ([]models.Slot, error) {
	slots, err := s.Slots(ctx, date)
	if err != nil {
		return nil, err
	}
	booked, err := s.Booked(ctx, date)
	if err != nil {
		return nil, err
	}
	return FreeSlots(slots, booked, now), nil
}

func (s *Service) Book(ctx context.Context, req models.BookRequest) (*models.Appointment, error) {
	req.Purpose = strings.TrimSpace(req.Purpose)
	if err := validation.Check(validation.SchemaAppointmentBook, req); err != nil {
		return nil, err
	}
	var out models.Appointment
	if err := s.backend.Post(ctx, basePath, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type cancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

func (s *Service) Cancel(ctx context.Context, id models.ID, reason string) (*models.Appointment, error) {
	if err := services.RequireID("Appointment", id); err != nil {
		return nil, err
	}
	var out models.Appointment
	if err := s.backend.Patch(ctx, services.Path(basePath, string(id), "cancel"), cancelRequest{Reason: strings.TrimSpace(reason)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type rescheduleRequest struct {
	SlotID models.ID `json:"slotId"`
}

func (s *Service) Reschedule(ctx context.Context, id, slotID models.ID) (*models.Appointment, error) {
	if err := services.RequireID("Appointment", id); err != nil {
		return nil, err
	}
	if err := services.RequireID("Slot", slotID); err != nil {
		return nil, err
	}
	var out models.Appointment
	if err := s.backend.Patch(ctx, services.Path(basePath, string(id), "reschedule"), rescheduleRequest{SlotID: slotID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type statusRequest struct {
	Status  string `json:"status"`
	Remarks string `json:"remarks,omitempty"`
}

// UpdateStatus is the admin status change. Confirmations and cancellations
// are reported to the observer so the crew member can be notified.
func (s *Service) UpdateStatus(ctx context.Context, id models.ID, status, remarks string) (*models.Appointment, error) {
	if err := services.RequireID("Appointment", id); err != nil {
		return nil, err
	}
	if !models.ValidAppointmentStatus(status) {
		return nil, apperrors.NewValidationError("Unknown appointment status", "status: "+status)
	}

	var out models.Appointment
	if err := s.backend.Patch(ctx, services.Path(basePath, string(id), "status"), statusRequest{Status: status, Remarks: strings.TrimSpace(remarks)}, &out); err != nil {
		return nil, err
	}

	crew := out.Crew
	services.Emit(ctx, s.observer, services.Event{
		Action:     services.ActionStatus,
		Resource:   services.ResourceAppointment,
		ResourceID: id,
		Status:     status,
		Remarks:    remarks,
		Crew:       &crew,
		Details:    map[string]string{"date": out.Date, "startTime": out.StartTime},
	})
	return &out, nil
}

func checkDate(date string) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return apperrors.NewValidationError("Please pick a valid date", "date: "+date)
	}
	return nil
}
