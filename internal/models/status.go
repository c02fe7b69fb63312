package models

import (
	"strings"

	apperrors "crew-portal/internal/common/errors"
)

// Approval status shared by documents, certificates, debriefings and profile requests.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Appointment status.
const (
	AppointmentPending   = "pending"
	AppointmentConfirmed = "confirmed"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
	AppointmentNoShow    = "no_show"
)

// AppointmentStatuses lists every appointment status in display order.
var AppointmentStatuses = []string{
	AppointmentPending, AppointmentConfirmed, AppointmentCompleted, AppointmentCancelled, AppointmentNoShow,
}

// ApprovalStatuses lists every approval status in display order.
var ApprovalStatuses = []string{StatusPending, StatusApproved, StatusRejected}

// ValidAppointmentStatus reports whether s is a known appointment status.
func ValidAppointmentStatus(s string) bool {
	for _, v := range AppointmentStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// ReviewDecision is an admin's approve/reject verdict.
type ReviewDecision struct {
	Status  string `json:"status"`
	Remarks string `json:"remarks,omitempty"`
}

// Validate enforces approved|rejected and remarks on rejection.
func (d ReviewDecision) Validate() error {
	switch d.Status {
	case StatusApproved:
		return nil
	case StatusRejected:
		if strings.TrimSpace(d.Remarks) == "" {
			return apperrors.NewValidationError("Remarks are required when rejecting", "status: rejected")
		}
		return nil
	default:
		return apperrors.NewValidationError("Decision must be approved or rejected", "status: "+d.Status)
	}
}

// CrewRef is the embedded reference to the owning crew member.
type CrewRef struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	Rank  string `json:"rank,omitempty"`
}
