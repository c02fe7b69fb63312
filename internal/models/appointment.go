package models

import (
	"strings"
	"time"
)

type Appointment struct {
	ID        ID        `json:"id"`
	Crew      CrewRef   `json:"crew"`
	SlotID    ID        `json:"slotId,omitempty"`
	Date      string    `json:"date"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime,omitempty"`
	Purpose   string    `json:"purpose"`
	Notes     string    `json:"notes,omitempty"`
	Status    string    `json:"status"`
	Remarks   string    `json:"remarks,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (a Appointment) SearchText() string {
	return strings.Join([]string{a.Crew.Name, a.Crew.Email, a.Purpose, a.Date}, " ")
}

func (a Appointment) FilterStatus() string { return a.Status }

func (a Appointment) SortKey(field string) string {
	switch field {
	case "crew":
		return strings.ToLower(a.Crew.Name)
	case "status":
		return a.Status
	case "created":
		return a.CreatedAt.UTC().Format(time.RFC3339)
	default:
		return a.Date + " " + a.StartTime
	}
}

// Slot is one bookable calendar slot.
type Slot struct {
	ID        ID     `json:"id"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// Start returns the slot's start instant in loc.
func (s Slot) Start(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", s.Date+" "+s.StartTime, loc)
}

// BookRequest is the payload for booking an appointment.
type BookRequest struct {
	SlotID    ID     `json:"slotId,omitempty"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime,omitempty"`
	Purpose   string `json:"purpose"`
	Notes     string `json:"notes,omitempty"`
}
