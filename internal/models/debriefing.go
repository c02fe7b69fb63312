package models

import (
	"fmt"
	"strings"
	"time"
)

type DebriefingForm struct {
	ID                   ID                `json:"id"`
	Crew                 CrewRef           `json:"crew"`
	VesselName           string            `json:"vesselName"`
	SignOnDate           string            `json:"signOnDate"`
	SignOffDate          string            `json:"signOffDate"`
	PortOfDisembarkation string            `json:"portOfDisembarkation,omitempty"`
	OverallRating        int               `json:"overallRating"`
	Comments             string            `json:"comments,omitempty"`
	Answers              map[string]string `json:"answers,omitempty"`
	Status               string            `json:"status"`
	Remarks              string            `json:"remarks,omitempty"`
	SubmittedAt          time.Time         `json:"submittedAt"`
	ReviewedAt           *time.Time        `json:"reviewedAt,omitempty"`
}

func (d DebriefingForm) SearchText() string {
	return strings.Join([]string{d.Crew.Name, d.VesselName, d.PortOfDisembarkation}, " ")
}

func (d DebriefingForm) FilterStatus() string { return d.Status }

func (d DebriefingForm) SortKey(field string) string {
	switch field {
	case "crew":
		return strings.ToLower(d.Crew.Name)
	case "vessel":
		return strings.ToLower(d.VesselName)
	case "rating":
		return fmt.Sprintf("%02d", d.OverallRating)
	case "signOff":
		return d.SignOffDate
	default:
		return d.SubmittedAt.UTC().Format(time.RFC3339)
	}
}

// DebriefingSubmission is what a crew member sends after signing off.
type DebriefingSubmission struct {
	VesselName           string            `json:"vesselName"`
	SignOnDate           string            `json:"signOnDate"`
	SignOffDate          string            `json:"signOffDate"`
	PortOfDisembarkation string            `json:"portOfDisembarkation,omitempty"`
	OverallRating        int               `json:"overallRating"`
	Comments             string            `json:"comments,omitempty"`
	Answers              map[string]string `json:"answers,omitempty"`
}
