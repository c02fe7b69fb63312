package models

import (
	"sort"
	"strings"
	"time"
)

type ProfileUpdateRequest struct {
	ID         ID                `json:"id"`
	Crew       CrewRef           `json:"crew"`
	Changes    map[string]string `json:"changes"`
	Reason     string            `json:"reason"`
	Status     string            `json:"status"`
	Remarks    string            `json:"remarks,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
	ReviewedAt *time.Time        `json:"reviewedAt,omitempty"`
}

// ChangedFields returns the requested field names in a stable order.
func (p ProfileUpdateRequest) ChangedFields() []string {
	fields := make([]string, 0, len(p.Changes))
	for k := range p.Changes {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields
}

func (p ProfileUpdateRequest) SearchText() string {
	return strings.Join(append([]string{p.Crew.Name, p.Reason}, p.ChangedFields()...), " ")
}

func (p ProfileUpdateRequest) FilterStatus() string { return p.Status }

func (p ProfileUpdateRequest) SortKey(field string) string {
	if field == "crew" {
		return strings.ToLower(p.Crew.Name)
	}
	return p.CreatedAt.UTC().Format(time.RFC3339)
}

type ProfileRequestInput struct {
	Changes map[string]string `json:"changes"`
	Reason  string            `json:"reason"`
}
