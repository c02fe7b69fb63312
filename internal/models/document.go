package models

import (
	"strings"
	"time"
)

type TravelDocument struct {
	ID             ID        `json:"id"`
	Crew           CrewRef   `json:"crew"`
	DocumentType   string    `json:"documentType"`
	DocumentNumber string    `json:"documentNumber"`
	IssuingCountry string    `json:"issuingCountry"`
	IssueDate      string    `json:"issueDate"`
	ExpiryDate     string    `json:"expiryDate"`
	FileURL        string    `json:"fileUrl,omitempty"`
	Status         string    `json:"status"`
	Remarks        string    `json:"remarks,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// TravelDocumentTypes lists the accepted travel document kinds.
var TravelDocumentTypes = []string{"passport", "seaman_book", "visa", "other"}

func (d TravelDocument) SearchText() string {
	return strings.Join([]string{d.Crew.Name, d.DocumentType, d.DocumentNumber, d.IssuingCountry}, " ")
}

func (d TravelDocument) FilterStatus() string { return d.Status }

func (d TravelDocument) SortKey(field string) string {
	switch field {
	case "crew":
		return strings.ToLower(d.Crew.Name)
	case "expiry":
		return d.ExpiryDate
	case "type":
		return d.DocumentType
	default:
		return d.CreatedAt.UTC().Format(time.RFC3339)
	}
}

// TravelDocumentInput creates or updates a travel document.
type TravelDocumentInput struct {
	DocumentType   string `json:"documentType"`
	DocumentNumber string `json:"documentNumber"`
	IssuingCountry string `json:"issuingCountry"`
	IssueDate      string `json:"issueDate"`
	ExpiryDate     string `json:"expiryDate"`
	FileURL        string `json:"fileUrl,omitempty"`
}

type EmploymentDocument struct {
	ID           ID        `json:"id"`
	Crew         CrewRef   `json:"crew"`
	DocumentType string    `json:"documentType"`
	Title        string    `json:"title"`
	FileURL      string    `json:"fileUrl,omitempty"`
	Status       string    `json:"status"`
	Remarks      string    `json:"remarks,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// EmploymentDocumentTypes lists the accepted employment document kinds.
var EmploymentDocumentTypes = []string{"contract", "medical", "reference", "other"}

func (d EmploymentDocument) SearchText() string {
	return strings.Join([]string{d.Crew.Name, d.DocumentType, d.Title}, " ")
}

func (d EmploymentDocument) FilterStatus() string { return d.Status }

func (d EmploymentDocument) SortKey(field string) string {
	switch field {
	case "crew":
		return strings.ToLower(d.Crew.Name)
	case "title":
		return strings.ToLower(d.Title)
	default:
		return d.CreatedAt.UTC().Format(time.RFC3339)
	}
}

type EmploymentDocumentInput struct {
	DocumentType string `json:"documentType"`
	Title        string `json:"title"`
	FileURL      string `json:"fileUrl,omitempty"`
}

type Certificate struct {
	ID                ID        `json:"id"`
	Crew              CrewRef   `json:"crew"`
	Name              string    `json:"name"`
	CertificateNumber string    `json:"certificateNumber"`
	IssuingAuthority  string    `json:"issuingAuthority"`
	IssueDate         string    `json:"issueDate"`
	ExpiryDate        string    `json:"expiryDate,omitempty"`
	FileURL           string    `json:"fileUrl,omitempty"`
	Status            string    `json:"status"`
	Remarks           string    `json:"remarks,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

func (c Certificate) SearchText() string {
	return strings.Join([]string{c.Crew.Name, c.Name, c.CertificateNumber, c.IssuingAuthority}, " ")
}

func (c Certificate) FilterStatus() string { return c.Status }

func (c Certificate) SortKey(field string) string {
	switch field {
	case "crew":
		return strings.ToLower(c.Crew.Name)
	case "name":
		return strings.ToLower(c.Name)
	case "expiry":
		return c.ExpiryDate
	default:
		return c.CreatedAt.UTC().Format(time.RFC3339)
	}
}

type CertificateInput struct {
	Name              string `json:"name"`
	CertificateNumber string `json:"certificateNumber"`
	IssuingAuthority  string `json:"issuingAuthority"`
	IssueDate         string `json:"issueDate"`
	ExpiryDate        string `json:"expiryDate,omitempty"`
	FileURL           string `json:"fileUrl,omitempty"`
}
