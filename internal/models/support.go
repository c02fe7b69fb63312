package models

import (
	"strings"
	"time"
)

// Ticket status.
const (
	TicketOpen     = "open"
	TicketAnswered = "answered"
	TicketClosed   = "closed"
)

var TicketStatuses = []string{TicketOpen, TicketAnswered, TicketClosed}

// TicketCategories are the categories a crew member can file under.
var TicketCategories = []string{"general", "documents", "appointments", "payroll", "technical"}

type SupportTicket struct {
	ID        ID        `json:"id"`
	Crew      CrewRef   `json:"crew"`
	Subject   string    `json:"subject"`
	Category  string    `json:"category"`
	Status    string    `json:"status"`
	Unread    int       `json:"unread"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (t SupportTicket) SearchText() string {
	return strings.Join([]string{t.Crew.Name, t.Subject, t.Category}, " ")
}

func (t SupportTicket) FilterStatus() string { return t.Status }

func (t SupportTicket) SortKey(field string) string {
	switch field {
	case "subject":
		return strings.ToLower(t.Subject)
	case "created":
		return t.CreatedAt.UTC().Format(time.RFC3339)
	default:
		return t.UpdatedAt.UTC().Format(time.RFC3339)
	}
}

type ChatMessage struct {
	ID         ID        `json:"id"`
	TicketID   ID        `json:"ticketId"`
	SenderRole string    `json:"senderRole"`
	SenderName string    `json:"senderName"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"createdAt"`
}

type TicketInput struct {
	Subject  string `json:"subject"`
	Category string `json:"category"`
	Message  string `json:"message"`
}

type ReplyInput struct {
	Body string `json:"body"`
}

// UnreadCount is the inbox badge payload.
type UnreadCount struct {
	Count int `json:"count"`
}
