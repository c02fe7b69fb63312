package models

import (
	"strings"
	"time"
)

type Admin struct {
	ID        ID        `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Active    bool      `json:"active"`
	Roles     []Role    `json:"roles,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (a Admin) SearchText() string {
	return strings.Join([]string{a.Name, a.Email, a.Phone}, " ")
}

// FilterStatus maps the active flag onto "active"/"inactive".
func (a Admin) FilterStatus() string {
	if a.Active {
		return "active"
	}
	return "inactive"
}

func (a Admin) SortKey(field string) string {
	switch field {
	case "email":
		return strings.ToLower(a.Email)
	case "created":
		return a.CreatedAt.UTC().Format(time.RFC3339)
	default:
		return strings.ToLower(a.Name)
	}
}

// Permissions returns the union of the admin's role permissions.
func (a Admin) Permissions() []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range a.Roles {
		for _, p := range r.Permissions {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out
}

type AdminInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password,omitempty"`
}

type Role struct {
	ID          ID       `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Permissions []string `json:"permissions"`
}

func (r Role) SearchText() string {
	return r.Name + " " + r.Description + " " + strings.Join(r.Permissions, " ")
}

func (r Role) FilterStatus() string { return "" }

func (r Role) SortKey(string) string { return strings.ToLower(r.Name) }

type RoleInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Permissions []string `json:"permissions"`
}

type AdminRole struct {
	ID         ID        `json:"id"`
	AdminID    ID        `json:"adminId"`
	RoleID     ID        `json:"roleId"`
	Role       *Role     `json:"role,omitempty"`
	AssignedAt time.Time `json:"assignedAt"`
}
