package models

import "time"

// Portal roles.
const (
	RoleCrew  = "crew"
	RoleAdmin = "admin"
)

// Session is the portal's own login record, kept in Redis.
type Session struct {
	ID          string    `json:"id"`
	Token       string    `json:"token"`
	Role        string    `json:"role"`
	UserID      ID        `json:"userId"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	Permissions []string  `json:"permissions,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Viewer returns the (role, user) pair whose inbox is polled.
func (s Session) Viewer() Viewer {
	return Viewer{Role: s.Role, UserID: s.UserID, Token: s.Token}
}

// HasPermission reports whether the session grants perm. "*" grants all.
func (s Session) HasPermission(perm string) bool {
	if perm == "" {
		return true
	}
	for _, p := range s.Permissions {
		if p == "*" || p == perm {
			return true
		}
	}
	return false
}

// Viewer identifies an inbox owner. Token is carried so the poller can call
// the backend on the viewer's behalf; it is not part of the key.
type Viewer struct {
	Role   string
	UserID ID
	Token  string
}

// Key identifies the viewer independent of token.
func (v Viewer) Key() string {
	return v.Role + ":" + string(v.UserID)
}

// LoginUser is the user object returned by the backend on login.
type LoginUser struct {
	ID          ID       `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone,omitempty"`
	Role        string   `json:"role,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	Roles       []Role   `json:"roles,omitempty"`
}

// LoginResult is the backend's login response.
type LoginResult struct {
	Token string    `json:"token"`
	User  LoginUser `json:"user"`
}
