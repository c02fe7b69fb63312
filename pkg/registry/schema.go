// pkg/registry/schema.go
package registry

// SectionRegistry lists the navigable sections of both portal surfaces.
type SectionRegistry struct {
	Version     string    `json:"version"`
	LastUpdated string    `json:"lastUpdated"`
	Sections    []Section `json:"sections"`
}

// Section is one sidebar entry. Path is the URL prefix the section owns.
// An empty Permission means every signed-in viewer of the surface may enter.
type Section struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Path        string `json:"path"`
	Permission  string `json:"permission,omitempty"`
	Surface     string `json:"surface"`
}

// Surfaces.
const (
	SurfaceCrew  = "crew"
	SurfaceAdmin = "admin"
)

// Admin permissions referenced by the default registry.
const (
	PermAppointments    = "appointments"
	PermApprovals       = "approvals"
	PermDebriefings     = "debriefings"
	PermProfileRequests = "profile_requests"
	PermAdmins          = "admins"
	PermRoles           = "roles"
	PermSupport         = "support"
	PermAudit           = "audit"
)

// Permissions lists every permission the default registry gates on, for the
// role editor.
var Permissions = []string{
	PermAppointments, PermApprovals, PermDebriefings, PermProfileRequests,
	PermAdmins, PermRoles, PermSupport, PermAudit,
}
