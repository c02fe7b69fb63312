// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default returns the built-in registry.
func Default() *SectionRegistry {
	return &SectionRegistry{
		Version: "1.0.0",
		Sections: []Section{
			{ID: "crew-dashboard", DisplayName: "Dashboard", Path: "/crew/dashboard", Surface: SurfaceCrew},
			{ID: "crew-appointments", DisplayName: "Appointments", Path: "/crew/appointments", Surface: SurfaceCrew},
			{ID: "crew-documents", DisplayName: "Documents", Path: "/crew/documents", Surface: SurfaceCrew},
			{ID: "crew-debriefing", DisplayName: "Debriefing", Path: "/crew/debriefing", Surface: SurfaceCrew},
			{ID: "crew-profile", DisplayName: "Profile Updates", Path: "/crew/profile", Surface: SurfaceCrew},
			{ID: "crew-support", DisplayName: "Support", Path: "/crew/support", Surface: SurfaceCrew},

			{ID: "admin-dashboard", DisplayName: "Dashboard", Path: "/admin/dashboard", Surface: SurfaceAdmin},
			{ID: "admin-appointments", DisplayName: "Appointments", Path: "/admin/appointments", Permission: PermAppointments, Surface: SurfaceAdmin},
			{ID: "admin-approvals", DisplayName: "Document Approvals", Path: "/admin/approvals", Permission: PermApprovals, Surface: SurfaceAdmin},
			{ID: "admin-debriefings", DisplayName: "Debriefings", Path: "/admin/debriefings", Permission: PermDebriefings, Surface: SurfaceAdmin},
			{ID: "admin-profile-requests", DisplayName: "Profile Requests", Path: "/admin/profile-requests", Permission: PermProfileRequests, Surface: SurfaceAdmin},
			{ID: "admin-admins", DisplayName: "Admins", Path: "/admin/admins", Permission: PermAdmins, Surface: SurfaceAdmin},
			{ID: "admin-roles", DisplayName: "Roles", Path: "/admin/roles", Permission: PermRoles, Surface: SurfaceAdmin},
			{ID: "admin-support", DisplayName: "Support", Path: "/admin/support", Permission: PermSupport, Surface: SurfaceAdmin},
			{ID: "admin-audit", DisplayName: "Audit Trail", Path: "/admin/audit", Permission: PermAudit, Surface: SurfaceAdmin},
		},
	}
}

// LoadRegistry reads a registry override from a JSON file.
func LoadRegistry(path string) (*SectionRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg SectionRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid registry %s: %w", path, err)
	}
	return &reg, nil
}

// Load returns the override at path, or the default when path is empty.
func Load(path string) (*SectionRegistry, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	return LoadRegistry(path)
}

// Validate checks ids are unique and every path sits under its surface.
func (r *SectionRegistry) Validate() error {
	if len(r.Sections) == 0 {
		return fmt.Errorf("registry has no sections")
	}
	seen := make(map[string]bool, len(r.Sections))
	for _, s := range r.Sections {
		if s.ID == "" {
			return fmt.Errorf("section with path %q has no id", s.Path)
		}
		if seen[s.ID] {
			return fmt.Errorf("duplicate section id %q", s.ID)
		}
		seen[s.ID] = true

		if s.Surface != SurfaceCrew && s.Surface != SurfaceAdmin {
			return fmt.Errorf("section %q: unknown surface %q", s.ID, s.Surface)
		}
		if !strings.HasPrefix(s.Path, "/"+s.Surface+"/") {
			return fmt.Errorf("section %q: path %q is outside /%s/", s.ID, s.Path, s.Surface)
		}
		if s.Surface == SurfaceCrew && s.Permission != "" {
			return fmt.Errorf("section %q: crew sections cannot require a permission", s.ID)
		}
	}
	return nil
}

// ForSurface returns the sections of one surface in registry order.
func (r *SectionRegistry) ForSurface(surface string) []Section {
	var out []Section
	for _, s := range r.Sections {
		if s.Surface == surface {
			out = append(out, s)
		}
	}
	return out
}

// Visible returns the sections of surface that allowed admits.
func (r *SectionRegistry) Visible(surface string, allowed func(permission string) bool) []Section {
	var out []Section
	for _, s := range r.ForSurface(surface) {
		if s.Permission == "" || allowed(s.Permission) {
			out = append(out, s)
		}
	}
	return out
}

// Match returns the section owning urlPath, picking the longest path prefix.
func (r *SectionRegistry) Match(urlPath string) (Section, bool) {
	var best Section
	found := false
	for _, s := range r.Sections {
		if urlPath != s.Path && !strings.HasPrefix(urlPath, s.Path+"/") {
			continue
		}
		if !found || len(s.Path) > len(best.Path) {
			best, found = s, true
		}
	}
	return best, found
}

// Get returns the section with id.
func (r *SectionRegistry) Get(id string) (Section, bool) {
	for _, s := range r.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return Section{}, false
}

// Update sets one field of section id. The result is validated before it
// is kept.
func (r *SectionRegistry) Update(id, field, value string) error {
	idx := -1
	for i := range r.Sections {
		if r.Sections[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("section with ID %s not found", id)
	}

	updated := *r
	updated.Sections = append([]Section(nil), r.Sections...)
	sec := &updated.Sections[idx]
	switch field {
	case "displayName":
		sec.DisplayName = value
	case "path":
		sec.Path = value
	case "permission":
		sec.Permission = value
	default:
		return fmt.Errorf("unknown field: %s", field)
	}
	if err := updated.Validate(); err != nil {
		return err
	}

	r.Sections = updated.Sections
	r.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	return nil
}

// Save writes the registry as indented JSON, creating parent directories.
func (r *SectionRegistry) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}
