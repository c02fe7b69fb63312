package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRegistry(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sections.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// ==========================
// Loading Tests
// ==========================

func TestDefault_IsValid(t *testing.T) {
	reg := Default()
	require.NoError(t, reg.Validate())
	assert.Len(t, reg.ForSurface(SurfaceCrew), 6)
	assert.Len(t, reg.ForSurface(SurfaceAdmin), 9)
}

func TestLoad_EmptyPathUsesDefault(t *testing.T) {
	reg, err := Load("  ")
	require.NoError(t, err)
	assert.Equal(t, Default(), reg)
}

func TestLoadRegistry_Override(t *testing.T) {
	path := writeRegistry(t, `{
		"version": "2.0.0",
		"sections": [
			{"id": "admin-dashboard", "displayName": "Home", "path": "/admin/dashboard", "surface": "admin"},
			{"id": "admin-audit", "displayName": "Audit", "path": "/admin/audit", "permission": "compliance", "surface": "admin"}
		]
	}`)

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", reg.Version)
	s, ok := reg.Get("admin-audit")
	require.True(t, ok)
	assert.Equal(t, "compliance", s.Permission)
}

func TestLoadRegistry_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"malformed", `{"sections": [`, "parse registry"},
		{"empty", `{"sections": []}`, "no sections"},
		{"missing id", `{"sections": [{"path": "/admin/x", "surface": "admin"}]}`, "has no id"},
		{"duplicate", `{"sections": [
			{"id": "a", "path": "/admin/a", "surface": "admin"},
			{"id": "a", "path": "/admin/b", "surface": "admin"}]}`, "duplicate section id"},
		{"bad surface", `{"sections": [{"id": "a", "path": "/ops/a", "surface": "ops"}]}`, "unknown surface"},
		{"path outside surface", `{"sections": [{"id": "a", "path": "/crew/a", "surface": "admin"}]}`, "outside /admin/"},
		{"crew permission", `{"sections": [{"id": "a", "path": "/crew/a", "permission": "x", "surface": "crew"}]}`, "cannot require a permission"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRegistry(writeRegistry(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	_, err := LoadRegistry(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

// ==========================
// Lookup Tests
// ==========================

func TestMatch(t *testing.T) {
	reg := Default()

	tests := []struct {
		path   string
		wantID string
		found  bool
	}{
		{"/admin/approvals", "admin-approvals", true},
		{"/admin/approvals/travel/7/review", "admin-approvals", true},
		{"/admin/admins/3", "admin-admins", true},
		{"/admin/adminsx", "", false},
		{"/crew/support/12", "crew-support", true},
		{"/admin/login", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			s, ok := reg.Match(tt.path)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.wantID, s.ID)
		})
	}
}

func TestMatch_LongestPrefixWins(t *testing.T) {
	reg := &SectionRegistry{Sections: []Section{
		{ID: "support", Path: "/admin/support", Surface: SurfaceAdmin},
		{ID: "support-reports", Path: "/admin/support/reports", Permission: "reports", Surface: SurfaceAdmin},
	}}

	s, ok := reg.Match("/admin/support/reports/weekly")
	require.True(t, ok)
	assert.Equal(t, "support-reports", s.ID)
}

func TestVisible(t *testing.T) {
	reg := Default()
	granted := map[string]bool{PermSupport: true}

	sections := reg.Visible(SurfaceAdmin, func(p string) bool { return granted[p] })
	var ids []string
	for _, s := range sections {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"admin-dashboard", "admin-support"}, ids)

	all := reg.Visible(SurfaceCrew, func(string) bool { return false })
	assert.Len(t, all, 6)
}

// ==========================
// Update / Save Tests
// ==========================

func TestUpdate(t *testing.T) {
	reg := Default()

	require.NoError(t, reg.Update("admin-audit", "permission", PermAdmins))
	sec, ok := reg.Get("admin-audit")
	require.True(t, ok)
	assert.Equal(t, PermAdmins, sec.Permission)
	assert.NotEmpty(t, reg.LastUpdated)
}

func TestUpdate_Rejected(t *testing.T) {
	tests := []struct {
		name  string
		id    string
		field string
		value string
	}{
		{"unknown section", "admin-nowhere", "permission", PermAudit},
		{"unknown field", "admin-audit", "surface", "crew"},
		{"path off surface", "admin-audit", "path", "/crew/audit"},
		{"permission on crew", "crew-support", "permission", PermSupport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := Default()
			before := reg.Sections[len(reg.Sections)-1]
			assert.Error(t, reg.Update(tt.id, tt.field, tt.value))
			assert.Equal(t, before, reg.Sections[len(reg.Sections)-1])
			assert.Equal(t, Default().Sections, reg.Sections)
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sections.json")
	reg := Default()
	require.NoError(t, reg.Update("admin-support", "displayName", "Crew Support"))
	require.NoError(t, reg.Save(path))

	loaded, err := LoadRegistry(path)
	require.NoError(t, err)
	sec, ok := loaded.Get("admin-support")
	require.True(t, ok)
	assert.Equal(t, "Crew Support", sec.DisplayName)
	assert.Len(t, loaded.Sections, len(reg.Sections))
}
