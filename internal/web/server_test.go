package web

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crew-portal/internal/common/config"
	"crew-portal/internal/common/database"
	"crew-portal/internal/common/logger"
	"crew-portal/internal/inbox"
	"crew-portal/internal/models"
	"crew-portal/internal/services/servicetest"
	"crew-portal/internal/session"
	"crew-portal/pkg/registry"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ==========================
// Test Setup Helpers
// ==========================

type harness struct {
	server   *Server
	backend  *servicetest.Server
	sessions *session.Store
	poller   *inbox.Poller
	mr       *miniredis.Miniredis
}

const emptyList = `{"success":true,"data":[]}`

func newHarness(t *testing.T, body string, mutate ...func(*Deps)) *harness {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	client, fake := servicetest.New(t, body)
	svc := NewServices(client, nil)
	sessions := session.NewStore(rdb, time.Hour)
	poller := inbox.NewPoller(svc.Support, rdb, 50*time.Millisecond, logger.NewNoOpLogger())

	t.Cleanup(func() {
		poller.Close()
		rdb.Close()
		mr.Close()
	})

	deps := Deps{
		Config: &config.Config{
			App:     config.AppConfig{Name: "crew-portal", Version: "test", Environment: "test"},
			Session: config.SessionConfig{CookieName: "portal_session"},
		},
		Logger:   logger.NewNoOpLogger(),
		Services: svc,
		Sessions: sessions,
		Poller:   poller,
		Checks:   map[string]database.Pinger{},
	}
	for _, m := range mutate {
		m(&deps)
	}

	srv, err := New(deps)
	require.NoError(t, err)
	return &harness{server: srv, backend: fake, sessions: sessions, poller: poller, mr: mr}
}

func (h *harness) login(t *testing.T, sess models.Session) *http.Cookie {
	t.Helper()
	created, err := h.sessions.Create(context.Background(), sess)
	require.NoError(t, err)
	return &http.Cookie{Name: "portal_session", Value: created.ID}
}

func crewSession() models.Session {
	return models.Session{Token: "crew-token", Role: models.RoleCrew, UserID: "7", Name: "Ana Silva", Email: "ana@fleet.test"}
}

func adminSession(perms ...string) models.Session {
	return models.Session{Token: "admin-token", Role: models.RoleAdmin, UserID: "1", Name: "Marta Costa", Email: "marta@fleet.test", Permissions: perms}
}

func (h *harness) do(method, target string, cookie *http.Cookie, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(w, req)
	return w
}

func responseCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	var found *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			found = c
		}
	}
	return found
}

func flashOf(t *testing.T, w *httptest.ResponseRecorder) Flash {
	t.Helper()
	ck := responseCookie(w, flashCookie)
	require.NotNil(t, ck, "expected a flash cookie")
	raw, err := base64.RawURLEncoding.DecodeString(ck.Value)
	require.NoError(t, err)
	var f Flash
	require.NoError(t, json.Unmarshal(raw, &f))
	return f
}

// ==========================
// Gate Tests
// ==========================

func TestGate_AnonymousRedirects(t *testing.T) {
	h := newHarness(t, emptyList)

	tests := []struct {
		name     string
		path     string
		location string
	}{
		{"root", "/", "/login"},
		{"crew page", "/crew/appointments?date=2026-03-02", "/login?next=" + url.QueryEscape("/crew/appointments?date=2026-03-02")},
		{"admin page", "/admin/roles", "/admin/login?next=" + url.QueryEscape("/admin/roles")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := h.do(http.MethodGet, tt.path, nil, nil)
			assert.Equal(t, http.StatusFound, w.Code)
			assert.Equal(t, tt.location, w.Header().Get("Location"))
		})
	}
	assert.Empty(t, h.backend.Calls())
}

func TestGate_WrongSurfaceGoesHome(t *testing.T) {
	h := newHarness(t, emptyList)
	crew := h.login(t, crewSession())
	admin := h.login(t, adminSession("*"))

	w := h.do(http.MethodGet, "/admin/dashboard", crew, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/crew/dashboard", w.Header().Get("Location"))

	w = h.do(http.MethodGet, "/crew/support", admin, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/admin/dashboard", w.Header().Get("Location"))

	w = h.do(http.MethodGet, "/", admin, nil)
	assert.Equal(t, "/admin/dashboard", w.Header().Get("Location"))
}

func TestGate_LoginPagesWithSession(t *testing.T) {
	h := newHarness(t, emptyList)
	crew := h.login(t, crewSession())

	for _, p := range []string{"/login", "/admin/login"} {
		w := h.do(http.MethodGet, p, crew, nil)
		assert.Equal(t, http.StatusFound, w.Code, p)
		assert.Equal(t, "/crew/dashboard", w.Header().Get("Location"), p)
	}
}

func TestGate_API(t *testing.T) {
	h := newHarness(t, emptyList)
	crew := h.login(t, crewSession())

	w := h.do(http.MethodGet, "/api/inbox/unread", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"UNAUTHORIZED"`)

	w = h.do(http.MethodGet, "/api/admin/anything", crew, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}

func TestGate_MissingPermission(t *testing.T) {
	h := newHarness(t, emptyList)
	admin := h.login(t, adminSession("appointments"))

	w := h.do(http.MethodGet, "/admin/roles", admin, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/admin/dashboard", w.Header().Get("Location"))
	assert.Equal(t, Flash{Kind: flashError, Text: "You do not have access to this section"}, flashOf(t, w))
	assert.Empty(t, h.backend.Calls())

	h.backend.Body = emptyList
	w = h.do(http.MethodGet, "/admin/appointments", admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGate_MovedSectionPathStaysGated(t *testing.T) {
	h := newHarness(t, emptyList)
	require.NoError(t, h.server.registry.Update("admin-roles", "path", "/admin/roles-archive"))
	admin := h.login(t, adminSession("appointments"))

	w := h.do(http.MethodGet, "/admin/roles", admin, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/admin/dashboard", w.Header().Get("Location"))
	assert.Equal(t, "You do not have access to this section", flashOf(t, w).Text)
	assert.Empty(t, h.backend.Calls())

	w = h.do(http.MethodGet, "/admin/appointments", admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNew_RejectsSectionOffPortalPages(t *testing.T) {
	reg := registry.Default()
	require.NoError(t, reg.Update("admin-roles", "path", "/admin/roles-archive"))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	client, _ := servicetest.New(t, emptyList)
	svc := NewServices(client, nil)
	poller := inbox.NewPoller(svc.Support, rdb, time.Second, logger.NewNoOpLogger())
	defer poller.Close()

	_, err = New(Deps{
		Config:   &config.Config{Session: config.SessionConfig{CookieName: "portal_session"}},
		Services: svc,
		Sessions: session.NewStore(rdb, time.Hour),
		Poller:   poller,
		Registry: reg,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/admin/roles-archive")
}

func TestGate_UnknownSessionCookieIsCleared(t *testing.T) {
	h := newHarness(t, emptyList)

	w := h.do(http.MethodGet, "/crew/dashboard", &http.Cookie{Name: "portal_session", Value: "gone"}, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/login?next="))

	ck := responseCookie(w, "portal_session")
	require.NotNil(t, ck)
	assert.Equal(t, -1, ck.MaxAge)
}

func TestGate_PublicPaths(t *testing.T) {
	h := newHarness(t, emptyList)

	w := h.do(http.MethodGet, "/static/portal.css", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = h.do(http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "portal_http_requests_total")
}

func TestSafeNext(t *testing.T) {
	tests := []struct {
		name string
		next string
		role string
		want string
	}{
		{"empty", "", models.RoleCrew, "/crew/dashboard"},
		{"own surface", "/crew/support/5", models.RoleCrew, "/crew/support/5"},
		{"keeps query", "/crew/appointments?date=2026-03-02", models.RoleCrew, "/crew/appointments?date=2026-03-02"},
		{"other surface", "/admin/roles", models.RoleCrew, "/crew/dashboard"},
		{"absolute url", "https://evil.test/crew/dashboard", models.RoleCrew, "/crew/dashboard"},
		{"protocol relative", "//evil.test/crew", models.RoleCrew, "/crew/dashboard"},
		{"backslash", "/crew\\..\\admin", models.RoleCrew, "/crew/dashboard"},
		{"traversal", "/crew/../admin/roles", models.RoleCrew, "/crew/dashboard"},
		{"relative", "crew/support", models.RoleCrew, "/crew/dashboard"},
		{"admin login", "/admin/login", models.RoleAdmin, "/admin/dashboard"},
		{"admin page", "/admin/roles", models.RoleAdmin, "/admin/roles"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, safeNext(tt.next, tt.role))
		})
	}
}

// ==========================
// Flash Tests
// ==========================

func TestFlash_RoundTrip(t *testing.T) {
	h := newHarness(t, emptyList)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	h.server.setFlash(c, flashSuccess, "Role created")

	set := responseCookie(w, flashCookie)
	require.NotNil(t, set)
	assert.Equal(t, flashMaxAge, set.MaxAge)

	w2 := httptest.NewRecorder()
	c2, _ := gin.CreateTestContext(w2)
	c2.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c2.Request.AddCookie(&http.Cookie{Name: flashCookie, Value: set.Value})

	got := h.server.takeFlash(c2)
	require.NotNil(t, got)
	assert.Equal(t, Flash{Kind: flashSuccess, Text: "Role created"}, *got)

	cleared := responseCookie(w2, flashCookie)
	require.NotNil(t, cleared)
	assert.Equal(t, -1, cleared.MaxAge)
}

func TestFlash_Garbage(t *testing.T) {
	h := newHarness(t, emptyList)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.AddCookie(&http.Cookie{Name: flashCookie, Value: "%%%not-base64"})

	assert.Nil(t, h.server.takeFlash(c))
}

// ==========================
// Login / Logout Tests
// ==========================

func TestLogin_CreatesSession(t *testing.T) {
	h := newHarness(t, emptyList)
	h.backend.Routes["POST /auth/crew/login"] = `{"success":true,"data":{"token":"jwt-9","user":{"id":7,"name":"Ana Silva","email":"ana@fleet.test"}}}`

	w := h.do(http.MethodPost, "/login", nil, url.Values{
		"email":    {"ana@fleet.test"},
		"password": {"secret"},
		"next":     {"/crew/support"},
	})

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/crew/support", w.Header().Get("Location"))
	assert.Equal(t, Flash{Kind: flashSuccess, Text: "Welcome back, Ana Silva"}, flashOf(t, w))

	ck := responseCookie(w, "portal_session")
	require.NotNil(t, ck)
	assert.True(t, ck.HttpOnly)

	sess, err := h.sessions.Get(context.Background(), ck.Value)
	require.NoError(t, err)
	assert.Equal(t, "jwt-9", sess.Token)
	assert.Equal(t, models.RoleCrew, sess.Role)
	assert.Equal(t, models.ID("7"), sess.UserID)
}

func TestLogin_AdminPermissionsFromRoles(t *testing.T) {
	h := newHarness(t, emptyList)
	h.backend.Routes["POST /auth/admin/login"] = `{"success":true,"data":{"token":"jwt-a","user":{"id":1,"name":"Marta","roles":[{"id":1,"name":"Docs","permissions":["approvals","audit"]},{"id":2,"name":"Ops","permissions":["audit","support"]}]}}}`

	w := h.do(http.MethodPost, "/admin/login", nil, url.Values{
		"email":    {"marta@fleet.test"},
		"password": {"secret"},
		"next":     {"/crew/dashboard"},
	})

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/admin/dashboard", w.Header().Get("Location"))

	ck := responseCookie(w, "portal_session")
	require.NotNil(t, ck)
	sess, err := h.sessions.Get(context.Background(), ck.Value)
	require.NoError(t, err)
	assert.Equal(t, []string{"approvals", "audit", "support"}, sess.Permissions)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	h := newHarness(t, `{"success":false,"message":"bad credentials"}`)
	h.backend.Status = http.StatusUnauthorized

	w := h.do(http.MethodPost, "/login", nil, url.Values{
		"email":    {"ana@fleet.test"},
		"password": {"wrong"},
		"next":     {"/crew/support"},
	})

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login?next="+url.QueryEscape("/crew/support"), w.Header().Get("Location"))
	assert.Equal(t, Flash{Kind: flashError, Text: "Invalid email or password"}, flashOf(t, w))
	assert.Nil(t, responseCookie(w, "portal_session"))
}

func TestLogin_MissingFieldsNeverCallBackend(t *testing.T) {
	h := newHarness(t, emptyList)

	w := h.do(http.MethodPost, "/login", nil, url.Values{"email": {"ana@fleet.test"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "Email and password are required", flashOf(t, w).Text)
	assert.Empty(t, h.backend.Calls())
}

func TestLoginPage_Renders(t *testing.T) {
	h := newHarness(t, emptyList)

	w := h.do(http.MethodGet, "/admin/login?next=/admin/roles", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Admin sign in")
	assert.Contains(t, body, `action="/admin/login"`)
	assert.Contains(t, body, `value="/admin/roles"`)
}

func TestLogout(t *testing.T) {
	h := newHarness(t, `{"success":true}`)
	cookie := h.login(t, crewSession())

	w := h.do(http.MethodPost, "/logout", cookie, url.Values{})

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	assert.Equal(t, "You have been signed out", flashOf(t, w).Text)

	call := h.backend.Last()
	assert.Equal(t, "/auth/logout", call.Path)
	assert.Equal(t, "Bearer crew-token", call.Auth)

	_, err := h.sessions.Get(context.Background(), cookie.Value)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestLogout_BackendFailureStillEndsSession(t *testing.T) {
	h := newHarness(t, `oops`)
	h.backend.Status = http.StatusInternalServerError
	cookie := h.login(t, adminSession("*"))

	w := h.do(http.MethodPost, "/logout", cookie, url.Values{})

	assert.Equal(t, "/admin/login", w.Header().Get("Location"))
	_, err := h.sessions.Get(context.Background(), cookie.Value)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestBackendUnauthorizedExpiresSession(t *testing.T) {
	h := newHarness(t, `{"success":false,"message":"token expired"}`)
	h.backend.Status = http.StatusUnauthorized
	cookie := h.login(t, crewSession())

	w := h.do(http.MethodGet, "/crew/appointments", cookie, nil)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	assert.Equal(t, "Your session has expired, please sign in again", flashOf(t, w).Text)

	_, err := h.sessions.Get(context.Background(), cookie.Value)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestSessionTTLSlides(t *testing.T) {
	h := newHarness(t, emptyList)
	cookie := h.login(t, crewSession())

	h.mr.FastForward(40 * time.Minute)
	w := h.do(http.MethodGet, "/crew/profile", cookie, nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, time.Hour, h.mr.TTL("portal:session:"+cookie.Value))
	refreshed := responseCookie(w, "portal_session")
	require.NotNil(t, refreshed)
	assert.Equal(t, 3600, refreshed.MaxAge)
}

func TestRequestIDForwarded(t *testing.T) {
	h := newHarness(t, emptyList)
	cookie := h.login(t, crewSession())

	req := httptest.NewRequest(http.MethodGet, "/crew/profile", nil)
	req.AddCookie(cookie)
	req.Header.Set("X-Request-ID", "rid-42")
	w := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(w, req)

	assert.Equal(t, "rid-42", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "Bearer crew-token", h.backend.Last().Auth)
}

// ==========================
// Health Tests
// ==========================

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestHealth(t *testing.T) {
	h := newHarness(t, emptyList)

	w := h.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","service":"crew-portal","version":"test"}`, w.Body.String())
}

func TestReady(t *testing.T) {
	up := newHarness(t, emptyList, func(d *Deps) {
		d.Checks = map[string]database.Pinger{"redis": fakePinger{}}
	})
	w := up.do(http.MethodGet, "/ready", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ready"}`, w.Body.String())

	down := newHarness(t, emptyList, func(d *Deps) {
		d.Checks = map[string]database.Pinger{"redis": fakePinger{}, "postgres": fakePinger{err: errors.New("connection refused")}}
	})
	w = down.do(http.MethodGet, "/ready", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"unavailable","failures":{"postgres":"connection refused"}}`, w.Body.String())
}

func TestNew_RequiresDeps(t *testing.T) {
	_, err := New(Deps{})
	assert.Error(t, err)
}

func TestNotFound(t *testing.T) {
	h := newHarness(t, emptyList)

	w := h.do(http.MethodGet, "/nowhere", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "does not exist")
}
