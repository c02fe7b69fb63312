package web

import (
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	apperrors "crew-portal/internal/common/errors"
	"crew-portal/internal/listing"
	"crew-portal/internal/models"
	"crew-portal/pkg/registry"
)

// pages lists every page template. Each is parsed together with the layout
// into its own template set so their "content" blocks do not collide.
var pages = []string{
	"login.html",
	"error.html",
	"support_thread.html",
	"crew_dashboard.html",
	"crew_appointments.html",
	"crew_documents.html",
	"crew_debriefing.html",
	"crew_profile.html",
	"crew_support.html",
	"admin_dashboard.html",
	"admin_appointments.html",
	"admin_approvals.html",
	"admin_debriefings.html",
	"admin_debriefing.html",
	"admin_profile_requests.html",
	"admin_admins.html",
	"admin_admin.html",
	"admin_roles.html",
	"admin_support.html",
	"admin_audit.html",
}

func templateFuncMap() template.FuncMap {
	return template.FuncMap{
		"formatTime": func(t time.Time) string {
			if t.IsZero() {
				return "-"
			}
			return t.Format("Jan 02, 2006 15:04")
		},
		"formatTimePtr": func(t *time.Time) string {
			if t == nil || t.IsZero() {
				return "-"
			}
			return t.Format("Jan 02, 2006 15:04")
		},
		"label": label,
		"join": func(sep string, items []string) string {
			return strings.Join(items, sep)
		},
		"has": func(items []string, v string) bool {
			for _, item := range items {
				if item == v {
					return true
				}
			}
			return false
		},
		"truncate": truncate,
		"sortedKeys": func(m map[string]string) []string {
			keys := make([]string, 0, len(m))
			for k := range m {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			return keys
		},
	}
}

// label turns a status or field key into display text.
func label(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// truncate shortens s to at most maxLen characters.
func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

func parseTemplates() (map[string]*template.Template, error) {
	templates := make(map[string]*template.Template, len(pages))
	funcMap := templateFuncMap()

	for _, page := range pages {
		tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/layout.html", "templates/widgets.html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse layout: %w", err)
		}
		tmpl, err = tmpl.ParseFS(templatesFS, "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", page, err)
		}
		templates[page] = tmpl
	}
	return templates, nil
}

// PageData is handed to every page template.
type PageData struct {
	Title    string
	Surface  string
	Active   string
	Session  *models.Session
	Sections []registry.Section
	Flash    *Flash
	Error    string
	Unread   int
	Data     any
}

// render executes page inside the layout and records the page metric.
func (s *Server) render(c *gin.Context, status int, page, title string, data any) {
	s.renderPage(c, status, page, PageData{Title: title, Data: data})
}

func (s *Server) renderPage(c *gin.Context, status int, page string, pd PageData) {
	sess := currentSession(c)
	pd.Session = sess
	if pd.Flash == nil {
		pd.Flash = s.takeFlash(c)
	}
	if sess != nil {
		pd.Surface = sess.Role
		pd.Sections = s.registry.Visible(sess.Role, sess.HasPermission)
		if section, ok := s.registry.Match(c.Request.URL.Path); ok {
			pd.Active = section.ID
		}
	}

	tmpl, ok := s.templates[page]
	if !ok {
		s.logger.Error("template not found", map[string]interface{}{"template": page})
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}

	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(c.Writer, "layout", pd); err != nil {
		s.logger.Error("template error", map[string]interface{}{"template": page, "error": err})
		return
	}

	if start, ok := c.Get(ctxStart); ok {
		if t, ok := start.(time.Time); ok {
			surface := pd.Surface
			if surface == "" {
				surface = "public"
			}
			s.obs.RecordPage(c.Request.Context(), surface, strings.TrimSuffix(page, ".html"), time.Since(t))
		}
	}
}

// Pager feeds the pager widget.
type Pager struct {
	Query      listing.Query
	Page       int
	TotalPages int
	Total      int
	HasPrev    bool
	HasNext    bool
	Prev       int
	Next       int
	Extra      string
}

// Link is the href for page n, keeping filters and extra parameters.
func (p Pager) Link(n int) template.URL {
	q := p.Query.PageLink(n)
	if p.Extra != "" {
		if q != "" {
			q += "&"
		}
		q += p.Extra
	}
	return template.URL("?" + q) //nolint:gosec // built from url.Values encoding
}

func pagerOf[T listing.Item](p listing.Page[T]) Pager {
	return Pager{
		Query:      p.Query,
		Page:       p.Page,
		TotalPages: p.TotalPages,
		Total:      p.Total,
		HasPrev:    p.HasPrev,
		HasNext:    p.HasNext,
		Prev:       p.PrevPage(),
		Next:       p.NextPage(),
	}
}

// Filters feeds the search/status/sort widget.
type Filters struct {
	Query    listing.Query
	Statuses []string
	Sorts    []string
	Hidden   map[string]string
}

// listView is a paginated list plus its widgets.
type listView[T listing.Item] struct {
	Items   []T
	Pager   Pager
	Filters Filters
}

// with keeps extra query parameters (a tab, a date) on pager and filter links.
func (v listView[T]) with(extra map[string]string) listView[T] {
	vals := url.Values{}
	for k, val := range extra {
		if val != "" {
			vals.Set(k, val)
		}
	}
	v.Pager.Extra = vals.Encode()
	v.Filters.Hidden = extra
	return v
}

func newListView[T listing.Item](items []T, q listing.Query, statuses, sorts []string) listView[T] {
	page := listing.Apply(items, q)
	return listView[T]{
		Items:   page.Items,
		Pager:   pagerOf(page),
		Filters: Filters{Query: page.Query, Statuses: statuses, Sorts: sorts},
	}
}

// loadFailed handles an error raised while loading a page. It returns the
// message to show inline, or stop=true when the session ended and the
// response is already a redirect.
func (s *Server) loadFailed(c *gin.Context, err error) (msg string, stop bool) {
	s.errors.Log(c, err)
	if apperrors.Is(err, apperrors.ErrCodeUnauthorized) {
		s.expireSession(c)
		return "", true
	}
	return apperrors.UserMessage(err), false
}

// fail reports a failed action with a flash and redirects to back. A
// backend UNAUTHORIZED ends the session instead.
func (s *Server) fail(c *gin.Context, err error, back string) {
	s.errors.Log(c, err)
	if apperrors.Is(err, apperrors.ErrCodeUnauthorized) {
		s.expireSession(c)
		return
	}
	s.setFlash(c, flashError, apperrors.UserMessage(err))
	c.Redirect(http.StatusSeeOther, back)
}

func (s *Server) succeed(c *gin.Context, text, back string) {
	s.setFlash(c, flashSuccess, text)
	c.Redirect(http.StatusSeeOther, back)
}

// expireSession drops the portal session after the backend rejected its
// token and sends the user to their login page.
func (s *Server) expireSession(c *gin.Context) {
	role := models.RoleCrew
	if sess := currentSession(c); sess != nil {
		role = sess.Role
		if err := s.sessions.Delete(c.Request.Context(), sess.ID); err != nil {
			s.errors.Log(c, err)
		}
	}
	s.cookie.Clear(c.Writer)
	s.setFlash(c, flashInfo, "Your session has expired, please sign in again")
	c.Redirect(http.StatusSeeOther, loginPathFor(role))
	c.Abort()
}
