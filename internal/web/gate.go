package web

import (
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "crew-portal/internal/common/errors"
	"crew-portal/internal/models"
)

const (
	crewLoginPath  = "/login"
	adminLoginPath = "/admin/login"
)

var publicPrefixes = []string{"/static/", "/health", "/ready", "/metrics", "/logout"}

func isPublic(p string) bool {
	for _, prefix := range publicPrefixes {
		if p == prefix || strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

func loginPathFor(role string) string {
	if role == models.RoleAdmin {
		return adminLoginPath
	}
	return crewLoginPath
}

func dashboardFor(role string) string {
	if role == models.RoleAdmin {
		return "/admin/dashboard"
	}
	return "/crew/dashboard"
}

// surfaceOf returns the role owning p, or "" for paths outside both surfaces.
func surfaceOf(p string) string {
	switch {
	case p == "/admin" || strings.HasPrefix(p, "/admin/"):
		return models.RoleAdmin
	case p == "/crew" || strings.HasPrefix(p, "/crew/"):
		return models.RoleCrew
	}
	return ""
}

// apiSurface is the role an /api path is reserved for, "" when shared.
func apiSurface(p string) string {
	return surfaceOf(strings.TrimPrefix(p, "/api"))
}

// safeNext returns next when it is a local path on role's own surface and
// the role's dashboard otherwise.
func safeNext(next, role string) string {
	fallback := dashboardFor(role)
	if next == "" || strings.ContainsAny(next, "\\\r\n") {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" || u.User != nil {
		return fallback
	}
	if !strings.HasPrefix(u.Path, "/") || surfaceOf(path.Clean(u.Path)) != role {
		return fallback
	}
	clean := path.Clean(u.Path)
	if clean == adminLoginPath {
		return fallback
	}
	if u.RawQuery != "" {
		clean += "?" + u.RawQuery
	}
	return clean
}

func redirect(c *gin.Context, to string) {
	c.Redirect(http.StatusFound, to)
	c.Abort()
}

// gate enforces which session may see which surface. Pages redirect, /api
// answers with JSON errors.
func (s *Server) gate() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := c.Request.URL.Path
		sess := currentSession(c)

		switch {
		case isPublic(p):

		case p == "/":
			if sess != nil {
				redirect(c, dashboardFor(sess.Role))
			} else {
				redirect(c, crewLoginPath)
			}
			return

		case p == crewLoginPath || p == adminLoginPath:
			if sess != nil {
				redirect(c, dashboardFor(sess.Role))
				return
			}

		case strings.HasPrefix(p, "/api/"):
			if sess == nil {
				s.errors.HandleAPIError(c, apperrors.NewUnauthorizedError("no portal session"))
				return
			}
			if want := apiSurface(p); want != "" && want != sess.Role {
				s.errors.HandleAPIError(c, apperrors.NewForbiddenError("path: "+p))
				return
			}

		default:
			surface := surfaceOf(p)
			if surface == "" {
				break
			}
			if sess == nil {
				redirect(c, loginPathFor(surface)+"?next="+url.QueryEscape(c.Request.URL.RequestURI()))
				return
			}
			if sess.Role != surface {
				redirect(c, dashboardFor(sess.Role))
				return
			}
			section, ok := s.registry.Match(p)
			switch {
			case ok && !sess.HasPermission(section.Permission):
				s.denySection(c, sess, section.ID, section.Permission)
				return
			case !ok && surface == models.RoleAdmin && p != dashboardFor(models.RoleAdmin):
				// Admin pages outside every section are never served unchecked.
				s.denySection(c, sess, "", "")
				return
			}
		}
		c.Next()
	}
}

func (s *Server) denySection(c *gin.Context, sess *models.Session, sectionID, permission string) {
	s.logger.Warn("section denied", map[string]interface{}{
		"userId":     string(sess.UserID),
		"path":       c.Request.URL.Path,
		"section":    sectionID,
		"permission": permission,
	})
	s.setFlash(c, flashError, "You do not have access to this section")
	redirect(c, dashboardFor(sess.Role))
}
