package web

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "crew-portal/internal/common/errors"
	backend "crew-portal/internal/common/http"
	"crew-portal/internal/models"
)

type loginView struct {
	Role   string
	Action string
	Email  string
	Next   string
}

func roleForLoginPath(p string) string {
	if p == adminLoginPath {
		return models.RoleAdmin
	}
	return models.RoleCrew
}

func (s *Server) handleRoot(c *gin.Context) {
	if sess := currentSession(c); sess != nil {
		redirect(c, dashboardFor(sess.Role))
		return
	}
	redirect(c, crewLoginPath)
}

func (s *Server) handleLoginPage(c *gin.Context) {
	role := roleForLoginPath(c.Request.URL.Path)
	title := "Crew sign in"
	if role == models.RoleAdmin {
		title = "Admin sign in"
	}
	s.render(c, http.StatusOK, "login.html", title, loginView{
		Role:   role,
		Action: loginPathFor(role),
		Next:   c.Query("next"),
	})
}

// handleLogin exchanges credentials for a backend token and opens a portal
// session holding it.
func (s *Server) handleLogin(c *gin.Context) {
	role := roleForLoginPath(c.Request.URL.Path)
	email := strings.TrimSpace(c.PostForm("email"))
	next := c.PostForm("next")

	back := loginPathFor(role)
	if next != "" {
		back += "?next=" + url.QueryEscape(next)
	}

	result, err := s.svc.Auth.Login(c.Request.Context(), role, email, c.PostForm("password"))
	if err != nil {
		s.errors.Log(c, err)
		msg := apperrors.UserMessage(err)
		if apperrors.Is(err, apperrors.ErrCodeUnauthorized) {
			msg = "Invalid email or password"
		}
		s.setFlash(c, flashError, msg)
		c.Redirect(http.StatusSeeOther, back)
		return
	}

	perms := result.User.Permissions
	if len(perms) == 0 && len(result.User.Roles) > 0 {
		perms = models.Admin{Roles: result.User.Roles}.Permissions()
	}

	sess, err := s.sessions.Create(c.Request.Context(), models.Session{
		Token:       result.Token,
		Role:        role,
		UserID:      result.User.ID,
		Name:        result.User.Name,
		Email:       result.User.Email,
		Phone:       result.User.Phone,
		Permissions: perms,
	})
	if err != nil {
		s.fail(c, err, back)
		return
	}

	s.cookie.Write(c.Writer, sess.ID)
	s.logger.Info("user signed in", map[string]interface{}{
		"role":   role,
		"userId": string(sess.UserID),
	})
	s.setFlash(c, flashSuccess, "Welcome back, "+sess.Name)
	c.Redirect(http.StatusSeeOther, safeNext(next, role))
}

// handleLogout revokes the backend token when possible and always drops
// the portal session.
func (s *Server) handleLogout(c *gin.Context) {
	sess := currentSession(c)
	if sess == nil {
		s.cookie.Clear(c.Writer)
		c.Redirect(http.StatusSeeOther, crewLoginPath)
		return
	}

	ctx := backend.WithToken(c.Request.Context(), sess.Token)
	if err := s.svc.Auth.Logout(ctx); err != nil {
		s.logger.Warn("backend logout failed", map[string]interface{}{
			"userId": string(sess.UserID),
			"error":  err,
		})
	}
	if err := s.sessions.Delete(c.Request.Context(), sess.ID); err != nil {
		s.errors.Log(c, err)
	}
	s.cookie.Clear(c.Writer)
	s.setFlash(c, flashInfo, "You have been signed out")
	c.Redirect(http.StatusSeeOther, loginPathFor(sess.Role))
}
