package web

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	backend "crew-portal/internal/common/http"
	"crew-portal/internal/common/logger"
	"crew-portal/internal/common/metrics"
	"crew-portal/internal/models"
	"crew-portal/internal/services"
	"crew-portal/internal/session"
)

const (
	ctxRequestID = "requestID"
	ctxSession   = "session"
	ctxStart     = "requestStart"
)

func currentSession(c *gin.Context) *models.Session {
	v, ok := c.Get(ctxSession)
	if !ok {
		return nil
	}
	sess, _ := v.(*models.Session)
	return sess
}

// requestID reuses a sane incoming X-Request-ID or mints one, and makes it
// available to handlers and to backend calls.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(backend.RequestIDHeader))
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Set(ctxStart, time.Now())
		c.Header(backend.RequestIDHeader, id)
		c.Request = c.Request.WithContext(backend.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func routeOf(c *gin.Context) string {
	if r := c.FullPath(); r != "" {
		return r
	}
	return "unmatched"
}

func requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := routeOf(c)
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func accessLog(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := map[string]interface{}{
			"method":    c.Request.Method,
			"route":     routeOf(c),
			"path":      c.Request.URL.Path,
			"status":    status,
			"duration":  time.Since(start).String(),
			"requestId": c.GetString(ctxRequestID),
		}
		switch {
		case status >= 500:
			log.Error("request completed", fields)
		case isProbe(c.Request.URL.Path):
			log.Debug("request completed", fields)
		default:
			log.Info("request completed", fields)
		}
	}
}

func isProbe(path string) bool {
	return path == "/health" || path == "/ready" || path == "/metrics"
}

// corsMiddleware returns nil when no cross-origin callers are configured.
// Origins without an http(s) scheme are skipped since cors rejects them.
func corsMiddleware(origins []string, log logger.Logger) gin.HandlerFunc {
	var allowed []string
	allowAll := false
	for _, o := range origins {
		o = strings.TrimSpace(o)
		switch {
		case o == "*":
			allowAll = true
		case strings.HasPrefix(o, "http://") || strings.HasPrefix(o, "https://"):
			allowed = append(allowed, strings.TrimRight(o, "/"))
		case o != "":
			log.Warn("ignoring cors origin without scheme", map[string]interface{}{"origin": o})
		}
	}
	if !allowAll && len(allowed) == 0 {
		return nil
	}

	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", backend.RequestIDHeader},
		ExposeHeaders: []string{backend.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if allowAll {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowed
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

// loadSession resolves the session cookie, slides its TTL and puts the
// backend token and acting user on the request context.
func (s *Server) loadSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := s.cookie.Read(c.Request)
		if id == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		sess, err := s.sessions.Get(ctx, id)
		if err != nil {
			if errors.Is(err, session.ErrSessionNotFound) {
				s.cookie.Clear(c.Writer)
			} else {
				s.errors.Log(c, err)
			}
			c.Next()
			return
		}

		if err := s.sessions.Touch(ctx, id); err == nil {
			s.cookie.Write(c.Writer, id)
		}

		c.Set(ctxSession, sess)
		ctx = backend.WithToken(ctx, sess.Token)
		ctx = services.WithActor(ctx, services.Actor{ID: sess.UserID, Name: sess.Name, Role: sess.Role})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
