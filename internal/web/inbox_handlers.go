package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"crew-portal/internal/models"
)

const sseHeartbeat = 30 * time.Second

func (s *Server) handleInboxUnread(c *gin.Context) {
	sess := currentSession(c)
	n, err := s.poller.Unread(c.Request.Context(), sess.Viewer())
	if err != nil {
		s.errors.HandleAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.UnreadCount{Count: n})
}

// handleInboxStream keeps the viewer subscribed to the poller for as long as
// the client stays connected and pushes every count change as an SSE event.
func (s *Server) handleInboxStream(c *gin.Context) {
	sess := currentSession(c)

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.String(http.StatusInternalServerError, "streaming not supported")
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	updates, err := s.poller.Watch(ctx, sess.Viewer())
	if err != nil {
		s.errors.HandleAPIError(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.draining:
			return
		case n, ok := <-updates:
			if !ok {
				return
			}
			writeSSE(c.Writer, flusher, "unread", models.UnreadCount{Count: n})
		case <-heartbeat.C:
			_, _ = fmt.Fprint(c.Writer, ": ping\n\n")
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", event)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", payload)
	flusher.Flush()
}
