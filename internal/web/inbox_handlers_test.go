package web

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Inbox API Tests
// ==========================

func TestInboxUnread(t *testing.T) {
	h := newHarness(t, `{"success":true,"data":{"count":4}}`)
	cookie := h.login(t, adminSession("support"))

	w := h.do(http.MethodGet, "/api/inbox/unread", cookie, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":4}`, w.Body.String())
	assert.Equal(t, "/support/admin/inbox/unread", h.backend.Last().Path)
	assert.Equal(t, "Bearer admin-token", h.backend.Last().Auth)
}

func TestInboxUnread_BackendDown(t *testing.T) {
	h := newHarness(t, `oops`)
	h.backend.Status = http.StatusBadGateway
	cookie := h.login(t, crewSession())

	w := h.do(http.MethodGet, "/api/inbox/unread", cookie, nil)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}

func TestInboxStream(t *testing.T) {
	h := newHarness(t, `{"success":true,"data":{"count":3}}`)
	cookie := h.login(t, crewSession())

	ts := httptest.NewServer(h.server.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/inbox/stream", nil)
	require.NoError(t, err)
	req.AddCookie(cookie)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	var lines []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			break
		}
		lines = append(lines, line)
	}
	assert.Equal(t, []string{"event: unread", `data: {"count":3}`}, lines)

	require.Eventually(t, func() bool { return h.poller.Watching() == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	require.Eventually(t, func() bool { return h.poller.Watching() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestInboxStream_EndsOnDrain(t *testing.T) {
	h := newHarness(t, `{"success":true,"data":{"count":1}}`)
	cookie := h.login(t, adminSession("support"))

	ts := httptest.NewServer(h.server.Handler())
	defer ts.Close()

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/inbox/stream", nil)
	require.NoError(t, err)
	req.AddCookie(cookie)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	first, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: unread", strings.TrimSpace(first))

	h.server.drain()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, err := reader.ReadString('\n'); err != nil {
				return
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("stream did not end after drain")
	}
}

func TestInboxStream_RequiresSession(t *testing.T) {
	h := newHarness(t, emptyList)

	w := h.do(http.MethodGet, "/api/inbox/stream", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
