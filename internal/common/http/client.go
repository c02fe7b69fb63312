// internal/common/http/client.go
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"crew-portal/internal/common/config"
	apperrors "crew-portal/internal/common/errors"
	"crew-portal/internal/common/logger"
	"crew-portal/internal/common/metrics"
	"crew-portal/internal/common/observability"
)

type ctxKey int

const (
	tokenKey ctxKey = iota
	requestIDKey
)

// RequestIDHeader is forwarded from the incoming request to the backend.
const RequestIDHeader = "X-Request-ID"

// WithToken attaches the session's backend token to ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// TokenFrom returns the token stored by WithToken.
func TokenFrom(ctx context.Context) string {
	v, _ := ctx.Value(tokenKey).(string)
	return v
}

// WithRequestID attaches the incoming request id to ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFrom returns the id stored by WithRequestID.
func RequestIDFrom(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

// Client talks JSON to the crew-management backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger
}

func NewClient(cfg config.BackendConfig, log logger.Logger) *Client {
	timeout := config.GetDuration(cfg.Timeout)
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.Component(log, "backend-client"),
	}
}

// envelope is the backend's standard response wrapper.
type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) Patch(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPatch, path, nil, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out interface{}) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, out)
}

// Do performs one backend call. body is JSON-encoded when non-nil and the
// response payload (the envelope's data, or the bare body) is decoded into
// out when out is non-nil. Calls are never retried.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	resource := resourceOf(path)
	start := time.Now()

	ctx, span := observability.StartSpan(ctx, "backend "+method+" "+resource,
		attribute.String("http.method", method),
		attribute.String("http.path", path),
	)
	defer span.End()

	err := c.do(ctx, method, path, query, body, out)

	metrics.BackendRequestDuration.WithLabelValues(method, resource).Observe(time.Since(start).Seconds())
	result := "success"
	if err != nil {
		result = string(apperrors.CodeOf(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, result)
	}
	metrics.BackendRequestsTotal.WithLabelValues(method, resource, result).Inc()

	return err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := TokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if rid := RequestIDFrom(ctx); rid != "" {
		req.Header.Set(RequestIDHeader, rid)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("backend unreachable", map[string]interface{}{
			"method": method,
			"path":   path,
			"error":  err,
		})
		return apperrors.NewBackendUnavailableError(path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewBackendUnavailableError(path, err)
	}

	env, isEnvelope := parseEnvelope(raw)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, path, env.message())
	}

	if isEnvelope && !*env.Success {
		return apperrors.NewBackendRejectedError(resp.StatusCode, env.message())
	}

	if out == nil {
		return nil
	}

	payload := raw
	if isEnvelope {
		payload = env.Data
	}
	if len(bytes.TrimSpace(payload)) == 0 || string(bytes.TrimSpace(payload)) == "null" {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return apperrors.NewBackendInvalidResponseError(path, err)
	}
	return nil
}

// parseEnvelope reports whether raw is a {success, message, data} wrapper.
func parseEnvelope(raw []byte) (envelope, bool) {
	var env envelope
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return env, false
	}
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return envelope{}, false
	}
	return env, env.Success != nil
}

func (e envelope) message() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

func statusError(status int, path, message string) error {
	details := fmt.Sprintf("path: %s, status: %d", path, status)
	switch status {
	case http.StatusUnauthorized:
		return apperrors.NewUnauthorizedError(details)
	case http.StatusForbidden:
		return apperrors.NewForbiddenError(details).WithMessage(message)
	case http.StatusNotFound:
		return apperrors.NewResourceNotFoundError(resourceLabel(path), details).WithMessage(message)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		if message == "" {
			message = "The submitted data is invalid"
		}
		return apperrors.NewValidationError(message, details)
	default:
		return apperrors.NewBackendRejectedError(status, message)
	}
}

// resourceOf returns the first path segment, used as a low-cardinality label.
func resourceOf(path string) string {
	p := strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(p, '/'); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return "root"
	}
	return p
}

func resourceLabel(path string) string {
	r := strings.ReplaceAll(resourceOf(path), "-", " ")
	r = strings.TrimSuffix(r, "s")
	if r == "" {
		return "Resource"
	}
	return strings.ToUpper(r[:1]) + r[1:]
}
