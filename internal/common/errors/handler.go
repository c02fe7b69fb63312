// internal/common/errors/handler.go
package errors

import (
	"github.com/gin-gonic/gin"
)

// ErrorHandler turns errors into logged, standardized API responses.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// APIError is the JSON body written for failed /api requests.
type APIError struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
}

// HandleAPIError logs err and aborts the request with a JSON error body.
func (h *ErrorHandler) HandleAPIError(c *gin.Context, err error) {
	stdErr := Normalize(err)
	status := HTTPStatus(stdErr.Code)

	h.Log(c, stdErr)

	c.AbortWithStatusJSON(status, APIError{
		Success: false,
		Error: ErrorBody{
			Code:      stdErr.Code,
			Message:   UserMessage(stdErr),
			Retryable: stdErr.Retryable,
		},
	})
}

// Log records err with request context. Client-side failures are warnings.
func (h *ErrorHandler) Log(c *gin.Context, err error) {
	stdErr := Normalize(err)
	fields := map[string]interface{}{
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	}
	if c != nil && c.Request != nil {
		fields["method"] = c.Request.Method
		fields["path"] = c.Request.URL.Path
		if rid, ok := c.Get("requestID"); ok {
			fields["requestId"] = rid
		}
	}
	for k, v := range stdErr.Metadata {
		fields[k] = v
	}

	if HTTPStatus(stdErr.Code) < 500 {
		h.logger.Warn("request failed", fields)
		return
	}
	h.logger.Error("request failed", fields)
}
