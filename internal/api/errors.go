package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	dserrors "github.com/mrz1836/docsign/internal/errors"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Detail    string `json:"detail,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// statusMapping pairs sentinel errors with HTTP status and a stable code.
// Order matters: the first errors.Is match wins.
//
//nolint:gochecknoglobals // read-only lookup table
var statusMapping = []struct {
	err    error
	status int
	code   string
}{
	{dserrors.ErrDocumentNotFound, http.StatusNotFound, "document_not_found"},
	{dserrors.ErrKeyNotProvisioned, http.StatusNotFound, "key_not_provisioned"},
	{dserrors.ErrKeyNotFound, http.StatusNotFound, "key_not_found"},
	{dserrors.ErrDocumentExists, http.StatusConflict, "document_exists"},
	{dserrors.ErrContentTooLarge, http.StatusRequestEntityTooLarge, "content_too_large"},
	{dserrors.ErrInvalidDocument, http.StatusBadRequest, "invalid_document"},
	{dserrors.ErrEmptyIdentity, http.StatusBadRequest, "invalid_identity"},
	{dserrors.ErrInvalidShareToken, http.StatusBadRequest, "invalid_share_token"},
	{dserrors.ErrEmptyValue, http.StatusBadRequest, "invalid_request"},
	{dserrors.ErrKeyStoreUnavailable, http.StatusServiceUnavailable, "key_store_unavailable"},
	{dserrors.ErrContentUnavailable, http.StatusServiceUnavailable, "content_unavailable"},
}

// statusFor maps an error to its HTTP status and code.
func statusFor(err error) (int, string) {
	for _, m := range statusMapping {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable, "canceled"
	}
	return http.StatusInternalServerError, "internal"
}

// writeError renders err and aborts the request. Server errors are logged.
func (s *Server) writeError(c *gin.Context, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).
			Str("request_id", c.GetString(requestIDKey)).
			Str("path", c.FullPath()).
			Msg("request failed")
	}
	c.AbortWithStatusJSON(status, errorBody{Error: errorDetail{
		Code:      code,
		Message:   strings.TrimSpace(dserrors.UserMessage(err)),
		Detail:    err.Error(),
		Retryable: dserrors.IsRetryable(err),
		RequestID: c.GetString(requestIDKey),
	}})
}
