package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sdbip/agiler-write-model/internal/es"
)

// Error codes carried in error bodies.
const (
	CodeUnauthorized = "unauthorized"
	CodeNotFound     = "not_found"
	CodeInvalid      = "invalid_request"
	CodeConflict     = "concurrency_conflict"
	CodeInternal     = "internal"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// IDResponse is the body of a 201 Created.
type IDResponse struct {
	ID string `json:"id"`
}

func respondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func respondNotFound(c *gin.Context, id string) {
	respondError(c, http.StatusNotFound, CodeNotFound, errors.New("entity "+id+" not found"))
}

// fail maps err onto a status code. A type mismatch is reported as not
// found: the caller asked for an entity of a kind that does not exist.
func (h *handler) fail(c *gin.Context, err error) {
	switch {
	case es.IsTypeMismatch(err):
		respondError(c, http.StatusNotFound, CodeNotFound, err)
	case es.IsValidation(err):
		respondError(c, http.StatusBadRequest, CodeInvalid, err)
	case es.IsConcurrencyConflict(err):
		respondError(c, http.StatusConflict, CodeConflict, err)
	default:
		h.internalError(c, err)
	}
}

// internalError logs err and hides it from the caller.
func (h *handler) internalError(c *gin.Context, err error) {
	h.log.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	respondError(c, http.StatusInternalServerError, CodeInternal, errors.New("internal error"))
}
