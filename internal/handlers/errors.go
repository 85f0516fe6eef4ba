package handlers

import (
	"errors"
	"io"
	"net/http"

	"task_manager"
	"task_manager/internal/service"

	"github.com/gin-gonic/gin"
)

const msgInternal = "internal server error"

// statusFor maps a domain error kind to its HTTP status.
func statusFor(kind error) int {
	switch {
	case errors.Is(kind, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(kind, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(kind, service.ErrInvalidCredentials), errors.Is(kind, service.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(kind, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(kind, service.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError is the single place where service errors become HTTP answers.
// Unclassified errors are logged and reported as a bare 500.
func (h *Handler) writeError(c *gin.Context, op string, err error) {
	var de *service.Error
	if errors.As(err, &de) {
		status := statusFor(de.Kind)
		if status != http.StatusInternalServerError {
			if h.log != nil {
				h.log.Infow(op+"_rejected", "status", status, "err", err)
			}
			resp := task_manager.ErrorResponse{Message: de.Message()}
			for _, f := range de.Fields {
				resp.Errors = append(resp.Errors, task_manager.FieldError{Field: f.Field, Message: f.Message})
			}
			c.AbortWithStatusJSON(status, resp)
			return
		}
	}

	if h.log != nil {
		h.log.Errorw(op+"_failed", "err", err)
	}
	abortWithMessage(c, http.StatusInternalServerError, msgInternal)
}

func writeMessage(c *gin.Context, status int, msg string) {
	c.JSON(status, task_manager.MessageResponse{Message: msg})
}

func abortWithMessage(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, task_manager.ErrorResponse{Message: msg})
}

// bindJSONOrBadRequest tries to bind the request body into dst and writes a 400 JSON on failure.
// Returns false if the request was already handled (aborted), true otherwise.
func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		// optional structured logging
		if h.log != nil {
			h.log.Infow("bad_request_body", "path", c.FullPath(), "err", err)
		}
		abortWithMessage(c, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// bindOptionalJSON is bindJSONOrBadRequest for bodies that may be omitted;
// an empty body leaves dst at its zero value.
func (h *Handler) bindOptionalJSON(c *gin.Context, dst any) bool {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return true
		}
		if h.log != nil {
			h.log.Infow("bad_request_body", "path", c.FullPath(), "err", err)
		}
		abortWithMessage(c, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
