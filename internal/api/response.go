package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/linkedin-postgen/internal/errors"
)

// APIResponse is the envelope of every JSON response
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// APIError describes a failed request
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, &APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
		RequestID: c.GetString("request_id"),
	})
}

func failure(c *gin.Context, status int, apiErr *APIError) {
	c.JSON(status, &APIResponse{
		Success:   false,
		Error:     apiErr,
		Timestamp: time.Now(),
		RequestID: c.GetString("request_id"),
	})
}

// toAPIError maps an error to its HTTP status and envelope
func toAPIError(err error) (int, *APIError) {
	apiErr := &APIError{Code: apperrors.CodeOf(err), Message: err.Error()}

	switch {
	case apperrors.IsType(err, apperrors.ErrorTypeValidation):
		return http.StatusBadRequest, apiErr
	case apperrors.IsType(err, apperrors.ErrorTypeUpstream):
		// provider errors can echo request details; keep only the summary
		apiErr.Message = "text generation service failed"
		apiErr.Details = summary(err)
		return http.StatusBadGateway, apiErr
	case apperrors.IsType(err, apperrors.ErrorTypeNotFound):
		return http.StatusNotFound, apiErr
	default:
		apiErr.Message = "internal error"
		return http.StatusInternalServerError, apiErr
	}
}

func summary(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return ""
}
