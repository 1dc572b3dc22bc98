package handler

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"seikin/internal/domain"
)

// APIResponse is the standard envelope for error and simple responses.
// Analysis endpoints return their documented flat payloads on success.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "FILE_NOT_FOUND", "source file not found"
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "source file exceeds maximum allowed size"
	case errors.Is(err, domain.ErrInvalidPage):
		return http.StatusBadRequest, "INVALID_PAGE", err.Error()
	case errors.Is(err, domain.ErrCorruptDocument):
		return http.StatusUnprocessableEntity, "CORRUPT_DOCUMENT", "file cannot be parsed as a PDF"
	case errors.Is(err, domain.ErrMissingAPIKey):
		return http.StatusUnauthorized, "MISSING_API_KEY", "geminiApiKey is required"
	case errors.Is(err, domain.ErrAuthentication):
		return http.StatusUnauthorized, "AUTHENTICATION_FAILED", "gemini API key was rejected"
	case errors.Is(err, domain.ErrModelUnavailable):
		return http.StatusBadGateway, "MODEL_UNAVAILABLE", "gemini API is unavailable; try again later"
	case errors.Is(err, domain.ErrTruncatedOutput):
		return http.StatusBadGateway, "TRUNCATED_OUTPUT", "model output was truncated or unparsable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "REQUEST_TIMEOUT", "analysis did not complete within the request timeout"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		requestID, _ := c.Get("request_id")
		log.Printf("[%s] %s: %v", requestID, code, err)
	}
	RespondError(c, status, code, msg)
}
