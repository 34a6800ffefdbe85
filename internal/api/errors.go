package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/pricecmp/internal/catalog"
	"github.com/ppiankov/pricecmp/internal/compare"
	"github.com/ppiankov/pricecmp/internal/logging"
	"github.com/ppiankov/pricecmp/internal/quantity"
	"github.com/ppiankov/pricecmp/internal/shoplist"
	"github.com/ppiankov/pricecmp/internal/validate"
)

type ErrorType string

const (
	ErrorTypeValidation  ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound    ErrorType = "NOT_FOUND"
	ErrorTypeConflict    ErrorType = "CONFLICT"
	ErrorTypeRateLimited ErrorType = "RATE_LIMITED"
	ErrorTypeInternal    ErrorType = "INTERNAL_ERROR"
)

type APIError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Error constructors
func NewValidationError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

func NewMissingParamError(params ...string) *APIError {
	return &APIError{
		Type:    ErrorTypeValidation,
		Message: "missing parameters",
		Details: params,
	}
}

func NewNotFoundError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

func NewRateLimitedError() *APIError {
	return &APIError{
		Type:    ErrorTypeRateLimited,
		Message: "too many requests",
	}
}

func NewInternalError(err error) *APIError {
	return &APIError{
		Type:    ErrorTypeInternal,
		Message: "Internal server error",
		Details: err.Error(),
	}
}

// FromError classifies err by the sentinel errors it wraps
func FromError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	typ := ErrorTypeInternal
	switch {
	case errors.Is(err, validate.ErrInvalidInput),
		errors.Is(err, quantity.ErrInvalidFormat),
		errors.Is(err, quantity.ErrUnknownUnit),
		errors.Is(err, compare.ErrNoQuantity),
		errors.Is(err, compare.ErrIncompatibleUnits),
		errors.Is(err, catalog.ErrFull),
		errors.Is(err, shoplist.ErrFull):
		typ = ErrorTypeValidation
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, catalog.ErrEntryNotFound),
		errors.Is(err, compare.ErrNoMatch),
		errors.Is(err, shoplist.ErrIndex):
		typ = ErrorTypeNotFound
	case errors.Is(err, catalog.ErrExists):
		typ = ErrorTypeConflict
	}

	if typ == ErrorTypeInternal {
		return NewInternalError(err)
	}
	return &APIError{Type: typ, Message: err.Error()}
}

// Status returns the HTTP status for an error type
func (t ErrorType) Status() int {
	switch t {
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeConflict:
		return http.StatusConflict
	case ErrorTypeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleError(c *gin.Context, err error) {
	apiErr := FromError(err)
	status := apiErr.Type.Status()
	if status >= http.StatusInternalServerError {
		s.log.WithError(err).WithFields(logging.Fields{
			"request_id": c.GetString(requestIDKey),
			"path":       c.Request.URL.Path,
		}).Error("request failed")
	}
	c.AbortWithStatusJSON(status, apiErr)
}

func paramError(field string, err error) error {
	return fmt.Errorf("%s: %w", field, err)
}
