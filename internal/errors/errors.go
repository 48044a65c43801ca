package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/momcare/mealplan/backend/internal/types"
)

// ErrorType represents different types of errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeConstraint ErrorType = "constraint"
	ErrorTypeDatabase   ErrorType = "database"
	ErrorTypeExternal   ErrorType = "external_api"
	ErrorTypeTimeout    ErrorType = "timeout"
	ErrorTypeInternal   ErrorType = "internal"
)

// Sentinels for errors.Is checks against the typed errors below
var (
	ErrInvalidDate           = errors.New("invalid date")
	ErrNoEligibleItems       = errors.New("no eligible items")
	ErrExternalLookupTimeout = errors.New("external lookup timeout")
)

// InvalidDateError is returned when the reference, conception or due date is malformed
// or outside the tracked pregnancy window. It is fatal to the planning cycle.
type InvalidDateError struct {
	Reason    string
	Reference time.Time
}

func (e *InvalidDateError) Error() string {
	if e.Reference.IsZero() {
		return fmt.Sprintf("invalid date: %s", e.Reason)
	}
	return fmt.Sprintf("invalid date: %s (reference %s)", e.Reason, e.Reference.Format(types.DateLayout))
}

func (e *InvalidDateError) Is(target error) bool {
	return target == ErrInvalidDate
}

// NoEligibleItemsError is returned when the hard constraints (allergens, dietary
// preference, repetition) leave nothing for a meal slot.
type NoEligibleItemsError struct {
	UserID string
	Slot   types.MealSlot
}

func (e *NoEligibleItemsError) Error() string {
	return fmt.Sprintf("no eligible items for slot %s (user %s)", e.Slot, e.UserID)
}

func (e *NoEligibleItemsError) Is(target error) bool {
	return target == ErrNoEligibleItems
}

// ExternalLookupTimeout wraps a failed or timed-out enrichment call. Callers recover
// from it locally and never surface it as a cycle failure.
type ExternalLookupTimeout struct {
	Operation string
	Err       error
}

func (e *ExternalLookupTimeout) Error() string {
	return fmt.Sprintf("%s lookup unavailable: %v", e.Operation, e.Err)
}

func (e *ExternalLookupTimeout) Unwrap() error {
	return e.Err
}

func (e *ExternalLookupTimeout) Is(target error) bool {
	return target == ErrExternalLookupTimeout
}

// AppError represents an application error with additional context
type AppError struct {
	Type     ErrorType
	Code     string
	Message  string
	Internal error
	Context  map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the internal error
func (e *AppError) Unwrap() error {
	return e.Internal
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// LogFields returns structured logging fields
func (e *AppError) LogFields() []interface{} {
	fields := []interface{}{
		"error_type", e.Type,
		"error_code", e.Code,
		"error_message", e.Message,
	}
	if e.Internal != nil {
		fields = append(fields, "internal_error", e.Internal.Error())
	}
	for k, v := range e.Context {
		fields = append(fields, k, v)
	}
	return fields
}

// Wrap wraps an existing error into AppError
func Wrap(err error, errorType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:     errorType,
		Code:     code,
		Message:  message,
		Internal: err,
		Context:  make(map[string]interface{}),
	}
}

// Classify maps any error returned by the engine onto an AppError
func Classify(err error) *AppError {
	var appErr *AppError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, ErrInvalidDate):
		return Wrap(err, ErrorTypeValidation, "INVALID_DATE", "pregnancy dates out of range")
	case errors.Is(err, ErrNoEligibleItems):
		return Wrap(err, ErrorTypeConstraint, "NO_ELIGIBLE_ITEMS", "hard constraints left a meal slot empty")
	case errors.Is(err, ErrExternalLookupTimeout), errors.Is(err, context.DeadlineExceeded):
		return Wrap(err, ErrorTypeTimeout, "TIMEOUT", "external lookup timed out")
	default:
		return Wrap(err, ErrorTypeInternal, "INTERNAL", "internal error")
	}
}

// Handler provides error handling strategies
type Handler struct {
	logger *slog.Logger
}

// NewHandler creates a new error handler
func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{logger: logger}
}

// Handle logs an error according to its type
func (h *Handler) Handle(ctx context.Context, err error) {
	appErr := Classify(err)
	if appErr == nil {
		return
	}

	switch appErr.Type {
	case ErrorTypeValidation, ErrorTypeConstraint:
		h.logger.WarnContext(ctx, "Planning cycle rejected", appErr.LogFields()...)
	case ErrorTypeTimeout, ErrorTypeExternal:
		h.logger.WarnContext(ctx, "External dependency degraded", appErr.LogFields()...)
	default:
		h.logger.ErrorContext(ctx, "Planning cycle failed", appErr.LogFields()...)
	}
}
