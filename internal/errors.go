package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation ErrorType = "VALIDATION_ERROR"
	ErrorTypeConflict   ErrorType = "CONFLICT"
	ErrorTypeInternal   ErrorType = "INTERNAL_ERROR"
	ErrorTypeExternal   ErrorType = "EXTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed  ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidCustomerID ErrorCode = "INVALID_CUSTOMER_ID"
	ErrCodeInvalidPayeeID    ErrorCode = "INVALID_PAYEE_ID"
	ErrCodeInvalidAmount     ErrorCode = "INVALID_AMOUNT"
	ErrCodeAmountTooLow      ErrorCode = "AMOUNT_TOO_LOW"
	ErrCodeAmountTooHigh     ErrorCode = "AMOUNT_TOO_HIGH"
	ErrCodeInvalidCurrency   ErrorCode = "INVALID_CURRENCY"

	ErrCodeRequestFailed      ErrorCode = "REQUEST_FAILED"
	ErrCodeSubmissionInFlight ErrorCode = "SUBMISSION_IN_FLIGHT"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok {
			if len(validationErrors.Errors) == 1 {
				return validationErrors.Errors[0].Message
			} else if len(validationErrors.Errors) > 1 {
				messages := make([]string, len(validationErrors.Errors))
				for i, err := range validationErrors.Errors {
					messages[i] = err.Message
				}
				return strings.Join(messages, "; ")
			}
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// Fields lists the names of the fields that failed validation.
func (e *AppError) Fields() []string {
	validationErrors, ok := e.Details.(ValidationErrors)
	if !ok {
		return nil
	}
	fields := make([]string, 0, len(validationErrors.Errors))
	for _, err := range validationErrors.Errors {
		fields = append(fields, err.Field)
	}
	return fields
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewRequestFailedError reports a failed call to the decision service.
// statusCode is the upstream HTTP status, or 0 when no response arrived.
func NewRequestFailedError(message string, statusCode int, cause error) *AppError {
	if statusCode < http.StatusBadRequest {
		statusCode = http.StatusBadGateway
	}
	return &AppError{
		Type:       ErrorTypeExternal,
		Code:       ErrCodeRequestFailed,
		Message:    message,
		StatusCode: statusCode,
		Cause:      cause,
	}
}

var (
	ErrSubmissionInFlight = NewConflictError("a payment request is already being processed", ErrCodeSubmissionInFlight)
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsRequestFailed reports whether err is a decision-service failure.
func IsRequestFailed(err error) bool {
	appErr, ok := IsAppError(err)
	return ok && appErr.Code == ErrCodeRequestFailed
}

// Response is the error body of the JSON API. It mirrors the decision
// service so clients parse both the same way.
type Response struct {
	Detail string            `json:"detail"`
	Code   ErrorCode         `json:"code,omitempty"`
	Errors []ValidationError `json:"errors,omitempty"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	resp := Response{Detail: e.GetDetailedMessage(), Code: e.Code}
	if validationErrors, ok := e.Details.(ValidationErrors); ok {
		resp.Errors = validationErrors.Errors
	}
	return e.StatusCode, resp
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
