package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes carried by AppError. Each maps to exactly one HTTP status.
const (
	CodeNotFound     = "NOT_FOUND"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeConflict     = "CONFLICT"
	CodeValidation   = "VALIDATION_ERROR"
	CodeRateLimited  = "RATE_LIMITED"
	CodeUnavailable  = "SERVICE_UNAVAILABLE"
	CodeInternal     = "INTERNAL_ERROR"
)

// Reason codes refine a Code into a machine-checkable cause.
const (
	ReasonProfileNotFound  = "PROFILE_NOT_FOUND"
	ReasonProfileRequired  = "PROFILE_REQUIRED"
	ReasonEdgeNotFound     = "EDGE_NOT_FOUND"
	ReasonSelfFriendship   = "SELF_FRIENDSHIP"
	ReasonAlreadyFriends   = "ALREADY_FRIENDS"
	ReasonAlreadyRequested = "ALREADY_REQUESTED"
	ReasonAlreadyBlocked   = "ALREADY_BLOCKED"
	ReasonNotBlocked       = "NOT_BLOCKED"
	ReasonNotPending       = "NOT_PENDING"
	ReasonNotAuthorized    = "NOT_AUTHORIZED"
	ReasonFriendsOnly      = "FRIENDS_ONLY"
	ReasonDuplicate        = "DUPLICATE"
	ReasonSessionInvalid   = "SESSION_INVALID"
	ReasonGymaInProgress   = "GYMA_IN_PROGRESS"
	ReasonGymaNotStarted   = "GYMA_NOT_STARTED"
	ReasonGymaFinished     = "GYMA_FINISHED"
	ReasonEmailUnverified  = "EMAIL_UNVERIFIED"
	ReasonEmailTaken       = "EMAIL_TAKEN"
	ReasonAlreadyVerified  = "ALREADY_VERIFIED"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Reason  string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithReason returns a copy of the error carrying the given reason code.
func (e *AppError) WithReason(reason string) *AppError {
	cp := *e
	cp.Reason = reason
	return &cp
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

// NewProfileNotFoundError is returned for missing, solo and blocked profiles alike.
func NewProfileNotFoundError() *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Reason:  ReasonProfileNotFound,
		Message: "Profile does not exist",
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
	}
}

func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    CodeConflict,
		Message: message,
	}
}

func NewRateLimitedError(message string) *AppError {
	return &AppError{
		Code:    CodeRateLimited,
		Message: message,
	}
}

func NewUnavailableError(message string, err error) *AppError {
	return &AppError{
		Code:    CodeUnavailable,
		Message: message,
		Err:     err,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// IsCode reports whether err is an AppError with the given code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// HTTPStatus maps an error to the status used on the wire.
func HTTPStatus(err error) int {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}
	switch appErr.Code {
	case CodeNotFound:
		return fiber.StatusNotFound
	case CodeUnauthorized:
		return fiber.StatusUnauthorized
	case CodeForbidden:
		return fiber.StatusForbidden
	case CodeConflict:
		return fiber.StatusConflict
	case CodeValidation:
		return fiber.StatusBadRequest
	case CodeRateLimited:
		return fiber.StatusTooManyRequests
	case CodeUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// RespondWithError creates a standardized error response. Internal causes are
// never echoed to the client.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	var appErr *AppError
	if errors.As(err, &appErr) {
		response = ErrorResponse{
			Error:  appErr.Message,
			Code:   appErr.Code,
			Reason: appErr.Reason,
		}
		if appErr.Err != nil && appErr.Code != CodeInternal && appErr.Code != CodeUnavailable {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: "Internal server error",
			Code:  CodeInternal,
		}
	}

	return c.Status(status).JSON(response)
}

// Respond writes err with the status derived from its code.
func Respond(c *fiber.Ctx, err error) error {
	return RespondWithError(c, HTTPStatus(err), err)
}
