package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes
const (
	// Authentication errors
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"

	// Authorization errors
	ErrCodeForbidden = "FORBIDDEN"

	// Validation errors
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeInvalidDepartment = "INVALID_DEPARTMENT"
	ErrCodeInvalidAssignee   = "INVALID_ASSIGNEE"

	// Resource errors
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeUserNotFound     = "USER_NOT_FOUND"
	ErrCodeAlreadySubmitted = "ALREADY_SUBMITTED"
	ErrCodeConflict         = "CONFLICT"

	// Service errors
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// APIError represents a standardized API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new APIError
func NewAPIError(code, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
	}
}

type errorKind struct {
	status         int
	defaultMessage string
}

var kinds = map[string]errorKind{
	ErrCodeUnauthorized:       {http.StatusUnauthorized, "Authentication required"},
	ErrCodeInvalidCredentials: {http.StatusUnauthorized, "Invalid username or password"},
	ErrCodeForbidden:          {http.StatusForbidden, "Access denied"},
	ErrCodeInvalidInput:       {http.StatusBadRequest, "Invalid request"},
	ErrCodeInvalidDepartment:  {http.StatusBadRequest, "Invalid department"},
	ErrCodeInvalidAssignee:    {http.StatusBadRequest, "Invalid assignee"},
	ErrCodeNotFound:           {http.StatusNotFound, "Resource not found"},
	ErrCodeUserNotFound:       {http.StatusNotFound, "User not found"},
	ErrCodeAlreadySubmitted:   {http.StatusConflict, "Work log already submitted for this date"},
	ErrCodeConflict:           {http.StatusConflict, "Resource conflict"},
	ErrCodeInternalError:      {http.StatusInternalServerError, "Internal server error"},
	ErrCodeServiceUnavailable: {http.StatusServiceUnavailable, "Service temporarily unavailable"},
}

// RespondWithError sends an error response and stops the handler chain
func RespondWithError(c *gin.Context, statusCode int, err *APIError) {
	c.AbortWithStatusJSON(statusCode, err)
}

// Respond sends the error registered for code; an empty message uses the code's default
func Respond(c *gin.Context, code, message string) {
	kind, ok := kinds[code]
	if !ok {
		kind = kinds[ErrCodeInternalError]
		code = ErrCodeInternalError
	}
	if message == "" {
		message = kind.defaultMessage
	}
	RespondWithError(c, kind.status, NewAPIError(code, message))
}

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) { Respond(c, ErrCodeUnauthorized, message) }

// InvalidCredentials sends a 401 response for a failed login
func InvalidCredentials(c *gin.Context) { Respond(c, ErrCodeInvalidCredentials, "") }

// Forbidden sends a 403 response
func Forbidden(c *gin.Context, message string) { Respond(c, ErrCodeForbidden, message) }

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) { Respond(c, ErrCodeInvalidInput, message) }

// InvalidDepartment sends a 400 response for a department outside the allowed set
func InvalidDepartment(c *gin.Context, message string) {
	Respond(c, ErrCodeInvalidDepartment, message)
}

// InvalidAssignee sends a 400 response for an assignee that cannot take the task
func InvalidAssignee(c *gin.Context, message string) { Respond(c, ErrCodeInvalidAssignee, message) }

// NotFound sends a 404 response
func NotFound(c *gin.Context, message string) { Respond(c, ErrCodeNotFound, message) }

// UserNotFound sends a 404 response for an unknown user or token
func UserNotFound(c *gin.Context, message string) { Respond(c, ErrCodeUserNotFound, message) }

// AlreadySubmitted sends a 409 response when a work log already exists for the day
func AlreadySubmitted(c *gin.Context, message string) {
	Respond(c, ErrCodeAlreadySubmitted, message)
}

// Conflict sends a 409 response
func Conflict(c *gin.Context, message string) { Respond(c, ErrCodeConflict, message) }

// InternalError sends a 500 response
func InternalError(c *gin.Context, message string) { Respond(c, ErrCodeInternalError, message) }

// ServiceUnavailable sends a 503 response
func ServiceUnavailable(c *gin.Context, message string) {
	Respond(c, ErrCodeServiceUnavailable, message)
}
