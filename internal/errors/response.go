package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error   string `json:"error"`   // code from codes.go
	Message string `json:"message"` // human readable
}

func RespondWithError(c *gin.Context, statusCode int, errorCode string, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   errorCode,
		Message: message,
	})
}

func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Authentication required"
	}
	RespondWithError(c, http.StatusUnauthorized, AuthUnauthorized, message)
}

func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "You do not have permission to perform this action"
	}
	RespondWithError(c, http.StatusForbidden, AuthzForbidden, message)
}

func BadRequest(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusBadRequest, errorCode, message)
}

func NotFound(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusNotFound, errorCode, message)
}

func Conflict(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusConflict, errorCode, message)
}

func TooManyRequests(c *gin.Context) {
	RespondWithError(c, http.StatusTooManyRequests, RateLimitExceeded, "Too many requests, please slow down")
}

func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "An unexpected error occurred, please try again later"
	}
	RespondWithError(c, http.StatusInternalServerError, InternalServerError, message)
}

// ValidationError carries per-field messages.
type ValidationError struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func RespondWithValidationError(c *gin.Context, fields map[string]string) {
	c.JSON(http.StatusBadRequest, ValidationError{
		Error:   ValidationInvalidInput,
		Message: "Request validation failed",
		Fields:  fields,
	})
}

// RespondWithBindingError answers a failed bind with field messages when
// the validator produced them and a plain 400 otherwise.
func RespondWithBindingError(c *gin.Context, err error) {
	if fields := FieldErrors(err); len(fields) > 0 {
		RespondWithValidationError(c, fields)
		return
	}
	BadRequest(c, ValidationInvalidInput, "Invalid request body")
}

// RespondWithPersistenceError answers a failed write with 500 and whatever
// field breakdown the database error reveals.
func RespondWithPersistenceError(c *gin.Context, code string, err error, context string) {
	info := ParseError(err, context)
	c.JSON(http.StatusInternalServerError, ValidationError{
		Error:   code,
		Message: info.Message,
		Fields:  FieldErrors(err),
	})
}
