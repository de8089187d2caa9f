package errors

import (
	"net/http"
	"strings"

	"codeberg.org/avksport/server/internal/logger"
	"github.com/gin-gonic/gin"
)

// Error Handling Guidelines:
//
// For HTTP REST handlers:
//   - Use errors.InternalError(), errors.BadRequest(), etc. for critical errors
//     These functions handle both logging and HTTP response automatically
//   - Use logger.ErrorErr() only for non-critical errors where processing continues
//   - Never call both logger.ErrorErr() and errors.InternalError() for the same error
//   - Authentication failures use fixed messages; never echo whether an account exists
//
// For services/repositories/internal packages:
//   - Return wrapped errors with context using fmt.Errorf("context: %w", err)
//   - Let the caller (handler) decide how to log and respond
//   - Do not log errors in non-handler code (avoid double logging)

// standard error codes
const (
	CodeUnauthorized       = "unauthorized"
	CodeForbidden          = "forbidden"
	CodeNotFound           = "not_found"
	CodeValidationError    = "validation_error"
	CodeServerError        = "server_error"
	CodeBadRequest         = "bad_request"
	CodeConflict           = "conflict"
	CodeTooManyRequests    = "too_many_requests"
	CodeServiceUnavailable = "service_unavailable"
	CodeInvalidToken       = "invalid_token"
)

// returns a 401 unauthorized error
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "authentication required"
	}

	c.JSON(http.StatusUnauthorized, ErrorResponse{
		Error:   CodeUnauthorized,
		Message: message,
	})
}

// returns a 403 forbidden error
func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "permission denied"
	}

	c.JSON(http.StatusForbidden, ErrorResponse{
		Error:   CodeForbidden,
		Message: message,
	})
}

// returns a 404 not found error
func NotFound(c *gin.Context, resource string) {
	message := "resource not found"

	if resource != "" {
		message = resource + " not found"
	}

	c.JSON(http.StatusNotFound, ErrorResponse{
		Error:   CodeNotFound,
		Message: message,
	})
}

// returns a 400 bad request error
func BadRequest(c *gin.Context, message string, err error) {
	if message == "" {
		message = "invalid request"
	}

	response := ErrorResponse{
		Error:   CodeBadRequest,
		Message: message,
	}

	if err != nil {
		response.Details = sanitizeError(err)
	}

	c.JSON(http.StatusBadRequest, response)
}

// returns a 400 error for tokens that cannot be used for the requested operation
func InvalidToken(c *gin.Context, message string) {
	if message == "" {
		message = "invalid or expired token"
	}

	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   CodeInvalidToken,
		Message: message,
	})
}

// returns a 400 bad request error for validation failures
func ValidationError(c *gin.Context, err error) {
	message := "validation failed"
	details := ""

	if err != nil {
		details = sanitizeError(err)
		if strings.Contains(err.Error(), "binding") || strings.Contains(err.Error(), "validation") {
			message = "request validation failed"
		}
	}

	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   CodeValidationError,
		Message: message,
		Details: details,
	})
}

// returns a 500 internal server error
func InternalError(c *gin.Context, message string, err error) {
	if message == "" {
		message = "an error occurred"
	}

	// log full error server-side with context; the request logger carries user_id once authenticated
	logger.FromContext(c.Request.Context()).Error(message,
		"error", err,
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
		"category", classifyError(err).category,
	)

	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   CodeServerError,
		Message: message,
		Details: sanitizeError(err),
	})
}

// returns a 503 when an upstream dependency cannot be reached
func ServiceUnavailable(c *gin.Context, message string, err error) {
	if message == "" {
		message = "service temporarily unavailable"
	}

	logger.FromContext(c.Request.Context()).Error(message,
		"error", err,
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	)

	c.JSON(http.StatusServiceUnavailable, ErrorResponse{
		Error:   CodeServiceUnavailable,
		Message: message,
	})
}

// returns a conflict error; the original storefront clients expect 400 here
func Conflict(c *gin.Context, message string) {
	if message == "" {
		message = "resource conflict"
	}

	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   CodeConflict,
		Message: message,
	})
}

// returns a 429 too many requests error
func TooManyRequests(c *gin.Context, message string) {
	if message == "" {
		message = "too many requests"
	}

	c.JSON(http.StatusTooManyRequests, ErrorResponse{
		Error:   CodeTooManyRequests,
		Message: message,
	})
}

// sanitizes error messages for production
func sanitizeError(err error) string {
	if err == nil {
		return ""
	}

	return classifyError(err).sanitized
}
