package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	feedbackdomain "github.com/smallbiznis/tutorledger/internal/feedback/domain"
	guardiandomain "github.com/smallbiznis/tutorledger/internal/guardian/domain"
	invoicedomain "github.com/smallbiznis/tutorledger/internal/invoice/domain"
	lessondomain "github.com/smallbiznis/tutorledger/internal/lesson/domain"
	paymentdomain "github.com/smallbiznis/tutorledger/internal/payment/domain"
	studentdomain "github.com/smallbiznis/tutorledger/internal/student/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrRateLimited    = errors.New("rate_limited")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, invoicedomain.ErrCoverageSaveBusy):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return true
	case errors.Is(err, guardiandomain.ErrInvalidOrganization),
		errors.Is(err, guardiandomain.ErrInvalidID),
		errors.Is(err, guardiandomain.ErrInvalidName),
		errors.Is(err, guardiandomain.ErrInvalidEmail),
		errors.Is(err, guardiandomain.ErrInvalidRate),
		errors.Is(err, guardiandomain.ErrInvalidFeeMode):
		return true
	case errors.Is(err, studentdomain.ErrInvalidOrganization),
		errors.Is(err, studentdomain.ErrInvalidID),
		errors.Is(err, studentdomain.ErrInvalidName),
		errors.Is(err, studentdomain.ErrInvalidGuardian):
		return true
	case errors.Is(err, lessondomain.ErrInvalidOrganization),
		errors.Is(err, lessondomain.ErrInvalidID),
		errors.Is(err, lessondomain.ErrInvalidStudent),
		errors.Is(err, lessondomain.ErrInvalidGuardian),
		errors.Is(err, lessondomain.ErrInvalidStatus),
		errors.Is(err, lessondomain.ErrInvalidDuration):
		return true
	case errors.Is(err, invoicedomain.ErrInvalidOrganization),
		errors.Is(err, invoicedomain.ErrInvalidID),
		errors.Is(err, invoicedomain.ErrInvalidGuardian),
		errors.Is(err, invoicedomain.ErrInvalidSource),
		errors.Is(err, invoicedomain.ErrInvalidCoverage),
		errors.Is(err, invoicedomain.ErrInvalidAmounts):
		return true
	case errors.Is(err, paymentdomain.ErrInvalidOrganization),
		errors.Is(err, paymentdomain.ErrInvalidID),
		errors.Is(err, paymentdomain.ErrInvalidAmount),
		errors.Is(err, paymentdomain.ErrInvalidQuoteInput):
		return true
	case errors.Is(err, feedbackdomain.ErrInvalidOrganization),
		errors.Is(err, feedbackdomain.ErrInvalidID),
		errors.Is(err, feedbackdomain.ErrInvalidRating),
		errors.Is(err, feedbackdomain.ErrInvalidLesson),
		errors.Is(err, feedbackdomain.ErrMissingFilter):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, guardiandomain.ErrNotFound),
		errors.Is(err, studentdomain.ErrNotFound),
		errors.Is(err, lessondomain.ErrNotFound),
		errors.Is(err, invoicedomain.ErrNotFound),
		errors.Is(err, paymentdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	if errors.Is(err, ErrInvalidRequest) {
		return "invalid_request"
	}
	return err.Error()
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	default:
		return "invalid value"
	}
}

// classifyErrorForLog buckets an error for the request log so 4xx noise
// does not page anyone.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	switch {
	case status >= http.StatusInternalServerError:
		return "server_error", payload.Type
	case status == http.StatusTooManyRequests:
		return "rate_limited", payload.Type
	default:
		return "client_error", payload.Type
	}
}
