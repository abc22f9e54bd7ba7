package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"pfline/internal/api/models"
	"pfline/internal/data"
	"pfline/internal/errs"
)

// requestError is a malformed request that never reached the core packages.
type requestError struct {
	msg   string
	cause error
}

func (e *requestError) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e *requestError) Unwrap() error { return e.cause }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

// wrapRequest prefixes err with context, keeping its classification.
func wrapRequest(err error, format string, args ...any) error {
	var re *requestError
	if errors.As(err, &re) {
		return &requestError{msg: fmt.Sprintf(format, args...), cause: err}
	}
	return errs.Wrap(err, errs.KindUnknown, format, args...)
}

// StatusFor maps an error kind to an HTTP status. Malformed input is a 400;
// well-formed input that cannot be reconciled is a 422.
func StatusFor(kind errs.Kind) int {
	switch kind {
	case errs.InvalidFrequency, errs.InvalidIndex, errs.DimensionalityMismatch,
		errs.UnsupportedDimension, errs.UnsupportedType, errs.DuplicateAttribute:
		return http.StatusBadRequest
	case errs.NoFullPeriods, errs.NoOverlap, errs.UnderdeterminedInput, errs.InconsistentInput:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// outcome is the metrics label of err.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var re *requestError
	if errors.As(err, &re) {
		return "INVALID_REQUEST"
	}
	return errs.KindOf(err).Code()
}

func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var gsErr *data.GridStatusError
	if errors.As(err, &gsErr) {
		statusCode := http.StatusBadRequest
		switch gsErr.StatusCode {
		case http.StatusForbidden, http.StatusUnauthorized:
			statusCode = http.StatusUnauthorized
		case http.StatusTooManyRequests:
			statusCode = http.StatusTooManyRequests
		}
		c.JSON(statusCode, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    gsErr.Code,
				Message: gsErr.Message,
				Details: map[string]interface{}{
					"status_code": gsErr.StatusCode,
					"retry_after": gsErr.RetryAfter,
				},
			},
		})
		return
	}

	var re *requestError
	if errors.As(err, &re) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: err.Error(),
			},
		})
		return
	}

	kind := errs.KindOf(err)
	code := kind.Code()
	if kind == errs.KindUnknown {
		code = "INTERNAL_ERROR"
	}
	c.JSON(StatusFor(kind), models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: err.Error(),
		},
	})
}
