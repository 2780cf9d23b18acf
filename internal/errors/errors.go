package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"rfm-segmentation/internal/rfm"
)

type ErrorCode string

const (
	CodeInternal       ErrorCode = "INTERNAL_ERROR"
	CodeNotFound       ErrorCode = "NOT_FOUND"
	CodeBadRequest     ErrorCode = "BAD_REQUEST"
	CodeRateLimit      ErrorCode = "RATE_LIMIT_EXCEEDED"
	CodeServiceUnavail ErrorCode = "SERVICE_UNAVAILABLE"

	CodeMissingColumn ErrorCode = "MISSING_COLUMN"
	CodeInvalidValue  ErrorCode = "INVALID_VALUE"
	CodeBinning       ErrorCode = "BINNING_ERROR"
	CodeDomain        ErrorCode = "DOMAIN_ERROR"
)

type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"-"`
	Cause      error     `json:"-"`
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: getStatusCode(code),
		Timestamp:  time.Now().UTC(),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: getStatusCode(code),
		Cause:      err,
		Timestamp:  time.Now().UTC(),
	}
}

func Internal(message string) *AppError {
	return New(CodeInternal, message)
}

func InternalWrap(err error, message string) *AppError {
	return Wrap(err, CodeInternal, message)
}

func NotFound(message string) *AppError {
	return New(CodeNotFound, message)
}

func BadRequest(message string) *AppError {
	return New(CodeBadRequest, message)
}

func RateLimit(message string) *AppError {
	return New(CodeRateLimit, message)
}

func ServiceUnavailable(message string) *AppError {
	return New(CodeServiceUnavail, message)
}

// FromPipeline classifies a pipeline failure into an AppError carrying the
// offending column, metric or customer in Details.
func FromPipeline(err error) *AppError {
	var (
		appErr  *AppError
		missing *rfm.MissingColumnError
		invalid *rfm.InvalidValueError
		binning *rfm.BinningError
		domain  *rfm.DomainError
	)

	switch {
	case stderrors.As(err, &appErr):
		return appErr
	case stderrors.As(err, &missing):
		e := Wrap(err, CodeMissingColumn, "input is missing required columns")
		e.Details = fmt.Sprintf("columns=%v", missing.Columns)
		return e
	case stderrors.As(err, &invalid):
		e := Wrap(err, CodeInvalidValue, "input contains an invalid value")
		e.Details = fmt.Sprintf("column=%s row=%d value=%q reason=%s", invalid.Column, invalid.Row, invalid.Value, invalid.Reason)
		return e
	case stderrors.As(err, &binning):
		e := Wrap(err, CodeBinning, "cannot form quantile tiers")
		e.Details = fmt.Sprintf("metric=%s distinct=%d customers=%d", binning.Metric, binning.Distinct, binning.Customers)
		return e
	case stderrors.As(err, &domain):
		e := Wrap(err, CodeDomain, "score outside the valid range")
		e.Details = fmt.Sprintf("customer=%s %s=%d", domain.CustomerID, domain.Score, domain.Value)
		return e
	default:
		return InternalWrap(err, "An unexpected error occurred")
	}
}

func getStatusCode(code ErrorCode) int {
	switch code {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeRateLimit:
		return http.StatusTooManyRequests
	case CodeServiceUnavail:
		return http.StatusServiceUnavailable
	case CodeMissingColumn, CodeInvalidValue, CodeBinning:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

type ErrorResponse struct {
	Error   *AppError `json:"error"`
	Success bool      `json:"success"`
}

func WriteError(w http.ResponseWriter, logger *slog.Logger, err error, requestID string) {
	appErr := FromPipeline(err)

	appErr.RequestID = requestID

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)

	response := ErrorResponse{
		Error:   appErr,
		Success: false,
	}

	if encodeErr := json.NewEncoder(w).Encode(response); encodeErr != nil {
		logger.Error("failed to encode error response",
			"encode_error", encodeErr,
			"original_error", err,
			"request_id", requestID,
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	logLevel := slog.LevelError
	if appErr.StatusCode < 500 {
		logLevel = slog.LevelWarn
	}

	logger.Log(context.TODO(), logLevel, "request failed",
		"error_code", appErr.Code,
		"error_message", appErr.Message,
		"status_code", appErr.StatusCode,
		"request_id", requestID,
		"cause", appErr.Cause,
	)
}

type SuccessResponse struct {
	Data    any  `json:"data"`
	Success bool `json:"success"`
}

func WriteSuccess(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	response := SuccessResponse{
		Data:    data,
		Success: true,
	}

	json.NewEncoder(w).Encode(response)
}

func WriteSuccessWithHeaders(w http.ResponseWriter, data any, headers map[string]string) {
	for key, value := range headers {
		w.Header().Set(key, value)
	}
	WriteSuccess(w, data)
}
