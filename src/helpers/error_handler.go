package helpers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"forex-signal-bot/src/logger"
)

// NotEnoughDataTag is the report error string for short bar series.
const NotEnoughDataTag = "not_enough_data"

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type ForexBotError struct {
	Message string
	Cause   error
}

func (e *ForexBotError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ForexBotError) Unwrap() error {
	return e.Cause
}

// Plumbing errors
type ConfigurationError struct{ ForexBotError }
type NetworkError struct{ ForexBotError }
type DataSourceError struct{ ForexBotError }
type DatabaseError struct{ ForexBotError }
type ValidationError struct{ ForexBotError }

// InsufficientHistoryError means a series is shorter than a required window.
type InsufficientHistoryError struct {
	ForexBotError
	Indicator string
	Required  int
	Got       int
}

// UnsupportedTimeframeError is raised before any data request.
type UnsupportedTimeframeError struct {
	ForexBotError
	Timeframe string
}

// ComputationError wraps an unexpected failure inside one pair's analysis.
type ComputationError struct{ ForexBotError }

// -----------------------------------------------------------------------------

func NewInsufficientHistoryError(indicator string, required, got int) *InsufficientHistoryError {
	return &InsufficientHistoryError{
		ForexBotError: ForexBotError{Message: fmt.Sprintf("%s needs %d bars, got %d", indicator, required, got)},
		Indicator:     indicator,
		Required:      required,
		Got:           got,
	}
}

func NewUnsupportedTimeframeError(tf string) *UnsupportedTimeframeError {
	return &UnsupportedTimeframeError{
		ForexBotError: ForexBotError{Message: "Unsupported timeframe (use 5m, 15m, 4h)"},
		Timeframe:     tf,
	}
}

func NewComputationError(message string, cause error) *ComputationError {
	return &ComputationError{ForexBotError{Message: message, Cause: cause}}
}

func NewDataSourceError(message string, cause error) *DataSourceError {
	return &DataSourceError{ForexBotError{Message: message, Cause: cause}}
}

func NewNetworkError(message string, cause error) *NetworkError {
	return &NetworkError{ForexBotError{Message: message, Cause: cause}}
}

func NewDatabaseError(message string, cause error) *DatabaseError {
	return &DatabaseError{ForexBotError{Message: message, Cause: cause}}
}

func NewConfigurationError(message string, cause error) *ConfigurationError {
	return &ConfigurationError{ForexBotError{Message: message, Cause: cause}}
}

// -----------------------------------------------------------------------------

// IsInsufficientHistory reports whether err carries an InsufficientHistoryError.
func IsInsufficientHistory(err error) bool {
	var target *InsufficientHistoryError
	return errors.As(err, &target)
}

// IsUnsupportedTimeframe reports whether err carries an UnsupportedTimeframeError.
func IsUnsupportedTimeframe(err error) bool {
	var target *UnsupportedTimeframeError
	return errors.As(err, &target)
}

// ErrorTag maps an analysis error to the string stored in a report's error field.
func ErrorTag(err error) string {
	if err == nil {
		return ""
	}
	if IsInsufficientHistory(err) {
		return NotEnoughDataTag
	}
	return err.Error()
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// RetryWithBackoff runs fn up to maxRetries times, doubling baseDelay after each failure.
func RetryWithBackoff[T any](ctx context.Context, operation string, maxRetries int, baseDelay time.Duration, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	if maxRetries < 1 {
		maxRetries = 1
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		res, err := fn()
		if err == nil {
			return res, nil
		}

		lastErr = err
		if attempt == maxRetries-1 {
			break
		}

		delay := baseDelay * (1 << attempt)
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}

	return zero, fmt.Errorf("%s failed after %d attempts: %w", operation, maxRetries, lastErr)
}

// -----------------------------------------------------------------------------
// Error Handler
// -----------------------------------------------------------------------------

type ErrorHandler struct {
	Logger *logger.Logger

	count atomic.Int64
}

func NewErrorHandler(name string) *ErrorHandler {
	return &ErrorHandler{
		Logger: logger.NewLogger(nil, name),
	}
}

// -----------------------------------------------------------------------------

// Handle logs err with its context, classifying it by operation name.
func (e *ErrorHandler) Handle(err error, context string) error {
	if err == nil {
		return nil
	}
	e.count.Add(1)
	e.Logger.Error("Error in %s: %v", context, err)

	lowerOp := strings.ToLower(context)
	switch {
	case strings.Contains(lowerOp, "network") || strings.Contains(lowerOp, "telegram"):
		return NewNetworkError(context+" failed", err)
	case strings.Contains(lowerOp, "session") || strings.Contains(lowerOp, "database"):
		return NewDatabaseError(context+" failed", err)
	default:
		return &ForexBotError{Message: context + " failed", Cause: err}
	}
}

// -----------------------------------------------------------------------------

// ErrorCount returns how many errors have been handled.
func (e *ErrorHandler) ErrorCount() int64 {
	return e.count.Load()
}
