// pkg/pipeline/error.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/David-Botos/event-lakehouse/pkg/store"
)

// ErrorCategory defines categories of errors that abort a run
type ErrorCategory int

const (
	ErrorCategoryNone ErrorCategory = iota
	// ErrorCategoryParseLevel covers input that cannot be mapped onto a table at all
	ErrorCategoryParseLevel
	// ErrorCategoryValidation covers results that fail a consistency check
	ErrorCategoryValidation
	// ErrorCategoryStorage covers an unavailable or failing store
	ErrorCategoryStorage
	// ErrorCategorySchema covers missing tables or unexpected column content
	ErrorCategorySchema
	// ErrorCategoryFatal is anything else, including cancellation
	ErrorCategoryFatal
)

// String returns a string representation of the error category
func (ec ErrorCategory) String() string {
	switch ec {
	case ErrorCategoryNone:
		return "None"
	case ErrorCategoryParseLevel:
		return "ParseLevel"
	case ErrorCategoryValidation:
		return "Validation"
	case ErrorCategoryStorage:
		return "Storage"
	case ErrorCategorySchema:
		return "Schema"
	case ErrorCategoryFatal:
		return "Fatal"
	default:
		return fmt.Sprintf("Unknown(%d)", ec)
	}
}

// MarshalText renders the category by name in JSON reports
func (ec ErrorCategory) MarshalText() ([]byte, error) {
	return []byte(ec.String()), nil
}

// ErrVerification is returned when stored row counts do not match what a stage reported
var ErrVerification = errors.New("verification failed")

// StageError is a failure of one pipeline stage
type StageError struct {
	Stage    Stage
	Category ErrorCategory
	Err      error
}

// Error implements error
func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed [%s]: %v", e.Stage, e.Category, e.Err)
}

// Unwrap returns the underlying error
func (e *StageError) Unwrap() error {
	return e.Err
}

// newStageError wraps err with its stage and category
func newStageError(stage Stage, err error) *StageError {
	return &StageError{Stage: stage, Category: CategorizeError(err), Err: err}
}

// CategorizeError determines the category of an error
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ErrorCategoryNone
	}

	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Category
	}

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrorCategoryFatal
	case errors.Is(err, store.ErrTableNotFound):
		return ErrorCategorySchema
	case errors.Is(err, ErrVerification):
		return ErrorCategoryValidation
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "do not reconcile"):
		return ErrorCategoryValidation
	case strings.Contains(msg, "parse") || strings.Contains(msg, "csv") || strings.Contains(msg, "json"):
		return ErrorCategoryParseLevel
	case strings.Contains(msg, "clean_") || strings.Contains(msg, "column"):
		return ErrorCategorySchema
	case strings.Contains(msg, "connection") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "transaction") ||
		strings.Contains(msg, "insert") ||
		strings.Contains(msg, "table"):
		return ErrorCategoryStorage
	default:
		return ErrorCategoryFatal
	}
}
