/**
 * Custom error types for the folio worker.
 *
 * Every failure the pipeline can produce carries a stable code so that
 * callers (and persisted error messages) can distinguish fatal run errors
 * from recoverable per-item ones without string matching.
 */

package errors

import (
	"errors"
	"fmt"
)

// ErrorCode enum for structured error handling
type ErrorCode string

const (
	// Fatal to a single OCR run
	ErrorImageLoad   ErrorCode = "IMAGE_LOAD_FAILED"
	ErrorRecognition ErrorCode = "RECOGNITION_FAILED"

	// Fatal, no state mutation
	ErrorTaskNotFound ErrorCode = "TASK_NOT_FOUND"

	// Recoverable per region in a batch
	ErrorTranslation ErrorCode = "TRANSLATION_FAILED"

	// Persistence layer failures
	ErrorStorage ErrorCode = "STORAGE_FAILED"
)

// PipelineError represents a structured worker error
type PipelineError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// HasCode reports whether err (or anything it wraps) is a PipelineError
// carrying the given code.
func HasCode(err error, code ErrorCode) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}

// Factory functions for the error taxonomy

func NewImageLoadError(path string, cause error) *PipelineError {
	return &PipelineError{
		Code:    ErrorImageLoad,
		Message: fmt.Sprintf("cannot decode source image %s", path),
		Cause:   cause,
	}
}

func NewRecognitionError(cause error) *PipelineError {
	return &PipelineError{
		Code:    ErrorRecognition,
		Message: "recognition engine failed",
		Cause:   cause,
	}
}

func NewTaskNotFoundError(taskID string) *PipelineError {
	return &PipelineError{
		Code:    ErrorTaskNotFound,
		Message: fmt.Sprintf("ocr task not found: %s", taskID),
	}
}

func NewTranslationError(regionID string, cause error) *PipelineError {
	return &PipelineError{
		Code:    ErrorTranslation,
		Message: fmt.Sprintf("translation failed for region %s", regionID),
		Cause:   cause,
	}
}

func NewStorageError(op string, cause error) *PipelineError {
	return &PipelineError{
		Code:    ErrorStorage,
		Message: fmt.Sprintf("storage operation %s failed", op),
		Cause:   cause,
	}
}
