// Package domain defines the core domain models for the collector.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// DomainError represents a domain error with a structured error code.
// Codes follow the UC-<AREA>-<NNNN> scheme.
type DomainError struct {
	Code    string // Error code (e.g., "UC-PERS-5001")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Capture Errors (CAPT)
// ============================================================================

var (
	// ErrDeviceUnavailable indicates no capture device could be reached.
	ErrDeviceUnavailable = NewDomainError("UC-CAPT-5030", "capture device unavailable")

	// ErrCaptureBlocked indicates the device returned an empty or blank frame,
	// typically because the foreground content is DRM protected.
	ErrCaptureBlocked = NewDomainError("UC-CAPT-4030", "capture blocked")

	// ErrCaptureDecode indicates the captured bytes are not a decodable image.
	ErrCaptureDecode = NewDomainError("UC-CAPT-4000", "captured frame is not a valid image")
)

// ============================================================================
// Placement Errors (PLAC)
// ============================================================================

var (
	// ErrPlacementRejected indicates an edit that is not allowed in the current state.
	ErrPlacementRejected = NewDomainError("UC-PLAC-4090", "placement rejected")

	// ErrNothingToUndo indicates the undo list of the active lane is empty.
	ErrNothingToUndo = NewDomainError("UC-PLAC-4091", "nothing to undo")

	// ErrNothingToRedo indicates the redo list of the active lane is empty.
	ErrNothingToRedo = NewDomainError("UC-PLAC-4092", "nothing to redo")

	// ErrDescriptionRequired indicates an empty description was submitted.
	ErrDescriptionRequired = NewDomainError("UC-PLAC-4001", "description is required")

	// ErrDuplicateDescription indicates the description repeats the last one
	// committed for the same screenshot. Callers may confirm and resubmit.
	ErrDuplicateDescription = NewDomainError("UC-PLAC-4093", "description already used for this screenshot")
)

// ============================================================================
// Persistence Errors (PERS)
// ============================================================================

var (
	// ErrPersistence indicates a dataset or image could not be written or read.
	ErrPersistence = NewDomainError("UC-PERS-5001", "persistence failed")

	// ErrMalformedDataset indicates an existing dataset file could not be parsed.
	ErrMalformedDataset = NewDomainError("UC-PERS-5002", "malformed dataset file")

	// ErrPartialCommit indicates the first dataset append succeeded but the second failed.
	ErrPartialCommit = NewDomainError("UC-PERS-5003", "partial commit")
)

// ============================================================================
// Upload Errors (UPLD)
// ============================================================================

var (
	// ErrUploadTransient indicates the sink could not be reached after all attempts.
	ErrUploadTransient = NewDomainError("UC-UPLD-5030", "upload failed, sink unreachable")

	// ErrUploadRejected indicates the sink refused the payload.
	ErrUploadRejected = NewDomainError("UC-UPLD-4000", "upload rejected by sink")

	// ErrUploadDisabled indicates no upload endpoint is configured.
	ErrUploadDisabled = NewDomainError("UC-UPLD-4040", "upload disabled")
)

// ============================================================================
// System and Argument Errors (SYS, ARG)
// ============================================================================

var (
	// ErrInternal indicates an unexpected internal error.
	ErrInternal = NewDomainError("UC-SYS-5000", "internal error")

	// ErrPipelineClosed indicates a commit was submitted after shutdown.
	ErrPipelineClosed = NewDomainError("UC-SYS-5031", "commit pipeline closed")

	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("UC-ARG-1001", "invalid argument")
)

// ============================================================================
// Recovery hints
// ============================================================================

// hints are shown next to an error in the interactive shell.
var hints = map[string]string{
	ErrDeviceUnavailable.Code:    "check `adb devices` and capture.serial",
	ErrCaptureBlocked.Code:       "the foreground app blocks screenshots; switch screens and capture again",
	ErrCaptureDecode.Code:        "the capture source returned something other than an image",
	ErrDuplicateDescription.Code: "type `confirm` to keep it or `desc` again to change it",
	ErrPartialCommit.Code:        "only the cube dataset has this entry; annotate the screenshot again to pair it",
	ErrMalformedDataset.Code:     "fix or move the dataset file; it is never reset automatically",
	ErrUploadTransient.Code:      "data is saved locally; run `retry uploads` once the sink is reachable",
	ErrUploadRejected.Code:       "the sink refused the payload; check upload.api_key and the sink logs",
	ErrUploadDisabled.Code:       "set upload.endpoint and upload.enabled to sync with a sink",
}

// Hint returns a recovery suggestion for err, or "" when none applies.
func Hint(err error) string {
	return hints[GetErrorCode(err)]
}

// Retryable reports whether repeating the operation later may succeed.
// Codes in the 5xxx range are environmental; 4xxx are caller errors.
func Retryable(err error) bool {
	code := GetErrorCode(err)
	i := strings.LastIndexByte(code, '-')
	return i >= 0 && i+1 < len(code) && code[i+1] == '5'
}
