package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Voxsel error code.
type ErrorCode string

const (
	ErrInvalidRequest    ErrorCode = "INVALID_REQUEST"     // 400
	ErrNotFound          ErrorCode = "NOT_FOUND"           // 404
	ErrNameAlreadyExists ErrorCode = "NAME_ALREADY_EXISTS" // 409
	ErrNothingToUndo     ErrorCode = "NOTHING_TO_UNDO"     // 409
	ErrNoPreview         ErrorCode = "NO_PREVIEW"          // 409
	ErrScanTooLarge      ErrorCode = "SCAN_TOO_LARGE"      // 413
	ErrInternal          ErrorCode = "INTERNAL"            // 500
)

// VoxselError represents a structured error with code, status, and details.
type VoxselError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *VoxselError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *VoxselError {
	return &VoxselError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing named selection set.
func NewNotFound(name string) *VoxselError {
	return &VoxselError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("selection set not found: %s", name),
		Details: map[string]any{"name": name},
	}
}

// NewNameAlreadyExists creates a 409 error for name collisions.
func NewNameAlreadyExists(name string) *VoxselError {
	return &VoxselError{
		Code:    ErrNameAlreadyExists,
		Status:  409,
		Message: fmt.Sprintf("selection set %q already exists", name),
		Details: map[string]any{"name": name},
	}
}

// NewNothingToUndo creates a 409 error when the requested history stack is empty.
func NewNothingToUndo(stack string) *VoxselError {
	return &VoxselError{
		Code:    ErrNothingToUndo,
		Status:  409,
		Message: fmt.Sprintf("%s history is empty", stack),
		Details: map[string]any{"stack": stack},
	}
}

// NewNoPreview creates a 409 error when no preview selection is pending.
func NewNoPreview() *VoxselError {
	return &VoxselError{
		Code:    ErrNoPreview,
		Status:  409,
		Message: "no preview selection is pending",
	}
}

// NewScanTooLarge creates a 413 error when a scan exceeds the cell cap.
func NewScanTooLarge(max, actual int64) *VoxselError {
	return &VoxselError{
		Code:    ErrScanTooLarge,
		Status:  413,
		Message: fmt.Sprintf("selection scan would visit %d cells (max %d)", actual, max),
		Details: map[string]any{"max_cells": max, "actual_cells": actual},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
// The message stays generic; the cause is kept in Details for logging.
func NewInternal(err error) *VoxselError {
	details := map[string]any{}
	if err != nil {
		details["internal_error"] = err.Error()
	}
	return &VoxselError{
		Code:    ErrInternal,
		Status:  500,
		Message: "an internal error occurred",
		Details: details,
	}
}

// As returns the VoxselError in err's chain, if any.
func As(err error) (*VoxselError, bool) {
	var vErr *VoxselError
	if stderrors.As(err, &vErr) {
		return vErr, true
	}
	return nil, false
}

// Is checks if an error is a VoxselError with the given code.
func Is(err error, code ErrorCode) bool {
	if vErr, ok := As(err); ok {
		return vErr.Code == code
	}
	return false
}
