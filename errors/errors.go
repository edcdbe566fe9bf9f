// Package errors provides error types and handling for transfer operations.
package errors

import (
	"errors"
	"fmt"
)

// Error represents a transfer operation error with context about the operation
// that failed. It wraps the underlying AWS SDK or filesystem error with
// additional context for better debugging.
type Error struct {
	// Op is the operation that failed (e.g., "upload", "resume", "abort")
	Op string

	// Bucket is the destination bucket name (if applicable)
	Bucket string

	// Key is the destination object key (if applicable)
	Key string

	// Err is the underlying error from the AWS SDK or other source
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	if e.Bucket != "" && e.Key != "" {
		return fmt.Sprintf("transfer.%s %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
	}
	if e.Bucket != "" {
		return fmt.Sprintf("transfer.%s bucket %s: %v", e.Op, e.Bucket, e.Err)
	}
	if e.Key != "" {
		return fmt.Sprintf("transfer.%s object %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("transfer.%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithBucket adds bucket context to an existing error.
func (e *Error) WithBucket(bucket string) *Error {
	e.Bucket = bucket
	return e
}

// WithKey adds object key context to an existing error.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// WithMessage wraps the underlying error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	e.Err = fmt.Errorf("%s: %w", message, e.Err)
	return e
}

// NewError creates a new Error with the given operation and underlying error.
func NewError(op string, err error) *Error {
	return &Error{
		Op:  op,
		Err: err,
	}
}

// NewObjectError creates a new Error with bucket and key context.
func NewObjectError(op, bucket, key string, err error) *Error {
	return &Error{
		Op:     op,
		Bucket: bucket,
		Key:    key,
		Err:    err,
	}
}

// Sentinel errors for common transfer operation failures.
// These can be used with errors.Is() for error checking.
var (
	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("transfer: invalid input")

	// ErrInvalidBucketName indicates that the bucket name is invalid
	ErrInvalidBucketName = errors.New("transfer: invalid bucket name")

	// ErrInvalidObjectKey indicates that the object key is invalid
	ErrInvalidObjectKey = errors.New("transfer: invalid object key")

	// ErrSourceRead indicates that the source file could not be read or statted.
	// Source errors are fatal and never retried.
	ErrSourceRead = errors.New("transfer: source read failed")

	// ErrNoSuchTransfer indicates that no transfer state is registered for the
	// requested bucket/key pair
	ErrNoSuchTransfer = errors.New("transfer: no such transfer")

	// ErrTransferIncomplete indicates that finalization was attempted with
	// fewer completed parts than planned
	ErrTransferIncomplete = errors.New("transfer: incomplete part set")

	// ErrTransferAborted indicates that the transfer observed its abort flag
	// mid-flight. It resolves the transfer without propagating as a failure.
	ErrTransferAborted = errors.New("transfer: aborted")
)

// IsSourceRead checks if an error indicates a source file failure.
func IsSourceRead(err error) bool {
	return errors.Is(err, ErrSourceRead)
}

// IsNoSuchTransfer checks if an error indicates a missing transfer state.
func IsNoSuchTransfer(err error) bool {
	return errors.Is(err, ErrNoSuchTransfer)
}

// IsTransferIncomplete checks if an error indicates a short part set at
// finalize time.
func IsTransferIncomplete(err error) bool {
	return errors.Is(err, ErrTransferIncomplete)
}

// IsAborted checks if an error indicates the transfer was aborted.
func IsAborted(err error) bool {
	return errors.Is(err, ErrTransferAborted)
}

// IsInvalidInput checks if an error indicates invalid input.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
