package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// Sentinel errors for storage operations. Remote failures are always
// classified into exactly one of these before they reach the UI.
var (
	// ErrNotFound indicates the requested bucket or object does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAccessDenied indicates insufficient permissions.
	ErrAccessDenied = errors.New("access denied")

	// ErrThrottled indicates the request was rate limited by the service.
	// Retryable: the fetch layer retries it exactly once.
	ErrThrottled = errors.New("request throttled")

	// ErrTransient indicates a network failure or timeout. Retryable only
	// by explicit user action (reload / restart job).
	ErrTransient = errors.New("transient failure")

	// ErrLocalIO indicates a local filesystem failure during download or
	// upload (disk full, permission denied).
	ErrLocalIO = errors.New("local i/o failure")
)

// OpError wraps a storage error with the operation and target that failed.
type OpError struct {
	// Op is the operation that failed (e.g. "List", "Download").
	Op string

	// Bucket is the bucket name, if applicable.
	Bucket string

	// Key is the object key, if applicable.
	Key string

	// Err is the classified underlying error.
	Err error
}

func (e *OpError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
	}
	if e.Bucket != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Bucket, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *OpError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the error is worth one automatic retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrThrottled)
}

// classify maps an SDK error onto the sentinel taxonomy and wraps it in
// an OpError. A nil error passes through untouched.
func classify(op, bucket, key string, err error) error {
	if err == nil {
		return nil
	}

	wrapped := &OpError{Op: op, Bucket: bucket, Key: key, Err: ErrTransient}

	// Context expiry is handled identically to a network error.
	if errors.Is(err, context.DeadlineExceeded) {
		return wrapped
	}
	if errors.Is(err, context.Canceled) {
		wrapped.Err = context.Canceled
		return wrapped
	}

	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	var noSuchBucket *types.NoSuchBucket
	switch {
	case errors.As(err, &notFound), errors.As(err, &noSuchKey), errors.As(err, &noSuchBucket):
		wrapped.Err = ErrNotFound
		return wrapped
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NoSuchBucket", "NotFound":
			wrapped.Err = ErrNotFound
		case "AccessDenied", "Forbidden", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			wrapped.Err = ErrAccessDenied
		case "SlowDown", "Throttling", "ThrottlingException", "RequestLimitExceeded", "TooManyRequests":
			wrapped.Err = ErrThrottled
		}
		return wrapped
	}

	// Fallback for errors that lost their type through wrapping.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "NoSuchKey"), strings.Contains(msg, "NoSuchBucket"), strings.Contains(msg, "404"):
		wrapped.Err = ErrNotFound
	case strings.Contains(msg, "AccessDenied"), strings.Contains(msg, "403"):
		wrapped.Err = ErrAccessDenied
	case strings.Contains(msg, "SlowDown"), strings.Contains(msg, "503 Slow Down"), strings.Contains(msg, "429"):
		wrapped.Err = ErrThrottled
	}
	return wrapped
}

// classifyLocal wraps a filesystem error from a download/upload path.
func classifyLocal(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Key: path, Err: fmt.Errorf("%w: %v", ErrLocalIO, err)}
}
