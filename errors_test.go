package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
)

func TestClassifyNil(t *testing.T) {
	assert.NoError(t, classify("List", "b", "", nil))
}

func TestClassifyAPICodes(t *testing.T) {
	cases := []struct {
		code string
		want error
	}{
		{"NoSuchKey", ErrNotFound},
		{"NoSuchBucket", ErrNotFound},
		{"NotFound", ErrNotFound},
		{"AccessDenied", ErrAccessDenied},
		{"InvalidAccessKeyId", ErrAccessDenied},
		{"SignatureDoesNotMatch", ErrAccessDenied},
		{"SlowDown", ErrThrottled},
		{"Throttling", ErrThrottled},
		{"RequestLimitExceeded", ErrThrottled},
		{"InternalError", ErrTransient},
		{"SomethingNew", ErrTransient},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			err := classify("List", "b", "k", &smithy.GenericAPIError{Code: tc.code, Message: "x"})
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestClassifyModeledErrors(t *testing.T) {
	assert.ErrorIs(t, classify("Head", "b", "k", &types.NotFound{}), ErrNotFound)
	assert.ErrorIs(t, classify("Head", "b", "k", &types.NoSuchKey{}), ErrNotFound)
	assert.ErrorIs(t, classify("List", "b", "", &types.NoSuchBucket{}), ErrNotFound)
}

func TestClassifyContext(t *testing.T) {
	assert.ErrorIs(t, classify("List", "b", "", context.DeadlineExceeded), ErrTransient)

	// Cancellation is not a failure; it passes through for the job layer.
	err := classify("Download", "b", "k", context.Canceled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTransient)
}

func TestClassifyWrappedAPIError(t *testing.T) {
	inner := &smithy.GenericAPIError{Code: "AccessDenied"}
	err := classify("List", "b", "", fmt.Errorf("operation error S3: ListObjectsV2, %w", inner))
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestClassifyStringFallback(t *testing.T) {
	assert.ErrorIs(t, classify("List", "b", "", errors.New("https response error StatusCode: 403, AccessDenied")), ErrAccessDenied)
	assert.ErrorIs(t, classify("List", "b", "", errors.New("api error 503 Slow Down")), ErrThrottled)
	assert.ErrorIs(t, classify("List", "b", "", errors.New("dial tcp: connection refused")), ErrTransient)
}

func TestOpErrorMessage(t *testing.T) {
	err := classify("Download", "pics", "a/b.txt", &smithy.GenericAPIError{Code: "NoSuchKey"})
	assert.Equal(t, "Download pics/a/b.txt: not found", err.Error())

	var opErr *OpError
	assert.ErrorAs(t, err, &opErr)
	assert.Equal(t, "Download", opErr.Op)
}

func TestClassifyLocal(t *testing.T) {
	assert.NoError(t, classifyLocal("Upload", "/tmp/x", nil))
	err := classifyLocal("Upload", "/tmp/x", errors.New("no space left on device"))
	assert.ErrorIs(t, err, ErrLocalIO)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(classify("List", "b", "", &smithy.GenericAPIError{Code: "SlowDown"})))
	assert.False(t, IsRetryable(classify("List", "b", "", &smithy.GenericAPIError{Code: "AccessDenied"})))
	assert.False(t, IsRetryable(nil))
}
