package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAPIError_Error(t *testing.T) {
	err := &APIError{
		StatusCode: 503,
		Class:      ErrorClassServer,
		Message:    "503 Service Unavailable",
	}

	want := "catalog server error (status 503): 503 Service Unavailable"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestAPIError_Unwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := &APIError{Class: ErrorClassNetwork, Message: "request failed", Err: inner}

	if !errors.Is(err, inner) {
		t.Error("errors.Is must reach the wrapped error")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		resp *http.Response
		err  error
		want ErrorClass
	}{
		{
			name: "context cancelled",
			err:  fmt.Errorf("do: %w", context.Canceled),
			want: ErrorClassCancelled,
		},
		{
			name: "deadline exceeded is network, not cancellation",
			err:  fmt.Errorf("do: %w", context.DeadlineExceeded),
			want: ErrorClassNetwork,
		},
		{
			name: "generic transport error",
			err:  errors.New("connection reset"),
			want: ErrorClassNetwork,
		},
		{
			name: "server error",
			resp: &http.Response{StatusCode: 502},
			want: ErrorClassServer,
		},
		{
			name: "client error",
			resp: &http.Response{StatusCode: 404},
			want: ErrorClassClient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.resp, tt.err); got != tt.want {
				t.Errorf("classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		class ErrorClass
		want  bool
	}{
		{ErrorClassServer, true},
		{ErrorClassNetwork, true},
		{ErrorClassClient, false},
		{ErrorClassCancelled, false},
	}

	for _, tt := range tests {
		if got := shouldRetry(tt.class); got != tt.want {
			t.Errorf("shouldRetry(%q) = %v, want %v", tt.class, got, tt.want)
		}
	}
}

func TestIsCancelled(t *testing.T) {
	if !IsCancelled(fmt.Errorf("wrapped: %w", ErrCancelled)) {
		t.Error("Wrapped ErrCancelled must be detected")
	}
	if !IsCancelled(context.Canceled) {
		t.Error("context.Canceled must be detected")
	}
	if IsCancelled(context.DeadlineExceeded) {
		t.Error("A timeout must not read as cancellation")
	}
	if IsCancelled(errors.New("boom")) {
		t.Error("Generic errors must not read as cancellation")
	}
}
