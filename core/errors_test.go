package core

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		sentinel   error
	}{
		{
			name:       "deadline exceeded becomes timeout",
			err:        context.DeadlineExceeded,
			wantStatus: 408,
			wantCode:   CodeTimeout,
			sentinel:   ErrTimeout,
		},
		{
			name:       "wrapped deadline becomes timeout",
			err:        &url.Error{Op: "Post", URL: "http://x", Err: context.DeadlineExceeded},
			wantStatus: 408,
			wantCode:   CodeTimeout,
			sentinel:   ErrTimeout,
		},
		{
			name:       "cancellation becomes timeout",
			err:        context.Canceled,
			wantStatus: 408,
			wantCode:   CodeTimeout,
			sentinel:   ErrTimeout,
		},
		{
			name:       "dns failure becomes network error with status zero",
			err:        &net.DNSError{Err: "no such host", Name: "backend"},
			wantStatus: 0,
			wantCode:   CodeNetworkError,
			sentinel:   ErrNetwork,
		},
		{
			name:       "connection refused becomes network error",
			err:        &url.Error{Op: "Post", URL: "http://x", Err: &net.OpError{Op: "dial", Err: errors.New("connection refused")}},
			wantStatus: 0,
			wantCode:   CodeNetworkError,
			sentinel:   ErrNetwork,
		},
		{
			name:       "anything else becomes unknown",
			err:        errors.New("boom"),
			wantStatus: 500,
			wantCode:   CodeUnknownError,
			sentinel:   ErrUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if got.Status != tt.wantStatus {
				t.Errorf("Status = %d, want %d", got.Status, tt.wantStatus)
			}
			if got.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", got.Code, tt.wantCode)
			}
			if !errors.Is(got, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", got, tt.sentinel)
			}
			if got.Message == "" {
				t.Error("Message is empty")
			}
		})
	}
}

func TestClassifyPassthrough(t *testing.T) {
	orig := &APIError{Status: 400, Code: "102", Message: "bad request", Err: ErrBusiness}

	if got := Classify(orig); got != orig {
		t.Errorf("Classify rewrapped an APIError: %v", got)
	}

	wrapped := fmt.Errorf("attempt 2: %w", orig)
	if got := Classify(wrapped); got != orig {
		t.Errorf("Classify did not unwrap to the original APIError: %v", got)
	}
}

func TestAPIErrorError(t *testing.T) {
	err := &APIError{Status: 408, Code: CodeTimeout, Message: "request timed out", Err: ErrTimeout}
	want := "ragline: request timed out (status=408, code=TIMEOUT)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
