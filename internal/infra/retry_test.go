package infra_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"capitals/internal/infra"
)

func fastRetry() infra.RetryConfig {
	return infra.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2}
}

func TestWithRetry(t *testing.T) {
	tests := []struct {
		name      string
		errs      []error
		wantCalls int
		wantErr   bool
	}{
		{"succeeds first time", []error{nil}, 1, false},
		{"recovers from a server error", []error{&infra.StatusError{Service: "test", Code: http.StatusBadGateway}, nil}, 2, false},
		{"gives up after max attempts", []error{errors.New("a"), errors.New("b"), errors.New("c")}, 3, true},
		{"stops on client error", []error{&infra.StatusError{Service: "test", Code: http.StatusUnauthorized}}, 1, true},
		{"stops on deadline", []error{context.DeadlineExceeded}, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := infra.WithRetry(context.Background(), fastRetry(), func() error {
				err := tt.errs[calls]
				calls++
				return err
			})

			if (err != nil) != tt.wantErr {
				t.Errorf("err: got %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls: got %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestIsRetryableHTTPStatus(t *testing.T) {
	for code, want := range map[int]bool{
		http.StatusTooManyRequests:     true,
		http.StatusInternalServerError: true,
		http.StatusServiceUnavailable:  true,
		http.StatusBadRequest:          false,
		http.StatusNotFound:            false,
	} {
		if got := infra.IsRetryableHTTPStatus(code); got != want {
			t.Errorf("%d: got %v, want %v", code, got, want)
		}
	}
}
