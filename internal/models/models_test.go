package models

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lberthe/atelier/internal/config"
)

func TestCreateModelUnknownProvider(t *testing.T) {
	_, err := CreateModel(context.Background(), config.ProviderConfig{Provider: "anthropic"})
	if err == nil {
		t.Fatal("expected error for unknown provider kind")
	}
	if !strings.Contains(err.Error(), "unknown provider kind") {
		t.Errorf("error: got %q", err)
	}
}

func TestHandleErrorClassification(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"HTTP 401 Unauthorized", "authentication failed"},
		{"429 too many requests", "rate limited"},
		{"prompt exceeds context length", "context too long"},
		{"model not found", "model not found"},
		{"dial tcp: connection refused", "connection error"},
	}

	for _, tc := range tests {
		got := HandleError(errors.New(tc.in))
		if got == nil || !strings.Contains(got.Error(), tc.want) {
			t.Errorf("HandleError(%q): got %v, want prefix %q", tc.in, got, tc.want)
		}
	}

	if HandleError(nil) != nil {
		t.Error("HandleError(nil) should be nil")
	}
}

func TestErrModelUnavailable(t *testing.T) {
	cause := errors.New("proxy down")
	err := &ErrModelUnavailable{Provider: "ollama", Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("expected Unwrap to expose cause")
	}
	if !strings.Contains(err.Error(), "ollama") {
		t.Errorf("error: got %q", err)
	}

	bodyErr := &ErrModelUnavailable{Provider: "ollama", Body: "no available server"}
	if !strings.Contains(bodyErr.Error(), "no available server") {
		t.Errorf("error: got %q", bodyErr)
	}
}
