package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestGetSuggestion(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"not authenticated", fmt.Errorf("load token: %w", ErrNotAuthenticated), "cadence auth login"},
		{"no device", ErrNoActiveDevice, "spotify.device"},
		{"player stopped", fmt.Errorf("send: %w", ErrPlayerStopped), "Restart cadence"},
		{"rate limited text", errors.New("API error: status 429"), "Wait a moment"},
		{"explicit", WithSuggestion(errors.New("boom"), "do the thing"), "do the thing"},
		{"unknown", errors.New("something odd"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetSuggestion(tt.err)
			if tt.want == "" {
				if got != "" {
					t.Errorf("GetSuggestion() = %q, want empty", got)
				}
				return
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("GetSuggestion() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	if Format(nil) != "" {
		t.Error("Format(nil) should be empty")
	}

	got := Format(ErrCollectionNotFound)
	if got != "Error: collection not found" {
		t.Errorf("Format() = %q", got)
	}

	got = Format(WithSuggestion(ErrDeviceNotFound, "pick another"))
	if !strings.Contains(got, "Suggestion: pick another") {
		t.Errorf("Format() = %q, missing suggestion", got)
	}
}

func TestCadenceErrorUnwrap(t *testing.T) {
	err := WithSuggestion(ErrTrackUnavailable, "skip it")
	if !errors.Is(err, ErrTrackUnavailable) {
		t.Error("wrapped error should match sentinel")
	}
}

func TestPartialResult(t *testing.T) {
	var p PartialResult[int]
	if p.HasErrors() || p.ErrorSummary() != "" {
		t.Error("empty result should have no errors")
	}

	p.AddError(nil)
	p.AddError(errors.New("first"))
	if p.ErrorSummary() != "first" {
		t.Errorf("ErrorSummary() = %q", p.ErrorSummary())
	}

	p.AddError(errors.New("second"))
	summary := p.ErrorSummary()
	if !strings.HasPrefix(summary, "2 errors occurred") || !strings.Contains(summary, "2. second") {
		t.Errorf("ErrorSummary() = %q", summary)
	}
}
