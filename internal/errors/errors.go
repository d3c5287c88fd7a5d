package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error types for common failure scenarios.
var (
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrNoActiveDevice     = errors.New("no active device")
	ErrDeviceNotFound     = errors.New("device not found")
	ErrTrackUnavailable   = errors.New("track unavailable")
	ErrCollectionNotFound = errors.New("collection not found")
	ErrPlayerStopped      = errors.New("player is not running")
	ErrPremiumRequired    = errors.New("spotify premium required")
	ErrRateLimited        = errors.New("rate limited")
	ErrNetworkError       = errors.New("network error")
	ErrTimeout            = errors.New("request timeout")
	ErrConfigNotFound     = errors.New("config file not found")
	ErrInvalidConfig      = errors.New("invalid configuration")
)

// CadenceError wraps an error with a user-friendly suggestion.
type CadenceError struct {
	Err        error
	Suggestion string
}

func (e *CadenceError) Error() string {
	return e.Err.Error()
}

func (e *CadenceError) Unwrap() error {
	return e.Err
}

// WithSuggestion wraps an error with a helpful suggestion.
func WithSuggestion(err error, suggestion string) error {
	return &CadenceError{
		Err:        err,
		Suggestion: suggestion,
	}
}

// GetSuggestion returns a suggestion for the given error.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	var cadenceErr *CadenceError
	if errors.As(err, &cadenceErr) && cadenceErr.Suggestion != "" {
		return cadenceErr.Suggestion
	}

	errStr := strings.ToLower(err.Error())

	switch {
	case errors.Is(err, ErrNotAuthenticated) || strings.Contains(errStr, "invalid access token") ||
		strings.Contains(errStr, "token expired") || strings.Contains(errStr, "invalid_grant"):
		return "Run 'cadence auth login' to authenticate with Spotify"

	case errors.Is(err, ErrNoActiveDevice) || strings.Contains(errStr, "no active device"):
		return "Open Spotify on a device, or set spotify.device (see 'cadence devices')"

	case errors.Is(err, ErrDeviceNotFound):
		return "Run 'cadence devices' to see available devices"

	case errors.Is(err, ErrPremiumRequired) || strings.Contains(errStr, "premium required") ||
		strings.Contains(errStr, "restricted device"):
		return "Playback control requires Spotify Premium. Try playback.engine = \"sim\" for a dry run"

	case errors.Is(err, ErrPlayerStopped):
		return "The player has shut down. Restart cadence"

	case errors.Is(err, ErrRateLimited) || strings.Contains(errStr, "429"):
		return "Too many requests. Wait a moment and try again"

	case errors.Is(err, ErrNetworkError) || errors.Is(err, ErrTimeout) ||
		strings.Contains(errStr, "timeout") || strings.Contains(errStr, "connection refused"):
		return "Check your internet connection and try again"

	case errors.Is(err, ErrConfigNotFound) || errors.Is(err, ErrInvalidConfig):
		return "Run 'cadence config init' to create a configuration file"

	case strings.Contains(errStr, "server error") || strings.Contains(errStr, "status 5"):
		return "Spotify is having issues. Try again in a moment"
	}

	return ""
}

// Format returns a formatted error message with suggestion if available.
func Format(err error) string {
	if err == nil {
		return ""
	}

	suggestion := GetSuggestion(err)
	if suggestion != "" {
		return fmt.Sprintf("Error: %s\n\nSuggestion: %s", err.Error(), suggestion)
	}

	return fmt.Sprintf("Error: %s", err.Error())
}

// PartialResult represents a result that may have partial failures.
type PartialResult[T any] struct {
	Data   T
	Errors []error
}

// HasErrors returns true if there were any errors.
func (p *PartialResult[T]) HasErrors() bool {
	return len(p.Errors) > 0
}

// AddError adds an error to the partial result.
func (p *PartialResult[T]) AddError(err error) {
	if err != nil {
		p.Errors = append(p.Errors, err)
	}
}

// ErrorSummary returns a summary of all errors.
func (p *PartialResult[T]) ErrorSummary() string {
	if len(p.Errors) == 0 {
		return ""
	}
	if len(p.Errors) == 1 {
		return p.Errors[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d errors occurred:\n", len(p.Errors))
	for i, err := range p.Errors {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}
