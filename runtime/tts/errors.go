package tts

import (
	"errors"
	"fmt"
)

// Common TTS errors.
var (
	// ErrConnectivity is matched by every ConnectivityError.
	ErrConnectivity = errors.New("TTS service unreachable")

	// ErrVoiceNotFound is matched by every VoiceNotFoundError.
	ErrVoiceNotFound = errors.New("voice not found")

	// ErrInvalidCatalog is returned (wrapped in a RemoteError) when the speaker
	// list does not have the expected shape.
	ErrInvalidCatalog = errors.New("invalid speaker list")

	// ErrUnknownSetting is returned when updating a field that is not a
	// recognised settings key.
	ErrUnknownSetting = errors.New("unknown setting")

	// ErrInvalidSettingValue is returned when a settings value cannot be
	// converted to the field's type.
	ErrInvalidSettingValue = errors.New("invalid setting value")

	// ErrSynthesisFailed is matched by every SynthesisError.
	ErrSynthesisFailed = errors.New("speech synthesis failed")
)

// ConnectivityError reports a transport-level failure reaching the endpoint.
type ConnectivityError struct {
	// Op is the adapter operation ("refresh" or "synthesize").
	Op string

	// URL is the request URL.
	URL string

	// Cause is the underlying transport error.
	Cause error
}

// Error implements the error interface.
func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Cause)
}

// Unwrap returns the underlying error.
func (e *ConnectivityError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrConnectivity.
func (e *ConnectivityError) Is(target error) bool {
	return target == ErrConnectivity
}

// RemoteError reports a non-2xx response, or an unparseable body, from the
// speaker-list endpoint.
type RemoteError struct {
	// StatusCode is the HTTP status returned by the service.
	StatusCode int

	// Body is the (truncated) response body.
	Body string

	// Cause is set when the response was 2xx but its shape was wrong.
	Cause error
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Unwrap returns the underlying error.
func (e *RemoteError) Unwrap() error {
	return e.Cause
}

// SynthesisError reports a non-2xx response from the synthesis endpoint.
type SynthesisError struct {
	// Provider is the TTS provider that returned the error.
	Provider string

	// StatusCode is the HTTP status returned by the service.
	StatusCode int

	// Status is the HTTP status line text (e.g., "500 Internal Server Error").
	Status string

	// Body is the (truncated) response body text.
	Body string
}

// Error implements the error interface.
func (e *SynthesisError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Is reports whether target is ErrSynthesisFailed.
func (e *SynthesisError) Is(target error) bool {
	return target == ErrSynthesisFailed
}

// Retryable reports whether a later identical call might succeed. The adapter
// never retries on its own; this is advisory for callers.
func (e *SynthesisError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= serverErrorThreshold
}

// VoiceNotFoundError reports a catalog lookup miss.
type VoiceNotFoundError struct {
	// Name is the logical voice name that was requested.
	Name string
}

// Error implements the error interface.
func (e *VoiceNotFoundError) Error() string {
	return fmt.Sprintf("TTS voice name %s not found", e.Name)
}

// Is reports whether target is ErrVoiceNotFound.
func (e *VoiceNotFoundError) Is(target error) bool {
	return target == ErrVoiceNotFound
}

// NewSynthesisError creates a new SynthesisError.
func NewSynthesisError(provider string, statusCode int, status, body string) *SynthesisError {
	return &SynthesisError{
		Provider:   provider,
		StatusCode: statusCode,
		Status:     status,
		Body:       body,
	}
}
