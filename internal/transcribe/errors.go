// Package transcribe extracts audio from videos and bridges to the external
// transcription and summarization services.
package transcribe

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNoAudioTrack    = errors.New("video has no audio track")
	ErrAudioTooLarge   = errors.New("extracted audio exceeds the transcription size limit")
	ErrMissingAPIKey   = errors.New("service API key is not configured")
	ErrEmptyTranscript = errors.New("transcript has no text to summarize")
	ErrBadCredentials  = errors.New("service rejected the API key")
	ErrRateLimited     = errors.New("service rate limit reached")
	ErrPayloadTooLarge = errors.New("service rejected the upload as too large")
	ErrServiceFailure  = errors.New("service request failed")
	ErrInvalidResponse = errors.New("service returned an invalid response")
)

// ServiceError is a non-2xx response from the remote service. errors.Is
// matches it against the kind sentinel for its status code.
type ServiceError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s failed: HTTP %d: %s", e.Service, e.StatusCode, e.Body)
}

func (e *ServiceError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrBadCredentials
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusRequestEntityTooLarge:
		return ErrPayloadTooLarge
	default:
		return ErrServiceFailure
	}
}
