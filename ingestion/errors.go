package ingestion

import "errors"

var (
	// ErrIndexRequired is returned when a retrieval index is not provided.
	ErrIndexRequired = errors.New("index required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrInvalidMaxAttempts is returned when fewer than one attempt is allowed.
	ErrInvalidMaxAttempts = errors.New("retry attempts must be at least 1")

	// ErrInvalidSource is returned when a catalog file cannot be decoded.
	ErrInvalidSource = errors.New("invalid catalog source")
)
