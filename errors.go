package veilix

import "errors"

var (
	// ErrSessionNotFound is returned when a session ID does not exist.
	ErrSessionNotFound = errors.New("veilix: session not found")

	// ErrEmptyDocument is returned when an uploaded document has no content.
	ErrEmptyDocument = errors.New("veilix: empty document")

	// ErrParseFailure is returned when an uploaded document cannot be parsed.
	ErrParseFailure = errors.New("veilix: document parsing failed")

	// ErrUploadTooLarge is returned when an upload exceeds the configured
	// size limit.
	ErrUploadTooLarge = errors.New("veilix: upload too large")

	// ErrExportFailure is returned when GraphML export fails.
	ErrExportFailure = errors.New("veilix: graphml export failed")

	// ErrChatFailed is returned when a chat request to the LLM provider fails.
	ErrChatFailed = errors.New("veilix: chat request failed")

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("veilix: invalid configuration")
)
