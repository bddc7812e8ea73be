package exam

import "errors"

// Error taxonomy for the practice surface. Controllers map these onto HTTP
// statuses; anything else is a 500.
var (
	// ErrSessionNotFound covers expired, deleted, and never-created session keys.
	ErrSessionNotFound = errors.New("practice session not found or expired")

	// ErrSessionOwnership is returned when a session is accessed by a
	// principal that does not own it. Never silently recovered.
	ErrSessionOwnership = errors.New("practice session owned by another user")

	// ErrNoContent means the selector found no scenario or questions for a
	// phase. The orchestrator recovers by skipping ahead; it only surfaces
	// when every configured phase is empty.
	ErrNoContent = errors.New("no content available for the configured phases")

	// ErrGenerationFailed wraps provider failures during coach-response
	// generation. A missing coach turn breaks the conversation, so this is
	// a hard failure with no fallback text.
	ErrGenerationFailed = errors.New("coach response generation failed")
)
