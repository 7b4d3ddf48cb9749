package domain

import "errors"

// Sentinel errors forming the caller-visible failure taxonomy. Upstream
// network and parse failures never surface through these; adapters degrade
// those to empty or nil results and log them.
var (
	// ErrUnsupportedCatalog reports a catalog name nobody registered.
	ErrUnsupportedCatalog = errors.New("unsupported platform")

	// ErrTrackNotFound reports that a details lookup produced nothing.
	ErrTrackNotFound = errors.New("track not found")

	// ErrNoStream reports that every resolution strategy was exhausted
	// without producing a playable URL. A legitimate terminal outcome.
	ErrNoStream = errors.New("no streamable source found")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrEmailTaken         = errors.New("email already registered")
	ErrHandleTaken        = errors.New("handle already taken")
	ErrInvalidHandle      = errors.New("handle can only contain letters, numbers, underscores, and dashes")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("refresh token expired")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrUserNotFound       = errors.New("user not found")
)
