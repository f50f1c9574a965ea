package service

import "errors"

// Sentinel errors for the session lifecycle. Handlers map these to HTTP
// status codes; anything else is surfaced as a generic server error.
var (
	ErrMissingFields    = errors.New("problem title and difficulty are required")
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionFull      = errors.New("session is already full")
	ErrSessionCompleted = errors.New("session is already completed")
	ErrNotHost          = errors.New("only the host can end a session")
	ErrHostJoin         = errors.New("host cannot join their own session")
	ErrJoinClosed       = errors.New("session joining is disabled")

	ErrInvalidToken = errors.New("invalid or expired token")
	ErrUserNotFound = errors.New("user not found")

	// ErrProvisioning wraps call/chat provider failures. The store write
	// that preceded the failure is kept; there is no rollback.
	ErrProvisioning = errors.New("realtime provisioning failed")
)
