package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors. Every one of these wipes stored credentials
	// before it propagates; the caller must restart the login flow.
	ErrMissingVerifier = fmt.Errorf("no code verifier stored")
	ErrStateMismatch   = fmt.Errorf("authorization state mismatch")
	ErrTokenExchange   = fmt.Errorf("token exchange failed")
	ErrNoTokenReturned = fmt.Errorf("no access token in response")
	ErrNoRefreshToken  = fmt.Errorf("no refresh token available")
	ErrRefreshFailed   = fmt.Errorf("token refresh failed")
	ErrTimeout         = fmt.Errorf("operation timed out")

	// Request errors. Only ErrForbidden wipes credentials; the rest leave
	// the session intact for a manual retry.
	ErrNoToken        = fmt.Errorf("no usable access token")
	ErrSessionExpired = fmt.Errorf("session expired")
	ErrNetwork        = fmt.Errorf("network request failed")
	ErrForbidden      = fmt.Errorf("forbidden")
	ErrNotFound       = fmt.Errorf("not found")
	ErrUpstream       = fmt.Errorf("upstream error")

	// Playlist generation errors
	ErrInvalidMood        = fmt.Errorf("unknown mood")
	ErrInvalidSession     = fmt.Errorf("session invalid")
	ErrNoTracksAvailable  = fmt.Errorf("no tracks available")
	ErrPlaylistCreate     = fmt.Errorf("playlist creation failed")
	ErrTrackInsert        = fmt.Errorf("track insertion failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Input validation errors
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrMissingArgument = fmt.Errorf("missing required argument")
)
