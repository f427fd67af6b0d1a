// Package errors provides structured error handling for the bridge.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Configuration errors
	CodeInvalidConfig      Code = "INVALID_CONFIG"
	CodeMissingCredentials Code = "MISSING_CREDENTIALS"

	// Handshake errors
	CodeNoSessionCookie Code = "NO_SESSION_COOKIE"
	CodeUserNotFound    Code = "USER_NOT_FOUND"
	CodeJoinDataTimeout Code = "JOIN_DATA_TIMEOUT"
	CodeAuthRejected    Code = "AUTH_REJECTED"

	// Connection lifecycle errors
	CodeConnectTimeout   Code = "CONNECT_TIMEOUT"
	CodeRefreshTimeout   Code = "REFRESH_TIMEOUT"
	CodeNotConnected     Code = "NOT_CONNECTED"
	CodeAlreadyConnected Code = "ALREADY_CONNECTED"

	// Lookup errors
	CodeNotFound      Code = "NOT_FOUND"
	CodeNoActiveScene Code = "NO_ACTIVE_SCENE"

	// Transport errors
	CodeRequestFailed Code = "REQUEST_FAILED"
)
