// Package vtt implements the authenticated session establishment and the
// in-memory world snapshot cache for a remote virtual-tabletop server.
//
// A Client owns one realtime connection and one snapshot. The snapshot is
// replaced wholesale on connect and refresh and cleared on disconnect;
// query methods read the current snapshot and degrade to empty results
// when none is present.
package vtt

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	perrors "github.com/tabletoptools/vtt-bridge/internal/platform/errors"
	"github.com/tabletoptools/vtt-bridge/internal/platform/timeouts"
)

// defaultUserIDPattern matches the remote server's document-id format.
// The id scheme belongs to the server, so the pattern is configuration
// rather than a hard-coded invariant.
const defaultUserIDPattern = `^[a-zA-Z0-9]{16}$`

// defaultSocketPath is the realtime endpoint on the remote server.
const defaultSocketPath = "/socket"

// defaultRetryDelay seeds the backoff between HTTP API attempts.
const defaultRetryDelay = 250 * time.Millisecond

// Config holds the connection settings for a remote server.
type Config struct {
	// BaseURL is the absolute http(s) URL of the server. Required.
	BaseURL string
	// Username is the display name used to resolve a user id during the
	// join flow. Ignored when UserID is set to a pre-resolved id.
	Username string
	// UserID is a pre-resolved user identifier. When it matches
	// UserIDPattern the join flow skips the user-listing round-trip.
	UserID string
	// Password is the join password for the resolved user.
	Password string
	// APIKey enables the single-round-trip HTTP API mode instead of the
	// full join flow.
	APIKey string
	// RequestTimeout bounds a single HTTP request. Defaults to
	// timeouts.HTTPRequest.
	RequestTimeout time.Duration
	// JoinDataTimeout bounds the wait for the server's joinable-user
	// listing. Defaults to timeouts.JoinData.
	JoinDataTimeout time.Duration
	// WorldTimeout bounds the wait for the session acknowledgement and the
	// world payload on connect and refresh. Defaults to
	// timeouts.WorldPayload.
	WorldTimeout time.Duration
	// RetryCount is the number of retries after a failed HTTP API attempt.
	RetryCount int
	// RetryDelay seeds the exponential backoff between HTTP API attempts.
	RetryDelay time.Duration
	// SocketPath overrides the realtime endpoint path.
	SocketPath string
	// UserIDPattern overrides the document-id format used to short-circuit
	// user-id resolution.
	UserIDPattern string
}

// withDefaults fills zero-valued optional fields.
func (c Config) withDefaults() Config {
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = timeouts.HTTPRequest
	}
	if c.JoinDataTimeout <= 0 {
		c.JoinDataTimeout = timeouts.JoinData
	}
	if c.WorldTimeout <= 0 {
		c.WorldTimeout = timeouts.WorldPayload
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = defaultRetryDelay
	}
	if c.SocketPath == "" {
		c.SocketPath = defaultSocketPath
	}
	if c.UserIDPattern == "" {
		c.UserIDPattern = defaultUserIDPattern
	}
	return c
}

// validate checks the configuration before any network activity.
func (c Config) validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return perrors.New(perrors.CodeInvalidConfig, "base URL is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return perrors.Wrap(perrors.CodeInvalidConfig, "base URL is malformed", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return perrors.New(perrors.CodeInvalidConfig, "base URL must be an absolute http(s) URL")
	}
	if u.Host == "" {
		return perrors.New(perrors.CodeInvalidConfig, "base URL is missing a host")
	}
	if _, err := regexp.Compile(c.UserIDPattern); err != nil {
		return perrors.Wrap(perrors.CodeInvalidConfig, "user id pattern is not a valid regexp", err)
	}
	return nil
}

// hasLoginCredentials reports whether the username/password join flow can
// run. The server permits empty passwords, so a username or a pre-resolved
// user id is sufficient.
func (c Config) hasLoginCredentials() bool {
	return c.Username != "" || c.UserID != ""
}

// joinURL returns the server's join endpoint.
func (c Config) joinURL() string {
	return strings.TrimRight(c.BaseURL, "/") + "/join"
}

// apiURL returns an HTTP API endpoint under the server's base URL.
func (c Config) apiURL(path string) string {
	return strings.TrimRight(c.BaseURL, "/") + "/api" + path
}
