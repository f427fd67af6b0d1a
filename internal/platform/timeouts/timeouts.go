// Package timeouts defines shared timeout constants used across the bridge.
// Centralizing these values prevents drift between service boundaries and
// makes the durations discoverable.
package timeouts

import "time"

// SocketDial caps the wait time when opening the realtime socket.
const SocketDial = 10 * time.Second

// JoinData caps the wait for the server's joinable-user listing during
// user-id resolution.
const JoinData = 10 * time.Second

// WorldPayload caps the wait for the full world payload on connect and
// refresh.
const WorldPayload = 15 * time.Second

// HTTPRequest is the default bound for a single HTTP request to the remote
// server when the client configuration does not override it.
const HTTPRequest = 30 * time.Second

// ReadHeader limits how long the MCP HTTP transport waits for request
// headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long the MCP HTTP transport waits for in-flight
// requests during graceful shutdown.
const Shutdown = 5 * time.Second
