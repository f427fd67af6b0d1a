package vtt

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	perrors "github.com/tabletoptools/vtt-bridge/internal/platform/errors"
)

// State is the connection lifecycle state of a Client.
type State string

const (
	// StateDisconnected means no connection is open and no snapshot is held.
	StateDisconnected State = "disconnected"
	// StateConnecting means a connect attempt is in flight.
	StateConnecting State = "connecting"
	// StateConnected means the connection is open and the snapshot is live.
	StateConnected State = "connected"
)

// Client owns one realtime connection, one session, and one world snapshot.
// It is the sole writer of all three; query methods are safe to call from
// any goroutine because snapshots are replaced wholesale, never mutated.
type Client struct {
	cfg    Config
	httpc  *http.Client
	rest   *RESTClient
	tracer trace.Tracer

	mu      sync.RWMutex
	state   State
	session Session
	sock    *socket
	world   *World
}

// NewClient validates the configuration and builds a disconnected client.
// A malformed base URL fails here, before any network activity.
func NewClient(cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	httpc := &http.Client{
		Timeout: cfg.RequestTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// The join flow inspects redirects instead of following them.
			return http.ErrUseLastResponse
		},
	}

	c := &Client{
		cfg:    cfg,
		httpc:  httpc,
		tracer: otel.Tracer("vtt-bridge/client"),
		state:  StateDisconnected,
	}
	if cfg.APIKey != "" {
		c.rest = NewRESTClient(cfg, httpc)
	}
	return c, nil
}

// Config returns the client's effective configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// REST returns the HTTP API client, or nil when no API key is configured.
func (c *Client) REST() *RESTClient {
	return c.rest
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// IsConnected reports whether the client holds an open connection.
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// Session returns the active session. Zero when disconnected.
func (c *Client) Session() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// World returns the current snapshot, or nil when none is held. Callers
// must treat the returned value as read-only.
func (c *Client) World() *World {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.world
}

// sessionAck is the server's session acknowledgement event payload.
type sessionAck struct {
	UserID string `json:"userId"`
}

// Connect establishes a session and populates the snapshot. With an API key
// configured it is a single reachability check against the HTTP API; with
// username/password it runs the full join flow, opens the realtime socket,
// waits for the session acknowledgement, and fetches the world payload.
func (c *Client) Connect(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "vtt.Connect")
	defer span.End()

	c.mu.Lock()
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return perrors.New(perrors.CodeAlreadyConnected, "client is already connected; disconnect first")
	}
	c.state = StateConnecting
	c.mu.Unlock()

	err := c.connect(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(perrors.CodeOf(err)))
		c.Disconnect()
		return err
	}
	span.SetAttributes(attribute.String("vtt.state", string(StateConnected)))
	return nil
}

func (c *Client) connect(ctx context.Context) error {
	if c.cfg.APIKey != "" {
		if _, err := c.rest.Status(ctx); err != nil {
			return err
		}
		c.mu.Lock()
		c.state = StateConnected
		c.mu.Unlock()
		return nil
	}

	if !c.cfg.hasLoginCredentials() {
		return perrors.New(perrors.CodeMissingCredentials,
			"configure an API key or a username/password pair before connecting")
	}

	session, err := newAuthenticator(c.cfg, c.httpc).authenticate(ctx)
	if err != nil {
		return err
	}

	ackCh := make(chan sessionAck, 1)
	handlers := map[string]eventHandler{
		"session": func(data json.RawMessage) {
			var ack sessionAck
			if err := json.Unmarshal(data, &ack); err != nil {
				return
			}
			select {
			case ackCh <- ack:
			default:
			}
		},
	}

	sock, err := dialSocket(ctx, c.cfg, session.Token, handlers)
	if err != nil {
		return err
	}

	waitCtx, cancel := context.WithTimeout(ctx, c.cfg.WorldTimeout)
	defer cancel()

	select {
	case ack := <-ackCh:
		if ack.UserID != "" {
			session.UserID = ack.UserID
		}
	case <-waitCtx.Done():
		sock.close()
		// The caller's deadline expiring is not a server timeout.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return perrors.Wrap(perrors.CodeConnectTimeout,
			"server did not acknowledge the session in time", waitCtx.Err())
	case <-sock.closed:
		return perrors.New(perrors.CodeRequestFailed, "socket closed before session acknowledgement")
	}

	world, err := requestWorld(waitCtx, sock)
	if err != nil {
		sock.close()
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return perrors.Wrap(perrors.CodeConnectTimeout,
				"world payload was not received in time", err)
		}
		return err
	}

	c.mu.Lock()
	c.sock = sock
	c.session = session
	c.world = world
	c.state = StateConnected
	c.mu.Unlock()
	return nil
}

// requestWorld fetches and decodes the full world payload.
func requestWorld(ctx context.Context, sock *socket) (*World, error) {
	raw, err := sock.request(ctx, "world", nil)
	if err != nil {
		return nil, err
	}
	var world World
	if err := json.Unmarshal(raw, &world); err != nil {
		return nil, perrors.Wrap(perrors.CodeRequestFailed, "decode world payload", err)
	}
	return &world, nil
}

// Refresh re-requests the world payload on the open connection and swaps
// the snapshot atomically. Readers keep the old, complete snapshot until
// the new one is fully received.
func (c *Client) Refresh(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "vtt.Refresh")
	defer span.End()

	c.mu.RLock()
	sock := c.sock
	state := c.state
	c.mu.RUnlock()

	if state != StateConnected || sock == nil {
		err := perrors.New(perrors.CodeNotConnected, "no realtime connection is open")
		span.RecordError(err)
		span.SetStatus(codes.Error, string(perrors.CodeNotConnected))
		return err
	}

	waitCtx, cancel := context.WithTimeout(ctx, c.cfg.WorldTimeout)
	defer cancel()

	world, err := requestWorld(waitCtx, sock)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = perrors.Wrap(perrors.CodeRefreshTimeout,
				"world payload was not received in time", err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, string(perrors.CodeOf(err)))
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateConnected || c.sock != sock {
		return perrors.New(perrors.CodeNotConnected, "connection closed during refresh")
	}
	c.world = world
	return nil
}

// Disconnect closes the realtime connection and discards the snapshot and
// session. Idempotent: calling it while disconnected changes nothing.
func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sock != nil {
		c.sock.close()
		c.sock = nil
	}
	c.world = nil
	c.session = Session{}
	c.state = StateDisconnected
}
