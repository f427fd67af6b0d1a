package vtt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	perrors "github.com/tabletoptools/vtt-bridge/internal/platform/errors"
	"github.com/tabletoptools/vtt-bridge/internal/platform/timeouts"
)

// frame is the JSON envelope exchanged on the realtime socket. Frames with
// an id are request/response pairs; frames without one are server events.
type frame struct {
	Type  string          `json:"type"`
	ID    string          `json:"id,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// eventHandler receives the payload of a server event frame.
type eventHandler func(json.RawMessage)

// socket is a realtime connection to the server. A background read loop
// routes reply frames to pending requests and event frames to the handlers
// registered at dial time. Sockets are never reused across a
// disconnect/connect pair.
type socket struct {
	conn     *websocket.Conn
	handlers map[string]eventHandler

	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[string]chan frame

	nextID    atomic.Uint64
	closed    chan struct{}
	closeOnce sync.Once
}

// socketURL converts the base URL to the websocket endpoint.
func socketURL(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = path
	return u.String(), nil
}

// dialSocket opens the realtime connection, authenticating with the session
// cookie when one is supplied. Event handlers must be registered here so no
// frame can arrive before its handler exists.
func dialSocket(ctx context.Context, cfg Config, sessionToken string, handlers map[string]eventHandler) (*socket, error) {
	endpoint, err := socketURL(cfg.BaseURL, cfg.SocketPath)
	if err != nil {
		return nil, perrors.Wrap(perrors.CodeRequestFailed, "resolve socket endpoint", err)
	}

	header := http.Header{}
	if sessionToken != "" {
		header.Set("Cookie", "session="+sessionToken)
	}

	dialer := websocket.Dialer{HandshakeTimeout: timeouts.SocketDial}
	conn, resp, err := dialer.DialContext(ctx, endpoint, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, perrors.Wrap(perrors.CodeRequestFailed, "dial realtime socket", err)
	}

	if handlers == nil {
		handlers = map[string]eventHandler{}
	}
	s := &socket{
		conn:     conn,
		handlers: handlers,
		pending:  make(map[string]chan frame),
		closed:   make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

// readLoop dispatches inbound frames until the connection drops.
func (s *socket) readLoop() {
	defer s.close()
	for {
		var f frame
		if err := s.conn.ReadJSON(&f); err != nil {
			return
		}
		if f.ID != "" {
			s.pendingMu.Lock()
			ch, ok := s.pending[f.ID]
			s.pendingMu.Unlock()
			if ok {
				select {
				case ch <- f:
				default:
				}
			}
			continue
		}
		if handler, ok := s.handlers[f.Type]; ok {
			handler(f.Data)
		}
	}
}

// writeFrame serializes concurrent writers over the single connection.
func (s *socket) writeFrame(f frame) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	select {
	case <-s.closed:
		return perrors.New(perrors.CodeRequestFailed, "socket is closed")
	default:
	}
	if err := s.conn.WriteJSON(f); err != nil {
		return perrors.Wrap(perrors.CodeRequestFailed, "write socket frame", err)
	}
	return nil
}

// emit sends a fire-and-forget event frame.
func (s *socket) emit(typ string, payload any) error {
	f := frame{Type: typ}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return perrors.Wrap(perrors.CodeRequestFailed, "marshal event payload", err)
		}
		f.Data = data
	}
	return s.writeFrame(f)
}

// request sends a frame and waits for the single matching reply. The
// pending waiter is removed on every exit path — reply, context expiry, and
// socket close — so an abandoned attempt leaks nothing.
func (s *socket) request(ctx context.Context, typ string, payload any) (json.RawMessage, error) {
	id := strconv.FormatUint(s.nextID.Add(1), 10)

	ch := make(chan frame, 1)
	s.pendingMu.Lock()
	s.pending[id] = ch
	s.pendingMu.Unlock()
	defer func() {
		s.pendingMu.Lock()
		delete(s.pending, id)
		s.pendingMu.Unlock()
	}()

	f := frame{Type: typ, ID: id}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, perrors.Wrap(perrors.CodeRequestFailed, "marshal request payload", err)
		}
		f.Data = data
	}
	if err := s.writeFrame(f); err != nil {
		return nil, err
	}

	select {
	case reply := <-ch:
		if reply.Error != "" {
			return nil, perrors.New(perrors.CodeRequestFailed, reply.Error)
		}
		return reply.Data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.closed:
		return nil, perrors.New(perrors.CodeRequestFailed, "socket closed while awaiting reply")
	}
}

// close tears down the connection and unblocks every pending request.
// Safe to call more than once.
func (s *socket) close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.conn.Close()
	})
}
