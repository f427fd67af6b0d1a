package vtt

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

// fakeServer simulates the remote server: a join endpoint issuing session
// cookies and validating credentials, and a realtime socket answering
// joinData and world requests.
type fakeServer struct {
	t   *testing.T
	srv *httptest.Server

	sessionToken string
	noCookie     bool
	noAck        bool
	users        []joinUser
	passwords    map[string]string // user id -> password
	world        map[string]any

	muteMu sync.Mutex
	muted  map[string]bool
}

// mute makes the socket swallow requests of the given type, leaving their
// callers waiting.
func (fs *fakeServer) mute(typ string) {
	fs.muteMu.Lock()
	defer fs.muteMu.Unlock()
	fs.muted[typ] = true
}

func (fs *fakeServer) isMuted(typ string) bool {
	fs.muteMu.Lock()
	defer fs.muteMu.Unlock()
	return fs.muted[typ]
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	fs := &fakeServer{
		t:            t,
		sessionToken: "testsessiontoken",
		users: []joinUser{
			{ID: "aaaabbbbccccdddd", Name: "Gandalf"},
			{ID: "eeeeffffgggghhhh", Name: "Frodo"},
		},
		passwords: map[string]string{
			"aaaabbbbccccdddd": "mellon",
			"eeeeffffgggghhhh": "",
		},
		world: map[string]any{
			"title":  "Middle Earth",
			"system": "dnd5e",
			"actors": []map[string]any{
				{"_id": "actor00000000001", "name": "Gandalf", "type": "character"},
				{"_id": "actor00000000002", "name": "Balrog", "type": "npc"},
			},
			"items": []map[string]any{
				{"_id": "item000000000001", "name": "Glamdring", "type": "weapon"},
			},
			"scenes": []map[string]any{
				{"_id": "scene00000000001", "name": "Moria", "active": true, "width": 4000.0, "height": 3000.0},
			},
			"journal": []map[string]any{},
			"users":   []map[string]any{{"_id": "aaaabbbbccccdddd", "name": "Gandalf"}},
			"combats": []map[string]any{},
		},
		muted: make(map[string]bool),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/join", fs.handleJoin)
	mux.HandleFunc("/socket", fs.handleSocket)
	mux.HandleFunc("/api/", fs.handleAPI)
	fs.srv = httptest.NewServer(mux)
	t.Cleanup(fs.srv.Close)
	return fs
}

func (fs *fakeServer) url() string { return fs.srv.URL }

func (fs *fakeServer) config() Config {
	return Config{BaseURL: fs.url()}
}

func (fs *fakeServer) handleJoin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !fs.noCookie {
			http.SetCookie(w, &http.Cookie{Name: "session", Value: fs.sessionToken, Path: "/"})
		}
		w.Write([]byte("<html>join</html>"))
	case http.MethodPost:
		cookie, err := r.Cookie("session")
		if err != nil || cookie.Value != fs.sessionToken {
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]string{"status": "failed", "message": "missing session"})
			return
		}
		var req struct {
			Action   string `json:"action"`
			UserID   string `json:"userid"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Action != "join" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"status": "failed", "message": "bad request"})
			return
		}
		password, ok := fs.passwords[req.UserID]
		if !ok || password != req.Password {
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]string{"status": "failed", "message": "incorrect password"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "success"})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

var testUpgrader = websocket.Upgrader{}

func (fs *fakeServer) handleSocket(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie("session")
	if err != nil || cookie.Value != fs.sessionToken {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	conn, err := testUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// Session acknowledgement is pushed as soon as the socket opens.
	if !fs.noAck {
		ack := map[string]any{"type": "session", "data": map[string]string{"userId": fs.users[0].ID}}
		if err := conn.WriteJSON(ack); err != nil {
			return
		}
	}

	for {
		var req struct {
			Type string          `json:"type"`
			ID   string          `json:"id"`
			Data json.RawMessage `json:"data"`
		}
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		if fs.isMuted(req.Type) {
			continue
		}
		switch req.Type {
		case "joinData":
			reply := map[string]any{"type": "joinData", "id": req.ID, "data": map[string]any{"users": fs.users}}
			if err := conn.WriteJSON(reply); err != nil {
				return
			}
		case "world":
			reply := map[string]any{"type": "world", "id": req.ID, "data": fs.world}
			if err := conn.WriteJSON(reply); err != nil {
				return
			}
		case "sleep":
			// Never answered; used to exercise request timeouts.
		default:
			reply := map[string]any{"type": req.Type, "id": req.ID, "error": "unknown request"}
			if err := conn.WriteJSON(reply); err != nil {
				return
			}
		}
	}
}

func (fs *fakeServer) handleAPI(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer valid-api-key" {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
		return
	}
	switch r.URL.Path {
	case "/api/status":
		json.NewEncoder(w).Encode(map[string]any{"active": true, "world": "Middle Earth", "system": "dnd5e"})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// newMuxServer starts an HTTP server for handler variants that the shared
// fake does not cover.
func newMuxServer(t *testing.T, mux http.Handler) string {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv.URL
}

// connectedClient returns a client connected to the fake server with
// username/password credentials.
func connectedClient(t *testing.T, fs *fakeServer) *Client {
	t.Helper()
	cfg := fs.config()
	cfg.Username = "Gandalf"
	cfg.Password = "mellon"
	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if err := client.Connect(t.Context()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(client.Disconnect)
	return client
}
