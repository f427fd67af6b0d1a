package vtt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	perrors "github.com/tabletoptools/vtt-bridge/internal/platform/errors"
)

// sessionCookieName is the cookie the server issues on the join endpoint.
const sessionCookieName = "session"

// Session is the server-issued token and resolved user identity for one
// connection. It is owned by the Client and never persisted.
type Session struct {
	Token  string
	UserID string
}

// authenticator performs the server's four-step join flow. It keeps no
// state between invocations; every call starts cold.
type authenticator struct {
	cfg       Config
	httpc     *http.Client
	idPattern *regexp.Regexp
}

// newAuthenticator builds an authenticator for the given configuration.
// The pattern was validated at client construction.
func newAuthenticator(cfg Config, httpc *http.Client) *authenticator {
	return &authenticator{
		cfg:       cfg,
		httpc:     httpc,
		idPattern: regexp.MustCompile(cfg.UserIDPattern),
	}
}

// authenticate runs the join flow: obtain a session cookie, resolve the
// user id, submit credentials, and return the session bound to that user.
func (a *authenticator) authenticate(ctx context.Context) (Session, error) {
	token, err := a.sessionCookie(ctx)
	if err != nil {
		return Session{}, err
	}

	userID, err := a.resolveUserID(ctx, token)
	if err != nil {
		return Session{}, err
	}

	if err := a.join(ctx, token, userID); err != nil {
		return Session{}, err
	}

	return Session{Token: token, UserID: userID}, nil
}

// sessionCookie issues an unauthenticated request to the join endpoint and
// extracts the session identifier from the response cookies.
func (a *authenticator) sessionCookie(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.joinURL(), nil)
	if err != nil {
		return "", perrors.Wrap(perrors.CodeRequestFailed, "create join request", err)
	}

	resp, err := a.httpc.Do(req)
	if err != nil {
		return "", perrors.Wrap(perrors.CodeRequestFailed, "request join page", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	for _, cookie := range resp.Cookies() {
		if cookie.Name == sessionCookieName && cookie.Value != "" {
			return cookie.Value, nil
		}
	}
	return "", perrors.New(perrors.CodeNoSessionCookie,
		fmt.Sprintf("join response carries no %q cookie", sessionCookieName))
}

// joinUser is one joinable user as listed by the server.
type joinUser struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// joinData is the server's listing of joinable users.
type joinData struct {
	Users []joinUser `json:"users"`
}

// resolveUserID turns the configured identity into a server user id. A
// value that already matches the server's document-id format is used
// directly; otherwise the server's user listing is fetched over a transient
// realtime connection and matched by display name, case-insensitively.
func (a *authenticator) resolveUserID(ctx context.Context, token string) (string, error) {
	if a.cfg.UserID != "" && a.idPattern.MatchString(a.cfg.UserID) {
		return a.cfg.UserID, nil
	}
	if a.cfg.Username != "" && a.idPattern.MatchString(a.cfg.Username) {
		return a.cfg.Username, nil
	}

	sock, err := dialSocket(ctx, a.cfg, token, nil)
	if err != nil {
		return "", err
	}
	defer sock.close()

	waitCtx, cancel := context.WithTimeout(ctx, a.cfg.JoinDataTimeout)
	defer cancel()

	raw, err := sock.request(waitCtx, "joinData", nil)
	if err != nil {
		// Only the bound's own expiry is a server timeout; the caller's
		// deadline running out first is reported as-is.
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return "", perrors.Wrap(perrors.CodeJoinDataTimeout,
				"server did not return join data in time", err)
		}
		return "", err
	}

	var data joinData
	if err := json.Unmarshal(raw, &data); err != nil {
		return "", perrors.Wrap(perrors.CodeRequestFailed, "decode join data", err)
	}

	names := make([]string, 0, len(data.Users))
	for _, user := range data.Users {
		if strings.EqualFold(user.Name, a.cfg.Username) {
			return user.ID, nil
		}
		names = append(names, user.Name)
	}
	return "", perrors.WithMetadata(perrors.CodeUserNotFound,
		fmt.Sprintf("user %q is not joinable; available: %s", a.cfg.Username, strings.Join(names, ", ")),
		map[string]string{"available": strings.Join(names, ", ")})
}

// joinRequest is the credential submission body.
type joinRequest struct {
	Action   string `json:"action"`
	UserID   string `json:"userid"`
	Password string `json:"password"`
}

// joinResponse is the server's verdict on a credential submission.
type joinResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// join posts the resolved user id and password with the session cookie.
// Success is an explicit success status or a redirect into the
// authenticated game area; anything else is a rejection.
func (a *authenticator) join(ctx context.Context, token, userID string) error {
	body, err := json.Marshal(joinRequest{Action: "join", UserID: userID, Password: a.cfg.Password})
	if err != nil {
		return perrors.Wrap(perrors.CodeRequestFailed, "marshal join request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.joinURL(), bytes.NewReader(body))
	if err != nil {
		return perrors.Wrap(perrors.CodeRequestFailed, "create join request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})

	resp, err := a.httpc.Do(req)
	if err != nil {
		return perrors.Wrap(perrors.CodeRequestFailed, "submit join credentials", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices && resp.StatusCode < http.StatusBadRequest {
		if strings.Contains(resp.Header.Get("Location"), "/game") {
			return nil
		}
		return perrors.New(perrors.CodeAuthRejected,
			fmt.Sprintf("join redirected to %q instead of the game area", resp.Header.Get("Location")))
	}

	payload, _ := io.ReadAll(resp.Body)
	var verdict joinResponse
	if err := json.Unmarshal(payload, &verdict); err == nil && verdict.Status == "success" {
		return nil
	}
	message := verdict.Message
	if message == "" {
		message = strings.TrimSpace(string(payload))
	}
	return perrors.New(perrors.CodeAuthRejected,
		fmt.Sprintf("server rejected join for user %s: status %d %s", userID, resp.StatusCode, message))
}
