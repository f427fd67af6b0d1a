package vtt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"time"

	perrors "github.com/tabletoptools/vtt-bridge/internal/platform/errors"
)

// maxRetryDelay caps the backoff between HTTP API attempts.
const maxRetryDelay = 5 * time.Second

// RESTClient talks to the server's optional HTTP API using an API key. It
// is a non-cached alternative to the realtime path: every call is a live
// request against the server.
type RESTClient struct {
	baseURL  func(path string) string
	apiKey   string
	httpc    *http.Client
	attempts int
	delay    time.Duration
}

// NewRESTClient builds an HTTP API client from the shared configuration.
func NewRESTClient(cfg Config, httpc *http.Client) *RESTClient {
	return &RESTClient{
		baseURL:  cfg.apiURL,
		apiKey:   cfg.APIKey,
		httpc:    httpc,
		attempts: cfg.RetryCount + 1,
		delay:    cfg.RetryDelay,
	}
}

// Status is the server's HTTP API status document.
type Status struct {
	Active        bool   `json:"active"`
	World         string `json:"world"`
	System        string `json:"system"`
	SystemVersion string `json:"systemVersion"`
	CoreVersion   string `json:"coreVersion"`
	Users         int    `json:"users"`
}

// Status checks reachability and returns the server's status document.
func (r *RESTClient) Status(ctx context.Context) (Status, error) {
	var status Status
	if err := r.getJSON(ctx, "/status", nil, &status); err != nil {
		return Status{}, err
	}
	return status, nil
}

// restSearchResponse is the HTTP API's search envelope.
type restSearchResponse struct {
	Total     int        `json:"total"`
	Documents []Document `json:"documents"`
}

// SearchDocuments runs a live substring search against the HTTP API.
func (r *RESTClient) SearchDocuments(ctx context.Context, collection, query string, limit int) (SearchResult, error) {
	values := url.Values{}
	values.Set("collection", collection)
	if query != "" {
		values.Set("query", query)
	}
	values.Set("limit", fmt.Sprintf("%d", effectiveLimit(limit)))

	var resp restSearchResponse
	if err := r.getJSON(ctx, "/search", values, &resp); err != nil {
		return SearchResult{}, err
	}
	return SearchResult{Total: resp.Total, Documents: resp.Documents}, nil
}

// GetDocument fetches one document by id from the HTTP API.
func (r *RESTClient) GetDocument(ctx context.Context, collection, id string) (Document, error) {
	var doc Document
	err := r.getJSON(ctx, "/"+url.PathEscape(collection)+"/"+url.PathEscape(id), nil, &doc)
	if err != nil {
		if status, ok := httpStatusOf(err); ok && status == http.StatusNotFound {
			return Document{}, perrors.WrapWithMetadata(perrors.CodeNotFound,
				fmt.Sprintf("no document %s in %s", id, collection),
				map[string]string{"collection": collection, "id": id}, err)
		}
		return Document{}, err
	}
	return doc, nil
}

// httpStatusError is a non-2xx response from the HTTP API.
type httpStatusError struct {
	status int
	body   string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.status, e.body)
}

// httpStatusOf extracts the HTTP status from an error chain.
func httpStatusOf(err error) (int, bool) {
	for err != nil {
		if se, ok := err.(*httpStatusError); ok {
			return se.status, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return 0, false
		}
		err = u.Unwrap()
	}
	return 0, false
}

// retryable reports whether an attempt may be repeated: network errors,
// server 5xx, and rate limiting qualify; any other client 4xx is final.
func retryable(err error) bool {
	status, ok := httpStatusOf(err)
	if !ok {
		return true
	}
	if status == http.StatusTooManyRequests {
		return true
	}
	return status >= http.StatusInternalServerError
}

// getJSON issues a GET with bounded retry. Backoff doubles from the
// configured delay up to maxRetryDelay, with jitter so concurrent callers
// do not synchronize; exhausted retries surface the last error.
func (r *RESTClient) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	delay := r.delay
	var lastErr error
	for attempt := 0; attempt < r.attempts; attempt++ {
		if attempt > 0 {
			wait := delay + rand.N(delay/2+1)
			select {
			case <-ctx.Done():
				return perrors.Wrap(perrors.CodeRequestFailed, "retry wait interrupted", ctx.Err())
			case <-time.After(wait):
			}
			if delay < maxRetryDelay {
				delay *= 2
				if delay > maxRetryDelay {
					delay = maxRetryDelay
				}
			}
		}

		lastErr = r.once(ctx, path, query, out)
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

// once performs a single HTTP API request.
func (r *RESTClient) once(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := r.baseURL(path)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return perrors.Wrap(perrors.CodeRequestFailed, "create API request", err)
	}
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.httpc.Do(req)
	if err != nil {
		return perrors.Wrap(perrors.CodeRequestFailed, "send API request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return perrors.Wrap(perrors.CodeRequestFailed, "API request failed",
			&httpStatusError{status: resp.StatusCode, body: string(body)})
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return perrors.Wrap(perrors.CodeRequestFailed, "decode API response", err)
	}
	return nil
}
