// Package api is the client for the server's durable notification log:
// paginated, filterable reads plus the mark-read and delete mutations.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/capstone-eventify/notify/internal/model"
)

// ListFilter narrows a notification history query.
type ListFilter struct {
	// UnreadOnly restricts results to unread notifications.
	UnreadOnly bool

	// Type restricts results to a single notification type. Empty means all.
	Type string
}

// Page is one page of the persisted notification log.
type Page struct {
	Notifications []model.Notification `json:"notifications"`
	CurrentPage   int                  `json:"currentPage"`
	TotalPages    int                  `json:"totalPages"`
	HasNextPage   bool                 `json:"hasNextPage"`
}

// Client is a thin HTTP client for the Eventify notification endpoints.
// It handles Bearer token authentication, JSON marshaling, and bounded
// retry with backoff on HTTP 429 and 5xx.
//
// Every operation is a no-op when no token is set: reads return an
// empty page and mutations succeed without a request, matching the
// unauthenticated-session behavior of the surfaces above it.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int

	mu    sync.RWMutex
	token string
}

// NewClient creates a client for the API rooted at baseURL. The token
// may be empty and supplied later via SetToken once the session
// authenticates.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		maxRetries: 3,
	}
}

// SetToken replaces the bearer token. An empty token returns the client
// to its unauthenticated no-op state.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// List fetches one page of the notification log. Safe to call
// concurrently; the last completed response wins at the call site.
func (c *Client) List(ctx context.Context, page, pageSize int, filter ListFilter) (Page, error) {
	if c.Token() == "" {
		return Page{}, nil
	}

	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(pageSize))
	if filter.UnreadOnly {
		q.Set("unreadOnly", "true")
	}
	if filter.Type != "" {
		q.Set("type", filter.Type)
	}

	var out Page
	err := c.do(ctx, http.MethodGet, "/api/notifications?"+q.Encode(), nil, &out)
	if err != nil {
		return Page{}, err
	}
	if out.CurrentPage == 0 {
		out.CurrentPage = page
	}
	return out, nil
}

// MarkRead marks a single persisted notification as read.
func (c *Client) MarkRead(ctx context.Context, id string) error {
	if c.Token() == "" {
		return nil
	}
	path := fmt.Sprintf("/api/notifications/%s/read", url.PathEscape(id))
	return c.do(ctx, http.MethodPatch, path, nil, nil)
}

// MarkAllRead marks every persisted notification as read. This also
// backs the casual "clear all" action; persisted records are never
// hard-deleted that way.
func (c *Client) MarkAllRead(ctx context.Context) error {
	if c.Token() == "" {
		return nil
	}
	return c.do(ctx, http.MethodPatch, "/api/notifications/read-all", nil, nil)
}

// Delete permanently removes a single persisted notification.
func (c *Client) Delete(ctx context.Context, id string) error {
	if c.Token() == "" {
		return nil
	}
	path := fmt.Sprintf("/api/notifications/%s", url.PathEscape(id))
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// do is the core HTTP method that builds the request, handles auth,
// retry with backoff, and JSON (de)serialization.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body interface{},
	result interface{},
) error {
	var bodyBytes []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyBytes = data
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		var bodyReader io.Reader
		if bodyBytes != nil {
			bodyReader = bytes.NewReader(bodyBytes)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		req.Header.Set("Authorization", "Bearer "+c.Token())
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("executing request %s %s: %w", method, path, err)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("reading response body: %w", readErr)
		}

		if resp.StatusCode == http.StatusUnauthorized {
			return &AuthError{
				Message: fmt.Sprintf("token rejected by %s", c.baseURL),
			}
		}

		retryable := resp.StatusCode == http.StatusTooManyRequests ||
			(resp.StatusCode >= 500 && resp.StatusCode <= 599)
		if retryable && attempt < c.maxRetries {
			lastErr = &HTTPError{
				StatusCode: resp.StatusCode,
				Message:    fmt.Sprintf("%s %s", method, path),
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryAfterDuration(resp, attempt)):
				continue
			}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			var errPayload struct {
				Message string `json:"message"`
			}
			_ = json.Unmarshal(respBody, &errPayload)
			if errPayload.Message == "" {
				errPayload.Message = fmt.Sprintf("%s %s", method, path)
			}
			return &HTTPError{
				StatusCode: resp.StatusCode,
				Message:    errPayload.Message,
			}
		}

		if result == nil || resp.StatusCode == http.StatusNoContent || len(respBody) == 0 {
			return nil
		}

		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshaling response from %s %s: %w", method, path, err)
		}

		return nil
	}

	return fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, lastErr)
}

// retryAfterDuration reads the Retry-After header and computes a wait
// duration. Falls back to exponential backoff if the header is missing.
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	// Exponential backoff: 100ms, 200ms, 400ms, ...
	backoff := time.Duration(1<<uint(attempt)) * 100 * time.Millisecond
	if backoff > 2*time.Second {
		backoff = 2 * time.Second
	}
	return backoff
}
