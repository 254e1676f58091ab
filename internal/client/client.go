package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

var ErrNotLoggedIn = errors.New("not logged in")

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Code    string `json:"error"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%d %s", e.Status, e.Code)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

type Client struct {
	baseURL string
	http    *http.Client
	session *Session
	cache   Cache
}

// New builds a client for the API at baseURL. A nil cache disables caching
// and a nil httpClient gets a default with a timeout.
func New(baseURL string, session *Session, cache Cache, httpClient *http.Client) *Client {
	if cache == nil {
		cache = NoCache{}
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if session == nil {
		session = NewSession("")
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		session: session,
		cache:   cache,
	}
}

func (c *Client) Session() *Session {
	return c.session
}

// get serves GETs from the cache when it can and fills it otherwise.
func (c *Client) get(ctx context.Context, path string, out any) error {
	if body, ok := c.cache.Get(path); ok {
		return json.Unmarshal(body, out)
	}
	body, err := c.do(ctx, http.MethodGet, path, nil, true)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	c.cache.Set(path, body)
	return nil
}

// Invalidate drops cached reads under each REST path, as listed by the
// Invalidate field of a server ledger event.
func (c *Client) Invalidate(paths ...string) {
	for _, path := range paths {
		c.cache.Invalidate(path)
	}
}

// send runs a mutation and drops the cached resources it touches.
func (c *Client) send(ctx context.Context, method, path string, in, out any, invalidate ...string) error {
	body, err := c.do(ctx, method, path, in, true)
	if err != nil {
		return err
	}
	c.Invalidate(invalidate...)
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in any, authed bool) ([]byte, error) {
	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		token := c.session.Token()
		if token == "" {
			return nil, ErrNotLoggedIn
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}

	apiErr := &APIError{Status: resp.StatusCode}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Code == "" {
		apiErr.Code = http.StatusText(resp.StatusCode)
	}
	if authed && resp.StatusCode == http.StatusUnauthorized {
		// the token expired or was revoked; force a fresh login
		if err := c.session.Logout(); err != nil {
			log.Printf("client: clear session: %v", err)
		}
	}
	return nil, apiErr
}

func decode(body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
