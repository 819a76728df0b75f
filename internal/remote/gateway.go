// Package remote implements the HTTP client for the user directory
// API (a JSONPlaceholder-shaped REST service).
//
// The service is a fixed third-party collaborator with known quirks:
// writes to ids beyond its seed range are not retained server-side,
// and the id echoed by a create is unreliable. The sync package's
// routing and allocation policies exist to work around both.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/userdeck/userdeck/internal/types"
)

// DefaultBaseURL is the public JSONPlaceholder endpoint.
const DefaultBaseURL = "https://jsonplaceholder.typicode.com"

// ErrNotFound indicates the remote returned HTTP 404 for a point
// lookup. Callers that don't care can treat it like any other failure;
// the orchestrator uses it for a more precise status message.
var ErrNotFound = errors.New("remote: not found")

// Config holds client configuration.
type Config struct {
	// BaseURL of the API (default: DefaultBaseURL).
	BaseURL string

	// Timeout for each request. Zero means the transport default.
	Timeout time.Duration

	// HTTPClient overrides the underlying client. Mostly for tests.
	HTTPClient *http.Client
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BaseURL: DefaultBaseURL,
		Timeout: 15 * time.Second,
	}
}

// Client is the remote API gateway.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a gateway client. A nil config uses defaults.
func NewClient(config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// FetchUsers retrieves the full user list.
func (c *Client) FetchUsers(ctx context.Context) ([]types.User, error) {
	var users []types.User
	if err := c.do(ctx, http.MethodGet, "/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// FetchUser retrieves a single user by id.
func (c *Client) FetchUser(ctx context.Context, id int) (types.User, error) {
	var user types.User
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d", id), nil, &user); err != nil {
		return types.User{}, err
	}
	return user, nil
}

// FetchPosts retrieves the posts owned by a user.
func (c *Client) FetchPosts(ctx context.Context, userID int) ([]types.Post, error) {
	var posts []types.Post
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d/posts", userID), nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// PutUser sends a full-replacement update and returns the remote's
// view of the updated user.
func (c *Client) PutUser(ctx context.Context, u types.User) (types.User, error) {
	var updated types.User
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/users/%d", u.ID), u, &updated); err != nil {
		return types.User{}, err
	}
	return updated, nil
}

// PostUser creates a user remotely. The id in the response is the
// remote's allocation and is known to be unreliable; callers must not
// trust it.
func (c *Client) PostUser(ctx context.Context, u types.User) (types.User, error) {
	var created types.User
	if err := c.do(ctx, http.MethodPost, "/users", u, &created); err != nil {
		return types.User{}, err
	}
	return created, nil
}

// do issues a request and decodes the JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
