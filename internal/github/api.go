// Package github talks to GitHub over plain HTTP: it probes whether a box
// repository exists and lists the boxes published by the box organization.
// No authentication is sent; boxes are public repositories.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/NicabarNimble/punica-box/internal/errors"
)

const (
	apiBaseURL     = "https://api.github.com"
	userAgent      = "punica-box/1.0"
	defaultTimeout = 30 * time.Second
	boxesPerPage   = 100

	// rateLimitMarker is the substring GitHub puts in the message of a
	// rate limited response.
	rateLimitMarker = "API rate limit exceeded"
)

// Repository is the subset of a GitHub repository descriptor we read.
type Repository struct {
	Name string `json:"name"`
}

// Client handles GitHub operations
type Client struct {
	httpClient *http.Client
	baseURL    string // API base URL, overridable for tests and enterprise hosts
	org        string // box organization
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient = &http.Client{Timeout: d}
	}
}

// NewClient creates a new GitHub client for the box organization org.
func NewClient(org string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    apiBaseURL,
		org:        org,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RepositoryExists probes repoURL with a GET request. Only the status code
// is consulted: 200 means the box exists, anything else means it does not.
// Transport failures are reported as NetworkError, never as "not found".
func (c *Client) RepositoryExists(ctx context.Context, repoURL string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, repoURL, nil)
	if err != nil {
		return false, errors.New("probe", fmt.Errorf("failed to create request: %w", err))
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return false, errors.NewBoxError(errors.KindNetwork, "probe", "check your network.", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK, nil
}

// ListBoxes returns the names of the repositories published by the box
// organization. A rate limited response fails with RateLimited; any other
// object or non-JSON response fails with OtherError carrying what GitHub
// said.
func (c *Client) ListBoxes(ctx context.Context) ([]string, error) {
	endpoint := fmt.Sprintf("%s/users/%s/repos?per_page=%d", c.baseURL, url.PathEscape(c.org), boxesPerPage)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.New("list", fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := c.sendRequest(req)
	if err != nil {
		return nil, errors.NewBoxError(errors.KindNetwork, "list", "check your network.", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewBoxError(errors.KindNetwork, "list", "check your network.", err)
	}

	return parseBoxListing(body)
}

func parseBoxListing(body []byte) ([]string, error) {
	trimmed := bytes.TrimSpace(body)
	switch {
	case bytes.HasPrefix(trimmed, []byte("[")):
		var repos []Repository
		if err := json.Unmarshal(trimmed, &repos); err != nil {
			return nil, errors.NewOtherError("list", string(body), err)
		}
		names := make([]string, 0, len(repos))
		for _, repo := range repos {
			names = append(names, repo.Name)
		}
		return names, nil

	case bytes.HasPrefix(trimmed, []byte("{")):
		var payload struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(trimmed, &payload); err != nil {
			return nil, errors.NewOtherError("list", string(body), err)
		}
		if strings.Contains(payload.Message, rateLimitMarker) {
			return nil, errors.NewRateLimitedError("list", payload.Message)
		}
		if payload.Message != "" {
			return nil, errors.NewOtherError("list", payload.Message, nil)
		}
		return nil, errors.NewOtherError("list", string(body), nil)

	default:
		return nil, errors.NewOtherError("list", string(body), nil)
	}
}

// sendRequest sends an HTTP request with the common headers
func (c *Client) sendRequest(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", userAgent)
	return c.httpClient.Do(req)
}
