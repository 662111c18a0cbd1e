// Package upstream implements the per-source-type fetch strategies that
// resolve a package's newest upstream version identifier.
package upstream

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

	"golang.org/x/time/rate"

	"github.com/aurwatch/aurwatch/internal/version"
)

var (
	// ErrHTTPStatus is returned for an unexpected HTTP status code
	ErrHTTPStatus = errors.New("unexpected HTTP status")
	// ErrAPIError is returned when an upstream API answered with an error
	// object (for example a rate-limit notice) instead of the expected data
	ErrAPIError = errors.New("upstream API error")
	// ErrUnexpectedShape is returned when a response is neither the
	// expected array nor a recognizable error object
	ErrUnexpectedShape = errors.New("unexpected response shape")
	// ErrNotFound is returned when the upstream resource does not exist
	ErrNotFound = errors.New("upstream resource not found")
)

const (
	// requestTimeout bounds every upstream request; a timeout is a definite
	// probe failure, never a hang
	requestTimeout = 30 * time.Second

	userAgent = "aurwatch/1.0"

	// pageSize is the server maximum page size for paginated list APIs
	pageSize = 100
	// maxPages bounds every pagination loop independent of server
	// behavior, guaranteeing termination against a misbehaving API
	maxPages = 10
)

// Client issues the synchronous HTTPS requests shared by all fetchers.
// There is no retry, no backoff, and no response caching: a failed request
// is a single failure for that package. The optional bearer token is
// attached only to requests the fetcher marks as GitHub API calls.
type Client struct {
	httpClient  *http.Client
	limiter     *rate.Limiter
	githubToken string
	cmp         version.Comparator
}

// NewClient creates an upstream client. githubToken may be empty; cmp is
// the comparator used by fetchers that must pick a maximum across
// collected candidates.
func NewClient(githubToken string, cmp version.Comparator) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		// Space requests out a little; this is politeness, not retry logic.
		limiter:     rate.NewLimiter(rate.Every(100*time.Millisecond), 1),
		githubToken: strings.TrimSpace(githubToken),
		cmp:         cmp,
	}
}

// SetHTTPClient replaces the underlying HTTP client (useful for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Comparator returns the comparator fetchers use for candidate selection.
func (c *Client) Comparator() version.Comparator {
	return c.cmp
}

// do executes a single request. github selects whether the bearer token is
// attached; only GitHub API fetchers set it.
func (c *Client) do(ctx context.Context, method, url string, github bool, header http.Header) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", userAgent)
	for key, values := range header {
		for _, v := range values {
			req.Header.Set(key, v)
		}
	}
	if github {
		req.Header.Set("Accept", "application/vnd.github.v3+json")
		if c.githubToken != "" {
			req.Header.Set("Authorization", "Bearer "+c.githubToken)
		}
	}

	return c.httpClient.Do(req)
}

// getBody fetches url and returns the whole response body.
func (c *Client) getBody(ctx context.Context, url string, github bool) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, url, github, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d for %s", ErrHTTPStatus, resp.StatusCode, url)
	}

	return io.ReadAll(resp.Body)
}

// getJSON fetches url and decodes a single JSON object into v.
func (c *Client) getJSON(ctx context.Context, url string, github bool, v interface{}) error {
	body, err := c.getBody(ctx, url, github)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
	}
	return nil
}

// apiEnvelope is the error-object shape APIs answer with instead of data,
// e.g. GitHub's rate-limit notice {"message": "API rate limit exceeded"}.
type apiEnvelope struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// decodeList decodes data into v (a pointer to a slice) after verifying
// the response actually is an array. An object carrying an error message
// is surfaced as ErrAPIError; list-consuming fetchers never iterate the
// fields of an error object.
func decodeList(data []byte, v interface{}) error {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return fmt.Errorf("%w: empty response", ErrUnexpectedShape)
	}

	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, v); err != nil {
			return fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
		}
		return nil
	case '{':
		var envelope apiEnvelope
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
		}
		msg := envelope.Message
		if msg == "" {
			msg = envelope.Error
		}
		if msg == "" {
			msg = "expected array, got object"
		}
		return fmt.Errorf("%w: %s", ErrAPIError, msg)
	default:
		return fmt.Errorf("%w: expected array", ErrUnexpectedShape)
	}
}

// getList fetches url and decodes a JSON array into v with the
// error-envelope guard applied.
func (c *Client) getList(ctx context.Context, url string, github bool, v interface{}) error {
	body, err := c.getBody(ctx, url, github)
	if err != nil {
		return err
	}
	return decodeList(body, v)
}
