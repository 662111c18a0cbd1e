package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"

	"github.com/aurwatch/aurwatch/internal/version"
)

var (
	// ErrNoVersionInURL is returned when the final redirect target carries
	// no version-bearing path segment
	ErrNoVersionInURL = errors.New("no version found in redirect target")
)

// RedirectSource resolves a version by following the redirect chain of a
// "latest" style URL and extracting a version-bearing segment of the final
// URL. A header-only probe is preferred; servers that reject HEAD get a
// minimal ranged body fetch instead.
type RedirectSource struct {
	URL     string
	Pattern string // capture pattern applied to the final URL
}

// Name returns the strategy name for diagnostics.
func (s *RedirectSource) Name() string { return "redirect" }

// Fetch follows redirects and applies the capture pattern to the final URL.
func (s *RedirectSource) Fetch(ctx context.Context, c *Client) (string, error) {
	re, err := regexp.Compile(s.Pattern)
	if err != nil {
		return "", fmt.Errorf("%w: %v", version.ErrInvalidPattern, err)
	}

	finalURL, err := s.resolveFinalURL(ctx, c)
	if err != nil {
		return "", err
	}

	matches := re.FindStringSubmatch(finalURL)
	if matches == nil {
		return "", fmt.Errorf("%w: %s", ErrNoVersionInURL, finalURL)
	}
	if len(matches) > 1 {
		return matches[1], nil
	}
	return matches[0], nil
}

// resolveFinalURL follows the redirect chain with HEAD, retrying once with
// a one-byte ranged GET when the server rejects header-only probes.
func (s *RedirectSource) resolveFinalURL(ctx context.Context, c *Client) (string, error) {
	resp, err := c.do(ctx, http.MethodHead, s.URL, false, nil)
	if err == nil {
		defer func() {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}()
		if resp.StatusCode < 400 {
			return resp.Request.URL.String(), nil
		}
		if resp.StatusCode != http.StatusMethodNotAllowed && resp.StatusCode != http.StatusNotImplemented {
			return "", fmt.Errorf("%w: %d for %s", ErrHTTPStatus, resp.StatusCode, s.URL)
		}
	}

	// HEAD rejected or failed outright; ask for a single byte instead.
	header := http.Header{}
	header.Set("Range", "bytes=0-0")

	getResp, err := c.do(ctx, http.MethodGet, s.URL, false, header)
	if err != nil {
		return "", err
	}
	defer func() {
		io.Copy(io.Discard, getResp.Body)
		getResp.Body.Close()
	}()

	if getResp.StatusCode >= 400 {
		return "", fmt.Errorf("%w: %d for %s", ErrHTTPStatus, getResp.StatusCode, s.URL)
	}

	return getResp.Request.URL.String(), nil
}
