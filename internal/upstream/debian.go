package upstream

import (
	"bufio"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aurwatch/aurwatch/internal/version"
)

var (
	// ErrIndexMissing is returned when the suite Release index does not
	// reference the expected Sources file
	ErrIndexMissing = errors.New("source index not referenced by Release file")
)

// DebianSource resolves the newest version of a Debian source package via
// the two-stage archive metadata chain: the suite's Release index names a
// compressed Sources document whose Version field holds the value.
type DebianSource struct {
	Mirror    string // archive root, e.g. https://deb.debian.org/debian
	Suite     string // e.g. sid
	Component string // e.g. main
	Package   string // source package name
}

// Name returns the strategy name for diagnostics.
func (s *DebianSource) Name() string { return "debian" }

// Fetch confirms the Sources.gz entry in the Release index, downloads and
// decompresses it, and scans the Package/Version stanzas. When the archive
// carries several versions of the package, the maximum is returned.
func (s *DebianSource) Fetch(ctx context.Context, c *Client) (string, error) {
	sourcesPath := fmt.Sprintf("%s/source/Sources.gz", s.Component)

	releaseURL := fmt.Sprintf("%s/dists/%s/Release", s.Mirror, s.Suite)
	release, err := c.getBody(ctx, releaseURL, false)
	if err != nil {
		return "", err
	}
	if !strings.Contains(string(release), sourcesPath) {
		return "", fmt.Errorf("%w: %s", ErrIndexMissing, sourcesPath)
	}

	sourcesURL := fmt.Sprintf("%s/dists/%s/%s", s.Mirror, s.Suite, sourcesPath)
	resp, err := c.do(ctx, http.MethodGet, sourcesURL, false, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %d for %s", ErrHTTPStatus, resp.StatusCode, sourcesURL)
	}

	gz, err := gzip.NewReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
	}
	defer gz.Close()

	versions, err := scanSources(gz, s.Package)
	if err != nil {
		return "", err
	}

	return version.SelectMax(c.Comparator(), versions), nil
}

// scanSources walks the stanza-structured Sources document and collects
// every Version belonging to the named source package.
func scanSources(r *gzip.Reader, pkg string) ([]string, error) {
	var versions []string
	current := ""

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case line == "":
			current = ""
		case strings.HasPrefix(line, "Package:"):
			current = strings.TrimSpace(strings.TrimPrefix(line, "Package:"))
		case strings.HasPrefix(line, "Version:") && current == pkg:
			v := strings.TrimSpace(strings.TrimPrefix(line, "Version:"))
			if v != "" {
				versions = append(versions, v)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
	}

	return versions, nil
}
