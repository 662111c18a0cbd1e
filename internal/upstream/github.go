package upstream

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/aurwatch/aurwatch/internal/version"
)

// githubAPIBase is the production GitHub API endpoint
const githubAPIBase = "https://api.github.com"

// githubRelease is the subset of the releases API response we read
type githubRelease struct {
	TagName    string `json:"tag_name"`
	Draft      bool   `json:"draft"`
	Prerelease bool   `json:"prerelease"`
}

// githubTag is the subset of the tags API response we read
type githubTag struct {
	Name string `json:"name"`
}

// GitHubReleaseSource resolves the newest release of a GitHub repository.
// Releases are returned newest-first, so the first acceptable entry wins;
// drafts are always skipped and prereleases are skipped unless allowed.
type GitHubReleaseSource struct {
	BaseURL    string
	Repo       string // owner/name
	Prerelease bool
}

// Name returns the strategy name for diagnostics.
func (s *GitHubReleaseSource) Name() string { return "github-release" }

// Fetch walks the paginated release list and returns the tag of the first
// acceptable release. An exhausted list yields an empty result.
func (s *GitHubReleaseSource) Fetch(ctx context.Context, c *Client) (string, error) {
	for page := 1; page <= maxPages; page++ {
		url := fmt.Sprintf("%s/repos/%s/releases?per_page=%d&page=%d", s.BaseURL, s.Repo, pageSize, page)

		var releases []githubRelease
		if err := c.getList(ctx, url, true, &releases); err != nil {
			return "", err
		}

		for _, rel := range releases {
			if rel.Draft {
				continue
			}
			if rel.Prerelease && !s.Prerelease {
				continue
			}
			return rel.TagName, nil
		}

		// Empty or short page means the list is exhausted.
		if len(releases) < pageSize {
			break
		}
	}

	return "", nil
}

// GitHubTagSource resolves the newest tag of a GitHub repository. The tags
// API is not guaranteed to be ordered, so every page is collected and the
// maximum is chosen after normalization, never the first hit.
type GitHubTagSource struct {
	BaseURL   string
	Repo      string // owner/name
	TagPrefix string // keep only tags with this prefix, stripped before normalization
	TagRegex  string // keep only tags matching this pattern
	Pattern   string // version_regex applied after decoration stripping
	Template  string // version_format template for Pattern
}

// Name returns the strategy name for diagnostics.
func (s *GitHubTagSource) Name() string { return "github-tag" }

// Fetch collects all candidate tags across pages, normalizes each one, and
// returns the maximum according to the client's comparator.
func (s *GitHubTagSource) Fetch(ctx context.Context, c *Client) (string, error) {
	var filter *regexp.Regexp
	if s.TagRegex != "" {
		re, err := regexp.Compile(s.TagRegex)
		if err != nil {
			return "", fmt.Errorf("%w: %v", version.ErrInvalidPattern, err)
		}
		filter = re
	}

	var candidates []string
	for page := 1; page <= maxPages; page++ {
		url := fmt.Sprintf("%s/repos/%s/tags?per_page=%d&page=%d", s.BaseURL, s.Repo, pageSize, page)

		var tags []githubTag
		if err := c.getList(ctx, url, true, &tags); err != nil {
			return "", err
		}

		for _, tag := range tags {
			name := tag.Name
			if s.TagPrefix != "" {
				if !strings.HasPrefix(name, s.TagPrefix) {
					continue
				}
				name = strings.TrimPrefix(name, s.TagPrefix)
			}
			if filter != nil && !filter.MatchString(name) {
				continue
			}

			normalized, err := version.Normalize(name, s.Pattern, s.Template)
			if err != nil {
				return "", err
			}
			if normalized != "" {
				candidates = append(candidates, normalized)
			}
		}

		if len(tags) < pageSize {
			break
		}
	}

	return version.SelectMax(c.Comparator(), candidates), nil
}
