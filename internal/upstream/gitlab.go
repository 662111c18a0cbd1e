package upstream

import (
	"context"
	"fmt"
	"net/url"
	"regexp"

	"github.com/aurwatch/aurwatch/internal/version"
)

// gitlabAPIBase is the gitlab.com API endpoint; self-hosted instances
// override it via the url parameter
const gitlabAPIBase = "https://gitlab.com/api/v4"

// gitlabTag is the subset of the repository tags API response we read
type gitlabTag struct {
	Name string `json:"name"`
}

// GitLabTagSource resolves the newest tag of a GitLab project. GitLab
// returns tags ordered by update time, newest first, so the first tag
// passing the filter wins.
type GitLabTagSource struct {
	BaseURL  string
	Project  string // namespace/project, URL-encoded on request
	TagRegex string // keep only tags matching this pattern
}

// Name returns the strategy name for diagnostics.
func (s *GitLabTagSource) Name() string { return "gitlab-tag" }

// Fetch walks the paginated tag list and returns the first matching tag.
func (s *GitLabTagSource) Fetch(ctx context.Context, c *Client) (string, error) {
	var filter *regexp.Regexp
	if s.TagRegex != "" {
		re, err := regexp.Compile(s.TagRegex)
		if err != nil {
			return "", fmt.Errorf("%w: %v", version.ErrInvalidPattern, err)
		}
		filter = re
	}

	project := url.PathEscape(s.Project)

	for page := 1; page <= maxPages; page++ {
		reqURL := fmt.Sprintf("%s/projects/%s/repository/tags?per_page=%d&page=%d", s.BaseURL, project, pageSize, page)

		var tags []gitlabTag
		if err := c.getList(ctx, reqURL, false, &tags); err != nil {
			return "", err
		}

		for _, tag := range tags {
			if filter != nil && !filter.MatchString(tag.Name) {
				continue
			}
			return tag.Name, nil
		}

		if len(tags) < pageSize {
			break
		}
	}

	return "", nil
}
