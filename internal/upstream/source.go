package upstream

import (
	"context"
	"errors"
	"fmt"

	"github.com/aurwatch/aurwatch/internal/feeds"
)

var (
	// ErrUnknownSourceType is returned for a source type no fetch strategy
	// handles
	ErrUnknownSourceType = errors.New("unrecognized source type")
	// ErrNotFetchable is returned for source types that carry no upstream
	// to query (manual, vcs)
	ErrNotFetchable = errors.New("source type has no upstream to query")
	// ErrMissingParam is returned when a feed entry lacks a parameter its
	// source type requires
	ErrMissingParam = errors.New("missing required feed parameter")
)

// Source types the checker recognizes. TypeManual and TypeVCS are
// classification-only: they never reach a fetcher.
const (
	TypeGitHubRelease = "github-release"
	TypeGitHubTag     = "github-tag"
	TypeGitLabTag     = "gitlab-tag"
	TypePyPI          = "pypi"
	TypeNpm           = "npm"
	TypeCrates        = "crates"
	TypeRubyGems      = "rubygems"
	TypeDebian        = "debian"
	TypeRedirect      = "redirect"
	TypeHTML          = "html"
	TypeText          = "text"
	TypeManual        = "manual"
	TypeVCS           = "vcs"
)

// KnownType reports whether t names a recognized source type.
func KnownType(t string) bool {
	switch t {
	case TypeGitHubRelease, TypeGitHubTag, TypeGitLabTag,
		TypePyPI, TypeNpm, TypeCrates, TypeRubyGems,
		TypeDebian, TypeRedirect, TypeHTML, TypeText,
		TypeManual, TypeVCS:
		return true
	}
	return false
}

// Fetcher turns fetch parameters into a raw upstream identifier. An empty
// result with a nil error means the source had no usable value; any error
// is a probe failure scoped to the one package.
type Fetcher interface {
	Fetch(ctx context.Context, c *Client) (string, error)

	// Name returns the strategy name for diagnostics
	Name() string
}

// ParseSource builds the fetch strategy for a feed entry. The switch is
// exhaustive over the known source types; anything else is an
// ErrUnknownSourceType so new types cannot silently fall through.
func ParseSource(entry *feeds.Entry) (Fetcher, error) {
	typ := entry.SourceType()

	switch typ {
	case TypeGitHubRelease:
		repo, err := requireField(entry, "repo")
		if err != nil {
			return nil, err
		}
		return &GitHubReleaseSource{
			BaseURL:    githubAPIBase,
			Repo:       repo,
			Prerelease: entry.FieldOr("prerelease", "false") == "true",
		}, nil

	case TypeGitHubTag:
		repo, err := requireField(entry, "repo")
		if err != nil {
			return nil, err
		}
		return &GitHubTagSource{
			BaseURL:   githubAPIBase,
			Repo:      repo,
			TagPrefix: entry.FieldOr("tag_prefix", ""),
			TagRegex:  entry.FieldOr("tag_regex", ""),
			Pattern:   entry.FieldOr("version_regex", ""),
			Template:  entry.FieldOr("version_format", ""),
		}, nil

	case TypeGitLabTag:
		project, err := requireField(entry, "repo")
		if err != nil {
			return nil, err
		}
		return &GitLabTagSource{
			BaseURL:  entry.FieldOr("url", gitlabAPIBase),
			Project:  project,
			TagRegex: entry.FieldOr("tag_regex", ""),
		}, nil

	case TypePyPI:
		pkg, err := requireField(entry, "package")
		if err != nil {
			return nil, err
		}
		return &PyPISource{BaseURL: pypiAPIBase, Package: pkg}, nil

	case TypeNpm:
		pkg, err := requireField(entry, "package")
		if err != nil {
			return nil, err
		}
		return &NpmSource{
			BaseURL: npmAPIBase,
			Package: pkg,
			DistTag: entry.FieldOr("dist_tag", defaultDistTag),
		}, nil

	case TypeCrates:
		crate, err := requireField(entry, "package")
		if err != nil {
			return nil, err
		}
		return &CratesSource{
			BaseURL:    cratesAPIBase,
			Crate:      crate,
			Prerelease: entry.FieldOr("prerelease", "false") == "true",
		}, nil

	case TypeRubyGems:
		gem, err := requireField(entry, "package")
		if err != nil {
			return nil, err
		}
		return &RubyGemsSource{BaseURL: rubygemsAPIBase, Gem: gem}, nil

	case TypeDebian:
		pkg, err := requireField(entry, "package")
		if err != nil {
			return nil, err
		}
		mirror, err := requireField(entry, "mirror")
		if err != nil {
			return nil, err
		}
		return &DebianSource{
			Mirror:    mirror,
			Suite:     entry.FieldOr("suite", "sid"),
			Component: entry.FieldOr("component", "main"),
			Package:   pkg,
		}, nil

	case TypeRedirect:
		u, err := requireField(entry, "url")
		if err != nil {
			return nil, err
		}
		pattern, err := requireField(entry, "pattern")
		if err != nil {
			return nil, err
		}
		return &RedirectSource{URL: u, Pattern: pattern}, nil

	case TypeHTML:
		u, err := requireField(entry, "url")
		if err != nil {
			return nil, err
		}
		return &HTMLSource{
			URL:      u,
			Selector: entry.FieldOr("selector", ""),
			XPath:    entry.FieldOr("xpath", ""),
			Pattern:  entry.FieldOr("pattern", ""),
		}, nil

	case TypeText:
		u, err := requireField(entry, "url")
		if err != nil {
			return nil, err
		}
		pattern, err := requireField(entry, "pattern")
		if err != nil {
			return nil, err
		}
		return &TextSource{URL: u, Pattern: pattern}, nil

	case TypeManual, TypeVCS:
		return nil, fmt.Errorf("%w: %s", ErrNotFetchable, typ)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSourceType, typ)
	}
}

// requireField returns a parameter the source type cannot work without.
func requireField(entry *feeds.Entry, name string) (string, error) {
	v, ok := entry.Field(name)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s (package %s)", ErrMissingParam, name, entry.Name())
	}
	return v, nil
}
