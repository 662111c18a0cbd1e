package upstream

import (
	"context"
	"fmt"
	"net/url"
)

// Production endpoints for the language package registries. Tests point
// BaseURL at a local server instead.
const (
	pypiAPIBase     = "https://pypi.org"
	npmAPIBase      = "https://registry.npmjs.org"
	cratesAPIBase   = "https://crates.io/api/v1"
	rubygemsAPIBase = "https://rubygems.org/api/v1"
)

// defaultDistTag is the npm release channel used when the feed names none
const defaultDistTag = "latest"

// PyPISource resolves the latest release of a package on PyPI.
type PyPISource struct {
	BaseURL string
	Package string
}

// Name returns the strategy name for diagnostics.
func (s *PyPISource) Name() string { return "pypi" }

// Fetch projects info.version out of the package JSON document.
// A missing field yields an empty result, not an error.
func (s *PyPISource) Fetch(ctx context.Context, c *Client) (string, error) {
	var doc struct {
		Info struct {
			Version string `json:"version"`
		} `json:"info"`
	}

	reqURL := fmt.Sprintf("%s/pypi/%s/json", s.BaseURL, url.PathEscape(s.Package))
	if err := c.getJSON(ctx, reqURL, false, &doc); err != nil {
		return "", err
	}

	return doc.Info.Version, nil
}

// NpmSource resolves a dist-tag of a package on the npm registry.
type NpmSource struct {
	BaseURL string
	Package string
	DistTag string // release channel; empty means "latest"
}

// Name returns the strategy name for diagnostics.
func (s *NpmSource) Name() string { return "npm" }

// Fetch projects the configured dist-tag out of the packument.
func (s *NpmSource) Fetch(ctx context.Context, c *Client) (string, error) {
	var doc struct {
		DistTags map[string]string `json:"dist-tags"`
	}

	// Scoped package names keep their @scope/ slash form but must escape it.
	reqURL := fmt.Sprintf("%s/%s", s.BaseURL, url.PathEscape(s.Package))
	if err := c.getJSON(ctx, reqURL, false, &doc); err != nil {
		return "", err
	}

	tag := s.DistTag
	if tag == "" {
		tag = defaultDistTag
	}

	return doc.DistTags[tag], nil
}

// CratesSource resolves the latest version of a crate on crates.io.
type CratesSource struct {
	BaseURL    string
	Crate      string
	Prerelease bool
}

// Name returns the strategy name for diagnostics.
func (s *CratesSource) Name() string { return "crates" }

// Fetch projects the max stable version out of the crate document, or the
// absolute max version when prereleases are allowed.
func (s *CratesSource) Fetch(ctx context.Context, c *Client) (string, error) {
	var doc struct {
		Crate struct {
			MaxStableVersion string `json:"max_stable_version"`
			MaxVersion       string `json:"max_version"`
		} `json:"crate"`
	}

	reqURL := fmt.Sprintf("%s/crates/%s", s.BaseURL, url.PathEscape(s.Crate))
	if err := c.getJSON(ctx, reqURL, false, &doc); err != nil {
		return "", err
	}

	if s.Prerelease {
		return doc.Crate.MaxVersion, nil
	}
	return doc.Crate.MaxStableVersion, nil
}

// RubyGemsSource resolves the latest version of a gem on rubygems.org.
type RubyGemsSource struct {
	BaseURL string
	Gem     string
}

// Name returns the strategy name for diagnostics.
func (s *RubyGemsSource) Name() string { return "rubygems" }

// Fetch projects the version field out of the gem document.
func (s *RubyGemsSource) Fetch(ctx context.Context, c *Client) (string, error) {
	var doc struct {
		Version string `json:"version"`
	}

	reqURL := fmt.Sprintf("%s/gems/%s.json", s.BaseURL, url.PathEscape(s.Gem))
	if err := c.getJSON(ctx, reqURL, false, &doc); err != nil {
		return "", err
	}

	return doc.Version, nil
}
