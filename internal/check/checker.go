package check

import (
	"context"
	"fmt"

	"github.com/aurwatch/aurwatch/internal/common/logger"
	"github.com/aurwatch/aurwatch/internal/feeds"
	"github.com/aurwatch/aurwatch/internal/pkgbuild"
	"github.com/aurwatch/aurwatch/internal/upstream"
	"github.com/aurwatch/aurwatch/internal/version"
)

// Result is the outcome of checking a single package.
type Result struct {
	// Package is the package name
	Package string
	// CurrentVersion is the pkgver recorded locally, empty when none
	CurrentVersion string
	// UpstreamVersion is the resolved upstream version, empty on failure
	UpstreamVersion string
	// Status is the classified outcome
	Status Status
	// Err holds the probe or read failure behind an unknown status
	Err error
}

// Checker resolves upstream versions for packages in a local tree.
type Checker struct {
	feeds  *feeds.Config
	client *upstream.Client
	root   string
}

// NewChecker builds a checker over a loaded feed configuration and a
// package tree root.
func NewChecker(cfg *feeds.Config, client *upstream.Client, root string) *Checker {
	return &Checker{
		feeds:  cfg,
		client: client,
		root:   root,
	}
}

// Check resolves the given packages, or every package in the feed
// configuration when the list is empty. Packages are checked one at a
// time; a failure in one never stops the rest.
func (c *Checker) Check(ctx context.Context, packages []string) []Result {
	if len(packages) == 0 {
		packages = c.feeds.PackageNames()
	}

	results := make([]Result, 0, len(packages))
	for _, pkg := range packages {
		results = append(results, c.checkOne(ctx, pkg))
	}
	return results
}

// checkOne resolves a single package. Panics from a misbehaving fetch
// are contained here so the batch continues.
func (c *Checker) checkOne(ctx context.Context, pkg string) (result Result) {
	result = Result{Package: pkg}

	defer func() {
		if r := recover(); r != nil {
			result.Status = StatusUnknown
			result.Err = fmt.Errorf("check panicked: %v", r)
			logger.Error("%s: %v", pkg, result.Err)
		}
	}()

	state := State{Package: pkg, VCSName: pkgbuild.IsVCS(pkg)}

	entry, ok := c.feeds.Entry(pkg)
	if !ok {
		result.Status = Classify(state, c.client.Comparator(), logger.Warn)
		return result
	}
	state.FeedPresent = true
	state.SourceType = entry.SourceType()

	state.LocalVersion = c.localVersion(pkg)
	result.CurrentVersion = state.LocalVersion

	if fetchable(state) {
		upstreamVersion, err := c.probe(ctx, entry)
		if err != nil {
			result.Err = err
			logger.Warn("%s: %v", pkg, err)
		}
		state.UpstreamVersion = upstreamVersion
		result.UpstreamVersion = upstreamVersion
	}

	result.Status = Classify(state, c.client.Comparator(), logger.Warn)
	return result
}

// fetchable reports whether the state will reach the version
// comparison steps, so a probe is worth making.
func fetchable(state State) bool {
	if state.SourceType == upstream.TypeManual || state.SourceType == upstream.TypeVCS {
		return false
	}
	if state.SourceType == "" || !upstream.KnownType(state.SourceType) {
		return false
	}
	return !state.VCSName
}

// localVersion reads pkgver from the package's PKGBUILD. A missing or
// unreadable descriptor yields an empty version, which classifies as
// trivially outdated rather than failing the package.
func (c *Checker) localVersion(pkg string) string {
	path, err := pkgbuild.Find(c.root, pkg)
	if err != nil {
		logger.Debug("%s: %v", pkg, err)
		return ""
	}

	pkgver, err := pkgbuild.ReadField(path, "pkgver")
	if err != nil {
		logger.Debug("%s: %v", pkg, err)
		return ""
	}
	return pkgver
}

// probe fetches and normalizes the upstream version for one entry.
func (c *Checker) probe(ctx context.Context, entry *feeds.Entry) (string, error) {
	fetcher, err := upstream.ParseSource(entry)
	if err != nil {
		return "", err
	}

	raw, err := fetcher.Fetch(ctx, c.client)
	if err != nil {
		return "", err
	}
	if raw == "" {
		return "", nil
	}

	normalized, err := version.Normalize(raw,
		entry.FieldOr("version_regex", ""),
		entry.FieldOr("version_format", ""))
	if err != nil {
		return "", err
	}
	return normalized, nil
}
