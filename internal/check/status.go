// Package check resolves upstream versions for local packages and
// classifies each into a single status.
package check

import (
	"github.com/aurwatch/aurwatch/internal/upstream"
	"github.com/aurwatch/aurwatch/internal/version"
)

// Status is the outcome of checking one package.
type Status int

const (
	// StatusNoFeed means the watchfile has no entry for the package
	StatusNoFeed Status = iota
	// StatusManual means the package is checked by hand, by choice or
	// because its source type is not recognized
	StatusManual
	// StatusVCS means the package builds from a moving VCS revision
	StatusVCS
	// StatusUnknown means the upstream probe produced no version
	StatusUnknown
	// StatusUpdate means upstream is ahead of the local version
	StatusUpdate
	// StatusOK means local and upstream agree
	StatusOK
	// StatusNewer means the local version is ahead of upstream
	StatusNewer
)

var statusNames = map[Status]string{
	StatusNoFeed:  "no-feed",
	StatusManual:  "manual",
	StatusVCS:     "vcs",
	StatusUnknown: "unknown",
	StatusUpdate:  "update",
	StatusOK:      "ok",
	StatusNewer:   "newer",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "invalid"
}

// State carries everything Classify needs about one package.
type State struct {
	Package         string
	FeedPresent     bool
	SourceType      string
	VCSName         bool
	LocalVersion    string
	UpstreamVersion string
}

// Classify reduces a package state to a status. The predicates are
// ordered and the first hit wins, so a VCS package stays vcs no matter
// what versions it carries, and a failed probe is never reported as up
// to date. warn receives a diagnostic when the source type is
// unrecognized; pass nil to ignore.
func Classify(state State, cmp version.Comparator, warn func(format string, args ...interface{})) Status {
	if !state.FeedPresent {
		return StatusNoFeed
	}

	if state.SourceType == upstream.TypeManual {
		return StatusManual
	}
	if state.SourceType == "" || !upstream.KnownType(state.SourceType) {
		if warn != nil {
			warn("%s: unrecognized source type %q, treating as manual", state.Package, state.SourceType)
		}
		return StatusManual
	}

	if state.SourceType == upstream.TypeVCS || state.VCSName {
		return StatusVCS
	}

	if state.UpstreamVersion == "" {
		return StatusUnknown
	}

	if state.LocalVersion == "" {
		return StatusUpdate
	}

	switch c := cmp.Compare(state.LocalVersion, state.UpstreamVersion); {
	case c < 0:
		return StatusUpdate
	case c == 0:
		return StatusOK
	default:
		return StatusNewer
	}
}
