package check

import (
	"strconv"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// numCmp orders dotted numeric versions element-wise, standing in for
// the vercmp comparator so tests run without pacman.
type numCmp struct{}

func (numCmp) Compare(a, b string) int {
	as := strings.FieldsFunc(a, func(r rune) bool { return r == '.' || r == '-' })
	bs := strings.FieldsFunc(b, func(r rune) bool { return r == '.' || r == '-' })

	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		var av, bv int
		if i < len(as) {
			av, _ = strconv.Atoi(as[i])
		}
		if i < len(bs) {
			bv, _ = strconv.Atoi(bs[i])
		}
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}

func (numCmp) Degraded() bool { return false }

func TestStatusString(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusNoFeed, "no-feed"},
		{StatusManual, "manual"},
		{StatusVCS, "vcs"},
		{StatusUnknown, "unknown"},
		{StatusUpdate, "update"},
		{StatusOK, "ok"},
		{StatusNewer, "newer"},
		{Status(42), "invalid"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestClassifyChain(t *testing.T) {
	tests := []struct {
		name  string
		state State
		want  Status
	}{
		{
			"no feed entry",
			State{Package: "orphan"},
			StatusNoFeed,
		},
		{
			"manual source",
			State{Package: "pinned", FeedPresent: true, SourceType: "manual"},
			StatusManual,
		},
		{
			"empty source type",
			State{Package: "blank", FeedPresent: true, SourceType: ""},
			StatusManual,
		},
		{
			"unrecognized source type",
			State{Package: "odd", FeedPresent: true, SourceType: "telepathy"},
			StatusManual,
		},
		{
			"vcs source type",
			State{Package: "trunk", FeedPresent: true, SourceType: "vcs"},
			StatusVCS,
		},
		{
			"vcs naming convention",
			State{Package: "neovim-git", FeedPresent: true, SourceType: "github-release", VCSName: true,
				LocalVersion: "1.0", UpstreamVersion: "99.0"},
			StatusVCS,
		},
		{
			"probe produced nothing",
			State{Package: "flaky", FeedPresent: true, SourceType: "pypi", LocalVersion: "1.0"},
			StatusUnknown,
		},
		{
			"no local version",
			State{Package: "fresh", FeedPresent: true, SourceType: "pypi", UpstreamVersion: "1.0.0"},
			StatusUpdate,
		},
		{
			"upstream ahead",
			State{Package: "stale", FeedPresent: true, SourceType: "pypi",
				LocalVersion: "1.9", UpstreamVersion: "1.10"},
			StatusUpdate,
		},
		{
			"versions equal",
			State{Package: "current", FeedPresent: true, SourceType: "pypi",
				LocalVersion: "2.0", UpstreamVersion: "2.0"},
			StatusOK,
		},
		{
			"local ahead",
			State{Package: "eager", FeedPresent: true, SourceType: "pypi",
				LocalVersion: "3.1", UpstreamVersion: "3.0"},
			StatusNewer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.state, numCmp{}, nil); got != tt.want {
				t.Errorf("Classify = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyUnrecognizedTypeWarns(t *testing.T) {
	var warned string
	warn := func(format string, args ...interface{}) {
		warned = format
	}

	Classify(State{Package: "odd", FeedPresent: true, SourceType: "telepathy"}, numCmp{}, warn)
	if warned == "" {
		t.Error("unrecognized source type must trigger a warning")
	}

	warned = ""
	Classify(State{Package: "pinned", FeedPresent: true, SourceType: "manual"}, numCmp{}, warn)
	if warned != "" {
		t.Error("an explicit manual source is not a warning case")
	}
}

func TestClassifyFailedProbeNeverOK(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("empty upstream never classifies as ok", prop.ForAll(
		func(local string) bool {
			status := Classify(State{
				Package:      "p",
				FeedPresent:  true,
				SourceType:   "pypi",
				LocalVersion: local,
			}, numCmp{}, nil)
			return status == StatusUnknown
		},
		gen.RegexMatch(`^[0-9]{1,3}(\.[0-9]{1,3}){0,3}$`),
	))

	properties.Property("vcs wins regardless of versions", prop.ForAll(
		func(local, remote string) bool {
			status := Classify(State{
				Package:         "p-git",
				FeedPresent:     true,
				SourceType:      "github-tag",
				VCSName:         true,
				LocalVersion:    local,
				UpstreamVersion: remote,
			}, numCmp{}, nil)
			return status == StatusVCS
		},
		gen.RegexMatch(`^[0-9]{1,3}(\.[0-9]{1,3}){0,3}$`),
		gen.RegexMatch(`^[0-9]{1,3}(\.[0-9]{1,3}){0,3}$`),
	))

	properties.TestingRun(t)
}
