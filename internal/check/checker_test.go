package check

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/aurwatch/aurwatch/internal/feeds"
	"github.com/aurwatch/aurwatch/internal/upstream"
)

// writeTree lays out a package tree and watchfile for an end-to-end
// check run against a local test server.
func writeTree(t *testing.T, serverURL string) (root, watchfile string) {
	t.Helper()
	root = t.TempDir()

	pkgbuilds := map[string]string{
		"hello":      "pkgver=1.0.0\npkgrel=2\n",
		"current":    "pkgver=2.1.0\npkgrel=1\n",
		"ahead":      "pkgver=3.5.0\npkgrel=1\n",
		"flaky":      "pkgver=1.0\npkgrel=1\n",
		"pinned":     "pkgver=0.9\npkgrel=1\n",
		"neovim-git": "pkgver=0.10.r100.gabcdef\npkgrel=1\n",
		"orphan":     "pkgver=7\npkgrel=1\n",
	}
	for name, content := range pkgbuilds {
		dir := filepath.Join(root, name)
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("mkdir failed: %v", err)
		}
		if err := os.WriteFile(filepath.Join(dir, "PKGBUILD"), []byte(content), 0644); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}

	doc := fmt.Sprintf(`
schema = 2

[packages.hello]
type = "text"
url = "%[1]s/hello"
pattern = 'Latest: (v[0-9.]+)'

[packages.current]
type = "text"
url = "%[1]s/current"
pattern = 'Latest: (v[0-9.]+)'

[packages.ahead]
type = "text"
url = "%[1]s/ahead"
pattern = 'Latest: (v[0-9.]+)'

[packages.flaky]
type = "text"
url = "%[1]s/broken"
pattern = 'Latest: (v[0-9.]+)'

[packages.fresh]
type = "text"
url = "%[1]s/fresh"
pattern = 'Latest: (v[0-9.]+)'

[packages.pinned]
type = "manual"

[packages.neovim-git]
type = "text"
url = "%[1]s/forbidden"
pattern = 'Latest: (v[0-9.]+)'
`, serverURL)

	watchfile = filepath.Join(root, "watchfile.toml")
	if err := os.WriteFile(watchfile, []byte(doc), 0644); err != nil {
		t.Fatalf("write watchfile failed: %v", err)
	}
	return root, watchfile
}

func newCheckServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/hello":
			fmt.Fprint(w, "Latest: v2.1.0")
		case "/current":
			fmt.Fprint(w, "Latest: v2.1.0")
		case "/ahead":
			fmt.Fprint(w, "Latest: v3.4.0")
		case "/fresh":
			fmt.Fprint(w, "Latest: v1.0.0")
		case "/forbidden":
			t.Error("VCS packages must never be probed")
			w.WriteHeader(http.StatusForbidden)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
}

func newChecker(t *testing.T) (*Checker, func()) {
	t.Helper()

	server := newCheckServer(t)
	root, watchfile := writeTree(t, server.URL)

	cfg, err := feeds.Load(watchfile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	client := upstream.NewClient("", numCmp{})
	return NewChecker(cfg, client, root), server.Close
}

func TestCheckAll(t *testing.T) {
	checker, cleanup := newChecker(t)
	defer cleanup()

	results := checker.Check(context.Background(), nil)

	byName := make(map[string]Result, len(results))
	for _, res := range results {
		byName[res.Package] = res
	}

	tests := []struct {
		pkg          string
		wantStatus   Status
		wantUpstream string
	}{
		{"hello", StatusUpdate, "2.1.0"},
		{"current", StatusOK, "2.1.0"},
		{"ahead", StatusNewer, "3.4.0"},
		{"flaky", StatusUnknown, ""},
		{"fresh", StatusUpdate, "1.0.0"},
		{"pinned", StatusManual, ""},
		{"neovim-git", StatusVCS, ""},
	}

	for _, tt := range tests {
		res, ok := byName[tt.pkg]
		if !ok {
			t.Errorf("no result for %s", tt.pkg)
			continue
		}
		if res.Status != tt.wantStatus {
			t.Errorf("%s: status = %v, want %v", tt.pkg, res.Status, tt.wantStatus)
		}
		if res.UpstreamVersion != tt.wantUpstream {
			t.Errorf("%s: upstream = %q, want %q", tt.pkg, res.UpstreamVersion, tt.wantUpstream)
		}
	}

	if byName["flaky"].Err == nil {
		t.Error("a failed probe should surface its error")
	}
	if byName["hello"].CurrentVersion != "1.0.0" {
		t.Errorf("hello: current = %q, want 1.0.0", byName["hello"].CurrentVersion)
	}
	if byName["fresh"].CurrentVersion != "" {
		t.Errorf("fresh has no PKGBUILD, current must be empty, got %q", byName["fresh"].CurrentVersion)
	}
}

func TestCheckExplicitPackages(t *testing.T) {
	checker, cleanup := newChecker(t)
	defer cleanup()

	results := checker.Check(context.Background(), []string{"orphan", "hello"})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	if results[0].Package != "orphan" || results[0].Status != StatusNoFeed {
		t.Errorf("orphan: got %s/%v, want no-feed", results[0].Package, results[0].Status)
	}
	if results[1].Package != "hello" || results[1].Status != StatusUpdate {
		t.Errorf("hello: got %s/%v, want update", results[1].Package, results[1].Status)
	}
}

func TestCheckFailureIsolation(t *testing.T) {
	checker, cleanup := newChecker(t)
	defer cleanup()

	// flaky comes before hello alphabetically; its failure must not
	// stop the rest of the batch.
	results := checker.Check(context.Background(), []string{"flaky", "hello", "current"})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Status != StatusUnknown {
		t.Errorf("flaky: status = %v, want unknown", results[0].Status)
	}
	if results[1].Status != StatusUpdate || results[2].Status != StatusOK {
		t.Error("packages after a failed probe must still be checked")
	}
}
