package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

// numCmp orders dot/hyphen-delimited numeric versions element-wise. Tests
// use it instead of the vercmp comparator so they run on hosts without
// pacman.
type numCmp struct{}

func splitSegments(v string) []string {
	return strings.FieldsFunc(v, func(r rune) bool {
		return r == '.' || r == '-'
	})
}

func (numCmp) Compare(a, b string) int {
	as := splitSegments(a)
	bs := splitSegments(b)

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

// newTestClient builds a client with no request spacing, so paginated
// tests do not sleep.
func newTestClient(token string) *Client {
	c := NewClient(token, numCmp{})
	c.limiter = rate.NewLimiter(rate.Inf, 1)
	return c
}

func TestDecodeListArray(t *testing.T) {
	var tags []githubTag
	err := decodeList([]byte(`[{"name":"v1.0"},{"name":"v1.1"}]`), &tags)
	if err != nil {
		t.Fatalf("decodeList failed: %v", err)
	}
	if len(tags) != 2 || tags[0].Name != "v1.0" {
		t.Errorf("decoded %v", tags)
	}
}

func TestDecodeListErrorEnvelope(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"message field", `{"message": "API rate limit exceeded for 1.2.3.4"}`},
		{"error field", `{"error": "project not found"}`},
		{"bare object", `{"unexpected": true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tags []githubTag
			err := decodeList([]byte(tt.body), &tags)
			if !errors.Is(err, ErrAPIError) {
				t.Errorf("expected ErrAPIError, got %v", err)
			}
			if len(tags) != 0 {
				t.Errorf("error object must never populate the list, got %v", tags)
			}
		})
	}
}

func TestDecodeListRateLimitMessageSurfaced(t *testing.T) {
	var tags []githubTag
	err := decodeList([]byte(`{"message": "API rate limit exceeded"}`), &tags)
	if err == nil || !strings.Contains(err.Error(), "API rate limit exceeded") {
		t.Errorf("rate-limit message should be surfaced, got %v", err)
	}
}

func TestDecodeListGarbage(t *testing.T) {
	var tags []githubTag

	for _, body := range []string{"", "   ", "not json", `"a string"`} {
		if err := decodeList([]byte(body), &tags); !errors.Is(err, ErrUnexpectedShape) {
			t.Errorf("decodeList(%q): expected ErrUnexpectedShape, got %v", body, err)
		}
	}
}

func TestGitHubTokenAppliedToGitHubRequestsOnly(t *testing.T) {
	var githubAuth, plainAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/github":
			githubAuth = r.Header.Get("Authorization")
		case "/plain":
			plainAuth = r.Header.Get("Authorization")
		}
		w.Write([]byte("{}"))
	}))
	defer server.Close()

	c := newTestClient("s3cret")
	ctx := context.Background()

	if _, err := c.getBody(ctx, server.URL+"/github", true); err != nil {
		t.Fatalf("github request failed: %v", err)
	}
	if _, err := c.getBody(ctx, server.URL+"/plain", false); err != nil {
		t.Fatalf("plain request failed: %v", err)
	}

	if githubAuth != "Bearer s3cret" {
		t.Errorf("github request Authorization = %q, want bearer token", githubAuth)
	}
	if plainAuth != "" {
		t.Errorf("non-github request must not carry the token, got %q", plainAuth)
	}
}

func TestGetBodyStatuses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.Write([]byte("ok"))
		}
	}))
	defer server.Close()

	c := newTestClient("")
	ctx := context.Background()

	if _, err := c.getBody(ctx, server.URL+"/missing", false); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := c.getBody(ctx, server.URL+"/broken", false); !errors.Is(err, ErrHTTPStatus) {
		t.Errorf("expected ErrHTTPStatus, got %v", err)
	}
	if body, err := c.getBody(ctx, server.URL+"/ok", false); err != nil || string(body) != "ok" {
		t.Errorf("getBody = %q, %v", body, err)
	}
}

func TestTimeoutIsAProbeFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	c := newTestClient("")
	c.SetHTTPClient(&http.Client{Timeout: 20 * time.Millisecond})

	_, err := c.getBody(context.Background(), server.URL, false)
	if err == nil {
		t.Fatal("expected a timeout error")
	}
}
