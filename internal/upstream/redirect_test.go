package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRedirectFetchHead(t *testing.T) {
	headSeen := false

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/latest":
			http.Redirect(w, r, "/files/app-1.4.2.tar.gz", http.StatusFound)
		case "/files/app-1.4.2.tar.gz":
			if r.Method == http.MethodHead {
				headSeen = true
			}
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer server.Close()

	src := &RedirectSource{
		URL:     server.URL + "/latest",
		Pattern: `app-([0-9.]+)\.tar`,
	}

	raw, err := src.Fetch(context.Background(), newTestClient(""))
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if raw != "1.4.2" {
		t.Errorf("Fetch = %q, want 1.4.2", raw)
	}
	if !headSeen {
		t.Error("expected a header-only probe first")
	}
}

func TestRedirectFetchRangedFallback(t *testing.T) {
	sawRange := false

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		switch r.URL.Path {
		case "/download":
			http.Redirect(w, r, "/dist/tool-2.0.1.zip", http.StatusMovedPermanently)
		case "/dist/tool-2.0.1.zip":
			if r.Header.Get("Range") == "bytes=0-0" {
				sawRange = true
			}
			w.WriteHeader(http.StatusPartialContent)
			w.Write([]byte("x"))
		}
	}))
	defer server.Close()

	src := &RedirectSource{
		URL:     server.URL + "/download",
		Pattern: `tool-([0-9.]+)\.zip`,
	}

	raw, err := src.Fetch(context.Background(), newTestClient(""))
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if raw != "2.0.1" {
		t.Errorf("Fetch = %q, want 2.0.1", raw)
	}
	if !sawRange {
		t.Error("fallback should request a single byte range")
	}
}

func TestRedirectFetchNoVersionInTarget(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	src := &RedirectSource{
		URL:     server.URL + "/stable",
		Pattern: `app-([0-9.]+)\.tar`,
	}

	_, err := src.Fetch(context.Background(), newTestClient(""))
	if !errors.Is(err, ErrNoVersionInURL) {
		t.Errorf("expected ErrNoVersionInURL, got %v", err)
	}
}
