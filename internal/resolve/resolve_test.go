package resolve

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestResolve_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Errorf("expected a user agent header")
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><title>ok</title></html>"))
	}))
	defer srv.Close()

	c := &Client{Timeout: 2 * time.Second}
	out := c.Resolve(context.Background(), srv.URL)
	if !out.Accessible() {
		t.Fatalf("expected accessible outcome, got status=%d reason=%q", out.StatusCode, out.Reason)
	}
	if out.StatusCode != 200 || len(out.Body) == 0 {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if out.FinalURL != srv.URL {
		t.Fatalf("expected final url %q, got %q", srv.URL, out.FinalURL)
	}
}

func TestResolve_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := &Client{Timeout: 2 * time.Second}
	out := c.Resolve(context.Background(), srv.URL)
	if out.Accessible() {
		t.Fatalf("expected inaccessible outcome")
	}
	if out.StatusCode != 404 || out.Reason != "HTTP 404" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}

func TestResolve_FollowsRedirectsAndRecordsFinalURL(t *testing.T) {
	final := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>landing page</html>"))
	}))
	defer final.Close()
	hop := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, final.URL+"/article", http.StatusFound)
	}))
	defer hop.Close()

	c := &Client{Timeout: 2 * time.Second}
	out := c.Resolve(context.Background(), hop.URL)
	if !out.Accessible() {
		t.Fatalf("expected accessible outcome, got %+v", out)
	}
	if !strings.HasPrefix(out.FinalURL, final.URL) {
		t.Fatalf("expected final url on landing server, got %q", out.FinalURL)
	}
	if out.URL != hop.URL {
		t.Fatalf("original url must be preserved, got %q", out.URL)
	}
}

func TestResolve_TooManyRedirects(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL, http.StatusFound)
	}))
	defer srv.Close()

	c := &Client{Timeout: 2 * time.Second, RedirectMaxHops: 3}
	out := c.Resolve(context.Background(), srv.URL)
	if out.Accessible() {
		t.Fatalf("expected failure on redirect loop")
	}
	if !strings.Contains(out.Reason, "redirect") {
		t.Fatalf("expected redirect failure reason, got %q", out.Reason)
	}
}

func TestResolve_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	c := &Client{Timeout: 50 * time.Millisecond}
	out := c.Resolve(context.Background(), srv.URL)
	if out.Accessible() {
		t.Fatalf("expected timeout failure")
	}
	if out.StatusCode != 0 {
		t.Fatalf("transport failure should carry no status, got %d", out.StatusCode)
	}
	if out.Reason != "timeout" {
		t.Fatalf("expected timeout reason, got %q", out.Reason)
	}
}

func TestResolve_RejectsNonHTTPScheme(t *testing.T) {
	c := &Client{}
	out := c.Resolve(context.Background(), "ftp://example.org/data")
	if out.Accessible() || out.Reason == "" {
		t.Fatalf("expected unsupported scheme failure, got %+v", out)
	}
}

func TestPickUserAgent_FromPool(t *testing.T) {
	c := &Client{}
	pool := make(map[string]bool, len(defaultUserAgents))
	for _, ua := range defaultUserAgents {
		pool[ua] = true
	}
	for i := 0; i < 20; i++ {
		if ua := c.pickUserAgent(); !pool[ua] {
			t.Fatalf("user agent %q not from pool", ua)
		}
	}
}
