package cms_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"pageforge/internal/config"
	"pageforge/internal/services"
	"pageforge/internal/services/cms"
)

func publishConfig(endpoint string) config.Publish {
	return config.Publish{
		APIEndpoint:    endpoint,
		APIToken:       "token-1",
		BaseURL:        "https://example.com",
		URLPattern:     "{service_slug}/{location_key}",
		SitemapEnabled: true,
		RequestTimeout: 5,
	}
}

func TestPublishSendsIdempotencyKey(t *testing.T) {
	var mu sync.Mutex
	var gotKey, gotAuth string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		gotKey = r.Header.Get("Idempotency-Key")
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"url": "https://example.com/plumber/33442/"})
	}))
	defer server.Close()

	client := cms.NewClient(publishConfig(server.URL))
	url, err := client.Publish(context.Background(), "plumber_33442", "plumber", "33442", "<html></html>")
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if url != "https://example.com/plumber/33442/" {
		t.Fatalf("url = %q", url)
	}
	if gotKey != "plumber_33442" {
		t.Fatalf("Idempotency-Key = %q, want plumber_33442", gotKey)
	}
	if gotAuth != "Bearer token-1" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotBody["task_id"] != "plumber_33442" || gotBody["service_id"] != "plumber" {
		t.Fatalf("unexpected request body: %#v", gotBody)
	}
}

func TestPublishFallsBackToDerivedURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := cms.NewClient(publishConfig(server.URL))
	url, err := client.Publish(context.Background(), "drain_cleaning_90210", "drain_cleaning", "90210", "<html></html>")
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if url != "https://example.com/drain-cleaning/90210/" {
		t.Fatalf("derived url = %q", url)
	}
}

func TestPublishClassifiesHTTPFailures(t *testing.T) {
	cases := []struct {
		status int
		marker error
		fatal  bool
	}{
		{http.StatusTooManyRequests, services.ErrRateLimited, false},
		{http.StatusServiceUnavailable, services.ErrUnavailable, false},
		{http.StatusBadRequest, services.ErrRejected, true},
	}
	for _, tc := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		client := cms.NewClient(publishConfig(server.URL))
		_, err := client.Publish(context.Background(), "plumber_33442", "plumber", "33442", "<html></html>")
		server.Close()
		if !errors.Is(err, tc.marker) {
			t.Fatalf("http %d: err = %v, want marker %v", tc.status, err, tc.marker)
		}
		wantClass := services.ClassRetriable
		if tc.fatal {
			wantClass = services.ClassFatal
		}
		if got := services.Classify(err); got != wantClass {
			t.Fatalf("http %d: class = %s, want %s", tc.status, got, wantClass)
		}
	}
}

func TestPublishRequiresEndpoint(t *testing.T) {
	client := cms.NewClient(config.Publish{BaseURL: "https://example.com", URLPattern: "{service_slug}/{location_key}"})
	_, err := client.Publish(context.Background(), "plumber_33442", "plumber", "33442", "<html></html>")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("err = %v, want configuration marker", err)
	}
}

func TestVerifyChecksFingerprint(t *testing.T) {
	cases := []struct {
		name        string
		status      int
		body        string
		fingerprint string
		want        bool
	}{
		{"fingerprint present", http.StatusOK, `<html><!-- pf-abc123 --></html>`, "pf-abc123", true},
		{"fingerprint missing", http.StatusOK, `<html>different content</html>`, "pf-abc123", false},
		{"page not found", http.StatusNotFound, "", "pf-abc123", false},
		{"no fingerprint, reachable is enough", http.StatusOK, "", "", true},
	}
	for _, tc := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(tc.body))
		}))
		client := cms.NewClient(publishConfig(server.URL))
		ok, err := client.Verify(context.Background(), server.URL, tc.fingerprint)
		server.Close()
		if err != nil {
			t.Fatalf("%s: Verify failed: %v", tc.name, err)
		}
		if ok != tc.want {
			t.Fatalf("%s: Verify = %v, want %v", tc.name, ok, tc.want)
		}
	}
}

func TestUnpublishToleratesMissingPage(t *testing.T) {
	var mu sync.Mutex
	var method, path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		method, path = r.Method, r.URL.Path
		mu.Unlock()
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := cms.NewClient(publishConfig(server.URL))
	if err := client.Unpublish(context.Background(), "plumber_33442"); err != nil {
		t.Fatalf("Unpublish on 404 = %v, want nil", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if method != http.MethodDelete || path != "/plumber_33442" {
		t.Fatalf("unexpected request %s %s", method, path)
	}
}

func TestUnpublishSurfacesServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := cms.NewClient(publishConfig(server.URL))
	if err := client.Unpublish(context.Background(), "plumber_33442"); !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("err = %v, want unavailable marker", err)
	}
}

func TestSubmitSitemap(t *testing.T) {
	var mu sync.Mutex
	var gotPath string
	var gotURLs []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		gotPath = r.URL.Path
		var payload map[string][]string
		_ = json.NewDecoder(r.Body).Decode(&payload)
		gotURLs = payload["urls"]
	}))
	defer server.Close()

	client := cms.NewClient(publishConfig(server.URL))
	urls := []string{"https://example.com/plumber/33442/"}
	if err := client.SubmitSitemap(context.Background(), urls); err != nil {
		t.Fatalf("SubmitSitemap failed: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if gotPath != "/sitemap" {
		t.Fatalf("path = %q, want /sitemap", gotPath)
	}
	if len(gotURLs) != 1 || gotURLs[0] != urls[0] {
		t.Fatalf("urls = %v", gotURLs)
	}
}

func TestSubmitSitemapSkipsWhenDisabledOrEmpty(t *testing.T) {
	cfg := publishConfig("http://unreachable.invalid")
	cfg.SitemapEnabled = false
	client := cms.NewClient(cfg)
	if err := client.SubmitSitemap(context.Background(), []string{"https://example.com/a/"}); err != nil {
		t.Fatalf("disabled sitemap submit = %v, want nil", err)
	}
	cfg.SitemapEnabled = true
	client = cms.NewClient(cfg)
	if err := client.SubmitSitemap(context.Background(), nil); err != nil {
		t.Fatalf("empty sitemap submit = %v, want nil", err)
	}
}

func TestPageURLPattern(t *testing.T) {
	client := cms.NewClient(publishConfig("http://unused.invalid"))
	if got := client.PageURL("Drain_Cleaning", "33442"); got != "https://example.com/drain-cleaning/33442/" {
		t.Fatalf("PageURL = %q", got)
	}
}
