package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/apitrail/apitrail/internal/config"
)

// newAPIServer serves canned JSON documents keyed by path. Unknown paths
// return an empty object so links to them still fetch cleanly.
func newAPIServer(t *testing.T, docs map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if doc, ok := docs[r.URL.Path]; ok {
			w.Write([]byte(doc)) //nolint:errcheck
			return
		}
		w.Write([]byte(`{}`)) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, seed string) *config.Config {
	t.Helper()
	cfg := config.NewConfig()
	cfg.Seed = seed
	cfg.Delay = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	return cfg
}

func TestCrawler_Run(t *testing.T) {
	t.Parallel()

	t.Run("follows links breadth-first", func(t *testing.T) {
		t.Parallel()
		srv := newAPIServer(t, map[string]string{
			"/": `{"_links": {
				"self":   {"href": "/"},
				"users":  {"href": "/users"},
				"orders": {"href": "/orders"}
			}}`,
			"/users": `{"_links": {"self": {"href": "/users"}}}`,
		})

		cfg := testConfig(t, srv.URL+"/")
		result, err := New(cfg).Run(context.Background())
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		if len(result.Endpoints) != 2 {
			t.Fatalf("len(Endpoints) = %d, want 2: %+v", len(result.Endpoints), result.Endpoints)
		}
		if result.Stats.URLsProcessed != 3 {
			t.Errorf("URLsProcessed = %d, want 3", result.Stats.URLsProcessed)
		}
		if result.Stats.SuccessfulRequests != 3 {
			t.Errorf("SuccessfulRequests = %d, want 3", result.Stats.SuccessfulRequests)
		}
		if result.Stats.MaxDepthReached != 1 {
			t.Errorf("MaxDepthReached = %d, want 1", result.Stats.MaxDepthReached)
		}
		if result.StartURL != srv.URL+"/" {
			t.Errorf("StartURL = %q", result.StartURL)
		}
	})

	t.Run("discovery order is deterministic at concurrency 1", func(t *testing.T) {
		t.Parallel()
		srv := newAPIServer(t, map[string]string{
			"/": `{"_links": {
				"alpha": {"href": "/alpha"},
				"beta":  {"href": "/beta"},
				"gamma": {"href": "/gamma"}
			}}`,
		})

		cfg := testConfig(t, srv.URL+"/")
		cfg.Concurrency = 1
		result, err := New(cfg).Run(context.Background())
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		want := []string{"alpha", "beta", "gamma"}
		if len(result.Endpoints) != len(want) {
			t.Fatalf("len(Endpoints) = %d, want %d", len(result.Endpoints), len(want))
		}
		for i, rel := range want {
			if result.Endpoints[i].Rel != rel {
				t.Errorf("Endpoints[%d].Rel = %q, want %q", i, result.Endpoints[i].Rel, rel)
			}
		}
	})

	t.Run("depth limit drops deep records entirely", func(t *testing.T) {
		t.Parallel()
		srv := newAPIServer(t, map[string]string{
			"/":  `{"_links": {"a": {"href": "/a"}}}`,
			"/a": `{"_links": {"b": {"href": "/b"}}}`,
			"/b": `{"_links": {"c": {"href": "/c"}}}`,
		})

		cfg := testConfig(t, srv.URL+"/")
		cfg.MaxDepth = 1
		result, err := New(cfg).Run(context.Background())
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		for _, ep := range result.Endpoints {
			if ep.Depth > 1 {
				t.Errorf("record past depth limit emitted: %+v", ep)
			}
		}
		if len(result.Endpoints) != 1 {
			t.Errorf("len(Endpoints) = %d, want 1", len(result.Endpoints))
		}
		if result.Stats.URLsSkipped == 0 {
			t.Error("URLsSkipped = 0, want deep candidate counted")
		}
		if result.Stats.URLsProcessed != 2 {
			t.Errorf("URLsProcessed = %d, want 2 (seed and /a)", result.Stats.URLsProcessed)
		}
	})

	t.Run("zero max depth crawls without bound", func(t *testing.T) {
		t.Parallel()
		srv := newAPIServer(t, map[string]string{
			"/":  `{"_links": {"a": {"href": "/a"}}}`,
			"/a": `{"_links": {"b": {"href": "/b"}}}`,
			"/b": `{"_links": {"c": {"href": "/c"}}}`,
			"/c": `{}`,
		})

		cfg := testConfig(t, srv.URL+"/")
		cfg.MaxDepth = 0
		result, err := New(cfg).Run(context.Background())
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		if len(result.Endpoints) != 3 {
			t.Errorf("len(Endpoints) = %d, want 3", len(result.Endpoints))
		}
		if result.Stats.URLsProcessed != 4 {
			t.Errorf("URLsProcessed = %d, want 4", result.Stats.URLsProcessed)
		}
		if result.Stats.MaxDepthReached != 3 {
			t.Errorf("MaxDepthReached = %d, want 3", result.Stats.MaxDepthReached)
		}
	})

	t.Run("url budget stops fetching", func(t *testing.T) {
		t.Parallel()
		srv := newAPIServer(t, map[string]string{
			"/": `{"_links": {
				"a": {"href": "/a"},
				"b": {"href": "/b"}
			}}`,
		})

		cfg := testConfig(t, srv.URL+"/")
		cfg.MaxURLs = 1
		result, err := New(cfg).Run(context.Background())
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		if result.Stats.URLsProcessed != 1 {
			t.Errorf("URLsProcessed = %d, want 1", result.Stats.URLsProcessed)
		}
		// Discovery still happened on the one fetched page.
		if len(result.Endpoints) != 2 {
			t.Errorf("len(Endpoints) = %d, want 2", len(result.Endpoints))
		}
		if result.Stats.URLsSkipped != 2 {
			t.Errorf("URLsSkipped = %d, want 2", result.Stats.URLsSkipped)
		}
	})

	t.Run("domain restriction skips external hosts", func(t *testing.T) {
		t.Parallel()
		srv := newAPIServer(t, map[string]string{
			"/": `{"_links": {
				"internal": {"href": "/internal"},
				"external": {"href": "https://elsewhere.example.org/api"}
			}}`,
		})

		cfg := testConfig(t, srv.URL+"/")
		cfg.AllowedDomains = []string{cfg.SeedHost()}
		result, err := New(cfg).Run(context.Background())
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		// The external record is still discovered; only its fetch is gated.
		if len(result.Endpoints) != 2 {
			t.Errorf("len(Endpoints) = %d, want 2", len(result.Endpoints))
		}
		if result.Stats.URLsProcessed != 2 {
			t.Errorf("URLsProcessed = %d, want 2 (seed and /internal)", result.Stats.URLsProcessed)
		}
		if result.Stats.URLsSkipped != 1 {
			t.Errorf("URLsSkipped = %d, want 1", result.Stats.URLsSkipped)
		}
	})

	t.Run("identical discoveries collapse but address fetches once", func(t *testing.T) {
		t.Parallel()
		srv := newAPIServer(t, map[string]string{
			"/": `{
				"links": {"users": "/users"},
				"data": [{"url": "/users", "rel": "users"}]
			}`,
		})

		cfg := testConfig(t, srv.URL+"/")
		result, err := New(cfg).Run(context.Background())
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		if len(result.Endpoints) != 1 {
			t.Fatalf("len(Endpoints) = %d, want duplicate collapsed to 1: %+v",
				len(result.Endpoints), result.Endpoints)
		}
		if result.Stats.URLsProcessed != 2 {
			t.Errorf("URLsProcessed = %d, want 2", result.Stats.URLsProcessed)
		}
	})

	t.Run("same address under two parents appears twice", func(t *testing.T) {
		t.Parallel()
		srv := newAPIServer(t, map[string]string{
			"/":  `{"_links": {"a": {"href": "/a"}, "b": {"href": "/b"}}}`,
			"/a": `{"_links": {"shared": {"href": "/shared"}}}`,
			"/b": `{"_links": {"shared": {"href": "/shared"}}}`,
		})

		cfg := testConfig(t, srv.URL+"/")
		result, err := New(cfg).Run(context.Background())
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		var sharedRecords, sharedFetches int
		for _, ep := range result.Endpoints {
			if ep.URL == srv.URL+"/shared" {
				sharedRecords++
			}
		}
		if sharedRecords != 2 {
			t.Errorf("records for /shared = %d, want one per parent", sharedRecords)
		}
		// 4 distinct addresses fetched: seed, /a, /b, /shared once.
		sharedFetches = result.Stats.URLsProcessed
		if sharedFetches != 4 {
			t.Errorf("URLsProcessed = %d, want 4", sharedFetches)
		}
		if result.Stats.URLsSkipped != 1 {
			t.Errorf("URLsSkipped = %d, want second /shared visit counted", result.Stats.URLsSkipped)
		}
	})

	t.Run("failed fetch is recorded and crawl continues", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/":
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"_links": {"bad": {"href": "/bad"}, "good": {"href": "/good"}}}`)) //nolint:errcheck
			case "/bad":
				http.Error(w, "boom", http.StatusInternalServerError)
			default:
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{}`)) //nolint:errcheck
			}
		}))
		t.Cleanup(srv.Close)

		cfg := testConfig(t, srv.URL+"/")
		result, err := New(cfg).Run(context.Background())
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		if result.Stats.FailedRequests != 1 {
			t.Errorf("FailedRequests = %d, want 1", result.Stats.FailedRequests)
		}
		if len(result.Stats.Errors) != 1 {
			t.Fatalf("len(Errors) = %d, want 1", len(result.Stats.Errors))
		}
		if result.Stats.Errors[0].URL != srv.URL+"/bad" {
			t.Errorf("error URL = %q", result.Stats.Errors[0].URL)
		}
		if result.Stats.SuccessfulRequests != 2 {
			t.Errorf("SuccessfulRequests = %d, want 2", result.Stats.SuccessfulRequests)
		}
	})

	t.Run("non-JSON response counts as failure", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`<html></html>`)) //nolint:errcheck
		}))
		t.Cleanup(srv.Close)

		cfg := testConfig(t, srv.URL+"/")
		result, err := New(cfg).Run(context.Background())
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if result.Stats.FailedRequests != 1 {
			t.Errorf("FailedRequests = %d, want 1", result.Stats.FailedRequests)
		}
		if len(result.Endpoints) != 0 {
			t.Errorf("len(Endpoints) = %d, want 0", len(result.Endpoints))
		}
	})

	t.Run("self relation is recorded but never followed", func(t *testing.T) {
		t.Parallel()
		srv := newAPIServer(t, map[string]string{
			"/": `{"links": {"self": "/"}}`,
		})

		cfg := testConfig(t, srv.URL+"/")
		result, err := New(cfg).Run(context.Background())
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		if len(result.Endpoints) != 1 || result.Endpoints[0].Rel != "self" {
			t.Fatalf("Endpoints = %+v, want single self record", result.Endpoints)
		}
		if result.Stats.URLsProcessed != 1 {
			t.Errorf("URLsProcessed = %d, want self link not refetched", result.Stats.URLsProcessed)
		}
	})

	t.Run("cancelled context aborts with partial result", func(t *testing.T) {
		t.Parallel()
		srv := newAPIServer(t, map[string]string{
			"/": `{"_links": {"a": {"href": "/a"}}}`,
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		cfg := testConfig(t, srv.URL+"/")
		c := New(cfg)
		result, err := c.Run(ctx)
		if err == nil {
			t.Fatal("Run() with cancelled context returned nil error")
		}
		if result == nil {
			t.Fatal("Run() returned nil result on abort")
		}
		if c.State() != StateAborted {
			t.Errorf("State() = %v, want aborted", c.State())
		}
	})

	t.Run("state transitions on success", func(t *testing.T) {
		t.Parallel()
		srv := newAPIServer(t, map[string]string{"/": `{}`})

		cfg := testConfig(t, srv.URL+"/")
		c := New(cfg)
		if c.State() != StateIdle {
			t.Errorf("State() = %v before run, want idle", c.State())
		}
		if _, err := c.Run(context.Background()); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if c.State() != StateCompleted {
			t.Errorf("State() = %v after run, want completed", c.State())
		}
	})
}

func TestCrawler_Run_Delay(t *testing.T) {
	t.Parallel()

	srv := newAPIServer(t, map[string]string{"/": `{}`})
	cfg := testConfig(t, srv.URL+"/")
	cfg.Delay = 50 * time.Millisecond

	start := time.Now()
	if _, err := New(cfg).Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("run finished in %v, want at least the configured delay", elapsed)
	}
}
