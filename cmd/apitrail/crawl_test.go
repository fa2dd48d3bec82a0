package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/apitrail/apitrail/internal/config"
	"github.com/apitrail/apitrail/internal/log"
	"github.com/apitrail/apitrail/internal/model"
)

func parseCrawlFlags(t *testing.T, args []string) (*config.Config, error) {
	t.Helper()
	cmd := NewCrawlCmd()
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}
	positional := cmd.Flags().Args()
	if len(positional) != 1 {
		t.Fatalf("positional args = %v, want one seed", positional)
	}
	return buildConfig(cmd, positional)
}

func TestBuildConfig(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		cfg, err := parseCrawlFlags(t, []string{"https://api.example.com"})
		if err != nil {
			t.Fatalf("buildConfig() error = %v", err)
		}
		if cfg.Seed != "https://api.example.com" {
			t.Errorf("Seed = %q", cfg.Seed)
		}
		if cfg.MaxDepth != config.DefaultMaxDepth {
			t.Errorf("MaxDepth = %d", cfg.MaxDepth)
		}
		if !cfg.FollowRedirects || !cfg.SaveHistory {
			t.Errorf("FollowRedirects = %v, SaveHistory = %v", cfg.FollowRedirects, cfg.SaveHistory)
		}
		if cfg.Format != config.FormatFlat {
			t.Errorf("Format = %q", cfg.Format)
		}
	})

	t.Run("flags override defaults", func(t *testing.T) {
		t.Parallel()
		cfg, err := parseCrawlFlags(t, []string{
			"-d", "3",
			"--concurrency", "5",
			"-t", "10s",
			"--max-urls", "50",
			"--no-redirects",
			"--no-save",
			"-f", "tree",
			"-H", "Authorization: Bearer tok",
			"-H", "X-Tenant: acme",
			"--allowed-domain", "cdn.example.com",
			"https://api.example.com",
		})
		if err != nil {
			t.Fatalf("buildConfig() error = %v", err)
		}
		if cfg.MaxDepth != 3 || cfg.Concurrency != 5 || cfg.MaxURLs != 50 {
			t.Errorf("limits = %d/%d/%d", cfg.MaxDepth, cfg.Concurrency, cfg.MaxURLs)
		}
		if cfg.Timeout != 10*time.Second {
			t.Errorf("Timeout = %s", cfg.Timeout)
		}
		if cfg.FollowRedirects || cfg.SaveHistory {
			t.Errorf("FollowRedirects = %v, SaveHistory = %v", cfg.FollowRedirects, cfg.SaveHistory)
		}
		if cfg.Format != config.FormatTree {
			t.Errorf("Format = %q", cfg.Format)
		}
		if cfg.Headers["Authorization"] != "Bearer tok" || cfg.Headers["X-Tenant"] != "acme" {
			t.Errorf("Headers = %v", cfg.Headers)
		}
		if len(cfg.AllowedDomains) != 1 || cfg.AllowedDomains[0] != "cdn.example.com" {
			t.Errorf("AllowedDomains = %v", cfg.AllowedDomains)
		}
	})

	t.Run("invalid header rejected", func(t *testing.T) {
		t.Parallel()
		if _, err := parseCrawlFlags(t, []string{"-H", "nocolon", "https://api.example.com"}); err == nil {
			t.Error("buildConfig() accepted malformed header")
		}
	})

	t.Run("invalid format rejected", func(t *testing.T) {
		t.Parallel()
		if _, err := parseCrawlFlags(t, []string{"-f", "xml", "https://api.example.com"}); err == nil {
			t.Error("buildConfig() accepted unknown format")
		}
	})

	t.Run("explicit missing config file fails", func(t *testing.T) {
		t.Parallel()
		if _, err := parseCrawlFlags(t, []string{"-c", "/does/not/exist", "https://api.example.com"}); err == nil {
			t.Error("buildConfig() accepted missing config file")
		}
	})

	t.Run("flags beat profile beats file defaults", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), ".apitrail")
		data := `defaults:
  max_depth: 7
  concurrency: 4
profiles:
  api.example.com:
    max_depth: 5
`
		if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
			t.Fatal(err)
		}

		cfg, err := parseCrawlFlags(t, []string{"-c", path, "-d", "2", "https://api.example.com"})
		if err != nil {
			t.Fatalf("buildConfig() error = %v", err)
		}
		if cfg.MaxDepth != 2 {
			t.Errorf("MaxDepth = %d, want flag value 2", cfg.MaxDepth)
		}
		if cfg.Concurrency != 4 {
			t.Errorf("Concurrency = %d, want file default 4", cfg.Concurrency)
		}
	})
}

func TestCrawlCmd_EndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/":
			w.Write([]byte(`{"_links": {"users": {"href": "/users"}, "orders": {"href": "/orders"}}}`)) //nolint:errcheck
		default:
			w.Write([]byte(`{}`)) //nolint:errcheck
		}
	}))
	t.Cleanup(srv.Close)

	t.Run("writes flat artifact to file", func(t *testing.T) {
		artifact := filepath.Join(t.TempDir(), "out", "result.json")

		cmd := NewRootCmd()
		cmd.SetArgs([]string{
			"crawl", srv.URL + "/",
			"-o", artifact,
			"--no-save",
			"--delay", "0",
		})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}

		data, err := os.ReadFile(artifact)
		if err != nil {
			t.Fatalf("artifact not written: %v", err)
		}
		var result model.Result
		if err := json.Unmarshal(data, &result); err != nil {
			t.Fatalf("artifact is not valid JSON: %v", err)
		}
		if len(result.Endpoints) != 2 {
			t.Errorf("len(endpoints) = %d, want 2", len(result.Endpoints))
		}
		if result.Stats.URLsProcessed != 3 {
			t.Errorf("urls_processed = %d, want 3", result.Stats.URLsProcessed)
		}
	})

	t.Run("writes markdown report alongside artifact", func(t *testing.T) {
		dir := t.TempDir()
		artifact := filepath.Join(dir, "result.json")
		mdPath := filepath.Join(dir, "report.md")

		cmd := NewRootCmd()
		cmd.SetArgs([]string{
			"crawl", srv.URL + "/",
			"-o", artifact,
			"-m", mdPath,
			"--no-save",
			"--delay", "0",
		})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}

		md, err := os.ReadFile(mdPath)
		if err != nil {
			t.Fatalf("markdown report not written: %v", err)
		}
		if !strings.Contains(string(md), "# API Crawl Report") {
			t.Errorf("markdown report missing title:\n%s", md)
		}
	})

	t.Run("invalid seed fails", func(t *testing.T) {
		cmd := NewRootCmd()
		cmd.SetArgs([]string{"crawl", "not-a-url", "--no-save"})
		if err := cmd.Execute(); err == nil {
			t.Error("Execute() accepted invalid seed")
		}
	})

	t.Run("aborted crawl still writes the partial result", func(t *testing.T) {
		artifact := filepath.Join(t.TempDir(), "partial.json")

		cfg := config.NewConfig()
		cfg.Seed = srv.URL + "/"
		cfg.Output = artifact
		cfg.SaveHistory = false
		cfg.Delay = 0
		if err := cfg.Validate(); err != nil {
			t.Fatalf("Validate() error = %v", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := runCrawl(ctx, cfg, log.NewSecureLogger(io.Discard, false))
		if err == nil {
			t.Fatal("runCrawl() with cancelled context returned nil error")
		}

		data, readErr := os.ReadFile(artifact)
		if readErr != nil {
			t.Fatalf("partial artifact not written: %v", readErr)
		}
		var result model.Result
		if jsonErr := json.Unmarshal(data, &result); jsonErr != nil {
			t.Fatalf("partial artifact is not valid JSON: %v", jsonErr)
		}
		if result.StartURL != srv.URL+"/" {
			t.Errorf("start_url = %q", result.StartURL)
		}
	})
}
