package model

import (
	"fmt"
	"net/url"
	"time"
)

// CrawlError describes one failed or unparseable fetch. The crawl itself
// continues past these; they surface only in the final statistics.
type CrawlError struct {
	// URL is the address whose fetch or parse failed.
	URL string `json:"url"`

	// ParentURL is the address that linked to URL. Empty for the seed.
	ParentURL string `json:"parent_url,omitempty"`

	// Message is the human-readable failure description.
	Message string `json:"message"`
}

// Error implements the error interface.
func (e CrawlError) Error() string {
	return fmt.Sprintf("%s: %s", e.URL, e.Message)
}

// Stats holds counters accumulated during a crawl run.
// Zero counters are omitted from serialized output.
type Stats struct {
	// URLsProcessed is the number of addresses actually fetched.
	URLsProcessed int `json:"urls_processed,omitempty"`

	// SuccessfulRequests counts fetches that returned parseable JSON.
	SuccessfulRequests int `json:"successful_requests,omitempty"`

	// FailedRequests counts fetches that errored, returned non-2xx,
	// or returned a non-JSON body.
	FailedRequests int `json:"failed_requests,omitempty"`

	// URLsSkipped counts addresses dropped by a gate: depth or URL limits,
	// domain restrictions, already-visited detection, or malformed links.
	URLsSkipped int `json:"urls_skipped,omitempty"`

	// MaxDepthReached is the deepest level at which a page was fetched.
	MaxDepthReached int `json:"max_depth_reached,omitempty"`

	// TotalTimeMs is the wall-clock duration of the run in milliseconds.
	TotalTimeMs int64 `json:"total_time_ms,omitempty"`

	// Errors lists every per-address failure encountered.
	Errors []CrawlError `json:"errors,omitempty"`
}

// Result is the frozen outcome of one crawl run. The crawler hands it out
// exactly once, after the frontier has drained; nothing mutates it afterwards.
type Result struct {
	// StartURL is the normalized seed address the crawl began from.
	StartURL string `json:"start_url"`

	// Endpoints holds every accepted record in discovery order.
	// No two entries share the same (href, parent_url, rel) identity.
	Endpoints []Endpoint `json:"endpoints"`

	// Stats holds the run counters.
	Stats Stats `json:"stats"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// CompletedAt is when the frontier drained.
	CompletedAt time.Time `json:"completed_at"`
}

// EndpointsAtDepth returns the endpoints discovered at the given depth,
// preserving discovery order.
func (r *Result) EndpointsAtDepth(depth int) []Endpoint {
	var out []Endpoint
	for _, e := range r.Endpoints {
		if e.Depth == depth {
			out = append(out, e)
		}
	}
	return out
}

// DiscoveredHosts returns the set of distinct hosts across all endpoints.
func (r *Result) DiscoveredHosts() map[string]struct{} {
	hosts := make(map[string]struct{})
	for _, e := range r.Endpoints {
		u, err := url.Parse(e.URL)
		if err != nil || u.Host == "" {
			continue
		}
		hosts[u.Host] = struct{}{}
	}
	return hosts
}

// UniqueParents returns the number of distinct parent addresses, counting
// only endpoints that declare one.
func (r *Result) UniqueParents() int {
	parents := make(map[string]struct{})
	for _, e := range r.Endpoints {
		if e.ParentURL != "" {
			parents[e.ParentURL] = struct{}{}
		}
	}
	return len(parents)
}

// Summary returns a one-line description of the run, used in log output
// and by the history listing.
func (r *Result) Summary() string {
	return fmt.Sprintf("crawled %d URLs, found %d endpoints across %d hosts in %dms",
		r.Stats.URLsProcessed, len(r.Endpoints), len(r.DiscoveredHosts()), r.Stats.TotalTimeMs)
}
