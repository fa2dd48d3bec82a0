package crawler

import (
	"sync"
	"time"

	"github.com/apitrail/apitrail/internal/model"
)

// aggregator collects accepted endpoints and run counters from all workers.
// Everything is guarded by one mutex; contention is negligible next to the
// network round-trips the workers spend their time on.
type aggregator struct {
	mu        sync.Mutex
	endpoints []model.Endpoint
	stats     model.Stats
}

func newAggregator() *aggregator {
	return &aggregator{}
}

// atBudget reports whether the URL budget is already spent.
func (a *aggregator) atBudget(max int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats.URLsProcessed >= max
}

// reserveFetch atomically claims one slot of the URL budget. It returns
// false, counting the address as skipped, once max fetches are underway.
func (a *aggregator) reserveFetch(max int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stats.URLsProcessed >= max {
		a.stats.URLsSkipped++
		return false
	}
	a.stats.URLsProcessed++
	return true
}

// recordSkip counts one address dropped by a gate.
func (a *aggregator) recordSkip() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stats.URLsSkipped++
}

// recordSuccess counts one parseable page fetched at the given depth.
func (a *aggregator) recordSuccess(depth int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stats.SuccessfulRequests++
	if depth > a.stats.MaxDepthReached {
		a.stats.MaxDepthReached = depth
	}
}

// recordFailure counts one failed fetch and keeps its description.
func (a *aggregator) recordFailure(e model.CrawlError) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stats.FailedRequests++
	a.stats.Errors = append(a.stats.Errors, e)
}

// addEndpoint appends one accepted record in discovery order.
func (a *aggregator) addEndpoint(ep model.Endpoint) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.endpoints = append(a.endpoints, ep)
}

// freeze assembles the immutable result. Called exactly once, after all
// workers have exited.
func (a *aggregator) freeze(seed string, startedAt time.Time) *model.Result {
	a.mu.Lock()
	defer a.mu.Unlock()

	completedAt := time.Now()
	a.stats.TotalTimeMs = completedAt.Sub(startedAt).Milliseconds()

	endpoints := a.endpoints
	if endpoints == nil {
		endpoints = []model.Endpoint{}
	}
	return &model.Result{
		StartURL:    seed,
		Endpoints:   endpoints,
		Stats:       a.stats,
		StartedAt:   startedAt,
		CompletedAt: completedAt,
	}
}
