package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/apitrail/apitrail/internal/config"
	"github.com/apitrail/apitrail/internal/dedup"
	"github.com/apitrail/apitrail/internal/extract"
	"github.com/apitrail/apitrail/internal/fetch"
	"github.com/apitrail/apitrail/internal/jsonval"
	"github.com/apitrail/apitrail/internal/model"
)

// State describes where a Crawler is in its lifecycle.
type State int32

// Crawler lifecycle states. A Crawler moves Idle -> Running -> Completed,
// or to Aborted when the context is cancelled mid-run.
const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateAborted
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	}
	return "unknown"
}

// Crawler runs one breadth-first crawl from a validated configuration.
// A Crawler is single-use: Run may be called once.
type Crawler struct {
	cfg     *config.Config
	fetcher fetch.Fetcher
	engine  *extract.Engine
	logger  *slog.Logger
	state   atomic.Int32
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithFetcher replaces the default HTTP fetcher, mainly for tests.
func WithFetcher(f fetch.Fetcher) Option {
	return func(c *Crawler) {
		c.fetcher = f
	}
}

// WithLogger sets the logger used for per-address progress output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		c.logger = logger
	}
}

// New creates a Crawler for cfg, which must already be validated.
func New(cfg *config.Config, opts ...Option) *Crawler {
	c := &Crawler{
		cfg:    cfg,
		engine: extract.New(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.fetcher == nil {
		c.fetcher = fetch.NewHTTPFetcher(cfg.Timeout, cfg.FollowRedirects,
			fetch.WithUserAgent(cfg.UserAgent),
			fetch.WithHeaders(cfg.Headers),
		)
	}
	return c
}

// State returns the crawler's current lifecycle state.
func (c *Crawler) State() State {
	return State(c.state.Load())
}

func (c *Crawler) setState(s State) {
	c.state.Store(int32(s))
}

// Run executes the crawl and returns the frozen result. On context
// cancellation the partial result gathered so far is returned together
// with the context's error.
func (c *Crawler) Run(ctx context.Context) (*model.Result, error) {
	c.setState(StateRunning)
	startedAt := time.Now()

	agg := newAggregator()
	visited := dedup.NewSet()
	identities := dedup.NewSet()
	fr := newFrontier()
	fr.push(item{address: c.cfg.Seed, depth: 0})

	// Unblock workers waiting on the frontier if the context dies.
	watchDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			fr.close()
		case <-watchDone:
		}
	}()

	g := new(errgroup.Group)
	for range c.cfg.Concurrency {
		g.Go(func() error {
			for {
				it, ok := fr.pop()
				if !ok {
					return nil
				}
				c.process(ctx, it, fr, agg, visited, identities)
				fr.done()
			}
		})
	}
	_ = g.Wait() // workers report failures through the aggregator
	close(watchDone)

	result := agg.freeze(c.cfg.Seed, startedAt)
	if err := ctx.Err(); err != nil {
		c.setState(StateAborted)
		return result, err
	}
	c.setState(StateCompleted)

	c.logger.Info("crawl finished",
		slog.String("seed", c.cfg.Seed),
		slog.Int("endpoints", len(result.Endpoints)),
		slog.Int("processed", result.Stats.URLsProcessed),
		slog.Int("failed", result.Stats.FailedRequests),
	)
	return result, nil
}

// process runs one frontier item through the admission gates and, when it
// passes, fetches and extracts the page.
func (c *Crawler) process(ctx context.Context, it item, fr *frontier, agg *aggregator, visited, identities *dedup.Set) {
	if c.cfg.MaxDepth > 0 && it.depth > c.cfg.MaxDepth {
		agg.recordSkip()
		return
	}

	if agg.atBudget(c.cfg.MaxURLs) {
		agg.recordSkip()
		c.logger.Debug("URL budget exhausted", slog.String("url", it.address))
		return
	}

	u, err := url.Parse(it.address)
	if err != nil || !c.cfg.HostAllowed(u.Host) {
		agg.recordSkip()
		c.logger.Debug("skipping address outside allowed domains", slog.String("url", it.address))
		return
	}

	if !visited.Accept(it.address) {
		agg.recordSkip()
		return
	}

	// Racing workers may all pass the budget pre-check; the reservation
	// itself is atomic.
	if !agg.reserveFetch(c.cfg.MaxURLs) {
		return
	}

	if c.cfg.Delay > 0 {
		select {
		case <-time.After(c.cfg.Delay):
		case <-ctx.Done():
			return
		}
	}

	c.logger.Debug("fetching", slog.String("url", it.address), slog.Int("depth", it.depth))

	resp, err := c.fetcher.Fetch(ctx, it.address)
	if err != nil {
		agg.recordFailure(model.CrawlError{URL: it.address, ParentURL: it.parent, Message: err.Error()})
		return
	}
	if !resp.Success() {
		agg.recordFailure(model.CrawlError{
			URL:       it.address,
			ParentURL: it.parent,
			Message:   fmt.Sprintf("HTTP %d", resp.StatusCode),
		})
		return
	}
	if !resp.IsJSON() {
		agg.recordFailure(model.CrawlError{
			URL:       it.address,
			ParentURL: it.parent,
			Message:   fmt.Sprintf("unexpected content type %q", resp.ContentType),
		})
		return
	}

	doc, err := jsonval.Decode(resp.Body)
	if err != nil {
		agg.recordFailure(model.CrawlError{
			URL:       it.address,
			ParentURL: it.parent,
			Message:   fmt.Sprintf("parse JSON: %v", err),
		})
		return
	}

	agg.recordSuccess(it.depth)

	endpoints, anomalies := c.engine.Extract(doc, extract.Source{URL: it.address, Depth: it.depth})
	for _, a := range anomalies {
		agg.recordSkip()
		c.logger.Debug("skipping malformed link",
			slog.String("page", it.address),
			slog.String("href", a.Href),
			slog.String("reason", a.Reason),
		)
	}

	for _, ep := range endpoints {
		// Records past the depth limit are dropped entirely, not just
		// withheld from the frontier.
		if c.cfg.MaxDepth > 0 && ep.Depth > c.cfg.MaxDepth {
			agg.recordSkip()
			continue
		}
		if !identities.Accept(ep.Identity()) {
			continue
		}
		agg.addEndpoint(ep)
		if ep.ShouldFollow() {
			fr.push(item{address: ep.URL, depth: ep.Depth, parent: ep.ParentURL, rel: ep.Rel})
		}
	}
}
