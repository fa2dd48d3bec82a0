package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// AppName is the directory name used under the XDG base directories.
const AppName = "apitrail"

// Built-in defaults, used when neither flags nor a config file override them.
const (
	// DefaultMaxDepth is how many levels past the seed are crawled.
	DefaultMaxDepth = 10

	// DefaultConcurrency is the number of parallel crawl workers.
	DefaultConcurrency = 10

	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxURLs is the total fetch budget for one run.
	DefaultMaxURLs = 1000

	// DefaultDelay is the pause each worker takes before a fetch.
	DefaultDelay = 100 * time.Millisecond

	// DefaultUserAgent identifies the crawler to servers.
	DefaultUserAgent = "apitrail/1.0"

	// DefaultFollowRedirects controls whether 3xx responses are chased.
	DefaultFollowRedirects = true
)

// OutputFormat selects the shape of the serialized crawl artifact.
type OutputFormat string

// The supported artifact formats.
const (
	// FormatFlat is the pretty-printed flat endpoint list.
	FormatFlat OutputFormat = "flat"

	// FormatCompact is the flat list without indentation.
	FormatCompact OutputFormat = "compact"

	// FormatGrouped buckets endpoints under their parent address.
	FormatGrouped OutputFormat = "grouped"

	// FormatTree nests endpoints into a parent/child hierarchy.
	FormatTree OutputFormat = "tree"
)

// ParseFormat converts a user-supplied format name to an OutputFormat.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case FormatFlat:
		return FormatFlat, nil
	case FormatCompact:
		return FormatCompact, nil
	case FormatGrouped:
		return FormatGrouped, nil
	case FormatTree:
		return FormatTree, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFormat, s)
}

// Config holds every knob for one crawl run.
type Config struct {
	// Seed is the absolute address the crawl starts from.
	Seed string

	// MaxDepth bounds how far past the seed the crawl goes. The seed is
	// depth 0; a record deeper than MaxDepth is neither kept nor followed.
	// Zero removes the bound.
	MaxDepth int

	// Concurrency is the number of parallel workers.
	Concurrency int

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// MaxURLs caps how many addresses are fetched in total.
	MaxURLs int

	// Delay is the pause each worker takes before issuing a request.
	Delay time.Duration

	// UserAgent is sent as the User-Agent header.
	UserAgent string

	// Headers are extra headers sent with every request.
	Headers map[string]string

	// AllowedDomains restricts fetches to the listed hosts when non-empty.
	// The seed's host is always allowed.
	AllowedDomains []string

	// FollowRedirects controls whether 3xx responses are chased.
	FollowRedirects bool

	// Format selects the artifact shape.
	Format OutputFormat

	// Output is the artifact file path. When empty no artifact is
	// written and only the summary is printed.
	Output string

	// Markdown is an optional path for a human-readable markdown report.
	Markdown string

	// SaveHistory controls whether the run is recorded in the local
	// history database.
	SaveHistory bool

	// Verbose enables debug-level logging.
	Verbose bool
}

// NewConfig returns a Config populated with the built-in defaults.
// The seed is left empty; callers set it before Validate.
func NewConfig() *Config {
	return &Config{
		MaxDepth:        DefaultMaxDepth,
		Concurrency:     DefaultConcurrency,
		Timeout:         DefaultTimeout,
		MaxURLs:         DefaultMaxURLs,
		Delay:           DefaultDelay,
		UserAgent:       DefaultUserAgent,
		FollowRedirects: DefaultFollowRedirects,
		Format:          FormatFlat,
		SaveHistory:     true,
	}
}

// Validate checks the configuration and normalizes the seed address.
// It must be called before the Config is handed to the crawler.
func (c *Config) Validate() error {
	if c.Seed == "" {
		return ErrNoSeed
	}
	u, err := url.Parse(c.Seed)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidSeed, c.Seed)
	}
	u.Fragment = ""
	c.Seed = u.String()

	if c.MaxDepth < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxDepth, c.MaxDepth)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidConcurrency, c.Concurrency)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTimeout, c.Timeout)
	}
	if c.MaxURLs < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxURLs, c.MaxURLs)
	}
	if c.Delay < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidDelay, c.Delay)
	}
	if _, err := ParseFormat(string(c.Format)); err != nil {
		return err
	}
	return nil
}

// SeedHost returns the host of the validated seed address.
func (c *Config) SeedHost() string {
	u, err := url.Parse(c.Seed)
	if err != nil {
		return ""
	}
	return u.Host
}

// HostAllowed reports whether host may be fetched under the domain
// restrictions. An empty allow list permits every host.
func (c *Config) HostAllowed(host string) bool {
	if len(c.AllowedDomains) == 0 {
		return true
	}
	if host == c.SeedHost() {
		return true
	}
	for _, d := range c.AllowedDomains {
		if strings.EqualFold(host, d) {
			return true
		}
	}
	return false
}

// XDGDataDir returns the directory for persistent data such as the
// crawl history database, typically ~/.local/share/apitrail.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGCacheDir returns the cache directory, typically ~/.cache/apitrail.
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// ParseHeader splits a "Name: value" flag into its parts.
func ParseHeader(s string) (name, value string, err error) {
	i := strings.Index(s, ":")
	if i <= 0 {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidHeader, s)
	}
	return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:]), nil
}
