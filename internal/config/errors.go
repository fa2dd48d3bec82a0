package config

import "errors"

var (
	// ErrNoSeed is returned when no start URL was provided.
	ErrNoSeed = errors.New("seed URL is required")

	// ErrInvalidSeed is returned when the start URL is not an absolute
	// http(s) address.
	ErrInvalidSeed = errors.New("seed URL must be an absolute http or https address")

	// ErrInvalidMaxDepth is returned when the depth limit is negative.
	ErrInvalidMaxDepth = errors.New("max depth must not be negative")

	// ErrInvalidConcurrency is returned when the worker count is below one.
	ErrInvalidConcurrency = errors.New("concurrency must be at least 1")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	ErrInvalidTimeout = errors.New("timeout must be positive")

	// ErrInvalidMaxURLs is returned when the URL budget is below one.
	ErrInvalidMaxURLs = errors.New("max URLs must be at least 1")

	// ErrInvalidDelay is returned when the inter-request delay is negative.
	ErrInvalidDelay = errors.New("delay must not be negative")

	// ErrInvalidFormat is returned for an unrecognized output format name.
	ErrInvalidFormat = errors.New("unknown output format")

	// ErrInvalidHeader is returned for a header flag without a colon.
	ErrInvalidHeader = errors.New("header must be in 'Name: value' form")

	// ErrConfigNotFound is returned when an explicitly named config file
	// does not exist.
	ErrConfigNotFound = errors.New("config file not found")
)
