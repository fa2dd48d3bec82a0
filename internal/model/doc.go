// Package model defines the core data structures shared across apitrail:
// discovered endpoints, crawl statistics, and the frozen crawl result.
// It has no dependencies on other internal packages.
package model
