// Package crawler implements the breadth-first crawl scheduler.
//
// A fixed pool of workers drains a shared frontier queue. Each worker pops
// an address, applies the admission gates (depth limit, URL budget, domain
// restrictions, visited detection), fetches and parses the page, extracts
// candidate endpoints, and feeds new addresses back into the frontier.
// The run terminates when every queued address has been fully processed
// and no worker can add more.
//
// Two separate dedup sets drive the run: an identity set keyed on
// (address, parent, relation) decides which records reach the output, and
// a visited set keyed on address alone decides which pages are fetched.
// Keeping them apart lets one address appear under several parents while
// still being fetched only once.
package crawler
