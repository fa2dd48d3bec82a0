// Package fetch provides the HTTP transport used by the crawl scheduler.
//
// The scheduler depends only on the Fetcher interface, which keeps the
// crawl logic testable against canned responses and isolates the concrete
// net/http configuration (headers, timeout, redirect policy, body limits)
// in one place.
package fetch
