// Package database stores crawl run history in a local SQLite file.
//
// Every completed run can be recorded with its seed, headline counters,
// and the full result as JSON, so past discoveries stay queryable without
// re-crawling the API.
package database
