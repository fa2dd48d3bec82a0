// Package main provides the entry point for the apitrail CLI.
//
// apitrail discovers the link structure of REST APIs by crawling them
// breadth-first, starting from a seed URL and following HAL, JSON:API,
// and plain href/url links found in JSON responses.
//
// Usage:
//
//	apitrail crawl https://api.example.com
//	apitrail crawl -f tree -o api.json https://api.example.com
//
// See --help for all available options.
package main

// main is the entry point for apitrail.
func main() {
	Execute()
}
