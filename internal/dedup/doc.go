// Package dedup provides the exactly-once admission sets used by the crawl
// scheduler. One set keyed by (href, parent, rel) identity gates which
// records reach the output; a second set keyed by bare address gates which
// pages are fetched. Keeping the two separate is what allows one address to
// surface multiple output records when reached via distinct relations.
package dedup
