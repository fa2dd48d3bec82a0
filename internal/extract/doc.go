// Package extract implements the link-extraction engine that turns one JSON
// document into candidate endpoint records.
//
// Four strategies run over the same document: HAL _links blocks, JSON:API
// links blocks, generic href-bearing objects at any nesting depth, and a
// recursive descent that finds the generic shapes inside containers the
// first two strategies did not claim. Extraction is synchronous and pure;
// duplicate candidates are collapsed downstream by the scheduler.
package extract
