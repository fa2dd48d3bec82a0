// Package report serializes crawl results into the supported artifact
// formats: a flat endpoint list (pretty or compact JSON), a grouped view
// keyed by parent address, a nested parent/child tree, a markdown report,
// and a terminal summary.
//
// All writers share the Writer interface so the command layer can write to
// files, stdout, or several destinations at once without caring about the
// format.
package report
