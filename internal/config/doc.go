// Package config defines the crawl configuration, its validation rules,
// and the optional .apitrail YAML file that supplies defaults and
// per-host profiles.
//
// Precedence is fixed: command-line flags override the matching host
// profile, which overrides the file-level defaults, which override the
// built-in defaults.
package config
