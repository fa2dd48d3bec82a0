package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the working directory and the
// user's home directory.
const FileName = ".apitrail"

// FileConfig mirrors the YAML config file. All fields are optional;
// pointer fields distinguish "absent" from a zero value.
type FileConfig struct {
	// Defaults apply to every crawl regardless of target host.
	Defaults *ProfileConfig `yaml:"defaults,omitempty"`

	// Profiles are keyed by target host and apply when the seed's host
	// matches the key exactly.
	Profiles map[string]*ProfileConfig `yaml:"profiles,omitempty"`
}

// ProfileConfig is one bundle of overridable settings, used both for the
// file-level defaults and for per-host profiles.
type ProfileConfig struct {
	MaxDepth        *int              `yaml:"max_depth,omitempty"`
	Concurrency     *int              `yaml:"concurrency,omitempty"`
	TimeoutSeconds  *int              `yaml:"timeout_seconds,omitempty"`
	MaxURLs         *int              `yaml:"max_urls,omitempty"`
	DelayMs         *int              `yaml:"delay_ms,omitempty"`
	UserAgent       *string           `yaml:"user_agent,omitempty"`
	FollowRedirects *bool             `yaml:"follow_redirects,omitempty"`
	Headers         map[string]string `yaml:"headers,omitempty"`
	AllowedDomains  []string          `yaml:"allowed_domains,omitempty"`
	Format          *string           `yaml:"format,omitempty"`
}

// LoadFile reads and parses the config file at path.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return &fc, nil
}

// FindConfigFile looks for the config file in the current directory first,
// then in the user's home directory. It returns an empty path when neither
// exists.
func FindConfigFile() string {
	if _, err := os.Stat(FileName); err == nil {
		return FileName
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(home, FileName)
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

// Apply layers the file's settings onto cfg: defaults first, then the
// profile matching host. Header maps merge, profile entries winning.
func (fc *FileConfig) Apply(cfg *Config, host string) error {
	if fc.Defaults != nil {
		if err := fc.Defaults.apply(cfg); err != nil {
			return err
		}
	}
	if p, ok := fc.Profiles[host]; ok && p != nil {
		if err := p.apply(cfg); err != nil {
			return err
		}
	}
	return nil
}

func (p *ProfileConfig) apply(cfg *Config) error {
	if p.MaxDepth != nil {
		cfg.MaxDepth = *p.MaxDepth
	}
	if p.Concurrency != nil {
		cfg.Concurrency = *p.Concurrency
	}
	if p.TimeoutSeconds != nil {
		cfg.Timeout = time.Duration(*p.TimeoutSeconds) * time.Second
	}
	if p.MaxURLs != nil {
		cfg.MaxURLs = *p.MaxURLs
	}
	if p.DelayMs != nil {
		cfg.Delay = time.Duration(*p.DelayMs) * time.Millisecond
	}
	if p.UserAgent != nil {
		cfg.UserAgent = *p.UserAgent
	}
	if p.FollowRedirects != nil {
		cfg.FollowRedirects = *p.FollowRedirects
	}
	if len(p.Headers) > 0 {
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string, len(p.Headers))
		}
		for k, v := range p.Headers {
			cfg.Headers[k] = v
		}
	}
	if len(p.AllowedDomains) > 0 {
		cfg.AllowedDomains = append(cfg.AllowedDomains, p.AllowedDomains...)
	}
	if p.Format != nil {
		f, err := ParseFormat(*p.Format)
		if err != nil {
			return err
		}
		cfg.Format = f
	}
	return nil
}
