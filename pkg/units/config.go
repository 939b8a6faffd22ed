package units

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Config mirrors the subset of Engine construction knobs worth parking
// in a file instead of flags: the definitions database to load, the
// active locale, dialect switches, and the default display format.
// Zero-valued fields are left at Engine's own defaults.
type Config struct {
	Definitions string `yaml:"definitions"`
	Locale      string `yaml:"locale"`
	UTF8        bool   `yaml:"utf8"`
	OldStar     bool   `yaml:"oldstar"`
	Format      string `yaml:"format"`
	Quiet       bool   `yaml:"quiet"`
}

// defaultConfigCandidates mirrors defaultDefinitionsCandidates's
// search-path convention, for callers that want a config file found
// rather than named explicitly.
var defaultConfigCandidates = []string{
	"units.yaml",
	"units.yml",
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

// FindConfig searches defaultConfigCandidates in order and loads the
// first one that exists. It returns (nil, nil) if none are found,
// which callers should treat as "no config, use defaults".
func FindConfig() (*Config, error) {
	for _, c := range defaultConfigCandidates {
		if _, err := os.Stat(c); err == nil {
			return LoadConfig(c)
		}
	}
	return nil, nil
}

// WithConfig applies every non-zero field of cfg except Definitions as
// the corresponding Option, in the same order a caller would have passed
// them by hand. Definitions is not applied here.
// A nil cfg is a no-op, so callers can chain units.New(units.WithConfig(cfg), ...)
// unconditionally even when FindConfig found nothing.
func WithConfig(cfg *Config) Option {
	return func(e *Engine) {
		if cfg == nil {
			return
		}
		if cfg.Locale != "" {
			WithLocale(cfg.Locale)(e)
		}
		if cfg.UTF8 {
			WithUTF8(true)(e)
		}
		if cfg.OldStar {
			WithOldStar(true)(e)
		}
		if cfg.Format != "" {
			WithFormat(cfg.Format)(e)
		}
		if cfg.Quiet {
			WithQuiet(true)(e)
		}
	}
}
