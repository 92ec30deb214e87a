package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/labelaudit/internal/domain/join"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LABELAUDIT_"

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML): path argument, else LABELAUDIT_CONFIG
//  3. env (prefix LABELAUDIT_)
func Load(ctx context.Context, path string) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// LABELAUDIT_OUT_DIR -> out_dir; underscores are kept to match koanf tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	// decoding a list into a non-empty slice would merge by index
	cfg.LabelsOfInterest = nil
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if len(cfg.LabelsOfInterest) == 0 {
		cfg.LabelsOfInterest = DefaultLabelsOfInterest()
	}
	return &cfg, nil
}

// Validate checks the settings a report run depends on.
func (c *Config) Validate() error {
	switch {
	case c.Lookback <= 0:
		return fmt.Errorf("%w: lookback must be positive", ErrInvalidConfig)
	case c.TopN <= 0:
		return fmt.Errorf("%w: top_n must be positive", ErrInvalidConfig)
	case c.FetchRetries < 0:
		return fmt.Errorf("%w: fetch_retries must not be negative", ErrInvalidConfig)
	case c.EventsFile == "" && c.APIURL == "":
		return fmt.Errorf("%w: one of events_file or api_url is required", ErrInvalidConfig)
	case c.EventsFile == "" && c.ProjectID == "":
		return fmt.Errorf("%w: project_id is required with api_url", ErrInvalidConfig)
	}
	if c.JoinPolicy != "" {
		if _, err := join.ParsePolicy(c.JoinPolicy); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	for i, l := range c.LabelsOfInterest {
		if strings.TrimSpace(l.Name) == "" || strings.TrimSpace(l.Label) == "" {
			return fmt.Errorf("%w: labels_of_interest[%d] needs name and label", ErrInvalidConfig, i)
		}
	}
	return nil
}
