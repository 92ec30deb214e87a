// Package config defines report configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"time"

	"github.com/okian/labelaudit/internal/domain/types"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log lines.
	LogFormat string `koanf:"log_format"`

	// ProjectID is the labeling project whose logs are read.
	ProjectID string `koanf:"project_id"`

	// CredentialPath points at a file holding the API bearer token.
	CredentialPath string `koanf:"credential_path"`

	// APIURL is the base URL of the label-log HTTP endpoint.
	APIURL string `koanf:"api_url"`

	// EventsFile reads an exported label log instead of calling the API.
	EventsFile string `koanf:"events_file"`

	// Lookback is how far back events are fetched, e.g. "336h".
	Lookback time.Duration `koanf:"lookback"`

	// FetchRetries bounds retries of a failed API page.
	FetchRetries int `koanf:"fetch_retries"`

	// OutDir receives CSV reports.
	OutDir string `koanf:"out_dir"`

	// JoinPolicy is label-keyed or time-ordered; empty uses each report's default.
	JoinPolicy string `koanf:"join_policy"`

	// TopN caps annotators listed per label in the underperformer report.
	TopN int `koanf:"top_n"`

	// MetricsTextfile, when set, receives run metrics in Prometheus text format.
	MetricsTextfile string `koanf:"metrics_textfile"`

	// LabelsOfInterest is the ordered catalogue watched for underperformers.
	LabelsOfInterest []types.LabelOfInterest `koanf:"labels_of_interest"`
}

// DefaultLabelsOfInterest is the catalogue used when none is configured.
func DefaultLabelsOfInterest() []types.LabelOfInterest {
	return []types.LabelOfInterest{
		{Name: "UI grounding", Label: "1. UI Grounding: incorrect mouse action compared to model's intended action"},
		{Name: "Thought verification", Label: "10. Thought Verification Error: model does not acknowledge or notice error in previous step"},
		{Name: "UI hallucination", Label: "12. UI / Visual Hallucination: hallucinates UI elements that don’t exist or misinterprets visual information"},
		{Name: "Early stopping", Label: "4. Early Stopping (Premature Task Satisfaction): assuming task is done even when task not complete (Default)"},
	}
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Lookback:         7 * 24 * time.Hour,
		FetchRetries:     3,
		OutDir:           ".",
		TopN:             5,
		LabelsOfInterest: DefaultLabelsOfInterest(),
	}
}
