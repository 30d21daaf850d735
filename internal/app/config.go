package app

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/transformgrid/internal/buildop"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	PlanPath  string // hcl files
	OutputDir string // root of every step's output directory

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	WorkerCount     int

	// Lenient reports failed chains without failing the run.
	Lenient bool

	// GraphDOTPath, when set, receives the execution graph in DOT format.
	GraphDOTPath string
	// HistoryPath, when set, is the SQLite database every run is recorded in.
	HistoryPath string

	Tracing *buildop.TracingConfig
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.PlanPath == "" {
		return nil, errors.New("PlanPath is a required configuration field and cannot be empty")
	}
	if cfg.OutputDir == "" {
		return nil, errors.New("OutputDir is a required configuration field and cannot be empty")
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid log format '%s': must be 'text' or 'json'", cfg.LogFormat)
	}
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	if cfg.WorkerCount < 1 {
		return nil, fmt.Errorf("invalid worker count %d: must be at least 1", cfg.WorkerCount)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("invalid healthcheck port %d", cfg.HealthcheckPort)
	}
	if cfg.Tracing == nil {
		cfg.Tracing = buildop.DefaultTracingConfig()
	}
	if cfg.Tracing.SampleRate < 0 || cfg.Tracing.SampleRate > 1 {
		return nil, fmt.Errorf("invalid trace sample rate %v: must be between 0 and 1", cfg.Tracing.SampleRate)
	}

	return &cfg, nil
}
