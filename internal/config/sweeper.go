package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// SweeperConfig configures the one-shot pipeline job.
type SweeperConfig struct {
	Env             string
	APIURL          string
	PipelineAPIKey  string
	RequestTimeout  time.Duration
	RecordSnapshots bool
}

// LoadSweeper reads the sweeper configuration from the environment.
// MONETA_API_URL and PIPELINE_API_KEY are required.
func LoadSweeper() (*SweeperConfig, error) {
	cfg := &SweeperConfig{
		Env:            getEnv("ENV", "development"),
		APIURL:         strings.TrimRight(os.Getenv("MONETA_API_URL"), "/"),
		PipelineAPIKey: os.Getenv("PIPELINE_API_KEY"),
	}
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("MONETA_API_URL is required")
	}
	if cfg.PipelineAPIKey == "" {
		return nil, fmt.Errorf("PIPELINE_API_KEY is required")
	}

	var err error
	if cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.RecordSnapshots, err = parseBool(os.Getenv("RECORD_SNAPSHOTS"), true); err != nil {
		return nil, fmt.Errorf("invalid RECORD_SNAPSHOTS value: %w", err)
	}

	return cfg, nil
}

func parseBool(s string, defaultVal bool) (bool, error) {
	if s == "" {
		return defaultVal, nil
	}
	switch strings.ToLower(s) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("must be true, false, 1, or 0, got %q", s)
	}
}
