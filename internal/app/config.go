package app

import "errors"

// Config holds everything an App instance needs to load a manifest, wire
// its providers, and run.
type Config struct {
	ManifestPath    string // HCL pipeline manifest file or directory
	ModelConfigPath string // YAML model profile file
	ProviderBaseURL string
	ProviderAPIKey  string

	RunID           string
	HealthcheckPort int
	LogFormat       string
	LogLevel        string
}

// NewConfig validates cfg and returns a copy, applying defaults for
// fields left unset.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ManifestPath == "" {
		return nil, errors.New("ManifestPath is a required configuration field and cannot be empty")
	}
	if cfg.RunID == "" {
		cfg.RunID = "default"
	}
	return &cfg, nil
}
