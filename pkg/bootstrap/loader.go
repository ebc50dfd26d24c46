package bootstrap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

const logPrefix = "bootstrap:loader"

// LoadListenConfig loads the first readable and parseable file among paths,
// then the conventional locations. It falls back to an empty config.
func LoadListenConfig(paths ...string) (*ListenConfig, error) {
	all := make([]string, 0, len(paths)+3)
	for _, p := range paths {
		if p != "" {
			all = append(all, p)
		}
	}
	all = append(all, "config/listen.yaml", "config/listen.json", "listen.yaml")

	for _, p := range all {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}

		cfg, err := ParseListenConfig(p, data)
		if err != nil {
			slog.Warn(fmt.Sprintf("%s - Failed to parse listen file %s: %v", logPrefix, p, err))
			continue
		}

		slog.Info(fmt.Sprintf("%s - Loaded %d listen entries from %s", logPrefix, len(cfg.Listen), p))
		return cfg, nil
	}

	slog.Info(fmt.Sprintf("%s - No listen file found, starting without bootstrap subscriptions", logPrefix))
	return GetDefaultListenConfig(), nil
}

// ParseListenConfig decodes a JSON or YAML listen file. The format is chosen
// by the extension of path. Unknown root keys are rejected.
func ParseListenConfig(path string, data []byte) (*ListenConfig, error) {
	j, err := coerceToJSON(path, data)
	if err != nil {
		return nil, fmt.Errorf("%s - %s: %w", logPrefix, path, err)
	}

	dec := json.NewDecoder(bytes.NewReader(j))
	dec.DisallowUnknownFields()

	var cfg ListenConfig
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%s - %s: %w", logPrefix, path, err)
	}
	return &cfg, nil
}

// GetDefaultListenConfig returns the empty fallback configuration.
func GetDefaultListenConfig() *ListenConfig {
	return &ListenConfig{Name: "default"}
}
