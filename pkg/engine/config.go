package engine

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/focusloop/attention-budget/pkg/nudge"
	"github.com/focusloop/attention-budget/pkg/plan"
)

// FileConfig is the on-disk engine configuration: plan table overrides and
// the nudge sink pipeline.
type FileConfig struct {
	Plans map[string]plan.Limits `yaml:"plans,omitempty"`
	Sinks []nudge.SinkConfig     `yaml:"sinks"`
}

// LoadConfig loads engine configuration from a YAML file. Values support
// environment variable expansion in the form ${VAR} or ${VAR:default}.
func LoadConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expanded := expandEnvVars(string(data))

	var config FileConfig
	if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks the configuration for common errors.
func (c *FileConfig) Validate() error {
	sinkIDs := make(map[string]bool)
	for _, sink := range c.Sinks {
		if sink.ID == "" {
			return fmt.Errorf("sink with empty ID found")
		}
		if sinkIDs[sink.ID] {
			return fmt.Errorf("duplicate sink ID: %s", sink.ID)
		}
		sinkIDs[sink.ID] = true

		if sink.Type == "" {
			return fmt.Errorf("sink %s has empty type", sink.ID)
		}
	}

	for tier := range c.Plans {
		switch plan.Tier(tier) {
		case plan.TierFree, plan.TierPro, plan.TierTrial, plan.TierTest:
		default:
			return fmt.Errorf("unknown plan tier in config: %s", tier)
		}
	}

	return nil
}

// PlanTable merges the file's plan overrides over the built-in defaults.
func (c *FileConfig) PlanTable() plan.Table {
	table := plan.DefaultTable()
	for tier, limits := range c.Plans {
		table[plan.Tier(tier)] = limits
	}
	return table
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}.
func expandEnvVars(s string) string {
	return os.Expand(s, func(key string) string {
		parts := strings.SplitN(key, ":", 2)
		varName := parts[0]
		defaultValue := ""
		if len(parts) == 2 {
			defaultValue = parts[1]
		}

		value := os.Getenv(varName)
		if value == "" {
			return defaultValue
		}
		return value
	})
}
