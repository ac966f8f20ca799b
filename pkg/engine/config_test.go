package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/focusloop/attention-budget/pkg/nudge"
	"github.com/focusloop/attention-budget/pkg/plan"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "engine.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
plans:
  free:
    strictShorts: true
    searchThreshold: 5
    dailyLimitMinutes: 60
  pro:
    searchThreshold: 20
    dailyLimitMinutes: 120

sinks:
  - id: log
    type: log
    enabled: true
  - id: hook
    type: webhook
    enabled: false
    parameters:
      url: http://example.com/nudges
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if len(cfg.Sinks) != 2 {
		t.Errorf("sinks = %d, want 2", len(cfg.Sinks))
	}
	if cfg.Sinks[0].ID != "log" || !cfg.Sinks[0].Enabled {
		t.Errorf("first sink = %+v", cfg.Sinks[0])
	}
	if cfg.Plans["pro"].SearchThreshold != 20 {
		t.Errorf("pro override = %+v", cfg.Plans["pro"])
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/engine.yaml"); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestLoadConfigEnvExpansion(t *testing.T) {
	t.Setenv("TEST_NUDGE_URL", "http://hooks.internal/nudge")

	path := writeConfig(t, `
sinks:
  - id: hook
    type: webhook
    enabled: true
    parameters:
      url: ${TEST_NUDGE_URL}
      token: ${TEST_NUDGE_TOKEN:fallback-token}
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	params := cfg.Sinks[0].Parameters
	if params["url"] != "http://hooks.internal/nudge" {
		t.Errorf("url = %v", params["url"])
	}
	if params["token"] != "fallback-token" {
		t.Errorf("token = %v, want the ${VAR:default} fallback", params["token"])
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     FileConfig
		wantErr bool
	}{
		{
			name:    "empty is valid",
			cfg:     FileConfig{},
			wantErr: false,
		},
		{
			name: "duplicate sink id",
			cfg: FileConfig{Sinks: []nudge.SinkConfig{
				{ID: "a", Type: "log"},
				{ID: "a", Type: "log"},
			}},
			wantErr: true,
		},
		{
			name:    "empty sink id",
			cfg:     FileConfig{Sinks: []nudge.SinkConfig{{ID: "", Type: "log"}}},
			wantErr: true,
		},
		{
			name:    "empty sink type",
			cfg:     FileConfig{Sinks: []nudge.SinkConfig{{ID: "a", Type: ""}}},
			wantErr: true,
		},
		{
			name:    "unknown plan tier",
			cfg:     FileConfig{Plans: map[string]plan.Limits{"platinum": {}}},
			wantErr: true,
		},
		{
			name:    "known plan tiers",
			cfg:     FileConfig{Plans: map[string]plan.Limits{"free": {}, "pro": {}}},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPlanTableMergesOverDefaults(t *testing.T) {
	cfg := &FileConfig{Plans: map[string]plan.Limits{
		"pro": {SearchThreshold: 30, DailyLimitMinutes: 180},
	}}
	table := cfg.PlanTable()

	if got := table.Limits(plan.TierPro); got.SearchThreshold != 30 || got.DailyLimitMinutes != 180 {
		t.Errorf("pro limits = %+v", got)
	}
	// Untouched tiers keep defaults.
	if got := table.Limits(plan.TierFree); got.SearchThreshold != 5 {
		t.Errorf("free limits = %+v", got)
	}
}
