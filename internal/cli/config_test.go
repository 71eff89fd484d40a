package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadConfigFormats(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "config.toml")
	writeFile(t, tomlPath, `
grid = "12,8"
solver = "auction"
max_occurrences = 3
cache = "none"
`)
	yamlPath := filepath.Join(dir, "config.yaml")
	writeFile(t, yamlPath, `
grid: "12,8"
solver: auction
max_occurrences: 3
cache: none
`)

	for _, path := range []string{tomlPath, yamlPath} {
		t.Run(filepath.Ext(path), func(t *testing.T) {
			cfg, err := loadConfig(path)
			if err != nil {
				t.Fatalf("loadConfig() error: %v", err)
			}
			if cfg.Grid != "12,8" || cfg.Solver != "auction" || cfg.MaxOccurrences != 3 || cfg.Cache != "none" {
				t.Errorf("loadConfig() = %+v", cfg)
			}
		})
	}
}

func TestLoadConfigDefaultMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if *cfg != (fileConfig{}) {
		t.Errorf("loadConfig() = %+v, want empty config", cfg)
	}
}

func TestLoadConfigDefaultLocation(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)
	if err := os.MkdirAll(filepath.Join(base, appName), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(base, appName, configFile), `metric = "norm-l2"`)

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if cfg.Metric != "norm-l2" {
		t.Errorf("Metric = %q, want norm-l2", cfg.Metric)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	ini := filepath.Join(dir, "config.ini")
	writeFile(t, ini, "grid=1")
	broken := filepath.Join(dir, "broken.toml")
	writeFile(t, broken, "grid = ")

	for _, path := range []string{filepath.Join(dir, "missing.toml"), ini, broken} {
		if _, err := loadConfig(path); err == nil {
			t.Errorf("loadConfig(%q) should fail", path)
		}
	}
}

func TestApplyConfig(t *testing.T) {
	var flags planFlags
	cmd := &cobra.Command{Use: "plan"}
	flags.register(cmd)
	if err := cmd.ParseFlags([]string{"--solver", "greedy"}); err != nil {
		t.Fatal(err)
	}

	cfg := &fileConfig{Solver: "auction", Metric: "norm-l2", MaxOccurrences: 2, Redis: "ignored:6379"}
	if err := applyConfig(cmd, cfg); err != nil {
		t.Fatalf("applyConfig() error: %v", err)
	}

	if flags.solver != "greedy" {
		t.Errorf("solver = %q, command line should win", flags.solver)
	}
	if flags.metric != "norm-l2" || flags.maxOccurrences != 2 {
		t.Errorf("metric = %q, max-occurrences = %d, want config values", flags.metric, flags.maxOccurrences)
	}
	if cmd.Flags().Changed("metric") {
		t.Error("seeded flags should not count as changed")
	}
}
