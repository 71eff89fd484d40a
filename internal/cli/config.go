package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const configFile = "config.toml"

// fileConfig is the on-disk configuration. Every field seeds the default of
// the flag with the same name; zero values leave the built-in default.
type fileConfig struct {
	Grid           string `toml:"grid" yaml:"grid"`
	Solver         string `toml:"solver" yaml:"solver"`
	Metric         string `toml:"metric" yaml:"metric"`
	MaxOccurrences int    `toml:"max_occurrences" yaml:"max_occurrences"`
	Workers        int    `toml:"workers" yaml:"workers"`
	Cache          string `toml:"cache" yaml:"cache"`
	Redis          string `toml:"redis" yaml:"redis"`
	Store          string `toml:"store" yaml:"store"`
	LogFile        string `toml:"log_file" yaml:"log_file"`
}

// flagValues maps flag names to the configured values.
func (f *fileConfig) flagValues() map[string]string {
	v := map[string]string{
		"grid":     f.Grid,
		"solver":   f.Solver,
		"metric":   f.Metric,
		"cache":    f.Cache,
		"redis":    f.Redis,
		"store":    f.Store,
		"log-file": f.LogFile,
	}
	if f.MaxOccurrences > 0 {
		v["max-occurrences"] = strconv.Itoa(f.MaxOccurrences)
	}
	if f.Workers > 0 {
		v["workers"] = strconv.Itoa(f.Workers)
	}
	return v
}

// loadConfig reads path, or the default config file when path is empty.
// A missing default file yields an empty config; a missing explicit file
// is an error.
func loadConfig(path string) (*fileConfig, error) {
	explicit := path != ""
	if !explicit {
		dir, err := configDir()
		if err != nil {
			return &fileConfig{}, nil
		}
		path = filepath.Join(dir, configFile)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return &fileConfig{}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg fileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		return nil, fmt.Errorf("config %s: unsupported extension %q (use .toml, .yaml or .yml)", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// applyConfig sets every flag of cmd that the user did not pass to its
// configured value. Seeded flags are not marked as changed, so environment
// overrides that check Changed still apply.
func applyConfig(cmd *cobra.Command, cfg *fileConfig) error {
	flags := cmd.Flags()
	for name, value := range cfg.flagValues() {
		if value == "" {
			continue
		}
		f := flags.Lookup(name)
		if f == nil || f.Changed {
			continue
		}
		if err := flags.Set(name, value); err != nil {
			return fmt.Errorf("config %s: %w", name, err)
		}
		f.Changed = false
	}
	return nil
}
