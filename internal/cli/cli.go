// Package cli implements the tessellate command-line interface.
//
// # Commands
//
//   - plan: solve a tile assignment and write it as a plan file
//   - render: draw a plan file with its target and tiles
//   - build: plan and render in one step
//   - grid: show how a target is partitioned into cells
//   - usage: diagram which tiles a plan uses and where they meet
//   - history: browse plans recorded in the plan store
//   - serve: run the HTTP planning API
//   - cache: manage the stage cache
//
// # Configuration
//
// Flag defaults are seeded from $XDG_CONFIG_HOME/tessellate/config.toml or
// the file given with --config (TOML or YAML). Flags on the command line
// always win.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/tessellate/pkg/buildinfo"
	"github.com/matzehuels/tessellate/pkg/cache"
	"github.com/matzehuels/tessellate/pkg/pipeline"
	"github.com/matzehuels/tessellate/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "tessellate"

	cacheFile  = "file"
	cacheRedis = "redis"
	cacheNone  = "none"

	// historyFile is the SQLite database used when no store is configured.
	historyFile = "history.db"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	out     io.Writer
	logFile io.Closer

	verbose    bool
	configPath string
	logPath    string
	cache      string
	redisAddr  string
	storeDSN   string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		out:    w,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// Close releases the log file, if one was opened.
func (c *CLI) Close() error {
	if c.logFile == nil {
		return nil
	}
	err := c.logFile.Close()
	c.logFile = nil
	return err
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Tessellate builds photo mosaics from a directory of tiles",
		Long:         `Tessellate partitions a target image into a grid and assigns a tile image to every cell, minimising the total colour distance under a cap on how often each tile may be reused.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	pf.StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/tessellate/config.toml)")
	pf.StringVar(&c.logPath, "log-file", "", "also write logs to this file, rotated by size")
	pf.StringVar(&c.cache, "cache", cacheFile, "cache backend: file, redis or none")
	pf.StringVar(&c.redisAddr, "redis", "localhost:6379", "Redis address for --cache redis")
	pf.StringVar(&c.storeDSN, "store", "", "plan store: memory, sqlite path or mongodb:// URI (default SQLite in the data dir)")

	root.AddCommand(c.planCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.buildCommand())
	root.AddCommand(c.gridCommand())
	root.AddCommand(c.usageCommand())
	root.AddCommand(c.historyCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup applies the config file, log level and log file before any command runs.
func (c *CLI) setup(cmd *cobra.Command) error {
	cfg, err := loadConfig(c.configPath)
	if err != nil {
		return err
	}
	if err := applyConfig(cmd, cfg); err != nil {
		return err
	}

	if c.verbose {
		c.SetLogLevel(LogDebug)
	}
	if c.logPath != "" && c.logFile == nil {
		c.logFile = teeLogFile(c.Logger, c.out, c.logPath)
	}
	return nil
}

// =============================================================================
// Runner and Store Factories
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cache, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, nil, c.Logger), nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch c.cache {
	case cacheNone:
		return cache.NewNullCache(), nil
	case cacheRedis:
		return cache.NewRedisCache(ctx, cache.RedisOptions{Addr: c.redisAddr})
	case cacheFile, "":
		dir, err := cacheDir()
		if err != nil {
			c.Logger.Warn("no cache directory, caching disabled", "error", err)
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	default:
		return nil, errUnknownCache(c.cache)
	}
}

// openStore opens the configured plan store, defaulting to SQLite in the
// data directory.
func (c *CLI) openStore(ctx context.Context) (store.Store, error) {
	dsn := c.storeDSN
	if dsn == "" {
		dir, err := dataDir()
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
		dsn = filepath.Join(dir, historyFile)
	}
	return store.Open(ctx, dsn)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/tessellate/).
func cacheDir() (string, error) {
	return xdgDir("XDG_CACHE_HOME", ".cache")
}

// configDir returns the config directory (~/.config/tessellate/).
func configDir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// dataDir returns the data directory holding the plan history (~/.local/share/tessellate/).
func dataDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func xdgDir(env, fallback string) (string, error) {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallback, appName), nil
}
