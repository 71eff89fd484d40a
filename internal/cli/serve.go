package cli

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/matzehuels/tessellate/pkg/server"
)

// Environment variables read by serve, after loading .env.
const (
	envAddr      = "TESSELLATE_ADDR"
	envRedisAddr = "TESSELLATE_REDIS_ADDR"
	envMongoURI  = "TESSELLATE_MONGO_URI"
	envStore     = "TESSELLATE_STORE"
)

// serveOpts holds the flags of the serve command.
type serveOpts struct {
	addr    string
	root    string
	envFile string
	timeout time.Duration
}

// serveCommand creates the serve command, which runs the HTTP planning API.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP planning API",
		Long: `Serve exposes planning over HTTP. Request paths are resolved against
--root. Settings come from flags, then the environment (a .env file is
loaded first), then the config file.

Environment:
  TESSELLATE_ADDR         listen address
  TESSELLATE_REDIS_ADDR   use Redis as the stage cache
  TESSELLATE_MONGO_URI    store plans in MongoDB
  TESSELLATE_STORE        plan store DSN (memory, SQLite path)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.applyEnv(cmd, &opts); err != nil {
				return err
			}

			runner, err := c.newRunner(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer runner.Close()

			st, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			srv := server.New(server.Config{
				Addr:           opts.addr,
				Root:           opts.root,
				RequestTimeout: opts.timeout,
				Runner:         runner,
				Store:          st,
				Logger:         c.Logger,
			})

			printInfo("Listening on %s", opts.addr)
			printDetail("cache: %s, root: %s", c.cache, opts.root)
			return srv.ListenAndServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().StringVar(&opts.root, "root", ".", "directory request paths are resolved against")
	cmd.Flags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file to load, if present")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 5*time.Minute, "per-request time limit, 0 for none")

	return cmd
}

// applyEnv loads the dotenv file and fills settings the user did not pass
// as flags from the environment.
func (c *CLI) applyEnv(cmd *cobra.Command, opts *serveOpts) error {
	if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	flags := cmd.Flags()
	if v := os.Getenv(envAddr); v != "" && !flags.Changed("addr") {
		opts.addr = v
	}
	if v := os.Getenv(envRedisAddr); v != "" && !flags.Changed("redis") && !flags.Changed("cache") {
		c.cache = cacheRedis
		c.redisAddr = v
	}
	if !flags.Changed("store") {
		if v := os.Getenv(envMongoURI); v != "" {
			c.storeDSN = v
		} else if v := os.Getenv(envStore); v != "" {
			c.storeDSN = v
		}
	}
	return nil
}
