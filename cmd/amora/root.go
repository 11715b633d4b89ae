package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/phrazzld/amora-planner/internal/config"
	"github.com/phrazzld/amora-planner/internal/platform/logger"
	"github.com/spf13/cobra"
)

// errUsage marks argument errors detected by the commands themselves.
var errUsage = errors.New("usage error")

// cli owns the lazily built application shared by every subcommand.
type cli struct {
	configFile string
	envFile    string

	app *application
}

func newCLI() *cli {
	return &cli{}
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "amora",
		Short:         "Plan a property purchase, online or offline",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&c.configFile, "config", "", "config file (default ./amora.yaml or $HOME/.amora/amora.yaml)")
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "dotenv file loaded before the environment")

	root.AddCommand(
		c.registerCmd(),
		c.loginCmd(),
		c.logoutCmd(),
		c.meCmd(),
		c.simCmd(),
		c.eligibilityCmd(),
		c.modeCmd(),
	)
	return root
}

// setup loads configuration and wires the application once per process.
func (c *cli) setup(cmd *cobra.Command) error {
	if c.app != nil {
		return nil
	}
	cfg, err := config.LoadWithOptions(config.Options{ConfigFile: c.configFile, EnvFile: c.envFile})
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	l, err := logger.SetupWithWriter(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	app, err := newApplication(cmd.Context(), cfg, l)
	if err != nil {
		return err
	}
	c.app = app
	return nil
}

func (c *cli) close() {
	if c.app != nil {
		c.app.cleanup()
		c.app = nil
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: simulation id %q is not an integer", errUsage, arg)
	}
	return id, nil
}
