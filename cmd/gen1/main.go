// Command gen1 drives the assistant-response pipeline against a stored
// project: apply responses, inspect files and history, and mirror the
// project to GitHub.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"gen1/internal/config"
	"gen1/internal/logging"
)

// app carries global flags and the state built in PersistentPreRunE.
type app struct {
	cfgPath string
	project string
	verbose bool

	cfg    *config.Config
	out    io.Writer
	errOut io.Writer
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "gen1",
		Short: "Apply assistant responses to a stored project",
		Long: `gen1 parses assistant responses into file, document and GitHub actions,
executes them against a project stored in SQLite, and records every outcome
in the project's conversation log.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logging.Sync()
		},
	}

	root.PersistentFlags().StringVar(&a.cfgPath, "config", filepath.Join(".gen1", "config.yaml"), "Config file (YAML or TOML)")
	root.PersistentFlags().StringVarP(&a.project, "project", "p", "", "Project id or name (default: config name)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")

	root.AddCommand(
		a.projectCmd(),
		a.applyCmd(),
		a.lsCmd(),
		a.catCmd(),
		a.blockCmd(),
		a.historyCmd(),
		a.replayCmd(),
		a.pushCmd(),
		a.pullCmd(),
		a.watchCmd(),
	)
	return root
}

// setup loads the config and configures categorized logging from it.
func (a *app) setup(cmd *cobra.Command) error {
	a.out = cmd.OutOrStdout()
	a.errOut = cmd.ErrOrStderr()

	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	a.cfg = cfg

	opts := cfg.Logging.Options()
	if a.verbose {
		opts.DebugMode = true
	}
	if err := logging.Configure(opts); err != nil {
		return err
	}
	logging.Get(logging.CategoryCLI).Debug("command %s, config %s", cmd.CommandPath(), a.cfgPath)
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
