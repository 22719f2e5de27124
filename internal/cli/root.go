// Package cli wires the launcher's commands together.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cometmc/comet/pkg/config"
	"github.com/cometmc/comet/pkg/fetch"
	"github.com/cometmc/comet/pkg/instance"
	"github.com/cometmc/comet/pkg/java"
	"github.com/cometmc/comet/pkg/launcher"
	"github.com/cometmc/comet/pkg/layout"
)

// app carries the shared dependencies every command needs.
type app struct {
	layout   layout.Layout
	fetcher  *fetch.Fetcher
	settings *config.Config
	log      *slog.Logger
}

func (a *app) creator() *instance.Creator {
	return instance.NewCreator(a.fetcher, a.layout).
		WithLogger(a.log).
		WithDefaultRAM(a.settings.DefaultRAMInMB)
}

func (a *app) launcher() *launcher.Launcher {
	jre := java.NewRuntime(a.fetcher, a.layout).WithLogger(a.log)
	return launcher.New(a.layout, jre).WithLogger(a.log).WithJavaPath(a.settings.JavaPath)
}

func NewRootCmd() *cobra.Command {
	a := &app{}

	var rootDir string
	var verbose bool

	cmd := &cobra.Command{
		Use:           "comet",
		Short:         "A fast Minecraft instance manager",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			a.log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(a.log)

			if rootDir == "" {
				var err error
				rootDir, err = layout.DefaultRoot()
				if err != nil {
					return err
				}
			}
			a.layout = layout.Layout{Root: rootDir}

			settings, err := config.Load(rootDir)
			if err != nil {
				return err
			}
			a.settings = settings

			a.fetcher = fetch.New().WithLogger(a.log).WithUserAgent("comet/" + instance.LauncherVersion)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&rootDir, "root", "", "launcher data directory (default: user config dir)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(
		newCreateCmd(a),
		newCreateServerCmd(a),
		newLaunchCmd(a),
		newListCmd(a),
		newListVersionsCmd(a),
		newInstallLoaderCmd(a),
		newUninstallLoaderCmd(a),
		newDeleteCmd(a),
	)

	return cmd
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		slog.Error("command failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
