package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cometmc/comet/pkg/instance"
	"github.com/cometmc/comet/pkg/launcher"
)

func newLaunchCmd(a *app) *cobra.Command {
	var username string
	var server bool

	cmd := &cobra.Command{
		Use:   "launch <name>",
		Short: "Launch an instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				username = a.settings.Username
			}

			return a.launcher().Launch(cmd.Context(), launcher.Options{
				Name:     args[0],
				Username: username,
				Server:   server,
			})
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "player name (default: settings file)")
	cmd.Flags().BoolVar(&server, "server", false, "launch a server instance")

	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var server bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed instances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := instance.List(a.layout, server)
			if err != nil {
				return err
			}

			for _, name := range names {
				dir := a.layout.InstanceDir(name, server)
				line := name
				if cfg, err := instance.LoadConfig(dir); err == nil && cfg.ModType != instance.ModTypeVanilla {
					line = fmt.Sprintf("%s (%s)", name, cfg.ModType)
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&server, "server", false, "list server instances")

	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	var server bool

	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete an instance and all of its files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := instance.Delete(a.layout, args[0], server); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "deleted %q\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&server, "server", false, "delete a server instance")

	return cmd
}
