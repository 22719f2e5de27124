package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cometmc/comet/pkg/instance"
)

func loaderName(arg string) (string, error) {
	switch strings.ToLower(arg) {
	case "fabric":
		return instance.ModTypeFabric, nil
	case "quilt":
		return instance.ModTypeQuilt, nil
	case "forge":
		return instance.ModTypeForge, nil
	}

	return "", fmt.Errorf("unknown loader %q (want fabric, quilt or forge)", arg)
}

func newInstallLoaderCmd(a *app) *cobra.Command {
	var loaderVersion string

	cmd := &cobra.Command{
		Use:   "install-loader <instance> <loader>",
		Short: "Install a mod loader into an instance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, err := loaderName(args[1])
			if err != nil {
				return err
			}

			if err := a.creator().InstallLoader(cmd.Context(), args[0], loader, loaderVersion); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "installed %s into %q\n", loader, args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&loaderVersion, "loader-version", "", "loader version (default: latest stable)")

	return cmd
}

func newUninstallLoaderCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall-loader <instance>",
		Short: "Remove the mod loader from an instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.creator().UninstallLoader(cmd.Context(), args[0]); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%q is vanilla again\n", args[0])
			return nil
		},
	}
}
