package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cometmc/comet/pkg/mojang"
	"github.com/cometmc/comet/pkg/omniarchive"
)

func newListVersionsCmd(a *app) *cobra.Command {
	var archived string
	var server bool

	cmd := &cobra.Command{
		Use:   "list-versions",
		Short: "List available game versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if archived != "" {
				cat, err := omniarchive.ParseCategory(archived)
				if err != nil {
					return err
				}

				entries, err := omniarchive.NewClient(a.fetcher).WithLogger(a.log).Index(cmd.Context(), cat, server)
				if err != nil {
					return err
				}
				for _, e := range entries {
					fmt.Fprintln(out, e.Name)
				}
				return nil
			}

			manifest, err := mojang.FetchManifest(cmd.Context(), a.fetcher)
			if err != nil {
				return err
			}

			for _, v := range manifest.Versions {
				fmt.Fprintf(out, "%s\t%s\n", v.ID, v.Type)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&archived, "archived", "", "list an archive era instead (pre-classic, classic, indev, infdev, alpha, beta)")
	cmd.Flags().BoolVar(&server, "server", false, "list server artifacts for the archive era")

	return cmd
}
