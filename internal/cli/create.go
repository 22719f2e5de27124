package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cometmc/comet/pkg/instance"
)

func newCreateCmd(a *app) *cobra.Command {
	var skipAssets bool
	var keepOnFailure bool

	cmd := &cobra.Command{
		Use:   "create <name> <version>",
		Short: "Create a new client instance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, version := args[0], args[1]

			progress, done := consumeProgress(cmd)
			err := a.creator().Create(cmd.Context(), instance.CreateOptions{
				Name:           name,
				Version:        version,
				DownloadAssets: !skipAssets,
				Progress:       progress,
			})
			close(progress)
			<-done

			if err != nil {
				// A half-built instance would shadow the name forever;
				// clear it unless the user wants the wreckage.
				if !keepOnFailure {
					os.RemoveAll(a.layout.InstanceDir(name, false))
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created instance %q (%s)\n", name, version)
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipAssets, "skip-assets", false, "skip downloading game assets")
	cmd.Flags().BoolVar(&keepOnFailure, "keep-on-failure", false, "keep the partial instance directory if creation fails")

	return cmd
}

func newCreateServerCmd(a *app) *cobra.Command {
	var keepOnFailure bool

	cmd := &cobra.Command{
		Use:   "create-server <name> <version>",
		Short: "Create a new server instance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, version := args[0], args[1]

			progress, done := consumeProgress(cmd)
			err := a.creator().CreateServer(cmd.Context(), instance.CreateOptions{
				Name:     name,
				Version:  version,
				Progress: progress,
			})
			close(progress)
			<-done

			if err != nil {
				if !keepOnFailure {
					os.RemoveAll(a.layout.InstanceDir(name, true))
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created server %q (%s)\n", name, version)
			return nil
		},
	}

	cmd.Flags().BoolVar(&keepOnFailure, "keep-on-failure", false, "keep the partial server directory if creation fails")

	return cmd
}

// consumeProgress prints pipeline reports on their own goroutine so
// slow terminals never stall downloads. The returned channel closes
// when the printer drains.
func consumeProgress(cmd *cobra.Command) (chan instance.Progress, <-chan struct{}) {
	progress := make(chan instance.Progress, 64)
	done := make(chan struct{})

	go func() {
		defer close(done)
		var lastStage instance.Stage = -1
		for p := range progress {
			if p.Stage != lastStage || p.Done == p.Total {
				fmt.Fprintf(cmd.ErrOrStderr(), "[%5.1f%%] %s\n", p.Percent(), p)
				lastStage = p.Stage
			}
		}
	}()

	return progress, done
}
