package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	vhs "github.com/taminomara/go-vhs"
	"github.com/taminomara/go-vhs/internal/logger"
)

func newWhichCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "which",
		Short: "Print the paths of the resolved vhs, ttyd and ffmpeg binaries",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := vhs.Resolve(cmd.Context(), resolveOptions(vhs.WithReporter(&vhs.StderrReporter{}))...)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "vhs:", runner.BinaryPath())
			for _, dep := range []string{"ttyd", "ffmpeg"} {
				path, err := runner.Which(dep)
				if err != nil {
					logger.Log.Warn("dependency not found", "name", dep)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", dep, path)
			}
			return nil
		},
	}
}
