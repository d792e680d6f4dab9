package cli

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	vhs "github.com/taminomara/go-vhs"
	"github.com/taminomara/go-vhs/config"
	"github.com/taminomara/go-vhs/tui"
)

var (
	installCachePath   string
	installMinVersion  string
	installMaxVersion  string
	installToken       string
	installNoInstall   bool
	installInteractive bool
)

func newInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install VHS and its dependencies into the cache directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			interactive := useInteractive(
				cmd.Flags().Changed("interactive"),
				installInteractive,
				os.Stderr.Fd(),
			)
			if interactive {
				return tui.Run(tui.Options{
					CachePath:  installCachePath,
					MinVersion: installMinVersion,
					MaxVersion: installMaxVersion,
					Token:      installToken,
					Timeout:    config.Timeout(),
					Retries:    config.Retries(),
				})
			}

			opts := []vhs.Option{
				vhs.WithReporter(&vhs.StderrReporter{}),
				vhs.WithInstall(!installNoInstall),
			}
			if installMinVersion != "" {
				opts = append(opts, vhs.WithMinVersion(installMinVersion))
			}
			if installMaxVersion != "" {
				opts = append(opts, vhs.WithMaxVersion(installMaxVersion))
			}
			if installCachePath != "" {
				opts = append(opts, vhs.WithCachePath(installCachePath))
			}
			if installToken != "" {
				opts = append(opts, vhs.WithGitHubToken(installToken))
			}

			runner, err := vhs.Resolve(cmd.Context(), resolveOptions(opts...)...)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "vhs:", runner.BinaryPath())
			return nil
		},
	}

	cmd.Flags().StringVar(&installCachePath, "cache-path", "", "Directory for downloaded binaries (optional)")
	cmd.Flags().StringVar(&installMinVersion, "min-version", "", "Minimal acceptable VHS version (optional)")
	cmd.Flags().StringVar(&installMaxVersion, "max-version", "", "Maximal acceptable VHS version, exclusive (optional)")
	cmd.Flags().StringVar(&installToken, "token", "", "GitHub token (optional; overrides GITHUB_TOKEN)")
	cmd.Flags().BoolVar(&installNoInstall, "no-install", false, "Fail instead of downloading when VHS is missing")
	cmd.Flags().BoolVarP(&installInteractive, "interactive", "i", false,
		"Pick a release interactively (defaults to on when stderr is a terminal)")

	return cmd
}

// useInteractive decides whether to open the TUI. An explicit flag wins;
// otherwise the TUI opens only when stderr is attached to a terminal.
func useInteractive(flagSet, flagValue bool, fd uintptr) bool {
	if flagSet {
		return flagValue
	}
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
