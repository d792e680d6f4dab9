package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	vhs "github.com/taminomara/go-vhs"
	"github.com/taminomara/go-vhs/config"
	"github.com/taminomara/go-vhs/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "vhs [arguments...]",
	Short: "Run VHS, installing it first if necessary",
	Long: "Locates a VHS installation (downloading vhs, ttyd and ffmpeg " +
		"from GitHub on 64-bit Linux when missing) and forwards all " +
		"arguments to it. The child's exit status is propagated.",
	// All flags belong to the wrapped vhs binary.
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		runner, err := vhs.Resolve(ctx, resolveOptions(vhs.WithReporter(&vhs.StderrReporter{}))...)
		if err != nil {
			return err
		}

		code, err := runner.Exec(ctx, args...)
		if err != nil {
			return err
		}
		if code != 0 {
			os.Exit(code)
		}
		return nil
	},
}

// resolveOptions builds the library options from config, with extra
// options appended so callers can override.
func resolveOptions(extra ...vhs.Option) []vhs.Option {
	opts := []vhs.Option{
		vhs.WithMinVersion(config.MinVersion()),
		vhs.WithTimeout(config.Timeout()),
		vhs.WithRetries(config.Retries()),
	}
	if v := config.MaxVersion(); v != "" {
		opts = append(opts, vhs.WithMaxVersion(v))
	}
	if p := config.CachePath(); p != "" {
		opts = append(opts, vhs.WithCachePath(p))
	}
	if t := config.GitHubToken(); t != "" {
		opts = append(opts, vhs.WithGitHubToken(t))
	}
	return append(opts, extra...)
}

func Execute() {
	logger.SetDebug(os.Getenv("VHS_GO_DEBUG") != "")
	config.Init()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(newInstallCmd())
	rootCmd.AddCommand(newWhichCmd())
	rootCmd.AddCommand(newVersionsCmd())
}
