package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/taminomara/go-vhs/config"
	"github.com/taminomara/go-vhs/internal/releases"
	"github.com/taminomara/go-vhs/internal/version"
)

func newVersionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "versions",
		Short: "List VHS versions available for download",
		RunE: func(cmd *cobra.Command, args []string) error {
			spec := releases.VhsSpec(version.Range{})
			source := releases.NewGitHubSource(config.Timeout(), config.GitHubToken())

			tags, err := source.ListTags(cmd.Context(), spec.Owner, spec.Repo)
			if err != nil {
				return err
			}

			versions := make([]string, 0, len(tags))
			for _, tag := range tags {
				versions = append(versions, version.NormalizeTag(tag))
			}
			sort.Slice(versions, func(i, j int) bool {
				return version.Greater(versions[i], versions[j])
			})

			for i, v := range versions {
				if i == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "%s (latest)\n", v)
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), v)
				}
			}
			return nil
		},
	}
}
