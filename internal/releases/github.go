package releases

import (
	"context"
	"os"
	"time"

	"github.com/taminomara/go-vhs/internal/ghrel"
)

type gitHubSource struct {
	client *ghrel.Client
}

// NewGitHubSource returns a Source backed by the GitHub REST API. If token
// is empty, GITHUB_TOKEN is consulted; unauthenticated requests are rate
// limited by GitHub.
func NewGitHubSource(timeout time.Duration, token string) Source {
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	return &gitHubSource{client: ghrel.NewClient(timeout, token)}
}

func (s *gitHubSource) ListReleases(ctx context.Context, owner, repo string, fn func(ghrel.Release) bool) error {
	return s.client.ListReleases(ctx, owner, repo, fn)
}

func (s *gitHubSource) ListTags(ctx context.Context, owner, repo string) ([]string, error) {
	// Tag listing goes through `git ls-remote`, which needs no API quota.
	return ghrel.GetTagsViaGit(ctx, ghrel.GitRemoteURL(owner, repo))
}

func (s *gitHubSource) DownloadAsset(ctx context.Context, downloadURL, outPath string, progress ghrel.ProgressFunc) error {
	return ghrel.WriteFileAtomically(outPath, func(f *os.File) error {
		return s.client.DownloadToWriter(ctx, downloadURL, f, progress)
	})
}
