package releases

import (
	"context"

	"github.com/taminomara/go-vhs/internal/ghrel"
)

// Source abstracts release listing, tag listing and asset downloads so the
// installer and the TUI can be tested against fakes.
type Source interface {
	// ListReleases walks published releases newest-first, calling fn for
	// each until it returns false.
	ListReleases(ctx context.Context, owner, repo string, fn func(ghrel.Release) bool) error

	// ListTags lists all tag names of the repository.
	ListTags(ctx context.Context, owner, repo string) ([]string, error)

	// DownloadAsset streams the asset at downloadURL into outPath,
	// writing atomically and reporting progress when progress is non-nil.
	DownloadAsset(ctx context.Context, downloadURL, outPath string, progress ghrel.ProgressFunc) error
}
