package releases

import (
	"strings"

	"github.com/taminomara/go-vhs/internal/platform"
	"github.com/taminomara/go-vhs/internal/version"
)

// ToolSpec binds a wrapped tool to its upstream repository and to the
// release asset it ships for a given host.
type ToolSpec struct {
	// Name is the binary name the tool installs as ("vhs", "ttyd", "ffmpeg").
	Name string

	Owner string
	Repo  string

	// MatchAsset picks the release asset for the host.
	MatchAsset func(host platform.Host, name string) bool

	// VersionRange, when non-nil, restricts acceptable release tags.
	VersionRange *version.Range

	// PinTag, when non-empty, accepts only the release with this exact
	// tag (leading "v" ignored).
	PinTag string

	// BinDir, when non-empty, names the archive subdirectory whose files
	// are the executables to install. Empty means the binary sits at the
	// archive root (or the asset is the raw binary itself).
	BinDir string
}

// VhsSpec describes charmbracelet/vhs releases, constrained to rng.
func VhsSpec(rng version.Range) ToolSpec {
	return ToolSpec{
		Name:  "vhs",
		Owner: "charmbracelet",
		Repo:  "vhs",
		MatchAsset: func(host platform.Host, name string) bool {
			return strings.HasSuffix(name, ".tar.gz") && host.MatchesAsset(name)
		},
		VersionRange: &rng,
	}
}

// TtydSpec describes tsl0922/ttyd releases. Assets are raw binaries named
// after the architecture ("ttyd.x86_64", "ttyd.aarch64").
func TtydSpec() ToolSpec {
	return ToolSpec{
		Name:  "ttyd",
		Owner: "tsl0922",
		Repo:  "ttyd",
		MatchAsset: func(host platform.Host, name string) bool {
			return strings.HasPrefix(name, "ttyd.") && host.MatchesArch(name)
		},
	}
}

// FfmpegSpec describes BtbN/FFmpeg-Builds releases: GPL master builds
// shipping a bin/ directory inside a tar.xz.
func FfmpegSpec() ToolSpec {
	return ToolSpec{
		Name:  "ffmpeg",
		Owner: "BtbN",
		Repo:  "FFmpeg-Builds",
		MatchAsset: func(host platform.Host, name string) bool {
			if !strings.HasPrefix(name, "ffmpeg-n") || !strings.HasSuffix(name, ".tar.xz") {
				return false
			}
			switch host.Arch {
			case "amd64":
				return strings.Contains(name, "linux64-gpl-") && !strings.Contains(name, "shared")
			case "arm64":
				return strings.Contains(name, "linuxarm64-gpl-") && !strings.Contains(name, "shared")
			}
			return false
		},
		BinDir: "bin",
	}
}
