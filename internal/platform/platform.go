// Package platform decides whether this host can self-install VHS and
// matches release asset names against the host OS and architecture.
package platform

import (
	"runtime"
	"sort"
	"strings"
)

// Alias tables cover the naming conventions seen across release assets
// ("x86_64" vs "amd64", "aarch64" vs "arm64", and so on).
var goosAliases = map[string][]string{
	"darwin":  {"macos", "macosx", "osx"},
	"windows": {"win", "win32", "win64", "mingw"},
	"linux":   {"linux"},
}

var goarchAliases = map[string][]string{
	"amd64": {"x86_64", "x64"},
	"arm64": {"aarch64"},
	"386":   {"x86", "i386", "i686"},
}

// Host describes the platform assets are matched for. The zero value is
// not useful; use Current.
type Host struct {
	OS   string
	Arch string
}

// Current returns the host this process runs on.
func Current() Host {
	return Host{OS: runtime.GOOS, Arch: runtime.GOARCH}
}

// SupportsInstall reports whether self-installation from GitHub releases
// is available. All three upstream projects publish linux amd64 and arm64
// binaries; everything else must be installed by hand.
func (h Host) SupportsInstall() bool {
	return h.OS == "linux" && (h.Arch == "amd64" || h.Arch == "arm64")
}

func aliases(value string, table map[string][]string) []string {
	base := strings.ToLower(value)
	seen := map[string]struct{}{base: {}}
	for _, a := range table[base] {
		seen[strings.ToLower(a)] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for a := range seen {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// OSTokens returns the lowercase substrings that identify the host OS in
// an asset name.
func (h Host) OSTokens() []string {
	return aliases(h.OS, goosAliases)
}

// ArchTokens returns the lowercase substrings that identify the host
// architecture in an asset name.
func (h Host) ArchTokens() []string {
	return aliases(h.Arch, goarchAliases)
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// MatchesAsset reports whether an asset name carries both an OS token and
// an architecture token for this host.
func (h Host) MatchesAsset(name string) bool {
	lower := strings.ToLower(name)
	return containsAny(lower, h.OSTokens()) && containsAny(lower, h.ArchTokens())
}

// MatchesArch reports whether an asset name carries an architecture token
// for this host. Used for assets whose names omit the OS (ttyd builds).
func (h Host) MatchesArch(name string) bool {
	return containsAny(strings.ToLower(name), h.ArchTokens())
}
