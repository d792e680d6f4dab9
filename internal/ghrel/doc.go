// Package ghrel provides the GitHub release and git tag plumbing used by
// the installer. It lists published releases newest-first, streams release
// assets with download progress, writes files atomically, and lists tags
// via git ls-remote.
package ghrel
