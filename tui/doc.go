// Package tui implements the Bubble Tea terminal UI for interactive
// installation. It shows the list of published VHS versions and installs
// a selected one, together with ttyd and ffmpeg, into the cache directory.
package tui
