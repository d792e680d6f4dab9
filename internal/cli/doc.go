// Package cli defines the Cobra command tree for the go-vhs binary.
// The root command forwards its arguments to the resolved VHS executable,
// and subcommands provide installation, path inspection and release
// listing.
package cli
