// Package utils holds small helpers shared across memhub packages.
package utils

// Build identity, overridden at link time via -ldflags.
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)
