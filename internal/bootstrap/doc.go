// Package bootstrap registers the command-line flags shared by the binaries
// and turns them into a configuration loader.
package bootstrap
