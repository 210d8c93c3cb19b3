// Package config resolves the process configuration. It reads a properties
// file (an explicitly configured URL, resource or file, otherwise the default
// bundled resource), overlays namespace-prefixed process properties and
// finally expands environment variable and process property placeholders.
package config
