// Package settings derives the admin server settings from the resolved
// configuration store, with precedence: CLI flags > configuration > defaults.
package settings
