// Package api serves the configuration store over HTTP for inspection and
// administrative changes.
package api
