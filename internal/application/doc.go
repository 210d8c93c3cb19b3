// Package application provides application initialization and dependency wiring.
// It encapsulates the creation of the configuration handler, router and HTTP
// server, keeping the main package focused on CLI parsing and orchestration.
package application
