// Package storage keeps the resolved configuration properties in memory and
// answers the hierarchical queries (siblings, children) that components use to
// configure themselves.
package storage
