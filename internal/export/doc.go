// Package export renders configuration entries as properties, JSON or YAML.
package export
