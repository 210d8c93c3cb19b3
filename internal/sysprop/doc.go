// Package sysprop provides the process-scoped property registry that feeds
// configuration overrides and "#{name}" placeholders.
package sysprop
