// Package resolver defines the sources placeholders are resolved against.
package resolver
