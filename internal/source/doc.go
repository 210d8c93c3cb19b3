// Package source locates and opens configuration files. A target is either an
// URL, a resource in a bundled filesystem or a plain filesystem path.
package source
