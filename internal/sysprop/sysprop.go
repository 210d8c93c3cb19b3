package sysprop

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
)

// ErrInvalidAssignment indicates a property assignment without "=".
var ErrInvalidAssignment = errors.New("property assignment must have the form key=value")

// Properties is a process-scoped registry of named string properties. It is a
// separate namespace from both the environment and the configuration store.
type Properties struct {
	mu    sync.RWMutex
	props map[string]string
}

// New returns an empty registry.
func New() *Properties {
	return &Properties{props: make(map[string]string)}
}

// NewDefault returns a registry seeded with properties describing the
// running platform and user.
func NewDefault() *Properties {
	p := New()
	p.Set("os.name", runtime.GOOS)
	p.Set("os.arch", runtime.GOARCH)
	p.Set("file.separator", string(filepath.Separator))
	p.Set("path.separator", string(filepath.ListSeparator))
	p.Set("tmp.dir", os.TempDir())
	if runtime.GOOS == "windows" {
		p.Set("line.separator", "\r\n")
	} else {
		p.Set("line.separator", "\n")
	}
	if home, err := os.UserHomeDir(); err == nil {
		p.Set("user.home", home)
	}
	if dir, err := os.Getwd(); err == nil {
		p.Set("user.dir", dir)
	}
	if u, err := user.Current(); err == nil {
		p.Set("user.name", u.Username)
	}
	return p
}

// Get returns the value of the named property.
func (p *Properties) Get(name string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	value, ok := p.props[name]
	return value, ok
}

// Set defines or overrides the named property.
func (p *Properties) Set(name, value string) {
	p.mu.Lock()
	p.props[name] = value
	p.mu.Unlock()
}

// SetAll defines all given properties.
func (p *Properties) SetAll(props map[string]string) {
	p.mu.Lock()
	for name, value := range props {
		p.props[name] = value
	}
	p.mu.Unlock()
}

// Names returns all property names in lexical order.
func (p *Properties) Names() []string {
	p.mu.RLock()
	names := make([]string, 0, len(p.props))
	for name := range p.props {
		names = append(names, name)
	}
	p.mu.RUnlock()

	sort.Strings(names)
	return names
}

// WithPrefix returns a copy of all properties whose name starts with prefix.
// Names are returned unchanged.
func (p *Properties) WithPrefix(prefix string) map[string]string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make(map[string]string)
	for name, value := range p.props {
		if strings.HasPrefix(name, prefix) {
			out[name] = value
		}
	}
	return out
}

// ParseAssignments parses "key=value" items as passed through repeated -D
// flags. Only the first "=" separates key and value.
func ParseAssignments(items []string) (map[string]string, error) {
	out := make(map[string]string, len(items))
	for _, item := range items {
		key, value, ok := strings.Cut(item, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAssignment, item)
		}
		out[key] = value
	}
	return out, nil
}
