package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strings"
	"sync"

	"github.com/magiconair/properties"
	"go.uber.org/zap"

	"github.com/eugenenazirov/tinyconf/internal/placeholder"
	"github.com/eugenenazirov/tinyconf/internal/resolver"
	"github.com/eugenenazirov/tinyconf/internal/source"
	"github.com/eugenenazirov/tinyconf/internal/storage"
	"github.com/eugenenazirov/tinyconf/internal/sysprop"
)

// DefaultNamespace prefixes the process properties that belong to the
// configuration.
const DefaultNamespace = "tinyconf"

// Option configures a Loader.
type Option func(*Loader)

// WithNamespace overrides DefaultNamespace.
func WithNamespace(namespace string) Option {
	return func(l *Loader) {
		l.namespace = namespace
	}
}

// WithResources sets the filesystem bundled resources are looked up in.
func WithResources(resources fs.FS) Option {
	return func(l *Loader) {
		l.resources = resources
	}
}

// WithHTTPClient sets the client used for URL targets.
func WithHTTPClient(client *http.Client) Option {
	return func(l *Loader) {
		l.client = client
	}
}

// WithResolvers replaces the placeholder resolvers. They are applied in the
// given order.
func WithResolvers(resolvers ...resolver.Resolver) Option {
	return func(l *Loader) {
		l.resolvers = resolvers
	}
}

// WithLogger sets the logger receiving load diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// Loader produces the resolved configuration from a properties file and the
// process properties.
type Loader struct {
	namespace string
	props     *sysprop.Properties
	resources fs.FS
	client    *http.Client
	resolvers []resolver.Resolver
	logger    *zap.Logger
	opener    *source.Opener
}

// NewLoader returns a loader reading overrides from props.
func NewLoader(props *sysprop.Properties, opts ...Option) *Loader {
	if props == nil {
		props = sysprop.New()
	}

	l := &Loader{
		namespace: DefaultNamespace,
		props:     props,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.resolvers == nil {
		l.resolvers = resolver.Default(props)
	}
	if l.logger == nil {
		l.logger = zap.NewNop()
	}
	l.opener = source.NewOpener(l.resources, l.client)
	return l
}

// Namespace returns the namespace of the loader.
func (l *Loader) Namespace() string {
	return l.namespace
}

// ConfigurationProperty is the process property naming an explicit
// configuration file, e.g. "tinyconf.configuration".
func (l *Loader) ConfigurationProperty() string {
	return l.prefix() + "configuration"
}

// DefaultResource is the resource loaded when no explicit configuration file
// is set, e.g. "tinyconf.properties".
func (l *Loader) DefaultResource() string {
	return l.namespace + ".properties"
}

func (l *Loader) prefix() string {
	return l.namespace + "."
}

// Load reads the configuration. Failures are logged and never returned: in
// the worst case the result is empty or contains unresolved placeholders.
func (l *Loader) Load() map[string]string {
	entries := l.readFile()

	prefix := l.prefix()
	for name, value := range l.props.WithPrefix(prefix) {
		entries[name[len(prefix):]] = value
	}

	for key, value := range entries {
		if strings.ContainsRune(value, '{') {
			entries[key] = placeholder.Expand(value, l.resolvers, l.logger)
		}
	}

	return entries
}

// LoadStore loads the configuration into a new store.
func (l *Loader) LoadStore() *storage.Store {
	return storage.New(l.Load())
}

func (l *Loader) readFile() map[string]string {
	target, explicit := l.props.Get(l.ConfigurationProperty())

	var (
		stream io.ReadCloser
		err    error
	)
	if explicit {
		stream, err = l.opener.OpenOverride(target)
	} else {
		target = l.DefaultResource()
		stream, err = l.opener.OpenResource(target)
		if errors.Is(err, source.ErrNotFound) {
			return make(map[string]string)
		}
	}
	if err != nil {
		l.logger.Error("failed loading configuration", zap.String("target", target), zap.Error(err))
		return make(map[string]string)
	}
	defer func() {
		_ = stream.Close()
	}()

	entries, err := parse(stream)
	if err != nil {
		l.logger.Error("failed loading configuration", zap.String("target", target), zap.Error(err))
		return make(map[string]string)
	}

	l.logger.Debug("configuration loaded",
		zap.String("target", target),
		zap.String("kind", source.Classify(target).String()),
		zap.Int("properties", len(entries)),
	)
	return entries
}

// parse reads a properties document. Placeholders are left untouched; they
// are expanded by the resolvers later on.
func parse(r io.Reader) (map[string]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read properties: %w", err)
	}

	loader := properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	props, err := loader.LoadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse properties: %w", err)
	}
	return props.Map(), nil
}

// Lazy loads the configuration on first access. Subsequent calls return the
// same store and never reload.
type Lazy struct {
	loader *Loader
	once   sync.Once
	store  *storage.Store
}

// NewLazy returns a Lazy backed by loader.
func NewLazy(loader *Loader) *Lazy {
	return &Lazy{loader: loader}
}

// Store returns the configuration, loading it if this is the first call.
// Concurrent first callers wait for the single load to finish.
func (z *Lazy) Store() *storage.Store {
	z.once.Do(func() {
		z.store = z.loader.LoadStore()
	})
	return z.store
}
