package storage

import (
	"sort"
	"strings"
	"sync"
)

// Store holds configuration properties keyed by case-sensitive, dot-delimited
// names. Reads take the shared lock; Set and Replace take the exclusive one.
type Store struct {
	mu      sync.RWMutex
	entries map[string]string
}

// New returns a store populated with a copy of entries.
func New(entries map[string]string) *Store {
	s := &Store{entries: make(map[string]string, len(entries))}
	for key, value := range entries {
		s.entries[key] = value
	}
	return s
}

// Get returns the value stored for key.
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.entries[key]
	return value, ok
}

// Siblings returns all properties whose key starts with prefix, leaving out
// child properties. Siblings("writer") yields "writer" and "writerTest" but not
// "writer.test". Dots following a prefix that ends with "@" are part of the
// key, so Siblings("level@") yields "level@com.example".
func (s *Store) Siblings(prefix string) map[string]string {
	opaque := strings.HasSuffix(prefix, "@")

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string)
	for key, value := range s.entries {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if opaque || !strings.Contains(key[len(prefix):], ".") {
			out[key] = value
		}
	}
	return out
}

// Children returns all properties nested below key with the "key." prefix
// stripped. The parent property itself is never included.
func (s *Store) Children(key string) map[string]string {
	prefix := key + "."

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string)
	for name, value := range s.entries {
		if strings.HasPrefix(name, prefix) {
			out[name[len(prefix):]] = value
		}
	}
	return out
}

// Set stores value under key, overriding any previous value.
func (s *Store) Set(key, value string) {
	s.mu.Lock()
	s.entries[key] = value
	s.mu.Unlock()
}

// Replace drops all properties and stores a copy of entries instead.
// Concurrent readers observe either the old or the new configuration.
func (s *Store) Replace(entries map[string]string) {
	fresh := make(map[string]string, len(entries))
	for key, value := range entries {
		fresh[key] = value
	}

	s.mu.Lock()
	clear(s.entries)
	for key, value := range fresh {
		s.entries[key] = value
	}
	s.mu.Unlock()
}

// Snapshot returns a copy of all properties.
func (s *Store) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.entries))
	for key, value := range s.entries {
		out[key] = value
	}
	return out
}

// Keys returns all keys in lexical order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	s.mu.RUnlock()

	sort.Strings(keys)
	return keys
}

// Len returns the number of stored properties.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
