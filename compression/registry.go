package compression

import (
	"fmt"
	"slices"
	"sync"
)

// Registry maps codec identifiers to plugins.
type Registry struct {
	mu      sync.RWMutex
	plugins map[ID]Plugin
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{plugins: make(map[ID]Plugin)}
}

// Register adds p, replacing any plugin with the same ID.
func (r *Registry) Register(p Plugin) error {
	if p.ID == "" {
		return fmt.Errorf("compression: plugin id is empty")
	}
	if p.NewCompressor == nil || p.NewDecompressor == nil {
		return fmt.Errorf("compression: plugin %q needs both constructors", p.ID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plugins[p.ID] = p
	return nil
}

// Lookup returns the plugin registered under id.
func (r *Registry) Lookup(id ID) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[id]
	return p, ok
}

// IDs returns the registered identifiers in sorted order.
func (r *Registry) IDs() []ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]ID, 0, len(r.plugins))
	for id := range r.plugins {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

var defaultRegistry = NewRegistry()

func init() {
	for _, p := range []Plugin{nonePlugin(), zstdPlugin(), lz4Plugin(), s2Plugin(), zlibPlugin()} {
		if err := defaultRegistry.Register(p); err != nil {
			panic(err)
		}
	}
}

// Register adds p to the default registry.
func Register(p Plugin) error { return defaultRegistry.Register(p) }

// Lookup finds a plugin in the default registry.
func Lookup(id ID) (Plugin, bool) { return defaultRegistry.Lookup(id) }

// IDs lists the default registry.
func IDs() []ID { return defaultRegistry.IDs() }

// NewSession creates a compressor from the default registry and wraps it.
func NewSession(id ID, cfg Config, opts ...Option) (*Session, error) {
	return defaultRegistry.NewSession(id, cfg, opts...)
}

// NewDecompressor creates a decompressor from the default registry.
func NewDecompressor(id ID) (Decompressor, error) {
	return defaultRegistry.NewDecompressor(id)
}
