package plugin

import (
	"fmt"
	"sort"
	"sync"

	"github.com/jorgenskogmo/webpub/internal/config"
	"github.com/jorgenskogmo/webpub/internal/foundation/errors"
)

// Factory creates a fresh plugin instance.
type Factory func() Plugin

// Registry maps plugin names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory. Names must be unique.
func (r *Registry) Register(name string, f Factory) error {
	if name == "" || f == nil {
		return fmt.Errorf("plugin name and factory are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("plugin %s already registered", name)
	}
	r.factories[name] = f
	return nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Chain instantiates and configures the plugins listed in cfgs, preserving
// their order. An unknown name or a rejected option is a config error.
func (r *Registry) Chain(cfgs []config.PluginConfig) (*Chain, error) {
	chain := &Chain{}
	for _, pc := range cfgs {
		r.mu.RLock()
		f, ok := r.factories[pc.Name]
		r.mu.RUnlock()
		if !ok {
			return nil, errors.ConfigError("unknown plugin").
				WithContext("plugin", pc.Name).
				WithContext("available", r.Names()).Build()
		}
		p := f()
		if c, ok := p.(Configurable); ok && pc.Options != nil {
			if err := c.Configure(pc.Options); err != nil {
				return nil, errors.WrapError(err, errors.CategoryConfig, "configure plugin").
					Fatal().WithContext("plugin", pc.Name).Build()
			}
		}
		chain.plugins = append(chain.plugins, p)
	}
	return chain, nil
}
