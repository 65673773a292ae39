package plugin

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/agentx-labs/projinit/internal/schema"
)

// Plugin initializes projects for one template family.
type Plugin interface {
	// Name is the value users pass to --template.
	Name() string

	// Location is the URL of the upstream module the plugin drives. It is
	// probed by the existsTemplate predicate.
	Location() string

	// ExportDefaultConfig writes the plugin's default profile to path.
	// It returns false when the defaults do not validate.
	ExportDefaultConfig(ctx context.Context, c *schema.Compiler, path string) (bool, error)

	// Initialize reads the profile at configPath and scaffolds the project it
	// describes. It returns false when the profile is rejected or the tool
	// reported an error; user-facing details have been printed by then.
	Initialize(ctx context.Context, c *schema.Compiler, configPath string) (bool, error)
}

// Registry maps template names to plugins.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
}

// NewRegistry returns a registry holding plugins.
func NewRegistry(plugins ...Plugin) (*Registry, error) {
	r := &Registry{plugins: make(map[string]Plugin)}
	for _, p := range plugins {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds p. Names must be unique.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.plugins[p.Name()]; exists {
		return fmt.Errorf("template %q is already registered", p.Name())
	}
	r.plugins[p.Name()] = p
	return nil
}

// Lookup returns the plugin registered under name.
func (r *Registry) Lookup(name string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[name]
	return p, ok
}

// Names returns the registered template names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Locate implements predicate.Locator.
func (r *Registry) Locate(name string) (string, bool) {
	p, ok := r.Lookup(name)
	if !ok {
		return "", false
	}
	return p.Location(), true
}
