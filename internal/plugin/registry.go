// Package plugin implements the provider framework: compile-time
// registered factories whose install/enable/configure state lives in the
// database, with every transition audit logged.
package plugin

import (
	"fmt"

	"squirrelwiki/internal/auth"
	"squirrelwiki/internal/render"
	"squirrelwiki/internal/search"
)

// MarkupExtension bundles what a markup plugin contributes to the render
// pipeline. Either field may be nil.
type MarkupExtension struct {
	Pre  render.PreProcessor
	Post render.PostProcessor
}

// Factory describes one compiled-in provider. Exactly one of the New*
// constructors is set, matching Kind. Constructors receive the plugin's
// settings so configuration changes take effect on rebuild.
type Factory struct {
	Name        string
	Kind        string
	Description string
	// Default marks factories seeded as enabled on first run.
	Default bool

	NewAuth   func(settings map[string]string) (auth.Provider, error)
	NewSearch func(settings map[string]string) (search.Provider, error)
	NewMarkup func(settings map[string]string) (MarkupExtension, error)
}

// Registry holds the factories compiled into this binary.
type Registry struct {
	factories map[string]Factory
	order     []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory. Registering a duplicate name panics, since the
// set of factories is fixed at startup.
func (r *Registry) Register(f Factory) {
	if _, exists := r.factories[f.Name]; exists {
		panic(fmt.Sprintf("plugin %q registered twice", f.Name))
	}
	r.factories[f.Name] = f
	r.order = append(r.order, f.Name)
}

// Get returns the factory registered under name.
func (r *Registry) Get(name string) (Factory, bool) {
	f, ok := r.factories[name]
	return f, ok
}

// Names returns the factory names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}
