package builder

import (
	"github.com/rios0rios0/condamatrix/domain"
)

// Registry manages all registered build backend implementations.
type Registry struct {
	builders map[string]domain.Builder
}

// NewRegistry creates an empty builder registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]domain.Builder),
	}
}

// Register adds a builder under its name.
func (r *Registry) Register(b domain.Builder) {
	r.builders[b.Name()] = b
}

// Get returns the builder with the given name, or nil if not registered.
func (r *Registry) Get(name string) domain.Builder {
	return r.builders[name]
}

// Names returns the list of registered builder names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	return names
}
