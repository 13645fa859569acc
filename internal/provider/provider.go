package provider

import (
	"fmt"

	"LaborStats/internal/ports"
)

// Registry keeps a mapping from provider names to observation sources, so a
// deployment can point the catalog at a different statistics backend without
// touching the pipeline.
type Registry struct {
	providers map[string]ports.ObservationSource
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: map[string]ports.ObservationSource{}}
}

// Register adds or replaces a provider implementation.
func (r *Registry) Register(name string, source ports.ObservationSource) {
	if r.providers == nil {
		r.providers = map[string]ports.ObservationSource{}
	}
	r.providers[name] = source
}

// Resolve returns a provider by name or an error if it is absent.
func (r *Registry) Resolve(name string) (ports.ObservationSource, error) {
	if source, ok := r.providers[name]; ok {
		return source, nil
	}
	return nil, fmt.Errorf("provider %s is not registered", name)
}
