package metadata

import "sync"

type Registry struct {
	mu        sync.RWMutex
	resources map[string]*Resource
}

func NewRegistry() *Registry {
	return &Registry{
		resources: make(map[string]*Resource),
	}
}

// GetResource returns the resource with the given name, or nil.
func (r *Registry) GetResource(name string) *Resource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resources[name]
}

// AllResources returns all registered resources.
func (r *Registry) AllResources() []*Resource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	resources := make([]*Resource, 0, len(r.resources))
	for _, res := range r.resources {
		resources = append(resources, res)
	}
	return resources
}

// Load replaces all resources in the registry.
// Called during startup and after descriptor changes.
func (r *Registry) Load(resources []*Resource) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.resources = make(map[string]*Resource, len(resources))
	for _, res := range resources {
		r.resources[res.Name] = res
	}
}
