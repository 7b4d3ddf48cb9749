package adapters

import (
	"fmt"
	"sync"

	"kaleidoscope/internal/domain"
	"kaleidoscope/internal/ports"
)

// CatalogRegistry maps catalog names to their Catalog implementations.
// It is safe for concurrent use.
type CatalogRegistry struct {
	mu       sync.RWMutex
	catalogs map[string]ports.Catalog
}

// NewCatalogRegistry creates an empty registry.
func NewCatalogRegistry() *CatalogRegistry {
	return &CatalogRegistry{
		catalogs: make(map[string]ports.Catalog),
	}
}

// Register adds a catalog to the registry, keyed by its Name().
func (r *CatalogRegistry) Register(catalog ports.Catalog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.catalogs[catalog.Name()] = catalog
}

// Get returns the catalog for the given name, or domain.ErrUnsupportedCatalog
// for names nobody registered. Unrecognized names are a caller input error,
// never a crash.
func (r *CatalogRegistry) Get(name string) (ports.Catalog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	catalog, ok := r.catalogs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedCatalog, name)
	}
	return catalog, nil
}

// Available returns the names of all registered catalogs.
func (r *CatalogRegistry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.catalogs))
	for name := range r.catalogs {
		names = append(names, name)
	}
	return names
}
