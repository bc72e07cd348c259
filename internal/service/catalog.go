package service

import "fmt"

// Catalog holds one ResourceService per listed entity type.
type Catalog struct {
	services []*ResourceService
	byName   map[string]*ResourceService
}

// NewCatalog wires a service for every descriptor. stores is keyed by table name and
// must cover every descriptor and composition.
func NewCatalog(descriptors []Descriptor, stores map[string]ResourceStore, profiles ProfileStore, linker *Linker) (*Catalog, error) {
	c := &Catalog{byName: map[string]*ResourceService{}}
	for _, desc := range descriptors {
		store, ok := stores[desc.Table]
		if !ok {
			return nil, fmt.Errorf("no store for table %s", desc.Table)
		}

		children := map[string]ResourceStore{}
		for _, comp := range desc.Compose {
			child, ok := stores[comp.Collection]
			if !ok {
				return nil, fmt.Errorf("no store for %s composition %s", desc.Name, comp.Collection)
			}
			children[comp.Collection] = child
		}

		svc := NewResourceService(desc, store, profiles, linker, children)
		c.services = append(c.services, svc)
		c.byName[desc.Collection] = svc
	}
	return c, nil
}

// Services returns the services in descriptor order.
func (c *Catalog) Services() []*ResourceService {
	return c.services
}

func (c *Catalog) Collection(name string) (*ResourceService, bool) {
	svc, ok := c.byName[name]
	return svc, ok
}

// OwnedBy returns the service whose owner relation is relation.
func (c *Catalog) OwnedBy(relation string) (*ResourceService, bool) {
	for _, svc := range c.services {
		if svc.desc.Owner != nil && svc.desc.Owner.Relation == relation {
			return svc, true
		}
	}
	return nil, false
}
