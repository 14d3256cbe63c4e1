package mapping

import (
	"reflect"
	"sort"
	"sync"
)

var (
	catalogMu sync.RWMutex
	catalog   = map[string]Descriptor{}
)

// Register makes an entity mapping available by its entity name, the way
// database/sql drivers register themselves. It panics if the name is taken by a
// different Go type.
func Register(d Descriptor) {
	catalogMu.Lock()
	defer catalogMu.Unlock()

	if prev, ok := catalog[d.EntityName()]; ok {
		if prev.GoType() == d.GoType() {
			return
		}
		panic("mapping: Register called twice for entity " + d.EntityName())
	}
	catalog[d.EntityName()] = d
}

// Lookup returns the registered mapping for an entity name.
func Lookup(entityName string) (Descriptor, bool) {
	catalogMu.RLock()
	defer catalogMu.RUnlock()
	d, ok := catalog[entityName]
	return d, ok
}

// Registered returns every registered mapping sorted by entity name.
func Registered() []Descriptor {
	catalogMu.RLock()
	defer catalogMu.RUnlock()

	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]Descriptor, 0, len(names))
	for _, name := range names {
		result = append(result, catalog[name])
	}
	return result
}

// Set indexes a fixed group of mappings by entity name and by Go type.
type Set struct {
	byName map[string]Descriptor
	byType map[reflect.Type]Descriptor
	order  []Descriptor
}

// NewSet builds a Set. Later descriptors with a duplicate entity name are ignored.
func NewSet(ds ...Descriptor) *Set {
	s := &Set{
		byName: make(map[string]Descriptor, len(ds)),
		byType: make(map[reflect.Type]Descriptor, len(ds)),
	}
	for _, d := range ds {
		if _, dup := s.byName[d.EntityName()]; dup {
			continue
		}
		s.byName[d.EntityName()] = d
		s.byType[d.GoType()] = d
		s.order = append(s.order, d)
	}
	return s
}

// ByName returns the mapping for an entity name.
func (s *Set) ByName(name string) (Descriptor, bool) {
	d, ok := s.byName[name]
	return d, ok
}

// ByType returns the mapping for a Go entity type.
func (s *Set) ByType(t reflect.Type) (Descriptor, bool) {
	d, ok := s.byType[t]
	return d, ok
}

// All returns the mappings in the order they were added.
func (s *Set) All() []Descriptor {
	return append([]Descriptor(nil), s.order...)
}

// For returns the typed mapping of E from the set.
func For[E any](s *Set) (*Entity[E], bool) {
	d, ok := s.ByType(reflect.TypeFor[E]())
	if !ok {
		return nil, false
	}
	m, ok := d.(*Entity[E])
	return m, ok
}
