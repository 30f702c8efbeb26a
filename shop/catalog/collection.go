package catalog

import (
	"fmt"
	"iter"
	"maps"
	"reflect"
	"slices"
)

// Named is implemented by every catalog entity.
type Named interface {
	Name() string
}

// Collection holds entities of a single kind keyed by their unique name.
// Iteration order is ascending byte-wise by name, independent of insertion order.
type Collection[T Named] struct {
	kind  string
	items map[string]T
}

// NewCollection returns an empty collection; kind is used in error messages only.
func NewCollection[T Named](kind string) *Collection[T] {
	return &Collection[T]{
		kind:  kind,
		items: make(map[string]T),
	}
}

// Add inserts e. It never overwrites: a taken name yields ErrDuplicateName
// and an entity of another kind yields ErrTypeMismatch.
func (c *Collection[T]) Add(e Named) error {
	if e == nil {
		return fmt.Errorf("%w: nil entity in %s collection", ErrTypeMismatch, c.kind)
	}
	v, ok := e.(T)
	if !ok {
		return fmt.Errorf("%w: %s collection cannot hold %T", ErrTypeMismatch, c.kind, e)
	}
	if isNilPointer(v) {
		return fmt.Errorf("%w: nil %T in %s collection", ErrTypeMismatch, e, c.kind)
	}
	name := v.Name()
	if _, exists := c.items[name]; exists {
		return fmt.Errorf("%w: %s %q", ErrDuplicateName, c.kind, name)
	}
	c.items[name] = v
	return nil
}

// Get returns the entity registered under name.
func (c *Collection[T]) Get(name string) (T, error) {
	v, ok := c.items[name]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s %q", ErrNotFound, c.kind, name)
	}
	return v, nil
}

// Len reports the number of entities.
func (c *Collection[T]) Len() int {
	return len(c.items)
}

// Names yields entity names in lexicographic order. The sequence may be ranged over repeatedly.
func (c *Collection[T]) Names() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, name := range slices.Sorted(maps.Keys(c.items)) {
			if !yield(name) {
				return
			}
		}
	}
}

// All yields entities ordered by name.
func (c *Collection[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for name := range c.Names() {
			if !yield(c.items[name]) {
				return
			}
		}
	}
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
