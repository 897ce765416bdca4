package metadata

import (
	"fmt"
	"iter"
	"slices"
)

// View is a read-only view of a sequence owned by an ImageMetadata.
// It cannot be used to modify the underlying values.
type View[T any] struct {
	items []T
}

// Len returns the number of items.
func (v View[T]) Len() int {
	return len(v.items)
}

// At returns the item at index i, or ErrIndexOutOfRange.
func (v View[T]) At(i int) (T, error) {
	if i < 0 || i >= len(v.items) {
		var zero T
		return zero, fmt.Errorf("index %d with length %d: %w", i, len(v.items), ErrIndexOutOfRange)
	}
	return v.items[i], nil
}

// All iterates over index and item pairs in order.
func (v View[T]) All() iter.Seq2[int, T] {
	return slices.All(v.items)
}

// Slice returns a copy of the items.
func (v View[T]) Slice() []T {
	return slices.Clone(v.items)
}
