package sequence

import (
	"slices"
	"strconv"

	"github.com/wippyai/typebind/errors"
)

// Store is the operation set shared by every sequence variant.
// Indexes are zero-based; out-of-range indexes panic.
type Store[T any] interface {
	Len() int
	Resize(n int) error
	Append(items ...T)
	PushBack(v T)
	Get(i int) T
	Set(i int, v T)
}

var (
	_ Store[int32] = (*Vector[int32])(nil)
	_ Store[bool]  = (*BitVector)(nil)
)

// Vector is a resizable sequence of T with addressable elements.
type Vector[T any] struct {
	data []T
}

// NewVector creates a vector holding items.
func NewVector[T any](items ...T) *Vector[T] {
	return &Vector[T]{data: slices.Clone(items)}
}

// Len returns the element count.
func (v *Vector[T]) Len() int {
	return len(v.data)
}

// Resize grows or shrinks the vector to exactly n elements. New elements
// are zero values.
func (v *Vector[T]) Resize(n int) error {
	if n < 0 {
		return negativeCount(n)
	}
	if n <= len(v.data) {
		clear(v.data[n:])
		v.data = v.data[:n]
		return nil
	}
	v.data = slices.Grow(v.data, n-len(v.data))
	v.data = v.data[:n]
	return nil
}

// Append adds items in order after reserving room for all of them.
func (v *Vector[T]) Append(items ...T) {
	v.data = slices.Grow(v.data, len(items))
	v.data = append(v.data, items...)
}

// PushBack adds a single element.
func (v *Vector[T]) PushBack(x T) {
	v.data = append(v.data, x)
}

// Get returns a copy of element i.
func (v *Vector[T]) Get(i int) T {
	return v.data[i]
}

// Set stores x at index i.
func (v *Vector[T]) Set(i int, x T) {
	v.data[i] = x
}

// At returns a pointer to element i. The pointer aliases the vector's
// storage until the vector grows past its capacity.
func (v *Vector[T]) At(i int) *T {
	return &v.data[i]
}

// Values returns a copy of the elements.
func (v *Vector[T]) Values() []T {
	return slices.Clone(v.data)
}

// Drop releases the vector's storage. The vector is empty afterwards.
func (v *Vector[T]) Drop() {
	clear(v.data)
	v.data = nil
}

func negativeCount(n int) error {
	return errors.Constraint("resize", n, "count must be non-negative, got "+strconv.Itoa(n))
}
