package sequence

import (
	"math/bits"
	"strconv"
)

const wordBits = 64

// BitVector is a resizable sequence of bools packed 64 per word.
// Elements are not addressable: reads return copies and writes store
// whole values.
type BitVector struct {
	words []uint64
	n     int
}

// NewBitVector creates a bit vector holding items.
func NewBitVector(items ...bool) *BitVector {
	b := &BitVector{}
	b.Append(items...)
	return b
}

// Len returns the element count.
func (b *BitVector) Len() int {
	return b.n
}

// Resize grows or shrinks the vector to exactly n elements. New elements
// are false.
func (b *BitVector) Resize(n int) error {
	if n < 0 {
		return negativeCount(n)
	}
	need := (n + wordBits - 1) / wordBits
	if need > len(b.words) {
		b.words = append(b.words, make([]uint64, need-len(b.words))...)
	}
	b.words = b.words[:need]
	if tail := n % wordBits; tail != 0 {
		b.words[need-1] &= (1 << tail) - 1
	}
	b.n = n
	return nil
}

// Append adds items in order after reserving room for all of them.
func (b *BitVector) Append(items ...bool) {
	need := (b.n + len(items) + wordBits - 1) / wordBits
	if need > cap(b.words) {
		grown := make([]uint64, len(b.words), need)
		copy(grown, b.words)
		b.words = grown
	}
	for _, v := range items {
		b.PushBack(v)
	}
}

// Drop releases the packed storage. The vector is empty afterwards.
func (b *BitVector) Drop() {
	b.words = nil
	b.n = 0
}

// PushBack adds a single element.
func (b *BitVector) PushBack(v bool) {
	if b.n%wordBits == 0 {
		b.words = append(b.words, 0)
	}
	b.n++
	b.Set(b.n-1, v)
}

// Get returns a copy of element i.
func (b *BitVector) Get(i int) bool {
	b.check(i)
	return b.words[i/wordBits]&(1<<(i%wordBits)) != 0
}

// Set stores v at index i.
func (b *BitVector) Set(i int, v bool) {
	b.check(i)
	mask := uint64(1) << (i % wordBits)
	if v {
		b.words[i/wordBits] |= mask
	} else {
		b.words[i/wordBits] &^= mask
	}
}

// Count returns the number of true elements.
func (b *BitVector) Count() int {
	total := 0
	for _, w := range b.words {
		total += bits.OnesCount64(w)
	}
	return total
}

// Values returns the elements as a bool slice.
func (b *BitVector) Values() []bool {
	out := make([]bool, b.n)
	for i := range out {
		out[i] = b.Get(i)
	}
	return out
}

func (b *BitVector) check(i int) {
	if i < 0 || i >= b.n {
		panic("sequence: index out of range [" + strconv.Itoa(i) + "] with length " + strconv.Itoa(b.n))
	}
}
