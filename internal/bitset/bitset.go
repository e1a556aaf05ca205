// Package bitset provides fixed-width bitsets over the byte alphabet.
//
// A Bitset is a packed array of 64-bit words. All set algebra needed by
// the compiler and the superstate engine lives here: union, intersection,
// difference, complement, hashing, and population count. Sets are sized at
// construction and never grow; every operation assumes both operands were
// built for the same alphabet size.
package bitset

import "math/bits"

// WordBits is the width of one storage word.
const WordBits = 64

// Bitset is a fixed-width set of small integers (byte values, usually).
// The zero value is not usable; call New.
type Bitset []uint64

// Words returns the number of words needed for a set over [0, size).
func Words(size int) int {
	return (size + WordBits - 1) / WordBits
}

// New returns an empty set over [0, size).
func New(size int) Bitset {
	return make(Bitset, Words(size))
}

// Copy returns an independent copy of b.
func (b Bitset) Copy() Bitset {
	c := make(Bitset, len(b))
	copy(c, b)
	return c
}

// IsMember reports whether n is in the set.
func (b Bitset) IsMember(n int) bool {
	return b[n/WordBits]&(1<<(uint(n)%WordBits)) != 0
}

// Enjoin adds n to the set.
func (b Bitset) Enjoin(n int) {
	b[n/WordBits] |= 1 << (uint(n) % WordBits)
}

// Remove removes n from the set.
func (b Bitset) Remove(n int) {
	b[n/WordBits] &^= 1 << (uint(n) % WordBits)
}

// Toggle flips membership of n.
func (b Bitset) Toggle(n int) {
	b[n/WordBits] ^= 1 << (uint(n) % WordBits)
}

// Union sets b = b | other.
func (b Bitset) Union(other Bitset) {
	for i := range b {
		b[i] |= other[i]
	}
}

// Intersection sets b = b & other.
func (b Bitset) Intersection(other Bitset) {
	for i := range b {
		b[i] &= other[i]
	}
}

// Difference sets b = b &^ other.
func (b Bitset) Difference(other Bitset) {
	for i := range b {
		b[i] &^= other[i]
	}
}

// RevDifference sets b = ^b & other.
func (b Bitset) RevDifference(other Bitset) {
	for i := range b {
		b[i] = ^b[i] & other[i]
	}
}

// Xor sets b = b ^ other.
func (b Bitset) Xor(other Bitset) {
	for i := range b {
		b[i] ^= other[i]
	}
}

// Complement inverts every bit of b.
func (b Bitset) Complement() {
	for i := range b {
		b[i] = ^b[i]
	}
}

// Universe sets every bit of b.
func (b Bitset) Universe() {
	for i := range b {
		b[i] = ^uint64(0)
	}
}

// Clear removes every member.
func (b Bitset) Clear() {
	for i := range b {
		b[i] = 0
	}
}

// Equal reports whether b and other hold the same members.
func (b Bitset) Equal(other Bitset) bool {
	if len(b) != len(other) {
		return false
	}
	for i := range b {
		if b[i] != other[i] {
			return false
		}
	}
	return true
}

// Subset reports whether every member of b is in other.
func (b Bitset) Subset(other Bitset) bool {
	for i := range b {
		if b[i]&^other[i] != 0 {
			return false
		}
	}
	return true
}

// Empty reports whether b has no members.
func (b Bitset) Empty() bool {
	for i := range b {
		if b[i] != 0 {
			return false
		}
	}
	return true
}

// Population returns the number of members.
func (b Bitset) Population() int {
	n := 0
	for i := range b {
		n += bits.OnesCount64(b[i])
	}
	return n
}

// Hash folds the words of b into a single value suitable for
// hash-consing. Equal sets hash equally.
func (b Bitset) Hash() uint32 {
	var h uint64
	for i := range b {
		h = h<<1 ^ h>>31 ^ b[i]
	}
	return uint32(h) ^ uint32(h>>32)
}
