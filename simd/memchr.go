// Package simd provides accelerated byte scanning primitives used by the
// matcher's candidate-position loop. The implementations are portable Go
// using SWAR (SIMD Within A Register): eight haystack bytes are examined
// per step through uint64 arithmetic. On CPUs that report wide vector
// support the inner loop is unrolled to a 32-byte stride.
package simd

import (
	"encoding/binary"
	"math/bits"
)

const (
	lo8 = 0x0101010101010101
	hi8 = 0x8080808080808080
)

// hasZeroByte reports whether any byte of v is zero, using the
// carry-propagation formula (v - lo8) & ^v & hi8.
func hasZeroByte(v uint64) uint64 {
	return (v - lo8) &^ v & hi8
}

// Memchr returns the index of the first occurrence of needle in haystack,
// or -1 if needle is not present.
func Memchr(haystack []byte, needle byte) int {
	n := len(haystack)
	if n < 8 {
		for i := 0; i < n; i++ {
			if haystack[i] == needle {
				return i
			}
		}
		return -1
	}

	mask := uint64(needle) * lo8
	i := 0

	if wideStride {
		for i+32 <= n {
			a := binary.LittleEndian.Uint64(haystack[i:]) ^ mask
			b := binary.LittleEndian.Uint64(haystack[i+8:]) ^ mask
			c := binary.LittleEndian.Uint64(haystack[i+16:]) ^ mask
			d := binary.LittleEndian.Uint64(haystack[i+24:]) ^ mask
			if hasZeroByte(a)|hasZeroByte(b)|hasZeroByte(c)|hasZeroByte(d) != 0 {
				break
			}
			i += 32
		}
	}

	for i+8 <= n {
		chunk := binary.LittleEndian.Uint64(haystack[i:]) ^ mask
		if z := hasZeroByte(chunk); z != 0 {
			return i + bits.TrailingZeros64(z)/8
		}
		i += 8
	}
	for ; i < n; i++ {
		if haystack[i] == needle {
			return i
		}
	}
	return -1
}

// Memchr2 returns the index of the first occurrence of needle1 or needle2
// in haystack, or -1 if neither is present.
func Memchr2(haystack []byte, needle1, needle2 byte) int {
	n := len(haystack)
	if n < 8 {
		for i := 0; i < n; i++ {
			if haystack[i] == needle1 || haystack[i] == needle2 {
				return i
			}
		}
		return -1
	}

	mask1 := uint64(needle1) * lo8
	mask2 := uint64(needle2) * lo8
	i := 0
	for i+8 <= n {
		chunk := binary.LittleEndian.Uint64(haystack[i:])
		z := hasZeroByte(chunk^mask1) | hasZeroByte(chunk^mask2)
		if z != 0 {
			return i + bits.TrailingZeros64(z)/8
		}
		i += 8
	}
	for ; i < n; i++ {
		if haystack[i] == needle1 || haystack[i] == needle2 {
			return i
		}
	}
	return -1
}

// MemchrInTable returns the index of the first byte of haystack whose entry
// in table is true, or -1 if no byte qualifies. The inner loop is unrolled
// by four; table scanning has no SWAR form because membership is arbitrary.
func MemchrInTable(haystack []byte, table *[256]bool) int {
	n := len(haystack)
	i := 0
	for i+4 <= n {
		if table[haystack[i]] {
			return i
		}
		if table[haystack[i+1]] {
			return i + 1
		}
		if table[haystack[i+2]] {
			return i + 2
		}
		if table[haystack[i+3]] {
			return i + 3
		}
		i += 4
	}
	for ; i < n; i++ {
		if table[haystack[i]] {
			return i
		}
	}
	return -1
}
