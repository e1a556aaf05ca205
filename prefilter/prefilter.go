// Package prefilter accelerates the search for candidate match positions.
//
// A prefilter inspects the haystack and reports the next offset at which a
// match could possibly begin. The caller still has to verify the candidate
// with the full matcher; a prefilter may yield false candidate positions but
// must never skip a true one.
package prefilter

import (
	"github.com/coregx/ahocorasick"

	"github.com/coregx/posixre/simd"
	"github.com/coregx/posixre/syntax"
)

// Prefilter finds candidate match positions in a haystack.
type Prefilter interface {
	// Find returns the smallest offset >= start at which a match could
	// begin, or -1 if no such offset exists.
	Find(haystack []byte, start int) int
}

// maxLiterals bounds the number of prefix literals extracted from an
// expression before giving up on literal-based filtering.
const maxLiterals = 32

// maxLiteralLen bounds the length of each extracted literal.
const maxLiteralLen = 16

// FromExpression builds the best available prefilter for the expression.
// fastmap must hold the set of bytes a match can begin with. Returns nil
// when no filter would beat scanning byte by byte.
func FromExpression(root *syntax.Node, fastmap *[256]bool) Prefilter {
	if lits := prefixLiterals(root); len(lits) >= 2 {
		if pf := newLiteralFilter(lits); pf != nil {
			return pf
		}
	}

	var set []byte
	for b := 0; b < 256; b++ {
		if fastmap[b] {
			set = append(set, byte(b))
		}
	}
	switch {
	case len(set) == 0:
		return nil
	case len(set) == 1:
		return &byteFilter{needle: set[0]}
	case len(set) == 2:
		return &byte2Filter{needle1: set[0], needle2: set[1]}
	case len(set) <= 192:
		f := &tableFilter{}
		*f = tableFilter(*fastmap)
		return f
	default:
		// The start set is so dense that filtering cannot skip anything.
		return nil
	}
}

type byteFilter struct {
	needle byte
}

func (f *byteFilter) Find(haystack []byte, start int) int {
	if start >= len(haystack) {
		return -1
	}
	i := simd.Memchr(haystack[start:], f.needle)
	if i < 0 {
		return -1
	}
	return start + i
}

type byte2Filter struct {
	needle1, needle2 byte
}

func (f *byte2Filter) Find(haystack []byte, start int) int {
	if start >= len(haystack) {
		return -1
	}
	i := simd.Memchr2(haystack[start:], f.needle1, f.needle2)
	if i < 0 {
		return -1
	}
	return start + i
}

type tableFilter [256]bool

func (f *tableFilter) Find(haystack []byte, start int) int {
	if start >= len(haystack) {
		return -1
	}
	i := simd.MemchrInTable(haystack[start:], (*[256]bool)(f))
	if i < 0 {
		return -1
	}
	return start + i
}

// literalFilter scans for a set of equal-length prefix literals with an
// Aho-Corasick automaton. Equal lengths make the leftmost reported
// occurrence also the leftmost possible candidate start.
type literalFilter struct {
	auto *ahocorasick.Automaton
}

func newLiteralFilter(lits [][]byte) *literalFilter {
	minLen := len(lits[0])
	for _, l := range lits[1:] {
		if len(l) < minLen {
			minLen = len(l)
		}
	}
	if minLen < 2 {
		return nil
	}

	seen := make(map[string]bool, len(lits))
	builder := ahocorasick.NewBuilder()
	for _, l := range lits {
		cut := string(l[:minLen])
		if seen[cut] {
			continue
		}
		seen[cut] = true
		builder.AddPattern([]byte(cut))
	}
	auto, err := builder.Build()
	if err != nil {
		return nil
	}
	return &literalFilter{auto: auto}
}

func (f *literalFilter) Find(haystack []byte, start int) int {
	if start >= len(haystack) {
		return -1
	}
	m := f.auto.Find(haystack, start)
	if m == nil {
		return -1
	}
	return m.Start
}
