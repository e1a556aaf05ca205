// Package syntax holds the compiled form of a pattern: the expression
// tree, the parser that builds it, and the per-node analysis the matching
// engines consume.
//
// Pattern dialects are described by a vector of independent syntax bits
// rather than a fixed grammar, so one parser serves basic and extended
// POSIX syntax, grep/egrep-style variants, and case-folded compilation.
package syntax

// Bits selects the pattern dialect. Each bit toggles one independent
// syntactic rule; the presets below combine them into familiar dialects.
type Bits uint32

const (
	// BackslashEscapeInLists makes \ inside [...] quote the next character.
	BackslashEscapeInLists Bits = 1 << iota

	// BkPlusQm makes \+ and \? the operators and + and ? literals.
	BkPlusQm

	// CharClasses enables [:alpha:] and friends inside brackets.
	CharClasses

	// ContextIndepAnchors makes ^ and $ operators everywhere.
	ContextIndepAnchors

	// ContextIndepOps makes * + ? and intervals operators everywhere.
	ContextIndepOps

	// ContextInvalidOps rejects * + ? { leading an expression.
	ContextInvalidOps

	// DotNewline lets . match newline.
	DotNewline

	// DotNotNull keeps . from matching NUL.
	DotNotNull

	// HatListsNotNewline keeps [^...] from matching newline.
	HatListsNotNewline

	// Intervals enables {...} or \{...\} repetition bounds.
	Intervals

	// LimitedOps disables + ? and | entirely.
	LimitedOps

	// NewlineAlt makes newline an alternation operator.
	NewlineAlt

	// NoBkBraces makes {...} the interval brackets and \{ \} literal.
	NoBkBraces

	// NoBkParens makes (...) grouping and \( \) literal.
	NoBkParens

	// NoBkRefs makes \N a literal digit rather than a back-reference.
	NoBkRefs

	// NoBkVbar makes | the alternation operator and \| literal.
	NoBkVbar

	// NoEmptyRanges rejects ranges like [z-a] instead of ignoring them.
	NoEmptyRanges

	// UnmatchedRightParenOrd treats an unmatched ) as ordinary.
	UnmatchedRightParenOrd
)

// Dialect presets.
const (
	Emacs Bits = 0

	Awk = BackslashEscapeInLists | DotNotNull | NoBkParens | NoBkRefs |
		NoBkVbar | NoEmptyRanges | UnmatchedRightParenOrd

	Grep = BkPlusQm | CharClasses | HatListsNotNewline | Intervals |
		NewlineAlt

	Egrep = CharClasses | ContextIndepAnchors | ContextIndepOps |
		HatListsNotNewline | NewlineAlt | NoBkParens | NoBkVbar

	PosixEgrep = Egrep | Intervals | NoBkBraces

	posixCommon = CharClasses | DotNewline | DotNotNull | Intervals |
		NoEmptyRanges

	PosixBasic = posixCommon | BkPlusQm

	PosixMinimalBasic = posixCommon | LimitedOps

	PosixExtended = posixCommon | ContextIndepAnchors | ContextIndepOps |
		NoBkBraces | NoBkParens | NoBkVbar | UnmatchedRightParenOrd

	PosixMinimalExtended = posixCommon | ContextIndepAnchors |
		ContextInvalidOps | NoBkBraces | NoBkParens | NoBkRefs |
		NoBkVbar | UnmatchedRightParenOrd

	Sed = PosixBasic

	PosixAwk = PosixExtended | BackslashEscapeInLists
)

// DupMax is the largest count allowed in an interval bound.
const DupMax = 1<<15 - 1

// CsetSize is the alphabet size; matching is byte-wise.
const CsetSize = 256

// IsWordByte reports whether b is a word constituent for the \w, \W and
// word-context operators. Callers may substitute their own predicate via
// Parser.WordByte.
func IsWordByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

// IDTranslation is the identity byte translation.
var IDTranslation = func() *[CsetSize]byte {
	var t [CsetSize]byte
	for i := range t {
		t[i] = byte(i)
	}
	return &t
}()

// CaseFold returns a translation table mapping upper-case ASCII to lower.
func CaseFold() *[CsetSize]byte {
	var t [CsetSize]byte
	for i := range t {
		c := byte(i)
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		t[i] = c
	}
	return &t
}
