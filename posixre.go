// Package posixre implements POSIX basic and extended regular
// expression matching with GNU extensions: back-references, word
// boundaries, case-independent matching through a byte translation
// table, and tagged terminals.
//
// Matching runs on a lazily determinised automaton. Subexpressions
// whose behavior is observable through capture registers, anchors or
// bounded repetition are solved by a backtracking stream of candidate
// parses; everything else is answered directly by the DFA. Superstates
// of the DFA live in a byte-budgeted cache shared by every pattern
// compiled against it.
//
// A compiled Regexp, its cache and its universe are not internally
// synchronised. Concurrent matchers must each compile against their
// own Config.
package posixre

import (
	"errors"

	"github.com/coregx/posixre/dfa/super"
	"github.com/coregx/posixre/nfa"
	"github.com/coregx/posixre/prefilter"
	"github.com/coregx/posixre/syntax"
)

// Flags select the dialect and compile-time behavior of a pattern.
type Flags uint8

const (
	// Extended selects POSIX extended syntax. Default is basic.
	Extended Flags = 1 << iota

	// IgnoreCase matches without regard to ASCII case.
	IgnoreCase

	// Newline makes . and negated brackets exclude '\n', and lets
	// ^ and $ match at embedded newlines.
	Newline

	// NoSub suppresses capture reporting; Exec returns only the
	// overall match extent.
	NoSub
)

// ExecFlags adjust a single match attempt.
type ExecFlags uint8

const (
	// NotBol keeps ^ from matching at offset 0.
	NotBol ExecFlags = 1 << iota

	// NotEol keeps $ from matching at the end of the input.
	NotEol
)

// DefaultManyCases is the input-length threshold beyond which Exec
// screens each candidate start with the DFA before invoking the
// solver.
const DefaultManyCases = 8

// ErrNoMatch is the soft failure returned by Exec when the pattern
// does not occur in the input.
var ErrNoMatch = syntax.NoMatch.Err()

// Config carries the resource knobs of a compiled pattern.
type Config struct {
	// CacheBytes is the superstate cache budget in accounted bytes.
	CacheBytes int

	// Delay is the depth of the NFA universe's free-entry queue.
	Delay int

	// ManyCases is the input-length threshold for the DFA screen in
	// Exec.
	ManyCases int
}

// DefaultConfig returns the standard resource settings.
func DefaultConfig() Config {
	return Config{
		CacheBytes: super.DefaultCacheSize,
		Delay:      nfa.DefaultDelay,
		ManyCases:  DefaultManyCases,
	}
}

// Validate checks the configuration for usable values.
func (c Config) Validate() error {
	if c.CacheBytes <= 0 || c.Delay < 0 || c.ManyCases < 0 {
		return syntax.OutOfMemory.Err()
	}
	return nil
}

// WithCacheBytes returns a copy of the config with the cache budget
// replaced.
func (c Config) WithCacheBytes(n int) Config {
	c.CacheBytes = n
	return c
}

// WithDelay returns a copy of the config with the universe delay-queue
// depth replaced.
func (c Config) WithDelay(n int) Config {
	c.Delay = n
	return c
}

// WithManyCases returns a copy of the config with the DFA screen
// threshold replaced.
func (c Config) WithManyCases(n int) Config {
	c.ManyCases = n
	return c
}

// Regexp is a compiled pattern. It is owned by one matcher at a time.
type Regexp struct {
	expr  string
	flags Flags

	tree      *syntax.Node
	an        *syntax.Analysis
	simple    *syntax.Node // effect-free approximation of tree, for the DFA screen
	translate *[syntax.CsetSize]byte

	newlineAnchor bool
	noSub         bool
	nsub          int

	verse     *nfa.Universe
	cache     *super.Cache
	pf        prefilter.Prefilter
	manyCases int
}

// Shared by every pattern compiled without an explicit Config.
var defaultVerse = nfa.NewUniverse(nfa.DefaultDelay)

// Compile parses a pattern under flags against the process-wide
// default cache and universe.
func Compile(pattern string, flags Flags) (*Regexp, error) {
	return compile([]byte(pattern), flags, defaultVerse, super.DefaultCache, DefaultManyCases)
}

// CompileN is Compile over a byte slice, which may contain NUL.
func CompileN(pattern []byte, flags Flags) (*Regexp, error) {
	return compile(pattern, flags, defaultVerse, super.DefaultCache, DefaultManyCases)
}

// CompileWithConfig parses a pattern against a private cache and
// universe sized by cfg.
func CompileWithConfig(pattern string, flags Flags, cfg Config) (*Regexp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return compile([]byte(pattern), flags,
		nfa.NewUniverse(cfg.Delay), super.NewCache(cfg.CacheBytes), cfg.ManyCases)
}

// MustCompile is Compile that panics on malformed patterns. It
// simplifies safe initialization of package-level pattern variables.
func MustCompile(pattern string, flags Flags) *Regexp {
	re, err := Compile(pattern, flags)
	if err != nil {
		panic(`posixre: Compile(` + pattern + `): ` + err.Error())
	}
	return re
}

func compile(pattern []byte, flags Flags, verse *nfa.Universe, cache *super.Cache, manyCases int) (*Regexp, error) {
	bits := syntax.PosixBasic
	if flags&Extended != 0 {
		bits = syntax.PosixExtended
	}

	re := &Regexp{
		expr:      string(pattern),
		flags:     flags,
		translate: syntax.IDTranslation,
		noSub:     flags&NoSub != 0,
		verse:     verse,
		cache:     cache,
		manyCases: manyCases,
	}
	if flags&IgnoreCase != 0 {
		re.translate = syntax.CaseFold()
	}
	if flags&Newline != 0 {
		bits &^= syntax.DotNewline
		bits |= syntax.HatListsNotNewline
		re.newlineAnchor = true
	}

	tree, err := syntax.Parse(pattern, bits, re.translate)
	if err != nil {
		// POSIX does not tell an unmatched close group apart from an
		// unmatched open one.
		if errors.Is(err, syntax.UnmatchedRightParen.Err()) {
			err = syntax.UnmatchedParen.Err()
		}
		return nil, err
	}
	re.tree = tree
	re.an = syntax.Analyze(tree)
	re.nsub = len(re.an.Subexps) + 1

	re.simple = tree
	if tree != nil && tree.Observed {
		re.simple = syntax.Simplify(tree, re.an.Subexps)
	}

	if !re.an.Nullable && !re.an.Anchored {
		re.pf = prefilter.FromExpression(tree, &re.an.Fastmap)
	}
	return re, nil
}

// String returns the source text of the pattern.
func (re *Regexp) String() string {
	return re.expr
}

// NumSubexp returns the number of parenthesized capture groups in the
// pattern.
func (re *Regexp) NumSubexp() int {
	return re.nsub - 1
}

// Free drops the compiled form. The Regexp must not be used again;
// calling Free twice is a no-op.
func (re *Regexp) Free() {
	re.tree = nil
	re.simple = nil
	re.an = nil
	re.pf = nil
}
