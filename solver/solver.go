// Package solver enumerates the ways an expression can match a fixed
// extent of input, most preferred solution first.
//
// Plain regular subexpressions are answered directly by a lazy DFA.
// Observed subexpressions, the ones whose behavior a caller can see
// through capture registers, context assertions or bounded repetition,
// are solved recursively: each operator splits its extent, asks the
// DFA whether a split can possibly work, and backtracks through the
// remaining splits on demand. A Solutions value is a resumable stream;
// every call to Next yields the next admissible parse.
package solver

import (
	"bytes"

	"github.com/coregx/posixre/dfa/super"
	"github.com/coregx/posixre/nfa"
	"github.com/coregx/posixre/syntax"
)

// Register is one capture extent, byte offsets into the input. Both
// offsets are -1 when the capture has not matched.
type Register struct {
	So int
	Eo int
}

// ContextFn resolves a context operator over input[start:end]: anchors,
// word boundaries and back-references. It may consult regs for the
// extents captured so far.
type ContextFn func(exp *syntax.Node, start, end int, regs []Register) super.Answer

// Context carries state shared by every solution stream of one match
// attempt: the input view, the capture registers being filled in, and
// the automaton caches.
type Context struct {
	Verse   *nfa.Universe
	Cache   *super.Cache
	Subexps []*syntax.Node // capture number - 1
	Regs    []Register

	// Fetch returns the burst of input containing pos together with
	// the offset of the burst's first byte. The burst must cover any
	// extent a stream is asked about. A matcher over a plain buffer
	// installs func(int) ([]byte, int) { return buf, 0 }.
	Fetch func(pos int) ([]byte, int)

	CtxFn ContextFn
}

// view returns the bytes of the extent [start, end).
func (ctx *Context) view(start, end int) []byte {
	burst, at := ctx.Fetch(start)
	return burst[start-at : end-at]
}

// Machine returns the determiniser for an automaton, building and
// stashing it on first use.
func (ctx *Context) Machine(e *nfa.Entry) *super.Machine {
	if m, ok := e.Matcher.(*super.Machine); ok {
		return m
	}
	m := ctx.Cache.NewMachine(e.NFA)
	e.Matcher = m
	return m
}

// Solutions enumerates the matches of one expression against one
// extent. The zero steps of the enumeration are encoded in step; left
// and right are the streams of the operands currently being tried.
type Solutions struct {
	ctx *Context
	exp *syntax.Node

	start int
	end   int

	step     int
	finalTag int

	splitGuess int
	intervalX  int

	savedSo int
	savedEo int

	left  *Solutions
	right *Solutions

	dfa    *nfa.Entry
	engine *super.System
}

// noSolutions answers No forever. Returned when the expression's fixed
// length already rules the extent out.
var noSolutions Solutions

// MakeSolutions returns the solution stream for exp over the input
// extent [start, end).
func (ctx *Context) MakeSolutions(exp *syntax.Node, start, end int) *Solutions {
	if exp != nil && exp.Len >= 0 && exp.Len != end-start {
		return &noSolutions
	}

	s := &Solutions{
		ctx:   ctx,
		exp:   exp,
		start: start,
		end:   end,
	}

	tree := exp
	if exp != nil && exp.Observed {
		tree = syntax.Simplify(exp, ctx.Subexps)
	}
	s.dfa = ctx.Verse.Get(tree)
	s.engine = ctx.Machine(s.dfa).NewSystem()
	if s.engine.Start() != super.Yes {
		s.Free()
		return nil
	}
	return s
}

// Free releases the stream's hold on the automaton caches. Safe on nil
// and exhausted streams.
func (s *Solutions) Free() {
	if s == nil || s == &noSolutions {
		return
	}
	s.left.Free()
	s.left = nil
	s.right.Free()
	s.right = nil
	if s.engine != nil {
		s.engine.Terminate()
	}
	if s.dfa != nil {
		s.dfa.Free()
		s.dfa = nil
	}
}

// FinalTag is the cut tag of the last solution produced, 1 for a plain
// match.
func (s *Solutions) FinalTag() int {
	return s.finalTag
}

// fit asks the DFA whether the whole extent can be consumed into a
// final state.
func (s *Solutions) fit() super.Answer {
	return s.engine.Fit(s.ctx.view(s.start, s.end))
}

// fitStr compares the extent against a literal. The extent is already
// known to have the literal's length.
func (s *Solutions) fitStr() super.Answer {
	if bytes.Equal(s.ctx.view(s.start, s.end), s.exp.Str) {
		return super.Yes
	}
	return super.No
}

// Next produces the next solution: Yes with registers updated, No when
// the stream is exhausted, Bogus if the matcher broke. Calling Next on
// a nil stream answers Bogus.
func (s *Solutions) Next() super.Answer {
	if s == nil {
		return super.Bogus
	}
	if s == &noSolutions {
		return super.No
	}

	if s.exp == nil {
		if s.step != 0 {
			return super.No
		}
		s.step = 1
		s.finalTag = 1
		if s.start == s.end {
			return super.Yes
		}
		return super.No
	}

	if s.exp.Len >= 0 && s.exp.Len != s.end-s.start {
		return super.No
	}

	if !s.exp.Observed {
		if s.step != 0 {
			return super.No
		}
		if s.exp.Op == syntax.OpStr {
			ans := s.fitStr()
			s.finalTag = 1
			s.step = -1
			return ans
		}
		ans := s.fit()
		s.finalTag = s.engine.FinalTag
		s.step = -1
		return ans
	}

	switch s.step {
	case -2:
		// A one-solution parens stream, re-entered: withdraw the
		// registers it set.
		if s.exp.Val > 0 {
			s.ctx.Regs[s.exp.Val] = Register{s.savedSo, s.savedEo}
		}
		return super.No

	case -1:
		return super.No

	case 0:
		// A rough fit test against the simplified automaton prunes
		// extents no parse can cover. Set finalTag here: for a group
		// over a plain expression this is all the matching done.
		fitp := s.fit()
		s.finalTag = s.engine.FinalTag
		switch fitp {
		case super.No:
			s.step = -1
			return super.No
		case super.Yes:
			s.step = 1
		default:
			s.step = -1
			return fitp
		}
	}

	switch s.exp.Op {
	case syntax.OpParens:
		return s.nextParens()
	case syntax.OpOpt:
		return s.nextOpt()
	case syntax.OpAlt:
		return s.nextAlt()
	case syntax.OpConcat:
		return s.nextConcat()
	case syntax.OpPlus, syntax.OpStar:
		return s.nextStar()
	case syntax.OpInterval:
		return s.nextInterval()
	case syntax.OpContext:
		s.step = -1
		s.finalTag = 1
		return s.ctx.CtxFn(s.exp, s.start, s.end, s.ctx.Regs)
	}

	// CSet, Str and Cut are never observed.
	s.step = -1
	return super.Bogus
}

func (s *Solutions) nextParens() super.Answer {
	regs := s.ctx.Regs
	n := s.exp.Val

	if s.step == 1 {
		if n > 0 {
			s.savedSo = regs[n].So
			s.savedEo = regs[n].Eo
		}

		if s.exp.Left == nil || !s.exp.Left.Observed {
			// The body needs no register bookkeeping of its own, and
			// the fit test already passed; this extent is the one
			// solution.
			if n > 0 {
				regs[n] = Register{s.start, s.end}
			}
			s.step = -2
			return super.Yes
		}

		s.left = s.ctx.MakeSolutions(s.exp.Left, s.start, s.end)
		if s.left == nil {
			s.step = -1
			return super.Bogus
		}
		s.step = 2
	}

	if n > 0 {
		regs[n] = Register{s.savedSo, s.savedEo}
	}

	stat := s.left.Next()
	if stat == super.Yes {
		if n > 0 {
			regs[n] = Register{s.start, s.end}
		}
		s.finalTag = s.left.finalTag
		return super.Yes
	}

	s.step = -1
	s.left.Free()
	s.left = nil
	if n > 0 {
		regs[n] = Register{s.savedSo, s.savedEo}
	}
	return stat
}

func (s *Solutions) nextOpt() super.Answer {
	if s.step == 1 {
		s.left = s.ctx.MakeSolutions(s.exp.Left, s.start, s.end)
		if s.left == nil {
			s.step = -1
			return super.Bogus
		}
		s.step = 2
	}

	stat := s.left.Next()
	if stat == super.Yes {
		s.finalTag = s.left.finalTag
		return super.Yes
	}

	s.step = -1
	s.left.Free()
	s.left = nil
	if s.start == s.end {
		s.finalTag = 1
		return super.Yes
	}
	return super.No
}

func (s *Solutions) nextAlt() super.Answer {
	for {
		switch s.step {
		case 1:
			s.left = s.ctx.MakeSolutions(s.exp.Left, s.start, s.end)
			if s.left == nil {
				s.step = -1
				return super.Bogus
			}
			s.step = 2

		case 2:
			stat := s.left.Next()
			if stat == super.Yes {
				s.finalTag = s.left.finalTag
				return stat
			}
			s.left.Free()
			s.left = nil
			s.step = 3

		case 3:
			s.right = s.ctx.MakeSolutions(s.exp.Right, s.start, s.end)
			if s.right == nil {
				s.step = -1
				return super.Bogus
			}
			s.step = 4

		case 4:
			stat := s.right.Next()
			if stat == super.Yes {
				s.finalTag = s.right.finalTag
				return stat
			}
			s.step = -1
			s.right.Free()
			s.right = nil
			return stat
		}
	}
}

func (s *Solutions) nextConcat() super.Answer {
	for {
		switch s.step {
		case 1:
			s.splitGuess = s.end
			s.left = s.ctx.MakeSolutions(s.exp.Left, s.start, s.splitGuess)
			if s.left == nil {
				s.step = -1
				return super.Bogus
			}
			s.step = 2

		case 2:
			stat := s.left.Next()
			if stat != super.Yes {
				s.left.Free()
				s.right.Free()
				s.left, s.right = nil, nil
				s.splitGuess--
				if s.splitGuess >= s.start {
					s.left = s.ctx.MakeSolutions(s.exp.Left, s.start, s.splitGuess)
					if s.left == nil {
						s.step = -1
						return super.Bogus
					}
					continue
				}
				s.step = -1
				return stat
			}
			s.step = 3

		case 3:
			s.right = s.ctx.MakeSolutions(s.exp.Right, s.splitGuess, s.end)
			if s.right == nil {
				s.left.Free()
				s.left = nil
				s.step = -1
				return super.Bogus
			}
			s.step = 4

		case 4:
			stat := s.right.Next()
			switch stat {
			case super.Yes:
				s.finalTag = s.right.finalTag
				return stat
			case super.No:
				s.right.Free()
				s.right = nil
				s.step = 2
			default:
				s.left.Free()
				s.right.Free()
				s.left, s.right = nil, nil
				s.step = -1
				return stat
			}
		}
	}
}

// nextStar handles both Plus and Star: the first iteration's extent is
// guessed longest-first, and the remainder recurses on the whole
// operator. Star alone may settle for zero iterations over an empty
// extent.
func (s *Solutions) nextStar() super.Answer {
	for {
		switch s.step {
		case 1:
			s.splitGuess = s.end
			s.left = s.ctx.MakeSolutions(s.exp.Left, s.start, s.splitGuess)
			if s.left == nil {
				s.step = -1
				return super.Bogus
			}
			s.step = 2

		case 2:
			stat := s.left.Next()
			if stat != super.Yes {
				s.left.Free()
				s.right.Free()
				s.left, s.right = nil, nil
				s.splitGuess--
				if s.splitGuess >= s.start {
					s.left = s.ctx.MakeSolutions(s.exp.Left, s.start, s.splitGuess)
					if s.left == nil {
						s.step = -1
						return super.Bogus
					}
					continue
				}
				s.step = -1
				if s.exp.Op == syntax.OpStar && s.start == s.end && stat == super.No {
					s.finalTag = 1
					return super.Yes
				}
				return stat
			}
			s.step = 3
			if s.splitGuess == s.end {
				s.finalTag = s.left.finalTag
				return super.Yes
			}

		case 3:
			s.right = s.ctx.MakeSolutions(s.exp, s.splitGuess, s.end)
			if s.right == nil {
				s.left.Free()
				s.left = nil
				s.step = -1
				return super.Bogus
			}
			s.step = 4

		case 4:
			stat := s.right.Next()
			switch stat {
			case super.Yes:
				s.finalTag = s.right.finalTag
				return stat
			case super.No:
				s.right.Free()
				s.right = nil
				s.step = 2
			default:
				s.left.Free()
				s.right.Free()
				s.left, s.right = nil, nil
				s.step = -1
				return stat
			}
		}
	}
}

// nextInterval counts iterations through intervalX rather than by
// rebuilding the expression with smaller bounds, so every recursion
// level shares one cached automaton.
func (s *Solutions) nextInterval() super.Answer {
	lo, hi := s.exp.Val, s.exp.Val2

	for {
		switch s.step {
		case 1:
			// No more iterations permitted.
			if hi < s.intervalX {
				s.step = -1
				return super.No
			}

			// Exactly zero further iterations permitted: success is
			// the emptiness of the extent.
			if hi == s.intervalX && lo <= s.intervalX {
				s.step = -1
				s.finalTag = 1
				if s.start == s.end {
					return super.Yes
				}
				return super.No
			}
			if hi == s.intervalX {
				s.step = -1
				return super.Bogus
			}

			s.splitGuess = s.end
			s.step = 2

			// When zero iterations are allowed and the extent is
			// empty, the trivial match is the preferred answer; more
			// iterations are tried only if it is rejected.
			if lo <= s.intervalX && s.start == s.end {
				s.finalTag = 1
				return super.Yes
			}

		case 2:
			s.left = s.ctx.MakeSolutions(s.exp.Left, s.start, s.splitGuess)
			if s.left == nil {
				s.step = -1
				return super.Bogus
			}
			s.step = 3

		case 3:
			stat := s.left.Next()
			if stat != super.Yes {
				s.left.Free()
				s.right.Free()
				s.left, s.right = nil, nil
				s.splitGuess--
				if s.splitGuess >= s.start {
					s.step = 2
					continue
				}
				s.step = -1
				return stat
			}
			s.step = 4

		case 4:
			s.right = s.ctx.MakeSolutions(s.exp, s.splitGuess, s.end)
			if s.right == nil {
				s.left.Free()
				s.left = nil
				s.step = -1
				return super.Bogus
			}
			if s.right != &noSolutions {
				s.right.intervalX = s.intervalX + 1
			}
			s.step = 5

		case 5:
			stat := s.right.Next()
			switch stat {
			case super.Yes:
				s.finalTag = s.right.finalTag
				return stat
			case super.No:
				s.right.Free()
				s.right = nil
				s.step = 3
			default:
				s.left.Free()
				s.right.Free()
				s.left, s.right = nil, nil
				s.step = -1
				return stat
			}
		}
	}
}
