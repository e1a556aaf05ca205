package posixre

import (
	"github.com/coregx/posixre/dfa/super"
	"github.com/coregx/posixre/nfa"
	"github.com/coregx/posixre/simd"
	"github.com/coregx/posixre/solver"
	"github.com/coregx/posixre/syntax"
)

// Reg is one capture extent, byte offsets into the input. So is -1
// when the group did not participate in the match. FinalTag carries
// the tag of the terminal reached and is meaningful on element 0 only.
type Reg struct {
	So       int
	Eo       int
	FinalTag int
}

// Exec finds the leftmost match of the pattern in input. On success it
// returns one Reg per group, element 0 being the whole match. The only
// routine failure is ErrNoMatch.
func (re *Regexp) Exec(input []byte, eflags ExecFlags) ([]Reg, error) {
	nmatch := re.nsub
	if re.noSub {
		nmatch = 1
	}
	return re.ExecN(input, nmatch, eflags)
}

// ExecN is Exec reporting at most nmatch groups. When nmatch exceeds
// the group count the surplus entries come back unmatched.
func (re *Regexp) ExecN(input []byte, nmatch int, eflags ExecFlags) ([]Reg, error) {
	if re.an == nil {
		return nil, syntax.BadPattern.Err()
	}
	if nmatch < 1 {
		nmatch = 1
	}

	regs := make([]solver.Register, re.nsub)
	ctx := &solver.Context{
		Verse:   re.verse,
		Cache:   re.cache,
		Subexps: re.an.Subexps,
		Regs:    regs,
		Fetch:   func(int) ([]byte, int) { return input, 0 },
		CtxFn:   re.contextFn(input, eflags),
	}

	// The DFA screen shares its automaton with the solver through the
	// universe, so a hit here is a warm cache for the match proper.
	var screen *super.System
	var screenDFA *nfa.Entry
	screenTried := false
	defer func() {
		if screen != nil {
			screen.Terminate()
		}
		if screenDFA != nil {
			screenDFA.Free()
		}
	}()

	x := 0
	for x <= len(input) {
		if re.pf != nil {
			x = re.pf.Find(input, x)
			if x < 0 {
				return nil, ErrNoMatch
			}
		} else if !re.an.Nullable && x < len(input) && !re.an.Fastmap[input[x]] {
			x = re.nextCandidate(input, x)
			continue
		}

		if len(input)-x > re.manyCases && re.simple != nil {
			if !screenTried {
				screen, screenDFA = re.makeScreen(ctx)
				screenTried = true
			}
			if screen != nil && !re.screenAdmits(screen, input, x) {
				x = re.nextCandidate(input, x)
				continue
			}
		}

		for i := range regs {
			regs[i] = solver.Register{So: -1, Eo: -1}
		}
		end, tag, a := re.regmatch(ctx, input, x)
		switch a {
		case super.Yes:
			out := make([]Reg, nmatch)
			for i := range out {
				out[i] = Reg{So: -1, Eo: -1}
			}
			out[0] = Reg{So: x, Eo: end, FinalTag: tag}
			if !re.noSub {
				for i := 1; i < nmatch && i < re.nsub; i++ {
					out[i] = Reg{So: regs[i].So, Eo: regs[i].Eo}
				}
			}
			return out, nil
		case super.No:
			x = re.nextCandidate(input, x)
		default:
			return nil, syntax.OutOfMemory.Err()
		}
	}
	return nil, ErrNoMatch
}

// nextCandidate advances past a failed start position. Anchored
// patterns can only resume after a newline, and only when embedded
// anchors are in force.
func (re *Regexp) nextCandidate(input []byte, x int) int {
	if re.an.Anchored {
		if !re.newlineAnchor || x >= len(input) {
			return len(input) + 1
		}
		nl := simd.Memchr(input[x:], '\n')
		if nl < 0 {
			return len(input) + 1
		}
		return x + nl + 1
	}
	return x + 1
}

// makeScreen builds a matcher for the pattern's effect-free
// approximation. A nil system means screening is unavailable and every
// candidate goes straight to the solver.
func (re *Regexp) makeScreen(ctx *solver.Context) (*super.System, *nfa.Entry) {
	entry := re.verse.Get(re.simple)
	sys := ctx.Machine(entry).NewSystem()
	if sys.Start() != super.Yes {
		sys.Terminate()
		entry.Free()
		return nil, nil
	}
	return sys, entry
}

// screenAdmits runs the DFA from x and reports whether a match
// starting there is still possible. A candidate is rejected only when
// the automaton dead-ends before both a final state and the end of
// input.
func (re *Regexp) screenAdmits(screen *super.System, input []byte, x int) bool {
	if screen.Start() != super.Yes {
		return true
	}
	amt := screen.AdvanceToFinal(input[x:])
	if amt < 0 {
		return true
	}
	return screen.FinalTag != 0 || amt == len(input)-x
}

// regmatch tries to match the whole pattern at start x, preferring the
// longest end. Returns the end offset and final tag on Yes.
func (re *Regexp) regmatch(ctx *solver.Context, input []byte, x int) (int, int, super.Answer) {
	lower, upper := x, len(input)
	if re.tree != nil && re.tree.Len >= 0 {
		lower = x + re.tree.Len
		upper = lower
		if upper > len(input) {
			return 0, 0, super.No
		}
	}

	for end := upper; end >= lower; end-- {
		s := ctx.MakeSolutions(re.tree, x, end)
		a := s.Next()
		tag := s.FinalTag()
		s.Free()
		switch a {
		case super.Yes:
			return end, tag, super.Yes
		case super.No:
		default:
			return 0, 0, super.Bogus
		}
	}
	return 0, 0, super.No
}

// contextFn evaluates the zero-width operators and back-references of
// one match attempt against the whole input.
func (re *Regexp) contextFn(input []byte, eflags ExecFlags) solver.ContextFn {
	notBol := eflags&NotBol != 0
	notEol := eflags&NotEol != 0

	return func(exp *syntax.Node, start, end int, regs []solver.Register) super.Answer {
		c := exp.Val
		if c >= '1' && c <= '9' {
			d := int(c - '0')
			if d >= len(regs) {
				return super.No
			}
			r := regs[d]
			if r.So < 0 || r.Eo < 0 || r.Eo-r.So != end-start {
				return super.No
			}
			for i := 0; i < end-start; i++ {
				if re.translate[input[start+i]] != re.translate[input[r.So+i]] {
					return super.No
				}
			}
			return super.Yes
		}

		pos := start
		var yes bool
		switch c {
		case '^':
			yes = (pos == 0 && !notBol) ||
				(pos > 0 && re.newlineAnchor && input[pos-1] == '\n')
		case '$':
			yes = (pos == len(input) && !notEol) ||
				(pos < len(input) && re.newlineAnchor && input[pos] == '\n')
		case '`':
			yes = pos == 0
		case '\'':
			yes = pos == len(input)
		case '<':
			yes = wordStart(input, pos)
		case '>':
			yes = wordEnd(input, pos)
		case 'b':
			yes = wordStart(input, pos) || wordEnd(input, pos)
		case 'B':
			yes = !wordStart(input, pos) && !wordEnd(input, pos)
		}
		if yes {
			return super.Yes
		}
		return super.No
	}
}

func wordStart(input []byte, pos int) bool {
	return pos < len(input) && syntax.IsWordByte(input[pos]) &&
		(pos == 0 || !syntax.IsWordByte(input[pos-1]))
}

func wordEnd(input []byte, pos int) bool {
	return pos > 0 && syntax.IsWordByte(input[pos-1]) &&
		(pos == len(input) || !syntax.IsWordByte(input[pos]))
}
