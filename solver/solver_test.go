package solver

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coregx/posixre/dfa/super"
	"github.com/coregx/posixre/nfa"
	"github.com/coregx/posixre/syntax"
)

// testContextFn resolves anchors against the whole input and compares
// back-references byte for byte.
func testContextFn(input []byte) ContextFn {
	return func(exp *syntax.Node, start, end int, regs []Register) super.Answer {
		switch c := exp.Val; {
		case c == '^':
			if start == 0 {
				return super.Yes
			}
		case c == '$':
			if start == len(input) {
				return super.Yes
			}
		case c >= '1' && c <= '9':
			r := regs[c-'0']
			if r.So >= 0 && r.Eo-r.So == end-start &&
				string(input[start:end]) == string(input[r.So:r.Eo]) {
				return super.Yes
			}
		}
		return super.No
	}
}

func newTestContext(t *testing.T, pattern, input string) (*Context, *syntax.Node) {
	t.Helper()
	tree, err := syntax.Parse([]byte(pattern), syntax.PosixExtended, nil)
	require.NoError(t, err)
	an := syntax.Analyze(tree)

	in := []byte(input)
	ctx := &Context{
		Verse:   nfa.NewUniverse(nfa.DefaultDelay),
		Cache:   super.NewCache(super.DefaultCacheSize),
		Subexps: an.Subexps,
		Regs:    make([]Register, len(an.Subexps)+1),
		Fetch:   func(int) ([]byte, int) { return in, 0 },
		CtxFn:   testContextFn(in),
	}
	for i := range ctx.Regs {
		ctx.Regs[i] = Register{So: -1, Eo: -1}
	}
	return ctx, tree
}

func TestSolutionsLiteral(t *testing.T) {
	ctx, tree := newTestContext(t, "abc", "abc")

	s := ctx.MakeSolutions(tree, 0, 3)
	require.Equal(t, super.Yes, s.Next())
	require.Equal(t, 1, s.FinalTag())
	require.Equal(t, super.No, s.Next())
	s.Free()
}

func TestSolutionsFixedLengthMismatch(t *testing.T) {
	ctx, tree := newTestContext(t, "abc", "abc")

	s := ctx.MakeSolutions(tree, 0, 2)
	require.Equal(t, super.No, s.Next())
	s.Free()
}

func TestSolutionsCaptureInRepeat(t *testing.T) {
	ctx, tree := newTestContext(t, "a(b|c)+d", "abccbd")

	s := ctx.MakeSolutions(tree, 0, 6)
	require.Equal(t, super.Yes, s.Next())
	require.Equal(t, Register{So: 4, Eo: 5}, ctx.Regs[1])
	s.Free()
}

func TestSolutionsGreedySplit(t *testing.T) {
	ctx, tree := newTestContext(t, "(a*)(a*)", "aaa")

	s := ctx.MakeSolutions(tree, 0, 3)
	require.Equal(t, super.Yes, s.Next())
	require.Equal(t, Register{So: 0, Eo: 3}, ctx.Regs[1])
	require.Equal(t, Register{So: 3, Eo: 3}, ctx.Regs[2])
	s.Free()
}

func TestSolutionsStarEmptyExtent(t *testing.T) {
	ctx, tree := newTestContext(t, "(a*)", "")

	s := ctx.MakeSolutions(tree, 0, 0)
	require.Equal(t, super.Yes, s.Next())
	require.Equal(t, Register{So: 0, Eo: 0}, ctx.Regs[1])
	require.Equal(t, super.No, s.Next())
	s.Free()
}

func TestSolutionsAlternationOrder(t *testing.T) {
	ctx, tree := newTestContext(t, "(ab|a)", "ab")

	s := ctx.MakeSolutions(tree, 0, 2)
	require.Equal(t, super.Yes, s.Next())
	require.Equal(t, Register{So: 0, Eo: 2}, ctx.Regs[1])
	s.Free()

	s = ctx.MakeSolutions(tree, 0, 1)
	require.Equal(t, super.Yes, s.Next())
	require.Equal(t, Register{So: 0, Eo: 1}, ctx.Regs[1])
	s.Free()
}

func TestSolutionsIntervalBounds(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  super.Answer
	}{
		{"below lower bound", "a", super.No},
		{"at lower bound", "aa", super.Yes},
		{"at upper bound", "aaaa", super.Yes},
		{"above upper bound", "aaaaa", super.No},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, tree := newTestContext(t, "a{2,4}", tt.input)
			s := ctx.MakeSolutions(tree, 0, len(tt.input))
			require.Equal(t, tt.want, s.Next())
			s.Free()
		})
	}
}

func TestSolutionsBackReference(t *testing.T) {
	ctx, tree := newTestContext(t, `(ab)\1`, "abab")
	s := ctx.MakeSolutions(tree, 0, 4)
	require.Equal(t, super.Yes, s.Next())
	require.Equal(t, Register{So: 0, Eo: 2}, ctx.Regs[1])
	s.Free()

	ctx, tree = newTestContext(t, `(ab)\1`, "abba")
	s = ctx.MakeSolutions(tree, 0, 4)
	require.Equal(t, super.No, s.Next())
	s.Free()
}

func TestSolutionsAnchors(t *testing.T) {
	ctx, tree := newTestContext(t, "^ab$", "ab")
	s := ctx.MakeSolutions(tree, 0, 2)
	require.Equal(t, super.Yes, s.Next())
	s.Free()

	ctx, tree = newTestContext(t, "^ab$", "xab")
	s = ctx.MakeSolutions(tree, 1, 3)
	require.Equal(t, super.No, s.Next())
	s.Free()
}

func TestSolutionsNilExpression(t *testing.T) {
	ctx, _ := newTestContext(t, "a", "a")

	s := ctx.MakeSolutions(nil, 1, 1)
	require.Equal(t, super.Yes, s.Next())
	require.Equal(t, super.No, s.Next())
	s.Free()

	s = ctx.MakeSolutions(nil, 0, 1)
	require.Equal(t, super.No, s.Next())
	s.Free()
}

func TestSolutionsFreeIsReentrant(t *testing.T) {
	ctx, tree := newTestContext(t, "a(b)c", "abc")
	s := ctx.MakeSolutions(tree, 0, 3)
	require.Equal(t, super.Yes, s.Next())
	s.Free()
	s.Free()

	var nils *Solutions
	nils.Free()
	require.Equal(t, super.Bogus, nils.Next())
}

func TestSolutionsSuffixFetcher(t *testing.T) {
	// A fetcher may hand out any burst covering the extent, not just
	// the whole buffer. Serve suffixes with a nonzero base offset and
	// check the stream still resolves captures the same way.
	ctx, tree := newTestContext(t, "a(b|c)+d", "abccbd")
	in := []byte("abccbd")
	ctx.Fetch = func(pos int) ([]byte, int) { return in[pos:], pos }

	s := ctx.MakeSolutions(tree, 0, 6)
	require.Equal(t, super.Yes, s.Next())
	require.Equal(t, Register{So: 4, Eo: 5}, ctx.Regs[1])
	s.Free()
}

func TestMachineIsStashedOnEntry(t *testing.T) {
	ctx, tree := newTestContext(t, "ab", "ab")

	e1 := ctx.Verse.Get(tree)
	m1 := ctx.Machine(e1)
	m2 := ctx.Machine(e1)
	require.Same(t, m1, m2)
	e1.Free()
}
