package nfa

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coregx/posixre/syntax"
)

func mustParse(t *testing.T, pattern string) *syntax.Node {
	t.Helper()
	tree, err := syntax.Parse([]byte(pattern), syntax.PosixExtended, nil)
	require.NoError(t, err)
	return tree
}

// spell follows single-byte edges from the start state and returns the
// bytes consumed, stopping at the first state without a cset edge.
func spell(n *NFA) []byte {
	var out []byte
	s := n.Start
	for {
		var next *State
		for _, e := range s.Edges {
			if e.Kind == EdgeCset {
				for b := 0; b < syntax.CsetSize; b++ {
					if e.Cset.IsMember(b) {
						out = append(out, byte(b))
						break
					}
				}
				next = e.Dest
				break
			}
		}
		if next == nil {
			return out
		}
		s = next
	}
}

func TestBuildLiteralChain(t *testing.T) {
	n := Build(mustParse(t, "abc"))

	require.Equal(t, []byte("abc"), spell(n))
	require.True(t, n.Start.IsStart)

	finals := 0
	for _, s := range n.States {
		if s.IsFinal != 0 {
			finals++
			require.Equal(t, 1, s.IsFinal)
		}
	}
	require.Equal(t, 1, finals)
}

func TestBuildEmptyPattern(t *testing.T) {
	n := Build(nil)
	require.Same(t, n.Start, n.States[0])
	require.Equal(t, 1, n.Start.IsFinal)
}

func TestAssignIDs(t *testing.T) {
	n := Build(mustParse(t, "a(b|c)*d"))

	seen := map[int]bool{}
	for _, s := range n.States {
		observable := s.IsFinal != 0
		for _, e := range s.Edges {
			if e.Kind == EdgeCset {
				observable = true
			}
		}
		if observable {
			require.GreaterOrEqual(t, s.ID, 0)
			require.False(t, seen[s.ID], "duplicate id %d", s.ID)
			seen[s.ID] = true
		} else {
			require.Less(t, s.ID, 0)
		}
	}
	require.Len(t, seen, n.CsetStates)
}

func TestPossibleFuturesLiteral(t *testing.T) {
	n := Build(mustParse(t, "ab"))

	futures := n.PossibleFutures(n.Start)
	require.Len(t, futures, 1)
	require.Nil(t, futures[0].Effects)

	members := futures[0].Destset.Members()
	require.Len(t, members, 1)
	require.Same(t, n.Start, members[0])
}

func TestPossibleFuturesAlternation(t *testing.T) {
	n := Build(mustParse(t, "a|b"))

	futures := n.PossibleFutures(n.Start)
	require.Len(t, futures, 1)
	require.Nil(t, futures[0].Effects)
	require.Len(t, futures[0].Destset.Members(), 2)
}

func TestPossibleFuturesStarReachesFinal(t *testing.T) {
	n := Build(mustParse(t, "a*"))

	futures := n.PossibleFutures(n.Start)
	require.Len(t, futures, 1)

	var finalSeen, csetSeen bool
	for _, s := range futures[0].Destset.Members() {
		if s.IsFinal != 0 {
			finalSeen = true
		}
		for _, e := range s.Edges {
			if e.Kind == EdgeCset {
				csetSeen = true
			}
		}
	}
	require.True(t, finalSeen)
	require.True(t, csetSeen)
}

func TestPossibleFuturesSideEffects(t *testing.T) {
	n := Build(mustParse(t, "^a"))

	futures := n.PossibleFutures(n.Start)
	require.Len(t, futures, 1)
	require.Equal(t, []SideEffect{'^'}, futures[0].Effects.Effects())
	require.Len(t, futures[0].Destset.Members(), 1)
}

func TestPossibleFuturesSplitByEffects(t *testing.T) {
	// One byte-consuming destination is reached with no effects, the
	// other only by crossing the anchor. The closure must keep them in
	// separate partial closures.
	n := Build(mustParse(t, "a|^b"))

	futures := n.PossibleFutures(n.Start)
	require.Len(t, futures, 2)
	require.NotEqual(t, futures[0].Effects, futures[1].Effects)

	var plain, anchored *PossibleFuture
	for _, pf := range futures {
		if pf.Effects == nil {
			plain = pf
		} else {
			anchored = pf
		}
	}
	require.NotNil(t, plain)
	require.NotNil(t, anchored)
	require.Equal(t, []SideEffect{'^'}, anchored.Effects.Effects())
	require.Len(t, plain.Destset.Members(), 1)
	require.Len(t, anchored.Destset.Members(), 1)
}

func TestPossibleFuturesMemoised(t *testing.T) {
	n := Build(mustParse(t, "a|b"))

	first := n.PossibleFutures(n.Start)
	second := n.PossibleFutures(n.Start)
	require.Equal(t, len(first), len(second))
	for i := range first {
		require.Same(t, first[i], second[i])
	}
}

func TestSeListInterning(t *testing.T) {
	n := &NFA{}

	a := n.hashConsSeProg(&SeList{Car: '$', Cdr: &SeList{Car: '^'}})
	b := n.hashConsSeProg(&SeList{Car: '$', Cdr: &SeList{Car: '^'}})
	require.Same(t, a, b)
	require.Equal(t, []SideEffect{'^', '$'}, a.Effects())

	c := n.hashConsSeProg(&SeList{Car: '^', Cdr: &SeList{Car: '$'}})
	require.NotSame(t, a, c)
}

func TestSeListCmpOrdering(t *testing.T) {
	n := &NFA{}

	lo := n.hashConsSeProg(&SeList{Car: '^'})
	hi := n.hashConsSeProg(&SeList{Car: 'b'})

	require.Equal(t, 0, lo.Cmp(lo))
	require.Equal(t, 1, lo.Cmp(hi))
	require.Equal(t, -1, hi.Cmp(lo))
	require.Equal(t, -1, (*SeList)(nil).Cmp(lo))
	require.Equal(t, 1, lo.Cmp(nil))
}

func TestStateSetEnjoin(t *testing.T) {
	n := &NFA{}
	s0 := &State{ID: 0}
	s1 := &State{ID: 1}
	s2 := &State{ID: 2}

	set := n.Enjoin(s2, nil)
	set = n.Enjoin(s0, set)
	set = n.Enjoin(s1, set)

	require.Equal(t, []*State{s0, s1, s2}, set.Members())

	// Adjoining a present member returns the identical set.
	require.Same(t, set, n.Enjoin(s1, set))

	// Same members, different insertion order, same pointer.
	other := n.Enjoin(s0, n.Enjoin(s1, n.Enjoin(s2, nil)))
	require.Same(t, set, other)
}

func TestUniverseSharesStructurallyEqualTrees(t *testing.T) {
	u := NewUniverse(0)

	e1 := u.Get(mustParse(t, "a(b|c)d"))
	e2 := u.Get(mustParse(t, "a(b|c)d"))
	require.Same(t, e1, e2)
	require.Same(t, e1.NFA, e2.NFA)
	require.Equal(t, 1, u.Len())

	e3 := u.Get(mustParse(t, "a(b|x)d"))
	require.NotSame(t, e1, e3)
	require.Equal(t, 2, u.Len())

	e1.Free()
	e2.Free()
	e3.Free()
}

func TestUniverseRescuesDeadEntries(t *testing.T) {
	u := NewUniverse(4)

	e := u.Get(mustParse(t, "abc"))
	nfaPtr := e.NFA
	e.Free()

	// Still on the delay queue: the lookup must revive it.
	e2 := u.Get(mustParse(t, "abc"))
	require.Same(t, nfaPtr, e2.NFA)
	e2.Free()
}

func TestUniverseDelayQueueOverflow(t *testing.T) {
	u := NewUniverse(2)

	patterns := []string{"aa", "bb", "cc", "dd"}
	for _, p := range patterns {
		u.Get(mustParse(t, p)).Free()
	}

	// Queue depth 2: only the two most recent dead entries survive.
	require.Equal(t, 2, u.Len())
}
