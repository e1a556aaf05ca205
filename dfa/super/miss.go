package super

import (
	"github.com/coregx/posixre/internal/bitset"
	"github.com/coregx/posixre/nfa"
	"github.com/coregx/posixre/syntax"
)

// installTransition fills the transition slot of every byte in trcset.
func installTransition(super *Superstate, answer *InxFrame, trcset bitset.Bitset) {
	for w, sub := range trcset {
		if sub == 0 {
			continue
		}
		chr := w * 64
		for mask := uint64(1); mask != 0; mask <<= 1 {
			if sub&mask != 0 {
				super.Transitions[chr] = *answer
			}
			chr++
		}
	}
}

// installPartialTransition fills the transition slots for the members
// of trcset that share a machine word with chr. Filling the whole
// class would be wasted work when the matcher never revisits it.
func installPartialTransition(super *Superstate, answer *InxFrame, trcset bitset.Bitset, chr byte) {
	sub := trcset[chr/64]
	pos := int(chr) &^ 63
	for mask := uint64(1); mask != 0; mask <<= 1 {
		if sub&mask != 0 {
			super.Transitions[pos] = *answer
		}
		pos++
	}
}

// includeFutures makes sure the edge being built from superstate has a
// distinct future for each possible future of an NFA state reached by
// an applying edge. Futures with the same side effects are merged; the
// ring stays ordered by effect list so that repeated construction of
// the same edge yields the same ring.
func (m *Machine) includeFutures(df *DistinctFuture, state *nfa.State, superstate *Superstate) *DistinctFuture {
	for _, future := range m.nfa.PossibleFutures(state) {
		var dfp *DistinctFuture
		var insertBefore *DistinctFuture
		if df != nil {
			df.nextSameEdge[1].nextSameEdge[0] = nil
		}
		for dfp = df; dfp != nil; dfp = dfp.nextSameEdge[0] {
			if dfp.Effects == future.Effects {
				break
			}
			if dfp.Effects.Cmp(future.Effects) > 0 {
				insertBefore = dfp
				dfp = nil
				break
			}
		}
		if df != nil {
			df.nextSameEdge[1].nextSameEdge[0] = df
		}
		if dfp != nil {
			continue
		}

		dfp = &DistinctFuture{}
		m.cache.bytesUsed += distinctFutureBytes
		if df == nil {
			df = dfp
			insertBefore = dfp
			df.nextSameEdge[0] = df
			df.nextSameEdge[1] = df
		} else if insertBefore == nil {
			insertBefore = df
		} else if insertBefore == df {
			df = dfp
		}

		dfp.nextSameEdge[0] = insertBefore
		dfp.nextSameEdge[1] = insertBefore.nextSameEdge[1]
		dfp.nextSameEdge[1].nextSameEdge[0] = dfp
		dfp.nextSameEdge[0].nextSameEdge[1] = dfp
		dfp.nextSameDest = dfp
		dfp.prevSameDest = dfp
		dfp.Present = superstate
		dfp.FutureFrame = InxFrame{Op: OpCacheMiss, Future: dfp}
		dfp.SideEffectsFrame = InxFrame{Op: OpDoSideEffects, Future: dfp}
		dfp.Effects = future.Effects
	}
	return df
}

// computeSuperEdge computes every edge that leaves super on chr,
// together with the full set of bytes sharing that edge set. A nil
// ring means chr fails from this superstate.
func (m *Machine) computeSuperEdge(super *Superstate, chr byte) (*DistinctFuture, bitset.Bitset) {
	// To find the bytes that share an edge set with chr, start with
	// the full byte set and subtract.
	cset := bitset.New(syntax.CsetSize)
	cset.Universe()

	var df *DistinctFuture
	for stateset := super.Contents; stateset.Car != nil; stateset = stateset.Cdr {
		for _, e := range stateset.Car.Edges {
			if e.Kind != nfa.EdgeCset {
				continue
			}
			if !e.Cset.IsMember(int(chr)) {
				// An edge that does not apply still names bytes that
				// do not share chr's edge set.
				cset.Difference(e.Cset)
			} else {
				df = m.includeFutures(df, e.Dest, super)
				cset.Intersection(e.Cset)
			}
		}
	}
	return df, cset
}

// newSuperEdge wraps a ring of distinct futures sharing one byte-class
// label and hangs it on the source superstate.
func (m *Machine) newSuperEdge(super *Superstate, cset bitset.Bitset, df *DistinctFuture) *SuperEdge {
	tc := &SuperEdge{Cset: cset, Options: df}
	m.cache.bytesUsed += superEdgeBytes
	tc.next = super.Edges
	super.Edges = tc
	tc.BacktrackFrame = InxFrame{Op: OpBacktrackPoint, Edge: tc}
	if df != nil {
		df.nextSameEdge[1].nextSameEdge[0] = nil
		for dfp := df; dfp != nil; dfp = dfp.nextSameEdge[0] {
			dfp.Edge = tc
		}
		df.nextSameEdge[1].nextSameEdge[0] = df
	}
	return tc
}

// solveDestination computes the destination superstate of one edge of
// the superstate NFA: the union, over all applying NFA edges, of the
// closure destination sets whose side effects match the edge's.
func (m *Machine) solveDestination(df *DistinctFuture) {
	c := m.cache
	tc := df.Edge
	nilSet := c.cons(m, nil, nil)
	solution := nilSet
	c.protect(solution)

	for nfaState := df.Present.Contents; nfaState.Car != nil; nfaState = nfaState.Cdr {
		for _, e := range nfaState.Car.Edges {
			if e.Kind != nfa.EdgeCset || !tc.Cset.Subset(e.Cset) {
				continue
			}
			for _, pf := range m.nfa.PossibleFutures(e.Dest) {
				if pf.Effects == df.Effects {
					old := solution
					solution = c.eclosureUnion(m, solution, pf.Destset)
					c.protect(solution)
					c.release(old)
				}
			}
		}
	}

	// An edge can turn out to have the empty set of NFA states as its
	// destination, in which case it is a failure point.
	if solution == nilSet {
		df.FutureFrame = InxFrame{Op: OpBacktrack}
		return
	}

	dest := m.superstate(solution)
	c.release(solution)

	df.prevSameDest.nextSameDest = nil
	for dft := df; dft != nil; dft = dft.nextSameDest {
		dft.Future = dest
		dft.FutureFrame = InxFrame{Op: OpNextChar, Data: dest, Tag: dest.Contents.IsFinal}
	}
	df.prevSameDest.nextSameDest = df

	if dest.transitionRefs == nil {
		dest.transitionRefs = df
	} else {
		dft := dest.transitionRefs.nextSameDest
		dest.transitionRefs.nextSameDest = df.nextSameDest
		df.nextSameDest.prevSameDest = dest.transitionRefs
		df.nextSameDest = dft
		dft.prevSameDest = df
	}
}

// sharedFailFrame answers every cache miss whose edge set is empty.
var sharedFailFrame = InxFrame{Op: OpBacktrack}

// edgeAnswer picks the frame that stands for an edge in a transition
// table: a backtrack point when the edge is nondeterministic, the side
// effects frame when its single future crosses effects, and the bare
// future frame otherwise.
func edgeAnswer(tc *SuperEdge) *InxFrame {
	df := tc.Options
	if df.nextSameEdge[0] != df {
		return &tc.BacktrackFrame
	}
	if df.Effects != nil {
		return &df.SideEffectsFrame
	}
	return &df.FutureFrame
}

// HandleCacheMiss resolves an OpCacheMiss frame hit while translating
// super on chr. There are three kinds of miss: the transition has
// never been computed for this superstate (df is nil), the destination
// superstate of a known edge does not exist (df.Future is nil), or the
// destination has been made semifree. The returned frame is what the
// transition slot should have held.
func (m *Machine) HandleCacheMiss(super *Superstate, chr byte, df *DistinctFuture) *InxFrame {
	if df == nil {
		// Perhaps this is just a transition waiting to be filled.
		for tc := super.Edges; tc != nil; tc = tc.next {
			if tc.Cset.IsMember(int(chr)) {
				answer := edgeAnswer(tc)
				installPartialTransition(super, answer, tc.Cset, chr)
				return answer
			}
		}

		// Otherwise it is a flushed or newly encountered edge.
		super.Locks++
		edgeDF, trcset := m.computeSuperEdge(super, chr)
		var answer *InxFrame
		if edgeDF == nil {
			answer = &sharedFailFrame
		} else {
			answer = edgeAnswer(m.newSuperEdge(super, trcset, edgeDF))
		}
		installPartialTransition(super, answer, trcset, chr)
		super.Locks--
		return answer
	}

	if df.Future != nil {
		// A miss on an edge with a future means a semifree
		// destination.
		if df.Future.isSemifree {
			m.cache.refreshSemifree(df.Future)
		}
		return &df.FutureFrame
	}

	super.Locks++
	m.solveDestination(df)
	if df.Effects == nil && df.Edge.Options.nextSameEdge[0] == df.Edge.Options {
		installPartialTransition(super, &df.FutureFrame, df.Edge.Cset, chr)
	}
	super.Locks--
	return &df.FutureFrame
}
