package nfa

import "github.com/coregx/posixre/internal/sparse"

// ecloseNode explores forward from node, adding new possible futures to
// outnode. frame carries the side effects crossed between outnode and
// node, most recent first. States on the current path are marked so
// epsilon cycles terminate; the closure still visits every acyclic
// side-effect program.
func (n *NFA) ecloseNode(outnode, node *State, frame *SeList) {
	if n.onPath.Contains(node.index) {
		return
	}
	n.onPath.Insert(node.index)

	// A state that consumes bytes, or is final, belongs in the partial
	// closure reached by the current side-effect program.
	if node.ID >= 0 || node.IsFinal != 0 {
		prog := n.hashConsSeProg(frame)

		i := 0
		cmp := -1
		for i < len(outnode.futures) {
			cmp = outnode.futures[i].Effects.Cmp(prog)
			if cmp <= 0 {
				break
			}
			i++
		}
		if i == len(outnode.futures) || cmp < 0 {
			pf := &PossibleFuture{Effects: prog}
			outnode.futures = append(outnode.futures, nil)
			copy(outnode.futures[i+1:], outnode.futures[i:])
			outnode.futures[i] = pf
		}
		if node.ID >= 0 {
			pf := outnode.futures[i]
			pf.Destset = n.Enjoin(node, pf.Destset)
		}
	}

	for _, e := range node.Edges {
		switch e.Kind {
		case EdgeEpsilon:
			n.ecloseNode(outnode, e.Dest, frame)
		case EdgeSideEffect:
			n.ecloseNode(outnode, e.Dest, &SeList{Car: e.Effect, Cdr: frame})
		}
	}
	n.onPath.Remove(node.index)
}

// PossibleFutures returns the partial epsilon closures of state, sorted
// by effect-list order so consumers can merge lists from several states
// in one pass. The result is computed once per state and memoised for
// the lifetime of the NFA.
func (n *NFA) PossibleFutures(state *State) []*PossibleFuture {
	if !state.futuresComputed {
		if n.onPath == nil {
			n.onPath = sparse.New(uint32(len(n.States)))
		}
		n.ecloseNode(state, state, nil)
		state.futuresComputed = true
	}
	return state.futures
}
