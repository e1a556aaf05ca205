// Package nfa builds nondeterministic finite automata from expression
// trees and computes their epsilon closures.
//
// The automata are Thompson constructions extended with side-effect
// edges. A side-effect edge is crossed whenever a similarly placed
// epsilon edge would be, but crossing it implies some action visible to
// the matcher (an anchor check, a capture boundary, a back-reference).
// Side effects model the parts of the pattern language that are not
// regular; a deterministic superstate engine built over this NFA keeps
// them as labels on its transitions instead of resolving them.
package nfa

import (
	"fmt"

	"github.com/coregx/posixre/internal/bitset"
	"github.com/coregx/posixre/internal/hashcons"
	"github.com/coregx/posixre/internal/sparse"
	"github.com/coregx/posixre/syntax"
)

// EdgeKind identifies the label type of an NFA edge.
type EdgeKind uint8

const (
	// EdgeCset consumes one input byte drawn from the edge's byte set.
	EdgeCset EdgeKind = iota

	// EdgeEpsilon consumes nothing.
	EdgeEpsilon

	// EdgeSideEffect consumes nothing but implies an effect when crossed.
	EdgeSideEffect
)

// String returns a human-readable representation of the EdgeKind.
func (k EdgeKind) String() string {
	switch k {
	case EdgeCset:
		return "Cset"
	case EdgeEpsilon:
		return "Epsilon"
	case EdgeSideEffect:
		return "SideEffect"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// SideEffect is the label of a side-effect edge. Values are the context
// operator bytes from the expression tree: anchors and word-context
// operators such as '^', '$', '<', '>', 'b', 'B', or a back-reference
// digit '1'..'9'.
type SideEffect int

// Edge is one outgoing transition of a State.
type Edge struct {
	Kind   EdgeKind
	Dest   *State
	Cset   bitset.Bitset // EdgeCset only
	Effect SideEffect    // EdgeSideEffect only
}

// State is one NFA state.
//
// ID is assigned by assignIDs after construction: states with at least
// one byte-consuming edge or a nonzero final tag get dense ids counting
// up from 0; states reachable only through epsilon and side-effect
// edges get ids counting down from -1. Superstate contents and closure
// destination sets hold only states with nonnegative ids.
type State struct {
	ID      int
	IsFinal int // 0, or the positive tag of a Cut, or 1 for the match state
	IsStart bool
	Edges   []*Edge

	futures         []*PossibleFuture
	futuresComputed bool
	index           uint32 // position in the owning arena
}

// HasCsetEdges reports whether the state has a byte-consuming edge.
func (s *State) HasCsetEdges() bool {
	for _, e := range s.Edges {
		if e.Kind == EdgeCset {
			return true
		}
	}
	return false
}

// PossibleFuture is one partial epsilon closure of a state: the set of
// byte-consuming states reachable by crossing exactly the side effects
// in Effects (in order, though not necessarily along one path).
type PossibleFuture struct {
	Effects *SeList
	Destset *StateSet
}

// NFA is an automaton over byte strings together with the hash-cons
// memos shared by its closure computations.
type NFA struct {
	States []*State
	Start  *State

	// CsetStates counts states with nonnegative ids.
	CsetStates int

	seListMemo hashcons.Table
	seSerial   uint32
	setMemo    hashcons.Table
	setSerial  uint32
	onPath     *sparse.Set
}

func (n *NFA) newState() *State {
	s := &State{ID: -1, index: uint32(len(n.States))}
	n.States = append(n.States, s)
	return s
}

func (n *NFA) newEdge(kind EdgeKind, from, to *State) *Edge {
	e := &Edge{Kind: kind, Dest: to}
	from.Edges = append(from.Edges, e)
	return e
}

// assignIDs numbers the states. Byte-consuming and final states are the
// ones closures and superstates observe; they get the dense nonnegative
// range so destination sets can be ordered by id.
func (n *NFA) assignIDs() {
	next := 0
	eps := -1
	for _, s := range n.States {
		observable := s.IsFinal != 0
		for _, e := range s.Edges {
			if e.Kind == EdgeCset {
				observable = true
				break
			}
		}
		if observable {
			s.ID = next
			next++
		} else {
			s.ID = eps
			eps--
		}
	}
	n.CsetStates = next
}

// Build translates an expression tree into an NFA. The returned
// automaton has a single start state and a single match state with
// final tag 1. A nil tree yields an automaton that matches only the
// empty string.
func Build(root *syntax.Node) *NFA {
	n := &NFA{}
	var start, end *State
	n.build(root, &start, &end)
	start.IsStart = true
	if end != nil && end != start {
		end.IsFinal = 1
	} else {
		start.IsFinal = 1
	}
	n.assignIDs()
	n.Start = start
	return n
}

// build adds the fragment for rexp between *start and *end, allocating
// either endpoint if the caller passed nil.
func (n *NFA) build(rexp *syntax.Node, start, end **State) {
	if *start == nil {
		*start = n.newState()
	}
	if rexp == nil {
		*end = *start
		return
	}
	if *end == nil {
		*end = n.newState()
	}

	switch rexp.Op {
	case syntax.OpCSet:
		e := n.newEdge(EdgeCset, *start, *end)
		e.Cset = rexp.Cset.Copy()

	case syntax.OpStr:
		n.buildString(rexp.Str, *start, *end)

	case syntax.OpOpt:
		n.build(rexp.Left, start, end)
		n.newEdge(EdgeEpsilon, *start, *end)

	case syntax.OpPlus:
		// One mandatory copy followed by a starred copy: xx*.
		var shared *State
		n.build(rexp.Left, start, &shared)
		var starStart, starEnd *State
		n.build(rexp.Left, &starStart, &starEnd)
		n.newEdge(EdgeEpsilon, starStart, starEnd)
		n.newEdge(EdgeEpsilon, shared, starStart)
		n.newEdge(EdgeEpsilon, starEnd, *end)
		n.newEdge(EdgeEpsilon, starEnd, starStart)

	case syntax.OpStar, syntax.OpInterval:
		// Bounded interval counting is enforced outside the
		// automaton; here an interval is its body, starred.
		var starStart, starEnd *State
		n.build(rexp.Left, &starStart, &starEnd)
		n.newEdge(EdgeEpsilon, starStart, starEnd)
		n.newEdge(EdgeEpsilon, *start, starStart)
		n.newEdge(EdgeEpsilon, starEnd, *end)
		n.newEdge(EdgeEpsilon, starEnd, starStart)

	case syntax.OpCut:
		cutEnd := n.newState()
		n.newEdge(EdgeEpsilon, *start, cutEnd)
		cutEnd.IsFinal = rexp.Val

	case syntax.OpParens:
		n.build(rexp.Left, start, end)

	case syntax.OpConcat:
		var shared *State
		n.build(rexp.Left, start, &shared)
		n.build(rexp.Right, &shared, end)

	case syntax.OpAlt:
		var ls, le, rs, re *State
		n.build(rexp.Left, &ls, &le)
		n.build(rexp.Right, &rs, &re)
		n.newEdge(EdgeEpsilon, *start, ls)
		n.newEdge(EdgeEpsilon, *start, rs)
		n.newEdge(EdgeEpsilon, le, *end)
		n.newEdge(EdgeEpsilon, re, *end)

	case syntax.OpContext:
		e := n.newEdge(EdgeSideEffect, *start, *end)
		e.Effect = SideEffect(rexp.Val)
	}
}

// buildString chains single-byte edges between start and end, sharing
// one fresh intermediate state per adjacent byte pair.
func (n *NFA) buildString(str []byte, start, end *State) {
	from := start
	for i, b := range str {
		to := end
		if i < len(str)-1 {
			to = n.newState()
		}
		e := n.newEdge(EdgeCset, from, to)
		e.Cset = bitset.New(syntax.CsetSize)
		e.Cset.Enjoin(int(b))
		from = to
	}
}
