// Package super lazily determinises an NFA with side-effect edges into
// a graph of superstates held in a bounded cache.
//
// A superstate corresponds to a set of NFA states. A superstate edge
// corresponds to a family of NFA paths: it is labelled with a byte
// class and one or more distinct futures, where each distinct future
// pairs a side-effect list with a destination superstate. The graph
// has no epsilon transitions; side effects survive determinisation as
// labels that a caller must interpret.
//
// The graph is built on demand, one transition at a time, and erodes
// under memory pressure: superstates are reclaimed in approximate LRU
// order and rebuilt if they are ever needed again. Matching code runs
// a tiny word-code interpreter over instruction frames scattered
// through the graph; the common case of consuming one byte touches a
// single frame field.
package super

import (
	"fmt"

	"github.com/coregx/posixre/internal/bitset"
	"github.com/coregx/posixre/nfa"
)

// Opcode identifies the instruction in an instruction frame.
type Opcode uint8

const (
	// OpBacktrackPoint marks a byte whose transition crosses more than
	// one superstate edge. The matcher must explore each of the edge's
	// distinct futures independently.
	OpBacktrackPoint Opcode = iota

	// OpDoSideEffects evaluates the side effects of a collapsed
	// epsilon path. There is one such frame per distinct future; it is
	// skipped when a future has no effects.
	OpDoSideEffects

	// OpCacheMiss stands where a transition has not been built, or
	// where a destination superstate has been reclaimed. The miss
	// handler computes the real frame and patches it in.
	OpCacheMiss

	// OpNextChar consumes the next byte and moves to the destination
	// superstate. The only opcode that uses a frame's Data field.
	OpNextChar

	// OpBacktrack reports that no match can proceed from here.
	OpBacktrack

	// OpError is stored only in places that must never execute.
	OpError
)

// String returns a human-readable representation of the Opcode.
func (op Opcode) String() string {
	switch op {
	case OpBacktrackPoint:
		return "BacktrackPoint"
	case OpDoSideEffects:
		return "DoSideEffects"
	case OpCacheMiss:
		return "CacheMiss"
	case OpNextChar:
		return "NextChar"
	case OpBacktrack:
		return "Backtrack"
	case OpError:
		return "Error"
	default:
		return fmt.Sprintf("Unknown(%d)", op)
	}
}

// InxFrame is one word-code instruction frame.
//
// A dispatch cycle begins by fetching Data. A non-nil Data must be the
// destination of an OpNextChar transition: make it the current state,
// advance the input, and begin the next cycle without looking at Op at
// all. Only when Data is nil are Op and the argument fields consulted.
type InxFrame struct {
	// Data is the destination superstate of an OpNextChar frame, nil
	// for every other opcode.
	Data *Superstate

	// Tag is the destination's final tag, valid alongside Data.
	Tag int

	Op Opcode

	// Future argues OpCacheMiss and OpDoSideEffects frames. A nil
	// Future on an OpCacheMiss frame means the whole transition slot
	// has never been built.
	Future *DistinctFuture

	// Edge argues OpBacktrackPoint frames.
	Edge *SuperEdge
}

// Superstate is a set of NFA states together with a transition table.
// Superstates are built on demand and reclaimed without warning; a
// positive lock count protects one from reclamation.
type Superstate struct {
	Locks int

	// Queue position in the cache's recyclable ring. The tail is the
	// state most likely to be reclaimed.
	nextRecyclable *Superstate
	prevRecyclable *Superstate

	// Distinct futures elsewhere in the cache that have this state as
	// their destination, on a ring threaded by nextSameDest.
	transitionRefs *DistinctFuture

	// Contents is the NFA state set this superstate stands for.
	Contents *Superset

	// Edges built so far from this state.
	Edges *SuperEdge

	// A reclaimed-in-stage-one state. Incoming transitions are
	// rewritten to fault, and the fault handler revives it.
	isSemifree bool

	Transitions [256]InxFrame
}

// SuperEdge gathers every superstate edge that leaves one state with a
// common byte-class label. More than one distinct future on a single
// edge is a point of nondeterminism.
type SuperEdge struct {
	next *SuperEdge

	// BacktrackFrame is installed in transition slots when the edge
	// has several options.
	BacktrackFrame InxFrame

	Cset bitset.Bitset

	// Options is a circular list of this edge's distinct futures,
	// threaded by nextSameEdge.
	Options *DistinctFuture
}

// DistinctFuture is one superstate edge option: the destination
// reached by crossing a particular side-effect list.
type DistinctFuture struct {
	// Ring of futures sharing a super edge: [0] is next, [1] is prev.
	nextSameEdge [2]*DistinctFuture

	// Ring of futures sharing a destination superstate.
	nextSameDest *DistinctFuture
	prevSameDest *DistinctFuture

	// Present is the source superstate, Future the destination. A nil
	// Future means the destination has not been solved, or has been
	// reclaimed.
	Present *Superstate
	Future  *Superstate

	Edge *SuperEdge

	// FutureFrame completes the transition once any side effects are
	// done: normally OpNextChar, or OpCacheMiss while the destination
	// is unsolved or reclaimed. When this is an edge's only future and
	// there are no effects, the frame is copied straight into the
	// source state's transition table.
	FutureFrame InxFrame

	// SideEffectsFrame is the OpDoSideEffects frame for this future.
	SideEffectsFrame InxFrame

	Effects *nfa.SeList
}

// IsFinal returns the final tag of the superstate's contents.
func (s *Superstate) IsFinal() int {
	return s.Contents.IsFinal
}

// Semifree reports whether the state is in the first stage of
// reclamation.
func (s *Superstate) Semifree() bool {
	return s.isSemifree
}
