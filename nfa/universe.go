package nfa

import (
	"github.com/coregx/posixre/internal/hashcons"
	"github.com/coregx/posixre/syntax"
)

// DefaultDelay is the number of unreferenced automata a Universe keeps
// around before the oldest is actually destroyed.
const DefaultDelay = 64

// Universe is a cache mapping expression trees to their automata.
// Structurally equal trees share one NFA, so a pattern compiled twice,
// or a subexpression appearing in several patterns, pays for NFA
// construction and closure analysis once.
//
// Entries are reference counted. An entry whose count drops to zero is
// not destroyed immediately; it joins a bounded delay queue and can be
// rescued by a later lookup. A Universe is not safe for concurrent use.
type Universe struct {
	memo  hashcons.Table
	delay int
	queue []*Entry // oldest first
}

// Entry pairs a canonical expression tree with its NFA. Obtained from
// Universe.Get and released with Free.
type Entry struct {
	Tree *syntax.Node
	NFA  *NFA

	// Matcher is a slot for a determiniser bound to this automaton.
	// The universe never touches it except to drop it when the entry
	// is destroyed.
	Matcher any

	refs     int
	item     *hashcons.Item
	universe *Universe
}

var universeRules = &hashcons.Rules{
	Eq: func(a, b any) bool {
		return a.(*Entry).Tree.Equal(b.(*Entry).Tree)
	},
}

// NewUniverse returns an empty universe whose delay queue holds up to
// delay dead entries. A delay of 0 or less selects DefaultDelay.
func NewUniverse(delay int) *Universe {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Universe{delay: delay}
}

// Get returns the cached entry for tree, building its NFA on first
// sight. The entry's reference count is incremented; a dead entry still
// on the delay queue is rescued instead of rebuilt. Call Free on the
// returned entry when done with it.
func (u *Universe) Get(tree *syntax.Node) *Entry {
	probe := &Entry{Tree: tree}
	it := hashcons.Store(&u.memo, tree.Hash(), probe, universeRules)
	e := it.Data.(*Entry)
	if e == probe {
		e.NFA = Build(tree)
		e.item = it
		e.universe = u
	} else if e.refs == 0 {
		u.rescue(e)
	}
	e.refs++
	return e
}

// Free releases one reference. At zero the entry joins the delay queue;
// if the queue is full the oldest dead entry is destroyed. Free on a
// nil entry is a no-op.
func (e *Entry) Free() {
	if e == nil {
		return
	}
	e.refs--
	if e.refs > 0 {
		return
	}
	u := e.universe
	u.queue = append(u.queue, e)
	if len(u.queue) > u.delay {
		dead := u.queue[0]
		copy(u.queue, u.queue[1:])
		u.queue = u.queue[:len(u.queue)-1]
		hashcons.Free(dead.item, universeRules)
		dead.item = nil
		dead.NFA = nil
		dead.Matcher = nil
	}
}

// rescue removes a dead entry from the delay queue.
func (u *Universe) rescue(e *Entry) {
	for i, q := range u.queue {
		if q == e {
			copy(u.queue[i:], u.queue[i+1:])
			u.queue = u.queue[:len(u.queue)-1]
			return
		}
	}
}

// Len reports the number of live automata in the universe, the delay
// queue included.
func (u *Universe) Len() int {
	return hashcons.Len(&u.memo)
}
