package nfa

import "github.com/coregx/posixre/internal/hashcons"

// StateSet is a hash-consed set of NFA states, held as a cons list in
// ascending id order so that sets share tails. Equal sets built through
// the same NFA are the same pointer.
type StateSet struct {
	Car *State
	Cdr *StateSet

	serial uint32
}

var stateSetRules = &hashcons.Rules{
	Eq: func(a, b any) bool {
		x := a.(*StateSet)
		y := b.(*StateSet)
		return x.Car == y.Car && x.Cdr == y.Cdr
	},
}

// cons interns the cell (state, set). set must itself be interned.
func (n *NFA) cons(state *State, set *StateSet) *StateSet {
	h := uint32(state.ID) * 0x9e3779b9
	if set != nil {
		h ^= set.serial * 0x85ebca6b
	}
	probe := &StateSet{Car: state, Cdr: set}
	it := hashcons.Store(&n.setMemo, h, probe, stateSetRules)
	s := it.Data.(*StateSet)
	if s == probe {
		n.setSerial++
		s.serial = n.setSerial
	}
	return s
}

// Enjoin returns the set extended with state, preserving id order and
// sharing as much of set's tail as possible.
func (n *NFA) Enjoin(state *State, set *StateSet) *StateSet {
	if set == nil || state.ID < set.Car.ID {
		return n.cons(state, set)
	}
	if state.ID == set.Car.ID {
		return set
	}
	newcdr := n.Enjoin(state, set.Cdr)
	if newcdr != set.Cdr {
		set = n.cons(set.Car, newcdr)
	}
	return set
}

// Members returns the states of the set in id order.
func (s *StateSet) Members() []*State {
	var out []*State
	for ; s != nil; s = s.Cdr {
		out = append(out, s.Car)
	}
	return out
}
