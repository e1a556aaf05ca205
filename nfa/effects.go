package nfa

import "github.com/coregx/posixre/internal/hashcons"

// SeList is a list of side effects collected along an uninterrupted,
// acyclic path of epsilon and side-effect edges. Such paths collapse to
// single labels in the course of computing closures. Lists produced by
// an NFA's hashConsSeProg are shared: structurally equal lists are the
// same pointer, so consumers compare and merge them by identity.
type SeList struct {
	Car SideEffect
	Cdr *SeList

	// serial is a creation-ordered tag used for hashing, assigned once
	// when the cell is interned.
	serial uint32
}

// Cmp totally orders effect lists. Lists with larger leading effects
// sort first; ties recurse on the tail. Interned lists short-circuit on
// pointer equality.
func (a *SeList) Cmp(b *SeList) int {
	switch {
	case a == b:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case a.Car < b.Car:
		return 1
	case a.Car > b.Car:
		return -1
	default:
		return a.Cdr.Cmp(b.Cdr)
	}
}

var seListRules = &hashcons.Rules{
	Eq: func(a, b any) bool {
		x := a.(*SeList)
		y := b.(*SeList)
		return x.Car == y.Car && x.Cdr == y.Cdr
	},
}

// hashConsSe interns the cell (car, cdr). cdr must itself be interned.
func (n *NFA) hashConsSe(car SideEffect, cdr *SeList) *SeList {
	h := uint32(car) * 0x9e3779b9
	if cdr != nil {
		h ^= cdr.serial * 0x85ebca6b
	}
	probe := &SeList{Car: car, Cdr: cdr}
	it := hashcons.Store(&n.seListMemo, h, probe, seListRules)
	l := it.Data.(*SeList)
	if l == probe {
		n.seSerial++
		l.serial = n.seSerial
	}
	return l
}

// hashConsSeProg interns a backwards-built path program, reversing it
// into forward order in the process. prog itself need not be interned.
func (n *NFA) hashConsSeProg(prog *SeList) *SeList {
	var answer *SeList
	for ; prog != nil; prog = prog.Cdr {
		answer = n.hashConsSe(prog.Car, answer)
	}
	return answer
}

// Effects returns the list contents in order, for diagnostics and
// context evaluation.
func (a *SeList) Effects() []SideEffect {
	var out []SideEffect
	for ; a != nil; a = a.Cdr {
		out = append(out, a.Car)
	}
	return out
}
