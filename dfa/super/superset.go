package super

import (
	"github.com/coregx/posixre/internal/hashcons"
	"github.com/coregx/posixre/nfa"
)

// Superset is a canonical set of NFA states, represented as a cons
// list ordered by ascending state id. The constructors guarantee that
// only one structure exists for a given set within a cache, so sets
// compare by pointer. The same set is created again and again during
// lazy determinisation; sharing makes the recurrences cheap and gives
// each set a stable place to hang its superstate.
type Superset struct {
	refs int

	// id of the machine the car state belongs to. A cache outlives the
	// machines that feed it, so an apparent hit must be validated
	// against the current machine's id.
	id int

	Car *nfa.State
	Cdr *Superset

	// Superstate currently materialised for this set, if any.
	Superstate *Superstate

	// IsFinal is the member final tag with the greatest magnitude.
	IsFinal int

	// HasCsetEdges is the OR over members.
	HasCsetEdges bool

	// startsFor records the machine caching this set as its start
	// set, so eviction can invalidate that cache.
	startsFor *Machine

	item   *hashcons.Item
	serial uint32
}

func (c *Cache) protect(set *Superset) {
	if set != nil {
		set.refs++
	}
}

func (c *Cache) release(set *Superset) {
	if set == nil || set == c.emptySuperset {
		return
	}
	set.refs--
	if set.refs > 0 {
		return
	}
	if set.startsFor != nil {
		set.startsFor.startSet = nil
		set.startsFor = nil
	}
	if set.Cdr != nil {
		c.release(set.Cdr)
	}
	hashcons.Free(set.item, c.supersetRules())
	c.bytesUsed -= supersetBytes
}

func (c *Cache) supersetRules() *hashcons.Rules {
	return &c.supersetHashRules
}

func supersetEq(a, b any) bool {
	x := a.(*Superset)
	y := b.(*Superset)
	return x.id == y.id && x.Car == y.Car && x.Cdr == y.Cdr
}

// cons interns the set (car . cdr) for machine m. The empty set is a
// cache-wide sentinel distinct from nil. The new set's refcount is not
// incremented for the caller.
func (c *Cache) cons(m *Machine, car *nfa.State, cdr *Superset) *Superset {
	if car == nil && cdr == nil {
		if c.emptySuperset == nil {
			c.emptySuperset = &Superset{refs: 1}
			c.bytesUsed += supersetBytes
		}
		return c.emptySuperset
	}

	h := uint32(car.ID) * 0x9e3779b9
	h ^= uint32(m.id) * 0x61c88647
	if cdr != nil {
		h ^= cdr.serial * 0x85ebca6b
	}

	probe := &Superset{id: m.id, Car: car, Cdr: cdr}
	it := hashcons.Store(&c.supersetTable, h, probe, c.supersetRules())
	set := it.Data.(*Superset)
	if set == probe {
		var cdrFinal int
		var cdrEdges bool
		if cdr != nil {
			cdrFinal = cdr.IsFinal
			cdrEdges = cdr.HasCsetEdges
		}
		if abs(car.IsFinal) > abs(cdrFinal) {
			set.IsFinal = car.IsFinal
		} else {
			set.IsFinal = cdrFinal
		}
		set.HasCsetEdges = car.HasCsetEdges() || cdrEdges

		c.protect(cdr)
		set.item = it
		c.supersetSerial++
		set.serial = c.supersetSerial
		c.bytesUsed += supersetBytes
	}
	return set
}

// eclosureUnion unions an NFA closure destination set into a superset.
// Both inputs are ordered by state id; the result shares structure
// with set wherever possible.
func (c *Cache) eclosureUnion(m *Machine, set *Superset, ecl *nfa.StateSet) *Superset {
	if ecl == nil {
		return set
	}
	if set.Car == nil {
		return c.cons(m, ecl.Car, c.eclosureUnion(m, set, ecl.Cdr))
	}
	if set.Car == ecl.Car {
		return c.eclosureUnion(m, set, ecl.Cdr)
	}

	var tail *Superset
	var first *nfa.State
	if set.Car.ID < ecl.Car.ID {
		tail = c.eclosureUnion(m, set.Cdr, ecl)
		first = set.Car
	} else {
		tail = c.eclosureUnion(m, set, ecl.Cdr)
		first = ecl.Car
	}
	return c.cons(m, first, tail)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
