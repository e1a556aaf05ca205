package super

import "github.com/coregx/posixre/nfa"

// Machine drives lazy determinisation of one NFA against a cache.
// Several machines may share a cache; each gets its own id so that
// supersets belonging to different automata never collide.
type Machine struct {
	cache    *Cache
	nfa      *nfa.NFA
	id       int
	startSet *Superset
}

// NewMachine registers an NFA with the cache.
func (c *Cache) NewMachine(n *nfa.NFA) *Machine {
	c.machines++
	return &Machine{cache: c, nfa: n, id: c.machines}
}

// Cache returns the cache the machine builds into.
func (m *Machine) Cache() *Cache { return m.cache }

// NFA returns the automaton being determinised.
func (m *Machine) NFA() *nfa.NFA { return m.nfa }

// superstate returns the superstate for set, constructing one if it is
// not in the cache. Construction may reclaim other superstates to stay
// within the cache budget.
func (m *Machine) superstate(set *Superset) *Superstate {
	c := m.cache

	if set.Superstate != nil {
		c.hits++
		super := set.Superstate
		c.refresh(super)
		return super
	}

	c.misses++
	for c.bytesUsed+superstateBytes > c.bytesAllowed && c.reallyFreeSuperstate() {
	}

	super := &Superstate{Contents: set}
	c.bytesUsed += superstateBytes
	c.superstates++
	c.enqueueLRU(super)

	set.Superstate = super
	c.protect(set)

	// None of the transitions from this superstate are known yet.
	for x := range super.Transitions {
		super.Transitions[x] = InxFrame{Op: OpCacheMiss}
	}
	return super
}

// startSuperset returns the canonical state set the NFA starts in,
// computing and caching it on first use. The NFA start state must
// have exactly one possible future; side effects crossed before the
// first byte would make the start set ambiguous.
func (m *Machine) startSuperset() (*Superset, Answer) {
	if m.startSet != nil {
		return m.startSet, Yes
	}

	futures := m.nfa.PossibleFutures(m.nfa.Start)
	if len(futures) == 0 {
		return nil, Bogus
	}
	if len(futures) > 1 {
		return nil, TooManyFutures
	}

	contents := m.cache.eclosureUnion(m, m.cache.cons(m, nil, nil), futures[0].Destset)
	contents.startsFor = m
	m.startSet = contents
	return contents, Yes
}
