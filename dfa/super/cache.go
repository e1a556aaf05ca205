package super

import "github.com/coregx/posixre/internal/hashcons"

// DefaultCacheSize is the normal upper bound, in accounted bytes, on
// storage for superstates. When an allocation would cross the bound
// the cache reclaims old superstates first.
const DefaultCacheSize = 1 << 19

// Accounting weights for the cache budget. These approximate the
// storage behind each structure; the budget bounds graph growth rather
// than exact heap use.
const (
	inxFrameBytes       = 40
	superstateBytes     = 96 + 256*inxFrameBytes
	superEdgeBytes      = 120 + 32
	distinctFutureBytes = 136
	supersetBytes       = 88
)

// Cache holds every superstate built over a set of machines, bounded
// by a byte budget. Reclamation is two-stage: a state is first made
// semifree, which rewrites incoming transitions to fault so the state
// can prove itself useful and be rescued; only semifree states are
// really freed. A Cache is not safe for concurrent use.
type Cache struct {
	supersetHashRules hashcons.Rules

	lruSuperstate      *Superstate
	semifreeSuperstate *Superstate

	emptySuperset *Superset

	superstates         int
	semifreeSuperstates int
	hits                int
	misses              int

	bytesAllowed int
	bytesUsed    int

	supersetTable  hashcons.Table
	supersetSerial uint32

	machines int
}

// NewCache returns a cache bounded by bytesAllowed. A bound of 0 or
// less selects DefaultCacheSize.
func NewCache(bytesAllowed int) *Cache {
	if bytesAllowed <= 0 {
		bytesAllowed = DefaultCacheSize
	}
	c := &Cache{bytesAllowed: bytesAllowed}
	c.supersetHashRules.Eq = supersetEq
	return c
}

// DefaultCache backs machines that are not given their own cache.
var DefaultCache = NewCache(DefaultCacheSize)

// Superstates reports the number of superstates in the cache,
// semifree ones included.
func (c *Cache) Superstates() int { return c.superstates }

// SemifreeSuperstates reports the number of superstates in the first
// stage of reclamation.
func (c *Cache) SemifreeSuperstates() int { return c.semifreeSuperstates }

// BytesUsed reports the accounted storage behind the cache.
func (c *Cache) BytesUsed() int { return c.bytesUsed }

// Hits and Misses report superstate lookup statistics.
func (c *Cache) Hits() int   { return c.hits }
func (c *Cache) Misses() int { return c.misses }

// enqueueLRU puts a state at the most-favored end of the recyclable
// ring.
func (c *Cache) enqueueLRU(super *Superstate) {
	if c.lruSuperstate == nil {
		c.lruSuperstate = super
		super.nextRecyclable = super
		super.prevRecyclable = super
	} else {
		super.nextRecyclable = c.lruSuperstate
		super.prevRecyclable = c.lruSuperstate.prevRecyclable
		super.nextRecyclable.prevRecyclable = super
		super.prevRecyclable.nextRecyclable = super
	}
}

// unlinkRecyclable removes a state from whichever ring it is on,
// updating the ring head h if the state was the head.
func unlinkRecyclable(h **Superstate, super *Superstate) {
	if *h == super {
		if super.nextRecyclable == super {
			*h = nil
		} else {
			*h = super.nextRecyclable
		}
	}
	super.nextRecyclable.prevRecyclable = super.prevRecyclable
	super.prevRecyclable.nextRecyclable = super.nextRecyclable
}

// semifree moves the least recently used unlocked state onto
// the semifree ring and rewrites its incoming transitions to fault.
func (c *Cache) semifree() {
	disqualified := c.semifreeSuperstates
	if disqualified == c.superstates {
		return
	}
	for c.lruSuperstate.Locks != 0 {
		c.lruSuperstate = c.lruSuperstate.nextRecyclable
		disqualified++
		if disqualified == c.superstates {
			return
		}
	}

	it := c.lruSuperstate
	unlinkRecyclable(&c.lruSuperstate, it)
	if c.semifreeSuperstate == nil {
		c.semifreeSuperstate = it
		it.nextRecyclable = it
		it.prevRecyclable = it
	} else {
		it.prevRecyclable = c.semifreeSuperstate.prevRecyclable
		it.nextRecyclable = c.semifreeSuperstate
		it.prevRecyclable.nextRecyclable = it
		it.nextRecyclable.prevRecyclable = it
	}

	it.isSemifree = true
	c.semifreeSuperstates++
	it.eachTransitionRef(func(df *DistinctFuture) {
		df.FutureFrame = InxFrame{Op: OpCacheMiss, Future: df}
		// Any OpNextChar frames referring to this state become
		// OpCacheMiss frames.
		if df.Effects == nil && df.Edge.Options.nextSameEdge[0] == df.Edge.Options {
			installTransition(df.Present, &df.FutureFrame, df.Edge.Cset)
		}
	})
}

// refreshSemifree rescues a semifree state: incoming transitions are
// restored and the state moves to the most-favored queue position.
func (c *Cache) refreshSemifree(super *Superstate) {
	super.eachTransitionRef(func(df *DistinctFuture) {
		df.FutureFrame = InxFrame{Op: OpNextChar, Data: super, Tag: super.Contents.IsFinal}
		if df.Effects == nil && df.Edge.Options.nextSameEdge[0] == df.Edge.Options {
			installTransition(df.Present, &df.FutureFrame, df.Edge.Cset)
		}
	})
	unlinkRecyclable(&c.semifreeSuperstate, super)
	c.enqueueLRU(super)
	super.isSemifree = false
	c.semifreeSuperstates--
}

// refresh marks a state recently used. Semifree states are rescued;
// live states move off the reclamation end of the queue.
func (c *Cache) refresh(super *Superstate) {
	if super.isSemifree {
		c.refreshSemifree(super)
	} else if c.lruSuperstate == super {
		c.lruSuperstate = super.nextRecyclable
	} else if super != c.lruSuperstate.prevRecyclable {
		super.nextRecyclable.prevRecyclable = super.prevRecyclable
		super.prevRecyclable.nextRecyclable = super.nextRecyclable
		super.nextRecyclable = c.lruSuperstate
		super.prevRecyclable = c.lruSuperstate.prevRecyclable
		super.nextRecyclable.prevRecyclable = super
		super.prevRecyclable.nextRecyclable = super
	}
}

// reallyFreeSuperstate reclaims one superstate's storage, semifreeing
// ahead of itself so popular states get a chance to be rescued.
// Returns false when nothing could be reclaimed.
func (c *Cache) reallyFreeSuperstate() bool {
	if c.superstates == 0 {
		return false
	}

	for c.hits+c.misses > c.superstates {
		c.hits >>= 1
		c.misses >>= 1
	}

	c.semifree()
	c.semifree()
	c.semifree()

	if c.semifreeSuperstate == nil {
		return false
	}

	it := c.semifreeSuperstate
	unlinkRecyclable(&c.semifreeSuperstate, it)
	c.semifreeSuperstates--

	// Cut every edge into this state loose; each referring future
	// faults and re-solves its destination on next use.
	it.eachTransitionRef(func(df *DistinctFuture) {
		df.FutureFrame = InxFrame{Op: OpCacheMiss, Future: df}
		df.Future = nil
	})

	// Free the outgoing edges and their futures.
	for tc := it.Edges; tc != nil; {
		next := tc.next
		df := tc.Options
		df.nextSameEdge[1].nextSameEdge[0] = nil
		for df != nil {
			dft := df
			df = df.nextSameEdge[0]

			if dft.Future != nil && dft.Future.transitionRefs == dft {
				dft.Future.transitionRefs = dft.nextSameDest
				if dft.Future.transitionRefs == dft {
					dft.Future.transitionRefs = nil
				}
			}
			dft.nextSameDest.prevSameDest = dft.prevSameDest
			dft.prevSameDest.nextSameDest = dft.nextSameDest
			c.bytesUsed -= distinctFutureBytes
		}
		c.bytesUsed -= superEdgeBytes
		tc = next
	}

	if it.Contents.Superstate == it {
		it.Contents.Superstate = nil
	}
	c.release(it.Contents)
	c.bytesUsed -= superstateBytes
	c.superstates--
	return true
}

// eachTransitionRef walks the ring of futures whose destination is
// this superstate. The callback may rewrite the future's frames but
// must not unlink it from the ring.
func (s *Superstate) eachTransitionRef(fn func(*DistinctFuture)) {
	df := s.transitionRefs
	if df == nil {
		return
	}
	stop := df
	for {
		next := df.nextSameDest
		fn(df)
		if next == stop {
			return
		}
		df = next
	}
}
