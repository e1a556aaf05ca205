package super

// Answer is the verdict of a deterministic matching step.
type Answer int

const (
	No Answer = iota
	Yes

	// Bogus reports that the system was driven into an instruction
	// it cannot interpret, or used before Start.
	Bogus

	// TooManyFutures reports an automaton whose start state is
	// reachable across more than one side-effect list. Such a
	// machine has no single well-defined start superstate.
	TooManyFutures
)

// String returns a human-readable representation of the Answer.
func (a Answer) String() string {
	switch a {
	case No:
		return "No"
	case Yes:
		return "Yes"
	case Bogus:
		return "Bogus"
	case TooManyFutures:
		return "TooManyFutures"
	default:
		return "Unknown"
	}
}

// System runs a machine's superstate graph deterministically: it
// consumes bytes and follows OpNextChar frames, faulting in missing
// pieces of the graph as it goes. It cannot interpret side effects or
// backtrack points, so it is only run over automata without observed
// subexpressions. The current superstate is kept locked between calls
// so the cache cannot reclaim it.
type System struct {
	m *Machine

	// State is the current superstate, nil before Start and after a
	// failed step.
	State *Superstate

	// FinalTag is the tag of the last final superstate seen.
	FinalTag int
}

// NewSystem returns a system positioned nowhere. Call Start before
// matching.
func (m *Machine) NewSystem() *System {
	return &System{m: m}
}

// Start positions the system on the machine's start superstate,
// releasing whatever state it held before.
func (s *System) Start() Answer {
	contents, ans := s.m.startSuperset()
	if ans != Yes {
		return ans
	}

	var state *Superstate
	if contents.Superstate != nil {
		state = contents.Superstate
		// The cached superstate may be semifree. A locked
		// superstate is never semifree, so refresh first.
		s.m.cache.refresh(state)
	} else {
		s.m.cache.protect(contents)
		state = s.m.superstate(contents)
		s.m.cache.release(contents)
	}

	if s.State != nil {
		s.State.Locks--
	}
	s.State = state
	state.Locks++
	return Yes
}

// Fit reports whether consuming exactly burst leads to a final
// superstate. On Yes, FinalTag holds the destination's tag.
func (s *System) Fit(burst []byte) Answer {
	if s.State == nil {
		return Bogus
	}
	if len(burst) == 0 {
		s.FinalTag = s.State.Contents.IsFinal
		if s.FinalTag != 0 {
			return Yes
		}
		return No
	}

	cur := s.State
	cur.Locks--

	tag := 0
	for _, b := range burst {
		inx := &cur.Transitions[b]
		for inx.Data == nil {
			switch inx.Op {
			case OpBacktrack:
				// The empty superstate: no match can succeed from
				// this point.
				s.State = nil
				return No
			case OpCacheMiss:
				// The superstate NFA is lazily constructed and may
				// erode from underneath us; run one step of the
				// conversion.
				inx = s.m.HandleCacheMiss(cur, b, inx.Future)
			default:
				s.State = nil
				return Bogus
			}
		}
		tag = inx.Tag
		cur = inx.Data
	}

	s.State = cur
	cur.Locks++
	if tag != 0 {
		s.FinalTag = tag
		return Yes
	}
	return No
}

// Advance consumes burst, reporting No as soon as a byte has no
// outgoing transition. Finality of the state reached is not examined.
func (s *System) Advance(burst []byte) Answer {
	if s.State == nil {
		return Bogus
	}
	if len(burst) == 0 {
		return Yes
	}

	cur := s.State
	cur.Locks--

	for _, b := range burst {
		inx := &cur.Transitions[b]
		for inx.Data == nil {
			switch inx.Op {
			case OpBacktrack:
				s.State = nil
				return No
			case OpCacheMiss:
				inx = s.m.HandleCacheMiss(cur, b, inx.Future)
			default:
				s.State = nil
				return Bogus
			}
		}
		cur = inx.Data
	}

	s.State = cur
	cur.Locks++
	return Yes
}

// AdvanceToFinal consumes bytes from burst until it enters a final
// superstate, runs out of transitions, or exhausts the input. It
// returns the number of bytes consumed, or -1 if the system broke or
// was never started. FinalTag is set from the state the system stops
// in.
func (s *System) AdvanceToFinal(burst []byte) int {
	if s.State == nil {
		return -1
	}
	if len(burst) == 0 {
		s.FinalTag = s.State.Contents.IsFinal
		return 0
	}

	thisState := s.State
	for i, b := range burst {
		// thisState is the locked state for the position being left.
		inx := &thisState.Transitions[b]
		for inx.Data == nil {
			switch inx.Op {
			case OpBacktrack:
				// Stay at the position prior to the failure.
				s.State = thisState
				s.FinalTag = thisState.Contents.IsFinal
				return i
			case OpCacheMiss:
				inx = s.m.HandleCacheMiss(thisState, b, inx.Future)
			default:
				thisState.Locks--
				s.State = nil
				return -1
			}
		}

		thisState.Locks--
		thisState = inx.Data
		thisState.Locks++

		if thisState.Contents.IsFinal != 0 {
			s.FinalTag = thisState.Contents.IsFinal
			s.State = thisState
			return i + 1
		}
	}

	s.State = thisState
	s.FinalTag = thisState.Contents.IsFinal
	return len(burst)
}

// Terminate releases the system's hold on the cache.
func (s *System) Terminate() {
	if s.State != nil {
		s.State.Locks--
		s.State = nil
	}
}
