package super

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coregx/posixre/nfa"
	"github.com/coregx/posixre/syntax"
)

func newTestMachine(t *testing.T, pattern string, cacheBytes int) (*Machine, *Cache) {
	t.Helper()
	tree, err := syntax.Parse([]byte(pattern), syntax.PosixExtended, nil)
	require.NoError(t, err)
	c := NewCache(cacheBytes)
	return c.NewMachine(nfa.Build(tree)), c
}

func TestSystemFitLiteral(t *testing.T) {
	tests := []struct {
		input string
		want  Answer
	}{
		{"abc", Yes},
		{"abx", No},
		{"ab", No},
		{"abcd", No},
		{"", No},
	}

	m, _ := newTestMachine(t, "abc", 0)
	sys := m.NewSystem()
	defer sys.Terminate()

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			require.Equal(t, Yes, sys.Start())
			got := sys.Fit([]byte(tt.input))
			require.Equal(t, tt.want, got)
			if got == Yes {
				require.Equal(t, 1, sys.FinalTag)
			}
		})
	}
}

func TestSystemFitClasses(t *testing.T) {
	m, _ := newTestMachine(t, "[0-9]+", 0)
	sys := m.NewSystem()
	defer sys.Terminate()

	require.Equal(t, Yes, sys.Start())
	require.Equal(t, Yes, sys.Fit([]byte("0419")))

	require.Equal(t, Yes, sys.Start())
	require.Equal(t, No, sys.Fit([]byte("04x9")))
}

func TestSystemAdvance(t *testing.T) {
	m, _ := newTestMachine(t, "ab*c", 0)
	sys := m.NewSystem()
	defer sys.Terminate()

	require.Equal(t, Yes, sys.Start())
	require.Equal(t, Yes, sys.Advance([]byte("abbb")))
	require.Equal(t, Yes, sys.Fit([]byte("c")))

	require.Equal(t, Yes, sys.Start())
	require.Equal(t, No, sys.Advance([]byte("ax")))
}

func TestSystemAdvanceToFinal(t *testing.T) {
	m, _ := newTestMachine(t, "ab*c", 0)
	sys := m.NewSystem()
	defer sys.Terminate()

	require.Equal(t, Yes, sys.Start())
	consumed := sys.AdvanceToFinal([]byte("abbbcxx"))
	require.Equal(t, 5, consumed)
	require.Equal(t, 1, sys.FinalTag)

	// A dead byte leaves the system at the position before it.
	require.Equal(t, Yes, sys.Start())
	consumed = sys.AdvanceToFinal([]byte("abx"))
	require.Equal(t, 2, consumed)
	require.Equal(t, 0, sys.FinalTag)
}

func TestSystemAdvanceToFinalDeadOrEmpty(t *testing.T) {
	m, _ := newTestMachine(t, "ab*c", 0)
	sys := m.NewSystem()

	// An empty burst on a live system consumes nothing but still
	// reports the tag of the current state.
	require.Equal(t, Yes, sys.Start())
	require.Equal(t, 0, sys.AdvanceToFinal(nil))
	require.Equal(t, 0, sys.FinalTag)

	// A terminated system is not a zero-length advance.
	sys.Terminate()
	require.Equal(t, -1, sys.AdvanceToFinal([]byte("abc")))
}

func TestStartStateWithTooManyFutures(t *testing.T) {
	m, _ := newTestMachine(t, "^a|b", 0)
	sys := m.NewSystem()
	require.Equal(t, TooManyFutures, sys.Start())
}

func TestSystemRefusesSideEffects(t *testing.T) {
	// The transition after 'a' crosses an anchor side effect, which a
	// deterministic system cannot interpret.
	m, _ := newTestMachine(t, "a^b", 0)
	sys := m.NewSystem()
	defer sys.Terminate()

	require.Equal(t, Yes, sys.Start())
	require.Equal(t, Bogus, sys.Fit([]byte("ab")))
}

func TestSystemRefusesNondeterminism(t *testing.T) {
	// After 'x' the graph has one edge with two distinct futures, so
	// the transition is a backtrack point.
	m, _ := newTestMachine(t, "x(a|^a)", 0)
	sys := m.NewSystem()
	defer sys.Terminate()

	require.Equal(t, Yes, sys.Start())
	require.Equal(t, Bogus, sys.Fit([]byte("xa")))
}

func TestSuperstateUniqueness(t *testing.T) {
	m, _ := newTestMachine(t, "a*", 0)
	sys := m.NewSystem()
	defer sys.Terminate()

	require.Equal(t, Yes, sys.Start())
	require.Equal(t, Yes, sys.Advance([]byte("a")))
	looped := sys.State
	require.NotNil(t, looped)

	require.Equal(t, Yes, sys.Advance([]byte("a")))
	require.Same(t, looped, sys.State)
}

func TestCacheHitsAndMisses(t *testing.T) {
	m, c := newTestMachine(t, "abc", 0)
	sys := m.NewSystem()
	defer sys.Terminate()

	require.Equal(t, Yes, sys.Start())
	require.Equal(t, Yes, sys.Fit([]byte("abc")))
	misses := c.Misses()
	require.Greater(t, misses, 0)

	require.Equal(t, Yes, sys.Start())
	require.Equal(t, Yes, sys.Fit([]byte("abc")))
	require.Equal(t, misses, c.Misses())
	require.Greater(t, c.Hits(), 0)
}

func TestSemifreeStatesAreRescued(t *testing.T) {
	m, c := newTestMachine(t, "abc", 0)
	sys := m.NewSystem()
	defer sys.Terminate()

	require.Equal(t, Yes, sys.Start())
	require.Equal(t, Yes, sys.Fit([]byte("abc")))

	before := c.Superstates()
	c.semifree()
	c.semifree()
	require.Greater(t, c.SemifreeSuperstates(), 0)

	// Rematching walks back through the semifree states and rescues
	// them instead of rebuilding.
	require.Equal(t, Yes, sys.Start())
	require.Equal(t, Yes, sys.Fit([]byte("abc")))
	require.Equal(t, 0, c.SemifreeSuperstates())
	require.Equal(t, before, c.Superstates())
}

func TestCacheEvictionUnderPressure(t *testing.T) {
	// A budget of roughly three superstates for a chain that needs
	// eleven forces reclamation mid-match.
	m, c := newTestMachine(t, "abcdefghij", 3*superstateBytes)
	sys := m.NewSystem()
	defer sys.Terminate()

	require.Equal(t, Yes, sys.Start())
	require.Equal(t, Yes, sys.Fit([]byte("abcdefghij")))
	require.LessOrEqual(t, c.Superstates(), 5)

	// Erosion must not affect answers.
	require.Equal(t, Yes, sys.Start())
	require.Equal(t, No, sys.Fit([]byte("abcdefghix")))
	require.Equal(t, Yes, sys.Start())
	require.Equal(t, Yes, sys.Fit([]byte("abcdefghij")))
}

func TestStartSupersetInvalidatedByEviction(t *testing.T) {
	m, c := newTestMachine(t, "abcde", 2*superstateBytes)
	sys := m.NewSystem()
	defer sys.Terminate()

	require.Equal(t, Yes, sys.Start())
	require.Equal(t, Yes, sys.Fit([]byte("abcde")))

	// Whether or not the cached start set survived the pressure,
	// restarting must produce a working system.
	require.Equal(t, Yes, sys.Start())
	require.Equal(t, Yes, sys.Fit([]byte("abcde")))
	require.Greater(t, c.Misses(), 0)
}
