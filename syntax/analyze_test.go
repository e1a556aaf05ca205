package syntax

import "testing"

func analyze(t *testing.T, pattern string, bits Bits) (*Node, *Analysis) {
	t.Helper()
	n, err := Parse([]byte(pattern), bits, nil)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", pattern, err)
	}
	return n, Analyze(n)
}

func TestAnalyzeFixedLengths(t *testing.T) {
	tests := []struct {
		pattern string
		want    int
	}{
		{"abc", 3},
		{"a|b", 1},
		{"ab|cd", 2},
		{"a|bc", -1},
		{"a*", -1},
		{"a?", -1},
		{"(ab)", 2},
		{"a.c", 3},
	}
	for _, tt := range tests {
		n, _ := analyze(t, tt.pattern, PosixExtended)
		if n.Len != tt.want {
			t.Errorf("Len(%q) = %d, want %d", tt.pattern, n.Len, tt.want)
		}
	}
}

func TestAnalyzeObserved(t *testing.T) {
	tests := []struct {
		pattern string
		want    bool
	}{
		{"abc", false},
		{"a|b*", false},
		{"(a)", true},     // capture
		{"^a", true},      // anchor
		{"a{2,3}", true},  // bounded interval
		{"[[:(:]]a[[:):]]", false}, // syntactic group
	}
	for _, tt := range tests {
		n, _ := analyze(t, tt.pattern, PosixExtended)
		if n.Observed != tt.want {
			t.Errorf("Observed(%q) = %v, want %v", tt.pattern, n.Observed, tt.want)
		}
	}
}

func TestAnalyzeIDsAreDenseAndPostOrder(t *testing.T) {
	n, a := analyze(t, "(a)(b)", PosixExtended)
	if a.ObservedNodes == 0 {
		t.Fatal("expected observed nodes")
	}
	// Root concat is observed (both children are); its id must be the
	// largest handed out.
	if n.ID != a.ObservedNodes-1 {
		t.Errorf("root ID = %d, want %d", n.ID, a.ObservedNodes-1)
	}
	if n.Left.ID < 0 || n.Right.ID < 0 {
		t.Error("capturing parens must carry ids")
	}
	if !(n.Left.ID < n.Right.ID) {
		t.Error("ids must increase left to right")
	}
}

func TestAnalyzeSubexps(t *testing.T) {
	_, a := analyze(t, "(a(b))(c)", PosixExtended)
	if len(a.Subexps) != 3 {
		t.Fatalf("Subexps = %d, want 3", len(a.Subexps))
	}
	for i, n := range a.Subexps {
		if n == nil || n.Op != OpParens {
			t.Fatalf("Subexps[%d] missing or not parens", i)
		}
		if n.Val != i+1 {
			t.Errorf("Subexps[%d].Val = %d, want %d", i, n.Val, i+1)
		}
	}
}

func TestAnalyzeFastmap(t *testing.T) {
	_, a := analyze(t, "abc", PosixExtended)
	if !a.Fastmap['a'] {
		t.Error("fastmap must contain the first literal byte")
	}
	if a.Fastmap['b'] || a.Fastmap['x'] {
		t.Error("fastmap contains bytes that cannot start a match")
	}
	if a.Nullable {
		t.Error("abc is not nullable")
	}

	_, alt := analyze(t, "ab|cd", PosixExtended)
	if !alt.Fastmap['a'] || !alt.Fastmap['c'] {
		t.Error("alternation fastmap must union both branches")
	}

	_, star := analyze(t, "a*", PosixExtended)
	if !star.Nullable {
		t.Error("a* is nullable")
	}
	if !star.Fastmap['z'] {
		t.Error("a nullable pattern saturates the fastmap")
	}
}

func TestAnalyzeAnchored(t *testing.T) {
	tests := []struct {
		pattern string
		want    bool
	}{
		{"^abc", true},
		{"abc", false},
		{"^a|^b", true},
		{"^a|b", false},
		{"(^a)b", true},
		{"a^b", false}, // ^ is an anchor but not a prefix anchor
	}
	for _, tt := range tests {
		_, a := analyze(t, tt.pattern, PosixExtended)
		if a.Anchored != tt.want {
			t.Errorf("Anchored(%q) = %v, want %v", tt.pattern, a.Anchored, tt.want)
		}
	}
}
