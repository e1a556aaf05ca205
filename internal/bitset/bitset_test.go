package bitset

import "testing"

func TestMembership(t *testing.T) {
	b := New(256)
	if !b.Empty() {
		t.Fatal("new set should be empty")
	}

	b.Enjoin('a')
	b.Enjoin('z')
	b.Enjoin(0)
	b.Enjoin(255)

	for _, n := range []int{'a', 'z', 0, 255} {
		if !b.IsMember(n) {
			t.Errorf("IsMember(%d) = false, want true", n)
		}
	}
	if b.IsMember('b') {
		t.Error("IsMember('b') = true, want false")
	}
	if b.Population() != 4 {
		t.Errorf("Population() = %d, want 4", b.Population())
	}

	b.Remove('a')
	if b.IsMember('a') {
		t.Error("member survived Remove")
	}

	b.Toggle('a')
	if !b.IsMember('a') {
		t.Error("Toggle did not add member")
	}
	b.Toggle('a')
	if b.IsMember('a') {
		t.Error("Toggle did not remove member")
	}
}

func TestSetAlgebra(t *testing.T) {
	mk := func(members ...int) Bitset {
		b := New(256)
		for _, m := range members {
			b.Enjoin(m)
		}
		return b
	}

	tests := []struct {
		name string
		op   func(a, b Bitset)
		a, b Bitset
		want Bitset
	}{
		{"union", Bitset.Union, mk(1, 2), mk(2, 3), mk(1, 2, 3)},
		{"intersection", Bitset.Intersection, mk(1, 2), mk(2, 3), mk(2)},
		{"difference", Bitset.Difference, mk(1, 2), mk(2, 3), mk(1)},
		{"xor", Bitset.Xor, mk(1, 2), mk(2, 3), mk(1, 3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.op(tt.a, tt.b)
			if !tt.a.Equal(tt.want) {
				t.Errorf("got population %d, want %d", tt.a.Population(), tt.want.Population())
			}
		})
	}
}

func TestRevDifference(t *testing.T) {
	a := New(256)
	a.Enjoin(1)
	a.Enjoin(2)
	b := New(256)
	b.Enjoin(2)
	b.Enjoin(3)

	// a = ^a & b
	a.RevDifference(b)
	if a.IsMember(1) || a.IsMember(2) || !a.IsMember(3) {
		t.Errorf("RevDifference wrong: members 1=%v 2=%v 3=%v",
			a.IsMember(1), a.IsMember(2), a.IsMember(3))
	}
}

func TestUniverseComplement(t *testing.T) {
	b := New(256)
	b.Universe()
	if b.Population() != 256 {
		t.Fatalf("Universe population = %d, want 256", b.Population())
	}
	b.Complement()
	if !b.Empty() {
		t.Fatal("complement of universe should be empty")
	}
}

func TestSubset(t *testing.T) {
	small := New(256)
	small.Enjoin(10)
	big := New(256)
	big.Enjoin(10)
	big.Enjoin(20)

	if !small.Subset(big) {
		t.Error("small should be subset of big")
	}
	if big.Subset(small) {
		t.Error("big should not be subset of small")
	}
}

func TestHashEqualSets(t *testing.T) {
	a := New(256)
	b := New(256)
	for _, n := range []int{0, 63, 64, 200} {
		a.Enjoin(n)
		b.Enjoin(n)
	}
	if a.Hash() != b.Hash() {
		t.Error("equal sets must hash equally")
	}

	b.Enjoin(5)
	if a.Equal(b) {
		t.Error("sets differ, Equal must be false")
	}
}

func TestCopyIndependence(t *testing.T) {
	a := New(256)
	a.Enjoin(7)
	c := a.Copy()
	c.Enjoin(8)
	if a.IsMember(8) {
		t.Error("Copy is not independent")
	}
	if !c.IsMember(7) {
		t.Error("Copy lost member")
	}
}
