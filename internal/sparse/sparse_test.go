package sparse

import "testing"

func TestInsertContains(t *testing.T) {
	s := New(64)
	if s.Len() != 0 {
		t.Fatalf("new set Len = %d, want 0", s.Len())
	}

	s.Insert(3)
	s.Insert(60)
	s.Insert(3) // duplicate

	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
	if !s.Contains(3) || !s.Contains(60) {
		t.Error("inserted ids missing")
	}
	if s.Contains(4) {
		t.Error("Contains(4) = true for absent id")
	}
	if s.Contains(1000) {
		t.Error("Contains out of range must be false")
	}
}

func TestRemoveSwaps(t *testing.T) {
	s := New(16)
	for _, id := range []uint32{1, 5, 9, 13} {
		s.Insert(id)
	}

	s.Remove(5)
	if s.Contains(5) {
		t.Error("removed id still present")
	}
	for _, id := range []uint32{1, 9, 13} {
		if !s.Contains(id) {
			t.Errorf("id %d lost by Remove", id)
		}
	}
	if s.Len() != 3 {
		t.Errorf("Len = %d, want 3", s.Len())
	}

	s.Remove(5) // no-op
	if s.Len() != 3 {
		t.Error("removing absent id changed Len")
	}
}

func TestClearReuse(t *testing.T) {
	s := New(8)
	s.Insert(0)
	s.Insert(7)
	s.Clear()
	if s.Len() != 0 {
		t.Fatal("Clear left members")
	}
	if s.Contains(0) || s.Contains(7) {
		t.Error("Contains true after Clear")
	}
	s.Insert(7)
	if !s.Contains(7) || s.Len() != 1 {
		t.Error("set unusable after Clear")
	}
}

func TestPathMarkDiscipline(t *testing.T) {
	// Mimics the closure walk: mark on entry, unmark on exit.
	s := New(32)
	var walk func(depth uint32)
	walk = func(depth uint32) {
		if depth == 10 {
			return
		}
		if s.Contains(depth) {
			t.Fatalf("state %d marked twice", depth)
		}
		s.Insert(depth)
		walk(depth + 1)
		s.Remove(depth)
	}
	walk(0)
	if s.Len() != 0 {
		t.Errorf("marks leaked: Len = %d", s.Len())
	}
}
