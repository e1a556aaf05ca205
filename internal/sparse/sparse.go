// Package sparse provides a sparse set over small integer ids.
//
// Insertion, removal, and membership are O(1); clearing is O(1) and does
// not touch the backing arrays. The closure analysis uses one of these to
// mark states on the current path, and the superstate construction uses
// one to deduplicate destination sets.
package sparse

// Set is a set of uint32 ids drawn from a fixed universe [0, capacity).
// The zero value is not usable; call New.
type Set struct {
	sparse []uint32
	dense  []uint32
}

// New returns an empty set over ids in [0, capacity).
func New(capacity uint32) *Set {
	return &Set{
		sparse: make([]uint32, capacity),
		dense:  make([]uint32, 0, capacity),
	}
}

// Insert adds id to the set. Inserting a present id is a no-op.
func (s *Set) Insert(id uint32) {
	if s.Contains(id) {
		return
	}
	s.sparse[id] = uint32(len(s.dense))
	s.dense = append(s.dense, id)
}

// Contains reports whether id is in the set.
func (s *Set) Contains(id uint32) bool {
	if id >= uint32(len(s.sparse)) {
		return false
	}
	idx := s.sparse[id]
	return idx < uint32(len(s.dense)) && s.dense[idx] == id
}

// Remove removes id from the set by swapping the last dense entry into
// its slot. Removing an absent id is a no-op.
func (s *Set) Remove(id uint32) {
	if !s.Contains(id) {
		return
	}
	idx := s.sparse[id]
	last := s.dense[len(s.dense)-1]
	s.dense[idx] = last
	s.sparse[last] = idx
	s.dense = s.dense[:len(s.dense)-1]
}

// Clear empties the set without releasing storage.
func (s *Set) Clear() {
	s.dense = s.dense[:0]
}

// Len returns the number of members.
func (s *Set) Len() int {
	return len(s.dense)
}

// Values returns the members in insertion-mangled order. The slice is
// valid until the next mutation.
func (s *Set) Values() []uint32 {
	return s.dense
}
