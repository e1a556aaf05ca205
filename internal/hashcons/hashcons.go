// Package hashcons implements a value-keyed dictionary used to share
// structurally-equal values by pointer identity.
//
// The table is a radix trie of depth 4 keyed on folded 4-bit nibbles of the
// caller's hash. Each level has 16 buckets; a bucket holds a short collision
// list, and is inflated into a nested subtable when the list outgrows 3
// entries above the bottom level. This bounds probe cost without a resize
// step and degrades gracefully under bad hash distributions.
//
// Allocation of tables and items goes through caller-supplied Rules so
// owners with a memory budget can refuse an allocation; a refused
// allocation surfaces as a nil result from Store.
package hashcons

// Item is one stored entry. Data holds the canonical value; Binding is a
// free slot for the owner's use.
type Item struct {
	Data    any
	Binding any

	hash   uint32
	table  *Table
	next   *Item
}

// Table is one trie level. The zero value is an empty table.
type Table struct {
	parent   *Table
	refs     int
	nested   uint16
	tables   [16]*Table
	buckets  [16]*Item
}

// Rules supplies equality and allocation policy. Any nil field falls back
// to a default (pointer equality, plain allocation).
type Rules struct {
	// Eq reports whether a stored Data value equals a probe value.
	Eq func(a, b any) bool

	// AllocTable returns a new subtable, or nil to refuse.
	AllocTable func() *Table

	// AllocItem returns a new item for value, or nil to refuse.
	// The caller of Store canonicalises Data afterwards.
	AllocItem func(value any) *Item

	// FreeTable and FreeItem release storage (budget bookkeeping).
	FreeTable func(*Table)
	FreeItem  func(*Item)
}

var masks = [4]uint32{0x12488421, 0x96699669, 0xbe7dd7eb, 0xffffffff}

func joinByte(h, b uint32) uint32 {
	return (h + h<<3 + b) & 0xf
}

// h2b folds a masked hash into a bucket index.
func h2b(x uint32) int {
	return int(joinByte(joinByte(joinByte(x&0xf, (x>>8)&0xf), (x>>16)&0xf), (x>>24)&0xf))
}

func (r *Rules) eq(a, b any) bool {
	if r != nil && r.Eq != nil {
		return r.Eq(a, b)
	}
	return a == b
}

func (r *Rules) allocTable() *Table {
	if r != nil && r.AllocTable != nil {
		return r.AllocTable()
	}
	return &Table{}
}

func (r *Rules) allocItem(value any) *Item {
	if r != nil && r.AllocItem != nil {
		return r.AllocItem(value)
	}
	return &Item{Data: value}
}

func (r *Rules) freeTable(t *Table) {
	if r != nil && r.FreeTable != nil {
		r.FreeTable(t)
	}
}

func (r *Rules) freeItem(it *Item) {
	if r != nil && r.FreeItem != nil {
		r.FreeItem(it)
	}
}

// descend walks to the deepest existing level for hash, returning the
// table, the bucket index there, and the depth reached.
func descend(table *Table, hash uint32) (*Table, int, int) {
	depth := 0
	bucket := h2b(hash & masks[0])
	for table.nested&(1<<uint(bucket)) != 0 {
		table = table.tables[bucket]
		depth++
		bucket = h2b(hash & masks[depth])
	}
	return table, bucket, depth
}

// Find returns the item equal to value under rules, or nil.
func Find(table *Table, hash uint32, value any, rules *Rules) *Item {
	t, bucket, _ := descend(table, hash)
	for it := t.buckets[bucket]; it != nil; it = it.next {
		if it.hash == hash && rules.eq(value, it.Data) {
			return it
		}
	}
	return nil
}

func chainLen(it *Item) int {
	n := 0
	for ; it != nil; it = it.next {
		n++
	}
	return n
}

// Store returns the item for value, creating one if absent. Returns nil
// only if the rules refused an item allocation.
func Store(table *Table, hash uint32, value any, rules *Rules) *Item {
	t, bucket, depth := descend(table, hash)

	for it := t.buckets[bucket]; it != nil; it = it.next {
		if it.hash == hash && rules.eq(value, it.Data) {
			return it
		}
	}

	// Inflate an overfull bucket into a subtable, redistributing its
	// collision list one level down. A refused table allocation is not
	// an error; the item just extends the list.
	if depth < 3 && chainLen(t.buckets[bucket]) > 3 {
		if newtab := rules.allocTable(); newtab != nil {
			newtab.parent = t
			newmask := masks[depth+1]
			them := t.buckets[bucket]
			for them != nil {
				save := them.next
				nb := h2b(them.hash & newmask)
				them.next = newtab.buckets[nb]
				newtab.buckets[nb] = them
				them.table = newtab
				newtab.refs++
				t.refs--
				them = save
			}
			t.buckets[bucket] = nil
			t.tables[bucket] = newtab
			t.nested |= 1 << uint(bucket)
			t.refs++
			t = newtab
			depth++
			bucket = h2b(hash & newmask)
		}
	}

	it := rules.allocItem(value)
	if it == nil {
		return nil
	}
	it.hash = hash
	it.table = t
	it.next = t.buckets[bucket]
	t.buckets[bucket] = it
	t.refs++
	return it
}

// Free unlinks it from its table and releases it. Empty subtables left
// behind are collapsed back into their parents.
func Free(it *Item, rules *Rules) {
	if it == nil {
		return
	}
	t := it.table
	depth := t.depth()
	bucket := h2b(it.hash & masks[depth])

	pos := &t.buckets[bucket]
	for *pos != it {
		pos = &(*pos).next
	}
	*pos = it.next
	rules.freeItem(it)
	t.refs--

	for t.refs == 0 && depth > 0 {
		parent := t.parent
		depth--
		b := h2b(it.hash & masks[depth])
		parent.tables[b] = nil
		parent.nested &^= 1 << uint(b)
		parent.refs--
		rules.freeTable(t)
		t = parent
	}
}

func (t *Table) depth() int {
	d := 0
	for p := t.parent; p != nil; p = p.parent {
		d++
	}
	return d
}

// Len returns the total number of items stored under t.
func Len(t *Table) int {
	n := 0
	for b := 0; b < 16; b++ {
		if t.nested&(1<<uint(b)) != 0 {
			n += Len(t.tables[b])
		} else {
			n += chainLen(t.buckets[b])
		}
	}
	return n
}

// FreeTable releases every item and subtable under t. freefn, if
// non-nil, runs on each item before it is released.
func FreeTable(t *Table, freefn func(*Item), rules *Rules) {
	for b := 0; b < 16; b++ {
		if t.nested&(1<<uint(b)) != 0 {
			sub := t.tables[b]
			FreeTable(sub, freefn, rules)
			rules.freeTable(sub)
			t.tables[b] = nil
			t.nested &^= 1 << uint(b)
		} else {
			it := t.buckets[b]
			for it != nil {
				next := it.next
				if freefn != nil {
					freefn(it)
				}
				rules.freeItem(it)
				it = next
			}
			t.buckets[b] = nil
		}
	}
	t.refs = 0
}
