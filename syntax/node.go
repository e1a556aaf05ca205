package syntax

import "github.com/coregx/posixre/internal/bitset"

// Op is the tag of an expression tree node.
type Op uint8

const (
	// OpCSet matches one byte from a set.
	OpCSet Op = iota

	// OpStr matches a literal byte string.
	OpStr

	// OpCut emits a tagged final marker.
	OpCut

	// OpConcat is sequential composition of Left then Right.
	OpConcat

	// OpAlt is alternation, preferring Left.
	OpAlt

	// OpOpt matches Left zero or one time.
	OpOpt

	// OpStar matches Left zero or more times.
	OpStar

	// OpPlus matches Left one or more times.
	OpPlus

	// OpInterval matches Left between Val and Val2 times.
	OpInterval

	// OpParens groups Left; Val is the capture number, or -1 for a
	// purely syntactic group.
	OpParens

	// OpContext is a zero-width assertion or back-reference; Val is one
	// of '^' '$' '<' '>' 'b' 'B' '`' '\'' or a digit character.
	OpContext
)

// String returns the tag name.
func (op Op) String() string {
	switch op {
	case OpCSet:
		return "CSet"
	case OpStr:
		return "Str"
	case OpCut:
		return "Cut"
	case OpConcat:
		return "Concat"
	case OpAlt:
		return "Alt"
	case OpOpt:
		return "Opt"
	case OpStar:
		return "Star"
	case OpPlus:
		return "Plus"
	case OpInterval:
		return "Interval"
	case OpParens:
		return "Parens"
	case OpContext:
		return "Context"
	default:
		return "Unknown"
	}
}

// Node is one expression tree node. Operand use depends on Op; see the
// Op constants. The analysis fields ID, Len and Observed are filled by
// Analyze once the tree is stable and are meaningless before that.
type Node struct {
	Op    Op
	Cset  bitset.Bitset
	Str   []byte
	Val   int
	Val2  int
	Left  *Node
	Right *Node

	// ID is a dense index for observable nodes, -1 otherwise.
	ID int

	// Len is the fixed byte length this node matches, or -1.
	Len int

	// Observed is true iff this subtree needs the solver: it contains a
	// context assertion, capturing group, or bounded interval.
	Observed bool
}

// NewCSet returns a CSet node owning cs.
func NewCSet(cs bitset.Bitset) *Node {
	return &Node{Op: OpCSet, Cset: cs, ID: -1}
}

// NewStr returns a Str node matching the single byte b.
func NewStr(b byte) *Node {
	return &Node{Op: OpStr, Str: []byte{b}, ID: -1}
}

// NewMonop returns a single-operand node (Opt, Star, Plus, Interval,
// Parens).
func NewMonop(op Op, child *Node) *Node {
	return &Node{Op: op, Left: child, ID: -1}
}

// NewBinop returns a two-operand node (Concat, Alt).
func NewBinop(op Op, left, right *Node) *Node {
	return &Node{Op: op, Left: left, Right: right, ID: -1}
}

// NewInt returns a node whose payload is a small integer (Cut, Context).
func NewInt(op Op, val int) *Node {
	return &Node{Op: op, Val: val, ID: -1}
}

// AdjoinByte appends b to a Str node.
func (n *Node) AdjoinByte(b byte) {
	n.Str = append(n.Str, b)
}

// Equal reports deep structural equality: same tag chain, same integer
// payloads, same strings and bitsets.
func (n *Node) Equal(other *Node) bool {
	if n == other {
		return true
	}
	if n == nil || other == nil {
		return false
	}
	if n.Op != other.Op || n.Val != other.Val || n.Val2 != other.Val2 {
		return false
	}
	switch n.Op {
	case OpCSet:
		return n.Cset.Equal(other.Cset)
	case OpStr:
		return string(n.Str) == string(other.Str)
	}
	return n.Left.Equal(other.Left) && n.Right.Equal(other.Right)
}

// Hash folds the structure of n into a value consistent with Equal.
func (n *Node) Hash() uint32 {
	if n == nil {
		return 0x9e3779b9
	}
	h := uint32(n.Op)<<24 + uint32(n.Val)*0x61c88647 + uint32(n.Val2)*0x85ebca6b
	switch n.Op {
	case OpCSet:
		h ^= n.Cset.Hash()
	case OpStr:
		for _, b := range n.Str {
			h = h*31 + uint32(b)
		}
	default:
		h ^= n.Left.Hash()<<1 ^ n.Right.Hash()
	}
	return h
}

// IsRegular reports whether op may appear at a "regular" append point.
// Context nodes and cuts have ordering constraints relative to the text
// they annotate, so the parser appends them at a separate cursor.
func (op Op) IsRegular() bool {
	switch op {
	case OpContext, OpCut:
		return false
	default:
		return true
	}
}
