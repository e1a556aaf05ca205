package syntax

// Analysis is the result of analysing a stable expression tree.
type Analysis struct {
	// Subexps maps capture number (1-based) to its Parens node.
	Subexps []*Node

	// ObservedNodes is the number of ids handed out; solver frames are
	// indexed by node id.
	ObservedNodes int

	// Fastmap[b] is true if a match may begin with byte b.
	Fastmap [CsetSize]bool

	// Nullable is true if the pattern can match the empty string.
	Nullable bool

	// Anchored is true if every match must begin at a '^' context.
	Anchored bool
}

// Analyze fills the ID, Len and Observed fields of every node in the
// tree and returns the derived pattern-level facts.
func Analyze(root *Node) *Analysis {
	a := &Analysis{}
	a.ObservedNodes = a.analyze(root, 0)
	a.Nullable = a.fillFastmap(root)
	a.Anchored = anchoredP(root)
	return a
}

// analyze assigns ids post-order so a parent's id is greater than any
// descendant's. Returns the next free id.
func (a *Analysis) analyze(node *Node, id int) int {
	if node == nil {
		return id
	}

	captureSlot := -1
	if node.Op == OpParens && node.Val >= 0 {
		captureSlot = len(a.Subexps)
		a.Subexps = append(a.Subexps, nil)
	}

	id = a.analyze(node.Left, id)
	id = a.analyze(node.Right, id)

	switch node.Op {
	case OpCSet:
		node.Len = 1
		node.Observed = false

	case OpStr:
		node.Len = len(node.Str)
		node.Observed = false

	case OpCut:
		node.Len = 0
		node.Observed = false

	case OpConcat, OpAlt:
		llen, rlen := 0, 0
		lob, rob := false, false
		if node.Left != nil {
			llen, lob = node.Left.Len, node.Left.Observed
		}
		if node.Right != nil {
			rlen, rob = node.Right.Len, node.Right.Observed
		}
		switch {
		case llen < 0 || rlen < 0:
			node.Len = -1
		case node.Op == OpConcat:
			node.Len = llen + rlen
		case llen == rlen:
			node.Len = llen
		default:
			node.Len = -1
		}
		node.Observed = lob || rob

	case OpOpt, OpStar, OpPlus:
		node.Len = -1
		node.Observed = node.Left != nil && node.Left.Observed

	case OpInterval:
		node.Len = -1
		node.Observed = true

	case OpParens:
		if node.Val >= 0 {
			node.Observed = true
			a.Subexps[captureSlot] = node
		} else {
			node.Observed = node.Left != nil && node.Left.Observed
		}
		if node.Left != nil {
			node.Len = node.Left.Len
		} else {
			node.Len = 0
		}

	case OpContext:
		node.Observed = true
		switch node.Val {
		case '^', '$', '=', '<', '>', 'b', 'B', '`', '\'':
			node.Len = 0
		default:
			// Back-reference: length depends on the referenced text.
			node.Len = -1
		}
	}

	if node.Observed {
		node.ID = id
		id++
	} else {
		node.ID = -1
	}
	return id
}

// fillFastmap marks every byte that can begin a match and reports
// whether the subtree can match empty. An empty-capable prefix
// saturates the map, so only left branches matter under Concat.
func (a *Analysis) fillFastmap(node *Node) bool {
	saturate := func() bool {
		for i := range a.Fastmap {
			a.Fastmap[i] = true
		}
		return true
	}

	if node == nil {
		return saturate()
	}

	switch node.Op {
	case OpCSet:
		for x := 0; x < CsetSize; x++ {
			if node.Cset.IsMember(x) {
				a.Fastmap[x] = true
			}
		}
		return false

	case OpStr:
		if len(node.Str) > 0 {
			a.Fastmap[node.Str[0]] = true
			return false
		}
		return true

	case OpCut:
		return true

	case OpConcat:
		return a.fillFastmap(node.Left)

	case OpAlt:
		l := a.fillFastmap(node.Left)
		r := a.fillFastmap(node.Right)
		return l || r

	case OpParens, OpPlus:
		return a.fillFastmap(node.Left)

	case OpOpt, OpStar:
		return saturate()

	case OpInterval:
		if node.Val == 0 {
			return saturate()
		}
		return a.fillFastmap(node.Left)

	case OpContext:
		return saturate()
	}
	return false
}

// anchoredP reports whether every match of the subtree starts at a '^'.
func anchoredP(node *Node) bool {
	if node == nil {
		return false
	}
	switch node.Op {
	case OpOpt, OpStar, OpCSet, OpStr, OpCut:
		return false
	case OpParens, OpPlus, OpConcat:
		return anchoredP(node.Left)
	case OpAlt:
		return anchoredP(node.Left) && anchoredP(node.Right)
	case OpInterval:
		if node.Val == 0 {
			return false
		}
		return anchoredP(node.Left)
	case OpContext:
		return node.Val == '^'
	}
	return false
}
