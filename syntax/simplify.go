package syntax

// Simplify rewrites an observed expression into a plain regular
// expression whose language contains every string the original can
// match. Context assertions vanish, groups lose their parentheses,
// back-references are replaced by the expression they refer to, and
// bounded intervals are widened to stars. A deterministic matcher
// over the result can safely reject candidate substrings before the
// solver is asked for an exact answer.
//
// Unobserved subtrees are already plain and are shared, not copied.
// subexps is indexed by capture number, 1-based.
func Simplify(node *Node, subexps []*Node) *Node {
	if node == nil {
		return nil
	}
	if !node.Observed {
		return node
	}

	switch node.Op {
	case OpParens:
		return Simplify(node.Left, subexps)

	case OpContext:
		if node.Val >= '0' && node.Val <= '9' {
			n := node.Val - '0'
			if n >= 1 && n <= len(subexps) {
				return Simplify(subexps[n-1], subexps)
			}
		}
		// Anchors and word-boundary assertions match no text.
		return nil

	case OpConcat, OpAlt:
		return NewBinop(node.Op, Simplify(node.Left, subexps), Simplify(node.Right, subexps))

	case OpOpt, OpStar, OpPlus:
		return NewMonop(node.Op, Simplify(node.Left, subexps))

	case OpInterval:
		return NewMonop(OpStar, Simplify(node.Left, subexps))
	}

	// CSet, Str and Cut are never observed.
	return node
}
