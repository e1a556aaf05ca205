package prefilter

import "github.com/coregx/posixre/syntax"

// prefixLiterals returns a set of byte strings such that every match of the
// expression begins with one of them. Returns nil when no bounded, nonempty
// set exists (the expression can match the empty string, starts with a wide
// byte class, or contains a back-reference near its head).
func prefixLiterals(root *syntax.Node) [][]byte {
	lits, _, ok := gatherPrefixes(root)
	if !ok || len(lits) == 0 {
		return nil
	}
	for _, l := range lits {
		if len(l) == 0 {
			return nil
		}
	}
	return lits
}

// gatherPrefixes walks the expression collecting prefix literals. exact
// reports that lits is the expression's whole language, which permits a
// following concatenand to extend the literals.
func gatherPrefixes(n *syntax.Node) (lits [][]byte, exact bool, ok bool) {
	if n == nil {
		return [][]byte{nil}, true, true
	}

	switch n.Op {
	case syntax.OpStr:
		if len(n.Str) > maxLiteralLen {
			return [][]byte{n.Str[:maxLiteralLen]}, false, true
		}
		return [][]byte{n.Str}, true, true

	case syntax.OpCSet:
		var members []byte
		for b := 0; b < syntax.CsetSize; b++ {
			if n.Cset.IsMember(b) {
				members = append(members, byte(b))
				if len(members) > 4 {
					return nil, false, false
				}
			}
		}
		for _, b := range members {
			lits = append(lits, []byte{b})
		}
		return lits, true, len(lits) > 0

	case syntax.OpCut:
		return [][]byte{nil}, true, true

	case syntax.OpContext:
		if n.Val >= '1' && n.Val <= '9' {
			return nil, false, false
		}
		return [][]byte{nil}, true, true

	case syntax.OpParens:
		return gatherPrefixes(n.Left)

	case syntax.OpConcat:
		left, lexact, ok := gatherPrefixes(n.Left)
		if !ok {
			return nil, false, false
		}
		if !lexact {
			return left, false, true
		}
		right, rexact, ok := gatherPrefixes(n.Right)
		if !ok {
			return nil, false, false
		}
		if len(left)*len(right) > maxLiterals {
			return left, false, true
		}
		exact = rexact
		for _, l := range left {
			for _, r := range right {
				cat := append(append([]byte{}, l...), r...)
				if len(cat) > maxLiteralLen {
					cat = cat[:maxLiteralLen]
					exact = false
				}
				lits = append(lits, cat)
			}
		}
		return lits, exact, true

	case syntax.OpAlt:
		left, lexact, ok := gatherPrefixes(n.Left)
		if !ok {
			return nil, false, false
		}
		right, rexact, ok := gatherPrefixes(n.Right)
		if !ok {
			return nil, false, false
		}
		lits = append(left, right...)
		if len(lits) > maxLiterals {
			return nil, false, false
		}
		return lits, lexact && rexact, true

	case syntax.OpOpt:
		inner, iexact, ok := gatherPrefixes(n.Left)
		if !ok {
			return nil, false, false
		}
		return append(inner, nil), iexact, true

	case syntax.OpPlus:
		inner, _, ok := gatherPrefixes(n.Left)
		return inner, false, ok

	case syntax.OpStar:
		return [][]byte{nil}, false, true

	case syntax.OpInterval:
		if n.Val == 0 {
			return [][]byte{nil}, false, true
		}
		inner, _, ok := gatherPrefixes(n.Left)
		return inner, false, ok

	default:
		return nil, false, false
	}
}
