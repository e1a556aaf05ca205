package syntax

import "github.com/coregx/posixre/internal/bitset"

// Parse compiles pattern under the given syntax bits into an expression
// tree. translate, if non-nil, maps every pattern and input byte before
// comparison (case folding); nil means the identity translation.
func Parse(pattern []byte, bits Bits, translate *[CsetSize]byte) (*Node, error) {
	if translate == nil {
		translate = IDTranslation
	}
	p := &parser{
		pattern:   pattern,
		syntax:    bits,
		translate: translate,
	}
	p.top = &p.rexp
	p.last = p.top
	p.lastNonReg = p.top
	if err := p.run(); err != nil {
		return nil, err
	}
	return p.rexp, nil
}

// stackFrame saves the append cursors across an open group.
type stackFrame struct {
	top        **Node
	last       **Node
	lastNonReg **Node
	regnum     int
}

type parser struct {
	pattern   []byte
	pos       int
	syntax    Bits
	translate *[CsetSize]byte

	// Inverse-translation cache: for byte c, the set of bytes x with
	// translate[x] == translate[c], and its population.
	invCache   [CsetSize]bitset.Bitset
	invMembers [CsetSize]int

	stack  []stackFrame
	regnum int

	rexp       *Node
	top        **Node
	last       **Node
	lastNonReg **Node
}

func (p *parser) has(bit Bits) bool { return p.syntax&bit != 0 }

// fetch returns the next pattern byte, translated.
func (p *parser) fetch() (byte, error) {
	if p.pos == len(p.pattern) {
		return 0, (PrematureEnd).Err()
	}
	c := p.pattern[p.pos]
	p.pos++
	return p.translate[c], nil
}

// fetchRaw returns the next pattern byte without translation, so \B and
// \b stay distinct under case folding.
func (p *parser) fetchRaw() (byte, error) {
	if p.pos == len(p.pattern) {
		return 0, (PrematureEnd).Err()
	}
	c := p.pattern[p.pos]
	p.pos++
	return c, nil
}

func (p *parser) unfetch() { p.pos-- }

func (p *parser) atEnd() bool { return p.pos == len(p.pattern) }

// inverseTranslation returns the cached set of bytes translating to the
// same value as c.
func (p *parser) inverseTranslation(c byte) bitset.Bitset {
	if p.invCache[c] == nil {
		cs := bitset.New(CsetSize)
		tr := p.translate[c]
		n := 0
		for x := 0; x < CsetSize; x++ {
			if p.translate[x] == tr {
				cs.Enjoin(x)
				n++
			}
		}
		p.invCache[c] = cs
		p.invMembers[c] = n
	}
	return p.invCache[c]
}

// atBeglineLoc reports whether a ^ just fetched (pattern[pos-1]) sits
// after an open-group or alternation operator.
func (p *parser) atBeglineLoc() bool {
	prev := p.pos - 2
	if prev < 0 {
		return false
	}
	prevPrevBackslash := prev > 0 && p.pattern[prev-1] == '\\'
	switch p.pattern[prev] {
	case '(':
		return p.has(NoBkParens) || prevPrevBackslash
	case '|':
		return p.has(NoBkVbar) || prevPrevBackslash
	}
	return false
}

// atEndlineLoc reports whether a $ just fetched sits before a
// close-group or alternation operator.
func (p *parser) atEndlineLoc() bool {
	if p.atEnd() {
		return true
	}
	next := p.pattern[p.pos]
	nextBackslash := next == '\\'
	var nextNext byte
	if p.pos+1 < len(p.pattern) {
		nextNext = p.pattern[p.pos+1]
	}
	if p.has(NoBkParens) {
		if next == ')' {
			return true
		}
	} else if nextBackslash && nextNext == ')' {
		return true
	}
	if p.has(NoBkVbar) {
		return next == '|'
	}
	return nextBackslash && nextNext == '|'
}

// pointlessIfRepeated reports whether attaching * + ? to node matches
// nothing useful (anchors, empty subtrees).
func pointlessIfRepeated(node *Node) bool {
	if node == nil {
		return true
	}
	switch node.Op {
	case OpCSet, OpStr, OpCut:
		return false
	case OpConcat, OpAlt:
		return pointlessIfRepeated(node.Left) && pointlessIfRepeated(node.Right)
	case OpOpt, OpStar, OpPlus, OpInterval, OpParens:
		return pointlessIfRepeated(node.Left)
	case OpContext:
		switch node.Val {
		case '=', '<', '^', 'b', 'B', '`', '\'':
			return true
		}
		return false
	}
	return false
}

// factorString splits the last byte of a Str node at *p.last into its
// own CSet node so a repetition operator binds to that byte only.
func (p *parser) factorString() {
	exp := *p.last
	cs := bitset.New(CsetSize)
	cs.Enjoin(int(exp.Str[len(exp.Str)-1]))
	csetNode := NewCSet(cs)
	if len(exp.Str) == 1 {
		*p.last = csetNode
		return
	}
	exp.Str = exp.Str[:len(exp.Str)-1]
	concat := NewBinop(OpConcat, exp, csetNode)
	*p.last = concat
	p.last = &concat.Right
}

// appendNode attaches a freshly parsed node at the proper cursor.
// Regular nodes go to the regular cursor; context and cut nodes go to
// the non-regular cursor, which also resets the regular one.
func (p *parser) appendNode(n *Node) {
	if n.Op.IsRegular() {
		if *p.last == nil {
			*p.last = n
			return
		}
		concat := NewBinop(OpConcat, *p.last, n)
		*p.last = concat
		p.last = &concat.Right
		return
	}
	if *p.lastNonReg == nil {
		*p.lastNonReg = n
		p.last = p.lastNonReg
		return
	}
	concat := NewBinop(OpConcat, *p.lastNonReg, n)
	*p.lastNonReg = concat
	p.lastNonReg = &concat.Right
	p.last = p.lastNonReg
}

// appendByte coalesces a single-member byte into a trailing Str node, or
// starts one. Bytes whose inverse translation has several members (case
// folding) become CSet nodes instead.
func (p *parser) appendByte(c byte) {
	it := p.inverseTranslation(c)
	if p.invMembers[c] != 1 {
		cs := bitset.New(CsetSize)
		cs.Union(it)
		p.appendNode(NewCSet(cs))
		return
	}
	if *p.last != nil && (*p.last).Op == OpStr {
		(*p.last).AdjoinByte(p.translate[c])
		return
	}
	p.appendNode(NewStr(p.translate[c]))
}

func (p *parser) handleOpen(syntaxOnly bool) {
	if !syntaxOnly {
		p.regnum++
	}

	if *p.lastNonReg != nil {
		concat := NewBinop(OpConcat, *p.lastNonReg, nil)
		*p.lastNonReg = concat
		p.lastNonReg = &concat.Right
		p.last = p.lastNonReg
	}

	frame := stackFrame{
		top:        p.top,
		last:       p.last,
		lastNonReg: p.lastNonReg,
		regnum:     p.regnum,
	}
	if syntaxOnly {
		frame.regnum = -1
	}
	p.stack = append(p.stack, frame)

	p.top = p.lastNonReg
}

func (p *parser) handleClose(syntaxOnly bool) error {
	frame := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]

	if syntaxOnly != (frame.regnum == -1) {
		return (UnmatchedRightParen).Err()
	}

	inner := p.top
	p.top = frame.top
	p.last = frame.last
	p.lastNonReg = frame.lastNonReg

	parens := NewMonop(OpParens, *inner)
	parens.Val = frame.regnum
	*inner = parens
	return nil
}

func (p *parser) handleAlt() {
	alt := NewBinop(OpAlt, *p.top, nil)
	*p.top = alt
	p.last = &alt.Right
	p.lastNonReg = &alt.Right
}

// groupInStack reports whether group regnum is still open.
func (p *parser) groupInStack(regnum int) bool {
	for i := len(p.stack) - 1; i >= 0; i-- {
		if p.stack[i].regnum == regnum {
			return true
		}
	}
	return false
}

// getUnsigned reads a decimal number, returning it (or -1 if no digits)
// and the first unconsumed byte.
func (p *parser) getUnsigned() (int, byte, error) {
	num := -1
	if p.atEnd() {
		return num, 0, nil
	}
	c, err := p.fetch()
	if err != nil {
		return 0, 0, err
	}
	for c >= '0' && c <= '9' {
		if num < 0 {
			num = 0
		}
		num = num*10 + int(c-'0')
		if p.atEnd() {
			break
		}
		c, err = p.fetch()
		if err != nil {
			return 0, 0, err
		}
	}
	return num, c, nil
}

// handleRepeat consumes a run of repetition operators starting with c
// and attaches the folded operator to the last expression.
func (p *parser) handleRepeat(c byte) error {
	if pointlessIfRepeated(*p.last) {
		if p.has(ContextInvalidOps) {
			return (BadRepeat).Err()
		}
		if !p.has(ContextIndepOps) {
			p.appendByte(c)
			return nil
		}
	}

	zeroTimesOK := false
	manyTimesOK := false
	for {
		zeroTimesOK = zeroTimesOK || c != '+'
		manyTimesOK = manyTimesOK || c != '?'

		if p.atEnd() {
			break
		}
		var err error
		c, err = p.fetch()
		if err != nil {
			return err
		}

		if c == '*' || (!p.has(BkPlusQm) && (c == '+' || c == '?')) {
			continue
		}
		if p.has(BkPlusQm) && c == '\\' {
			if p.atEnd() {
				return (TrailingEscape).Err()
			}
			c1, err := p.fetch()
			if err != nil {
				return err
			}
			if c1 != '+' && c1 != '?' {
				p.unfetch()
				p.unfetch()
				break
			}
			c = c1
			continue
		}
		p.unfetch()
		break
	}

	if *p.last != nil && (*p.last).Op == OpStr {
		p.factorString()
	}
	var op Op
	switch {
	case manyTimesOK && zeroTimesOK:
		op = OpStar
	case manyTimesOK:
		op = OpPlus
	default:
		op = OpOpt
	}
	*p.last = NewMonop(op, *p.last)
	return nil
}

// handleInterval parses {n,m} (or \{n,m\}) after the opening brace has
// been consumed. Malformed intervals reparse as literals when the
// syntax allows.
func (p *parser) handleInterval() error {
	begInterval := p.pos - 1

	reparse := func() error {
		p.pos = begInterval
		c, err := p.fetch()
		if err != nil {
			return err
		}
		p.appendByte(c)
		return nil
	}

	if p.atEnd() {
		if p.has(NoBkBraces) {
			return reparse()
		}
		return (UnmatchedBrace).Err()
	}

	lower, c, err := p.getUnsigned()
	if err != nil {
		return err
	}
	upper := -1
	if c == ',' {
		upper, c, err = p.getUnsigned()
		if err != nil {
			return err
		}
		if upper < 0 {
			upper = DupMax
		}
	} else {
		upper = lower
	}

	if lower < 0 || upper > DupMax || lower > upper {
		if p.has(NoBkBraces) {
			return reparse()
		}
		return (BadBrace).Err()
	}

	if !p.has(NoBkBraces) {
		if c != '\\' {
			return (UnmatchedBrace).Err()
		}
		c, err = p.fetch()
		if err != nil {
			return err
		}
	}
	if c != '}' {
		if p.has(NoBkBraces) {
			return reparse()
		}
		return (BadBrace).Err()
	}

	if pointlessIfRepeated(*p.last) {
		if p.has(ContextInvalidOps) {
			return (BadRepeat).Err()
		}
		if !p.has(ContextIndepOps) {
			return reparse()
		}
	}

	if *p.last != nil && (*p.last).Op == OpStr {
		p.factorString()
	}
	interval := NewMonop(OpInterval, *p.last)
	interval.Val = lower
	interval.Val2 = upper
	*p.last = interval
	p.lastNonReg = p.last
	return nil
}

func (p *parser) run() error {
	for !p.atEnd() {
		c, err := p.fetch()
		if err != nil {
			return err
		}

		switch c {
		case '^':
			if p.pos == 1 || p.has(ContextIndepAnchors) || p.atBeglineLoc() {
				p.appendNode(NewInt(OpContext, '^'))
			} else {
				p.appendByte(c)
			}

		case '$':
			if p.atEnd() || p.has(ContextIndepAnchors) || p.atEndlineLoc() {
				p.appendNode(NewInt(OpContext, '$'))
			} else {
				p.appendByte(c)
			}

		case '+', '?':
			if p.has(BkPlusQm) || p.has(LimitedOps) {
				p.appendByte(c)
				break
			}
			if err := p.handleRepeat(c); err != nil {
				return err
			}

		case '*':
			if err := p.handleRepeat(c); err != nil {
				return err
			}

		case '.':
			cs := bitset.New(CsetSize)
			cs.Universe()
			if !p.has(DotNewline) {
				cs.Remove('\n')
			}
			if p.has(DotNotNull) {
				cs.Remove(0)
			}
			p.appendNode(NewCSet(cs))

		case '[':
			if err := p.parseBracket(); err != nil {
				return err
			}

		case '(':
			if p.has(NoBkParens) {
				p.handleOpen(false)
			} else {
				p.appendByte(c)
			}

		case ')':
			if !p.has(NoBkParens) {
				p.appendByte(c)
				break
			}
			if len(p.stack) == 0 {
				if p.has(UnmatchedRightParenOrd) {
					p.appendByte(c)
					break
				}
				return (UnmatchedRightParen).Err()
			}
			if err := p.handleClose(false); err != nil {
				return err
			}

		case '\n':
			if p.has(NewlineAlt) && !p.has(LimitedOps) {
				p.handleAlt()
			} else {
				p.appendByte(c)
			}

		case '|':
			if p.has(NoBkVbar) && !p.has(LimitedOps) {
				p.handleAlt()
			} else {
				p.appendByte(c)
			}

		case '{':
			if p.has(Intervals) && p.has(NoBkBraces) {
				if err := p.handleInterval(); err != nil {
					return err
				}
			} else {
				p.appendByte(c)
			}

		case '\\':
			if err := p.parseEscape(); err != nil {
				return err
			}

		default:
			p.appendByte(c)
		}
	}

	if len(p.stack) != 0 {
		return (UnmatchedParen).Err()
	}
	return nil
}

func (p *parser) parseEscape() error {
	if p.atEnd() {
		return (TrailingEscape).Err()
	}
	c, err := p.fetchRaw()
	if err != nil {
		return err
	}

	switch c {
	case '(':
		if p.has(NoBkParens) {
			p.appendByte(p.translate[c])
			return nil
		}
		p.handleOpen(false)
		return nil

	case ')':
		if p.has(NoBkParens) {
			p.appendByte(p.translate[c])
			return nil
		}
		if len(p.stack) == 0 {
			if p.has(UnmatchedRightParenOrd) {
				p.appendByte(p.translate[c])
				return nil
			}
			return (UnmatchedRightParen).Err()
		}
		return p.handleClose(false)

	case '|':
		if p.has(LimitedOps) || p.has(NoBkVbar) {
			p.appendByte(p.translate[c])
			return nil
		}
		p.handleAlt()
		return nil

	case '{':
		if !p.has(Intervals) || p.has(NoBkBraces) ||
			(p.pos == 2 && p.atEnd()) {
			p.appendByte(p.translate[c])
			return nil
		}
		return p.handleInterval()

	case 'w', 'W':
		cs := bitset.New(CsetSize)
		if c == 'W' {
			cs.Universe()
		}
		for x := CsetSize - 1; x > 0; x-- {
			if IsWordByte(byte(x)) {
				cs.Toggle(x)
			}
		}
		p.appendNode(NewCSet(cs))
		return nil

	case '<', '>', 'b', 'B', '`', '\'':
		p.appendNode(NewInt(OpContext, int(c)))
		return nil

	case '1', '2', '3', '4', '5', '6', '7', '8', '9':
		if p.has(NoBkRefs) {
			p.appendByte(p.translate[c])
			return nil
		}
		group := int(c - '0')
		// A group still open cannot be referenced from inside itself.
		if p.groupInStack(group) {
			p.appendByte(p.translate[c])
			return nil
		}
		if group > p.regnum {
			return (BadBackRef).Err()
		}
		p.appendNode(NewInt(OpContext, int(c)))
		return nil

	case '+', '?':
		if p.has(BkPlusQm) {
			return p.handleRepeat(c)
		}
		p.appendByte(p.translate[c])
		return nil

	default:
		p.appendByte(p.translate[c])
		return nil
	}
}
