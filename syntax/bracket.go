package syntax

import (
	"strconv"
	"strings"

	"github.com/coregx/posixre/internal/bitset"
)

const charClassMaxLen = 64

var charClassNames = map[string]bool{
	"alnum": true, "alpha": true, "blank": true, "cntrl": true,
	"digit": true, "graph": true, "lower": true, "print": true,
	"punct": true, "space": true, "upper": true, "xdigit": true,
}

func classMember(name string, c byte) bool {
	switch name {
	case "alnum":
		return classMember("alpha", c) || classMember("digit", c)
	case "alpha":
		return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
	case "blank":
		return c == ' ' || c == '\t'
	case "cntrl":
		return c < 0x20 || c == 0x7f
	case "digit":
		return c >= '0' && c <= '9'
	case "graph":
		return c > 0x20 && c < 0x7f
	case "lower":
		return c >= 'a' && c <= 'z'
	case "print":
		return c >= 0x20 && c < 0x7f
	case "punct":
		return classMember("graph", c) && !classMember("alnum", c)
	case "space":
		return c == ' ' || (c >= '\t' && c <= '\r')
	case "upper":
		return c >= 'A' && c <= 'Z'
	case "xdigit":
		return classMember("digit", c) ||
			(c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
	}
	return false
}

// peek returns the next untranslated byte, or 0 at the end.
func (p *parser) peek() byte {
	if p.atEnd() {
		return 0
	}
	return p.pattern[p.pos]
}

func (p *parser) peek2() byte {
	if p.pos+1 >= len(p.pattern) {
		return 0
	}
	return p.pattern[p.pos+1]
}

// compileRange reads the end of a range whose start byte sits two
// positions back (just before the '-') and unions [start, end] into cs.
func (p *parser) compileRange(cs bitset.Bitset) error {
	rangeStart := p.translate[p.pattern[p.pos-2]]
	if p.atEnd() {
		return (BadRange).Err()
	}
	rangeEnd, err := p.fetch()
	if err != nil {
		return err
	}

	if rangeStart > rangeEnd {
		if p.has(NoEmptyRanges) {
			return (BadRange).Err()
		}
		return nil
	}
	for c := int(rangeStart); c <= int(rangeEnd); c++ {
		cs.Union(p.inverseTranslation(byte(c)))
	}
	return nil
}

// parseBracket parses a bracket expression after its opening '[' has
// been consumed. The non-standard whole-bracket extensions [[:cutN:]],
// [[:(:]] and [[:):]] are recognised here and replace the set entirely.
func (p *parser) parseBracket() error {
	if p.atEnd() {
		return (UnmatchedBracket).Err()
	}

	isInverted := p.peek() == '^'
	if isInverted {
		p.pos++
	}

	cs := bitset.New(CsetSize)
	node := NewCSet(cs)

	// First content position; a ']' right here is a literal.
	p1 := p.pos
	hadCharClass := false

	for {
		if p.atEnd() {
			return (UnmatchedBracket).Err()
		}
		c, err := p.fetch()
		if err != nil {
			return err
		}

		if p.has(BackslashEscapeInLists) && c == '\\' {
			if p.atEnd() {
				return (TrailingEscape).Err()
			}
			c1, err := p.fetch()
			if err != nil {
				return err
			}
			cs.Union(p.inverseTranslation(c1))
			continue
		}

		if c == ']' && p.pos != p1+1 {
			break
		}

		if hadCharClass && c == '-' && p.peek() != ']' {
			return (BadRange).Err()
		}

		if c == '-' &&
			!(p.pos-2 >= 0 && p.pattern[p.pos-2] == '[') &&
			!(p.pos-3 >= 0 && p.pattern[p.pos-3] == '[' && p.pattern[p.pos-2] == '^') &&
			p.peek() != ']' {
			if err := p.compileRange(cs); err != nil {
				return err
			}
			continue
		}

		if p.peek() == '-' && p.peek2() != ']' && p.peek2() != 0 {
			// Plain character range: consume the '-' and read the end.
			if _, err := p.fetch(); err != nil {
				return err
			}
			if err := p.compileRange(cs); err != nil {
				return err
			}
			continue
		}

		if p.has(CharClasses) && c == '[' && p.peek() == ':' {
			done, err := p.parseBracketClass(cs, &hadCharClass)
			if err != nil {
				return err
			}
			if done {
				// A whole-bracket extension consumed the closing
				// brackets and appended its own node.
				return nil
			}
			continue
		}

		hadCharClass = false
		cs.Union(p.inverseTranslation(c))
	}

	if isInverted {
		cs.Complement()
		if p.has(HatListsNotNewline) {
			cs.Remove('\n')
		}
	}
	p.appendNode(node)
	return nil
}

// parseBracketClass handles "[:" sequences inside a bracket expression:
// POSIX class names, and the cut / syntactic-group extensions. Returns
// done=true when the extension closed the whole bracket expression.
func (p *parser) parseBracketClass(cs bitset.Bitset, hadCharClass *bool) (bool, error) {
	if _, err := p.fetch(); err != nil { // the ':'
		return false, err
	}
	if p.atEnd() {
		return false, (UnmatchedBracket).Err()
	}

	var str []byte
	var c byte
	for {
		var err error
		c, err = p.fetch()
		if err != nil {
			return false, err
		}
		if c == ':' || c == ']' || p.atEnd() || len(str) == charClassMaxLen {
			break
		}
		str = append(str, c)
	}
	name := string(str)

	if c != ':' || p.peek() != ']' {
		// Not a class after all: rewind past the letters and treat the
		// '[' and ':' as set members.
		for i := 0; i < len(str)+1; i++ {
			p.unfetch()
		}
		cs.Union(p.inverseTranslation('['))
		cs.Union(p.inverseTranslation(':'))
		*hadCharClass = false
		return false, nil
	}

	switch {
	case strings.HasPrefix(name, "cut"):
		val, err := strconv.Atoi(strings.TrimSpace(name[3:]))
		if err != nil {
			return false, (BadCharClass).Err()
		}
		if err := p.discardClosing(); err != nil {
			return false, err
		}
		p.appendNode(NewInt(OpCut, val))
		return true, nil

	case strings.HasPrefix(name, "("):
		if err := p.discardClosing(); err != nil {
			return false, err
		}
		p.handleOpen(true)
		return true, nil

	case strings.HasPrefix(name, ")"):
		if err := p.discardClosing(); err != nil {
			return false, err
		}
		if len(p.stack) == 0 {
			return false, (UnmatchedRightParen).Err()
		}
		if err := p.handleClose(true); err != nil {
			return false, err
		}
		return true, nil

	default:
		if !charClassNames[name] {
			return false, (BadCharClass).Err()
		}
		// Consume the ']' closing the class.
		if _, err := p.fetch(); err != nil {
			return false, err
		}
		if p.atEnd() {
			return false, (UnmatchedBracket).Err()
		}
		for ch := 0; ch < CsetSize; ch++ {
			if classMember(name, byte(ch)) {
				cs.Union(p.inverseTranslation(byte(ch)))
			}
		}
		*hadCharClass = true
		return false, nil
	}
}

// discardClosing throws away the "]]" that ends a whole-bracket
// extension.
func (p *parser) discardClosing() error {
	if _, err := p.fetch(); err != nil {
		return err
	}
	if _, err := p.fetch(); err != nil {
		return err
	}
	return nil
}
