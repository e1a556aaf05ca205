package syntax

import "fmt"

// Code classifies compile and match failures. The values mirror the
// POSIX regcomp/regexec error taxonomy.
type Code uint8

const (
	// Success reports no error.
	Success Code = iota

	// NoMatch is the soft failure from a match attempt.
	NoMatch

	// BadPattern is a catch-all for invalid patterns.
	BadPattern

	// BadCollate reports an invalid collating element.
	BadCollate

	// BadCharClass reports an unknown [:name:] class.
	BadCharClass

	// TrailingEscape reports a pattern ending in a lone backslash.
	TrailingEscape

	// BadBackRef reports a back-reference to a missing group.
	BadBackRef

	// UnmatchedBracket reports an unclosed [ or [^.
	UnmatchedBracket

	// UnmatchedParen reports an unclosed group.
	UnmatchedParen

	// UnmatchedBrace reports an unclosed \{.
	UnmatchedBrace

	// BadBrace reports invalid interval contents.
	BadBrace

	// BadRange reports an invalid bracket range end.
	BadRange

	// OutOfMemory reports allocation failure.
	OutOfMemory

	// BadRepeat reports a repetition with nothing to repeat.
	BadRepeat

	// PrematureEnd reports a pattern cut short.
	PrematureEnd

	// PatternTooLarge reports a pattern beyond implementation limits.
	PatternTooLarge

	// UnmatchedRightParen reports a stray close-group.
	UnmatchedRightParen
)

var codeMessages = [...]string{
	Success:             "",
	NoMatch:             "No match",
	BadPattern:          "Invalid regular expression",
	BadCollate:          "Invalid collation character",
	BadCharClass:        "Invalid character class name",
	TrailingEscape:      "Trailing backslash",
	BadBackRef:          "Invalid back reference",
	UnmatchedBracket:    "Unmatched [ or [^",
	UnmatchedParen:      "Unmatched ( or \\(",
	UnmatchedBrace:      "Unmatched \\{",
	BadBrace:            "Invalid content of \\{\\}",
	BadRange:            "Invalid range end",
	OutOfMemory:         "Memory exhausted",
	BadRepeat:           "Invalid preceding regular expression",
	PrematureEnd:        "Premature end of regular expression",
	PatternTooLarge:     "Regular expression too big",
	UnmatchedRightParen: "Unmatched ) or \\)",
}

// Message returns the fixed message for c.
func (c Code) Message() string {
	if int(c) < len(codeMessages) {
		return codeMessages[c]
	}
	return fmt.Sprintf("Unknown error (%d)", c)
}

// String returns the identifier-style name of c.
func (c Code) String() string {
	switch c {
	case Success:
		return "Success"
	case NoMatch:
		return "NoMatch"
	case BadPattern:
		return "BadPattern"
	case BadCollate:
		return "BadCollate"
	case BadCharClass:
		return "BadCharClass"
	case TrailingEscape:
		return "TrailingEscape"
	case BadBackRef:
		return "BadBackRef"
	case UnmatchedBracket:
		return "UnmatchedBracket"
	case UnmatchedParen:
		return "UnmatchedParen"
	case UnmatchedBrace:
		return "UnmatchedBrace"
	case BadBrace:
		return "BadBrace"
	case BadRange:
		return "BadRange"
	case OutOfMemory:
		return "OutOfMemory"
	case BadRepeat:
		return "BadRepeat"
	case PrematureEnd:
		return "PrematureEnd"
	case PatternTooLarge:
		return "PatternTooLarge"
	case UnmatchedRightParen:
		return "UnmatchedRightParen"
	default:
		return fmt.Sprintf("UnknownCode(%d)", uint8(c))
	}
}

// Error is a compile or match failure carrying its Code.
type Error struct {
	Code Code
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Code.Message()
}

// Is matches errors by Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Err returns the shared error value for c, or nil for Success.
func (c Code) Err() error {
	if c == Success {
		return nil
	}
	return &Error{Code: c}
}
