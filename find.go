package posixre

import "errors"

// Match reports whether the pattern occurs in b.
func (re *Regexp) Match(b []byte) bool {
	_, err := re.ExecN(b, 1, 0)
	return err == nil
}

// MatchString reports whether the pattern occurs in s.
func (re *Regexp) MatchString(s string) bool {
	return re.Match([]byte(s))
}

// Find returns the leftmost match in b, or nil if there is none.
func (re *Regexp) Find(b []byte) []byte {
	regs, err := re.ExecN(b, 1, 0)
	if err != nil {
		return nil
	}
	return b[regs[0].So:regs[0].Eo]
}

// FindString returns the leftmost match in s, or "" if there is none.
func (re *Regexp) FindString(s string) string {
	return string(re.Find([]byte(s)))
}

// FindIndex returns the extent of the leftmost match in b as
// [start, end), or nil if there is none.
func (re *Regexp) FindIndex(b []byte) []int {
	regs, err := re.ExecN(b, 1, 0)
	if err != nil {
		return nil
	}
	return []int{regs[0].So, regs[0].Eo}
}

// FindStringIndex is FindIndex over a string.
func (re *Regexp) FindStringIndex(s string) []int {
	return re.FindIndex([]byte(s))
}

// FindSubmatchIndex returns the extents of the leftmost match and of
// every capture group, flattened as successive (start, end) pairs.
// Unmatched groups report (-1, -1). Returns nil if there is no match.
func (re *Regexp) FindSubmatchIndex(b []byte) []int {
	regs, err := re.Exec(b, 0)
	if err != nil {
		return nil
	}
	out := make([]int, 0, 2*len(regs))
	for _, r := range regs {
		out = append(out, r.So, r.Eo)
	}
	return out
}

// IsNoMatch reports whether err is the soft no-match failure from
// Exec, as opposed to a resource error.
func IsNoMatch(err error) bool {
	return errors.Is(err, ErrNoMatch)
}
