package simd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemchr(t *testing.T) {
	tests := []struct {
		name     string
		haystack string
		needle   byte
		want     int
	}{
		{"empty", "", 'a', -1},
		{"first byte", "abc", 'a', 0},
		{"last byte short", "abc", 'c', 2},
		{"absent short", "abc", 'x', -1},
		{"within chunk", "0123456789abcdef", 'a', 10},
		{"after chunk boundary", strings.Repeat("x", 17) + "y", 'y', 17},
		{"deep in long input", strings.Repeat("x", 100) + "z" + strings.Repeat("x", 50), 'z', 100},
		{"first of several", "xxayybzz", 'y', 3},
		{"absent long", strings.Repeat("q", 200), 'r', -1},
		{"zero byte", "ab\x00cd", 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Memchr([]byte(tt.haystack), tt.needle))
		})
	}
}

func TestMemchrMatchesIndexByte(t *testing.T) {
	haystack := []byte(strings.Repeat("the quick brown fox ", 13))
	for needle := 0; needle < 256; needle++ {
		require.Equal(t, bytes.IndexByte(haystack, byte(needle)), Memchr(haystack, byte(needle)))
	}
}

func TestMemchr2(t *testing.T) {
	tests := []struct {
		name     string
		haystack string
		n1, n2   byte
		want     int
	}{
		{"empty", "", 'a', 'b', -1},
		{"first needle wins", "xxaybxx", 'a', 'b', 2},
		{"second needle wins", "xxbyaxx", 'a', 'b', 2},
		{"absent", strings.Repeat("x", 64), 'a', 'b', -1},
		{"long input", strings.Repeat("x", 90) + "b", 'a', 'b', 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Memchr2([]byte(tt.haystack), tt.n1, tt.n2))
		})
	}
}

func TestMemchrInTable(t *testing.T) {
	var digits [256]bool
	for b := '0'; b <= '9'; b++ {
		digits[b] = true
	}

	require.Equal(t, -1, MemchrInTable(nil, &digits))
	require.Equal(t, 0, MemchrInTable([]byte("7abc"), &digits))
	require.Equal(t, 5, MemchrInTable([]byte("abcde3fg"), &digits))
	require.Equal(t, -1, MemchrInTable([]byte(strings.Repeat("abc", 30)), &digits))
	require.Equal(t, 61, MemchrInTable([]byte(strings.Repeat("x", 61)+"0"), &digits))
}
