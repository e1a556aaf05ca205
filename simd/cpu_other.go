//go:build !amd64

package simd

var wideStride = false
