//go:build amd64

package simd

import "golang.org/x/sys/cpu"

// wideStride enables the 32-byte unrolled scan loop. AVX2 support is used
// as a proxy for cheap unaligned wide loads.
var wideStride = cpu.X86.HasAVX2
