// Package fixedpoint converts floating-point network parameters into the
// fixed-point integers the cores compute with, and back.
//
// Two encodings are provided. A Codec rounds half away from zero and
// saturates to its representable range, reporting when it had to clamp.
// ShortFpreal is the narrow hyper-parameter format: it truncates toward zero
// and keeps the low 16 bits, so out-of-range values wrap.
package fixedpoint
