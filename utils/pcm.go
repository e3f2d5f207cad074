// SPDX-License-Identifier: EPL-2.0

package utils

// pcmScale returns the positive full-scale value for a signed bit depth.
// Unknown depths are treated as 16-bit.
func pcmScale(bitDepth int) float64 {
	switch bitDepth {
	case 8:
		return 128
	case 24:
		return 8388608
	case 32:
		return 2147483648
	default:
		return 32768
	}
}

// ToPCM converts a sample in [-1, 1] to a signed integer of bitDepth bits.
// Out of range input is clamped; the positive side tops out one step below
// full scale so it does not overflow.
func ToPCM(x float64, bitDepth int) int {
	x = min(max(x, -1), 1)
	scale := pcmScale(bitDepth)
	return int(x * (scale - 1))
}

// FromPCM converts a signed integer sample of bitDepth bits to [-1, 1).
func FromPCM(v int, bitDepth int) float32 {
	return float32(float64(v) / pcmScale(bitDepth))
}
