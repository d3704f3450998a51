package utils

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Lerp interpolates linearly between a and b; t is not clamped.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// LerpU8 interpolates one 8-bit color channel; t is clamped to [0,1].
func LerpU8(a, b uint8, t float64) uint8 {
	t = Clamp(t, 0, 1)
	return uint8(Lerp(float64(a), float64(b), t) + 0.5)
}
