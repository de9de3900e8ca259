package database

import "math"

// CosineDistance returns the cosine distance between two face embeddings,
// in [0, 2] where 0 means identical direction. Mismatched lengths, empty
// input and zero vectors all report the maximum distance so callers never
// treat a degenerate embedding as a match.
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 2.0
	}

	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 2.0
	}

	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	// Clamp against floating point drift.
	sim = math.Max(-1, math.Min(1, sim))

	return 1 - sim
}
