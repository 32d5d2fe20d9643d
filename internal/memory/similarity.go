// ABOUTME: Cosine similarity over embedding vectors
// ABOUTME: Zero-magnitude vectors yield similarity 0, never NaN

package memory

import "math"

// Cosine returns the cosine similarity of two vectors:
// (a·b) / (|a| |b|). If either vector has zero magnitude the result is 0.
// Both vectors are assumed to share the active embedding model's
// dimensionality; mixed lengths are an unchecked precondition violation.
func Cosine(a, b []float64) float64 {
	var dot, magA, magB float64
	for i := range a {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
