package textutil

// CosineSimilarity scores two fingerprints in [0, 1]. Nil or empty
// fingerprints score 0.
func CosineSimilarity(a, b *Fingerprint) float64 {
	if a == nil || b == nil || a.norm == 0 || b.norm == 0 {
		return 0
	}
	small, large := a.tokens, b.tokens
	if len(small) > len(large) {
		small, large = large, small
	}
	var dot float64
	for token, weight := range small {
		dot += weight * large[token]
	}
	if dot == 0 {
		return 0
	}
	return dot / (a.norm * b.norm)
}
