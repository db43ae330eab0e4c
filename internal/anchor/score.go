package anchor

// tokenOverlap is the fuzzy similarity backbone: shared normalized words
// divided by the union of words. Order-insensitive, tolerant of the
// paraphrasing and reflow the semantic chunker introduces.
func tokenOverlap(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	setA := make(map[string]struct{}, len(a))
	for _, t := range a {
		setA[t] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, t := range b {
		setB[t] = struct{}{}
	}

	shared := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			shared++
		}
	}

	union := len(setA) + len(setB) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

// lengthPenalty discourages runs much longer or shorter than the chunk:
// the ratio of the smaller token count to the larger, 1.0 for equal sizes.
func lengthPenalty(a, b int) float64 {
	if a == 0 && b == 0 {
		return 1
	}
	if a == 0 || b == 0 {
		return 0
	}
	if a > b {
		a, b = b, a
	}
	return float64(a) / float64(b)
}

// scoreTokens combines token overlap with the length-ratio penalty into a
// similarity score in [0,1]. Identical texts score 1.0.
func scoreTokens(chunkTokens, runTokens []string) float64 {
	return tokenOverlap(chunkTokens, runTokens) * lengthPenalty(len(chunkTokens), len(runTokens))
}
