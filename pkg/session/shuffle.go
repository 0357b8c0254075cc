package session

import (
	"math/rand"
)

// shuffleIndices produces a uniformly random permutation of [0, n) using
// Fisher-Yates. A fresh permutation is drawn whenever the pool changes,
// the user requests a shuffle, or the draw pointer runs past the end of
// the current permutation.
func shuffleIndices(rng *rand.Rand, n int) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm
}
