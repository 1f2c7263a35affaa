// Package distance scores how far apart two bigram tables are.
package distance

import (
	"math"

	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/analysis/frequency"
)

// Func scores the dissimilarity of two tables of the same size.
type Func func(a, b frequency.Table) float64

// L1 returns the sum of absolute cell differences. For two normalized
// tables it lies in [0, 2] and is twice the total variation distance.
// Both tables must have the same size.
func L1(a, b frequency.Table) float64 {
	n := a.Size()
	var sum float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			sum += math.Abs(a.At(i, j) - b.At(i, j))
		}
	}
	return sum
}
