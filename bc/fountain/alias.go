package fountain

import (
	"errors"

	"bcur.dev/bc/xoshiro256"
)

// aliasTable implements Vose's alias method for O(1) weighted sampling:
// given n non-negative weights summing to a positive value, it samples an
// index in [0, n) with probability proportional to its weight using
// exactly two uniform draws.
type aliasTable struct {
	prob  []float64
	alias []int
}

func newAliasTable(weights []float64) (*aliasTable, error) {
	n := len(weights)
	if n == 0 {
		return nil, errors.New("fountain: empty weight list")
	}
	w := make([]float64, n)
	var sum float64
	for i, p := range weights {
		if p < 0 {
			return nil, errors.New("fountain: negative weight")
		}
		w[i] = p
		sum += p
	}
	if sum <= 0 {
		return nil, errors.New("fountain: weights sum to zero")
	}
	for i := range w {
		w[i] *= float64(n) / sum
	}

	var small, large []int
	for j := n - 1; j >= 0; j-- {
		if w[j] < 1 {
			small = append(small, j)
		} else {
			large = append(large, j)
		}
	}

	prob := make([]float64, n)
	alias := make([]int, n)
	for len(small) > 0 && len(large) > 0 {
		a := small[len(small)-1]
		small = small[:len(small)-1]
		g := large[len(large)-1]
		large = large[:len(large)-1]

		prob[a] = w[a]
		alias[a] = g
		w[g] += w[a] - 1
		if w[g] < 1 {
			small = append(small, g)
		} else {
			large = append(large, g)
		}
	}
	for len(large) > 0 {
		g := large[len(large)-1]
		large = large[:len(large)-1]
		prob[g] = 1
	}
	for len(small) > 0 {
		a := small[len(small)-1]
		small = small[:len(small)-1]
		prob[a] = 1
	}

	return &aliasTable{prob: prob, alias: alias}, nil
}

func (t *aliasTable) sample(rng *xoshiro256.Source) int {
	r1 := rng.Float64()
	r2 := rng.Float64()
	i := int(float64(len(t.prob)) * r1)
	if r2 < t.prob[i] {
		return i
	}
	return t.alias[i]
}
