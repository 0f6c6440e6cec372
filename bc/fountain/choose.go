package fountain

import (
	"encoding/binary"

	"bcur.dev/bc/xoshiro256"
)

// chooseDegree draws a degree in {1..n}, biased toward 1 via weights
// 1, 1/2, ..., 1/n.
func chooseDegree(n int, rng *xoshiro256.Source) int {
	weights := make([]float64, n)
	for k := range weights {
		weights[k] = 1 / float64(k+1)
	}
	table, err := newAliasTable(weights)
	if err != nil {
		// n >= 1 always holds here (chooseIndices only calls this with
		// n == seqN, which is always positive), so weights is non-empty
		// and sums to a positive value by construction.
		panic(err)
	}
	return table.sample(rng) + 1
}

// chooseIndices deterministically picks the subset of fragment indices a
// part at the given sequence number combines. For seq <= n, it returns the
// singleton {seq-1} so the encoder's cold start emits pure fragments in
// order; afterward, it seeds a fresh PRNG from the sequence number and
// checksum and draws a degree-sized subset of a shuffled permutation.
func chooseIndices(seq uint32, n int, crc uint32) []int {
	if int(seq) <= n {
		return []int{int(seq) - 1}
	}
	var seed [8]byte
	binary.BigEndian.PutUint32(seed[0:4], seq)
	binary.BigEndian.PutUint32(seed[4:8], crc)
	rng := xoshiro256.FromBytes(seed[:])
	degree := chooseDegree(n, rng)
	perm := rng.Shuffled(n)
	return perm[:degree]
}
