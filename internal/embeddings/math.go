package embeddings

import "math"

// Cosine returns the cosine similarity of two vectors. It is total: a
// zero-norm or empty input yields 0 rather than NaN.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		fa := float64(a[i])
		fb := float64(b[i])
		dot += fa * fb
		na += fa * fa
		nb += fb * fb
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// meanPool averages token embeddings, excluding padding positions via the
// attention mask. A fully masked row averages over a tiny epsilon count to
// avoid dividing by zero.
func meanPool(row []float32, mask []int64, hiddenSize int) []float32 {
	vec := make([]float32, hiddenSize)
	var count float64
	for pos := range mask {
		if mask[pos] == 0 {
			continue
		}
		count++
		base := pos * hiddenSize
		for d := 0; d < hiddenSize; d++ {
			vec[d] += row[base+d]
		}
	}
	if count == 0 {
		count = 1e-9
	}
	inv := float32(1 / count)
	for d := range vec {
		vec[d] *= inv
	}
	return vec
}

// l2Normalize scales the vector to unit length in place. Zero vectors are
// left untouched.
func l2Normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range vec {
		vec[i] *= inv
	}
}
