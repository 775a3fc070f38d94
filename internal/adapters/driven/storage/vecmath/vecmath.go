// Package vecmath holds the brute-force similarity helpers shared by the
// in-process vector stores.
package vecmath

import (
	"math"
	"sort"

	"github.com/custodia-labs/litsearch/internal/core/domain"
	"github.com/custodia-labs/litsearch/internal/core/ports/driven"
)

// Magnitude returns the L2 norm of v.
func Magnitude(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Dot returns the dot product of a and b. The shorter length wins.
func Dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// Cosine returns the cosine similarity of a and b, or 0 when either is a zero vector.
func Cosine(a, b []float32) float64 {
	ma, mb := Magnitude(a), Magnitude(b)
	if ma == 0 || mb == 0 {
		return 0
	}
	s := Dot(a, b) / (ma * mb)
	if math.IsNaN(s) {
		return 0
	}
	return s
}

// Normalise scales v to unit length in place. Zero vectors are left unchanged.
func Normalise(v []float32) {
	m := Magnitude(v)
	if m == 0 {
		return
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / m)
	}
}

// TopK sorts hits by score descending, then key ascending, and keeps the first k.
// k <= 0 keeps every hit.
func TopK(hits []driven.VectorHit, k int) []driven.VectorHit {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Key < hits[j].Key
	})
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// Hit builds a hit for key and field scored against query.
func Hit(key string, field domain.Field, query, vec []float32) driven.VectorHit {
	return driven.VectorHit{Key: key, Field: field, Score: Cosine(query, vec)}
}
