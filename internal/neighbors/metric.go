package neighbors

import (
	"fmt"
	"math"
	"strings"
)

// Metric names the distance function an index was built with.
type Metric string

// Supported metrics. Names follow the upstream pipeline's spelling.
const (
	Cosine    Metric = "cosine"
	Euclidean Metric = "euclidean"
	Manhattan Metric = "manhattan"
)

// ParseMetric converts a metric name to a Metric. The empty string means cosine.
func ParseMetric(name string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "cosine":
		return Cosine, nil
	case "euclidean", "l2":
		return Euclidean, nil
	case "manhattan", "l1", "cityblock":
		return Manhattan, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMetric, name)
	}
}

// Bounded reports whether distances under m never exceed a fixed maximum.
func (m Metric) Bounded() bool {
	return m == Cosine
}

// Distance computes the distance between a and b.
// Both vectors must have the same length.
func (m Metric) Distance(a, b []float64) float64 {
	switch m {
	case Euclidean:
		return euclidean(a, b)
	case Manhattan:
		return manhattan(a, b)
	default:
		return CosineDistance(a, b)
	}
}

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns a value between -1 and 1, or 0 when either vector has zero norm.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	denominator := math.Sqrt(normA) * math.Sqrt(normB)
	if denominator == 0 {
		return 0
	}

	return dot / denominator
}

// CosineDistance is 1 - cosine similarity, clipped to [0, 2].
func CosineDistance(a, b []float64) float64 {
	d := 1 - CosineSimilarity(a, b)
	return math.Min(math.Max(d, 0), 2)
}

func euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

func manhattan(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += math.Abs(a[i] - b[i])
	}
	return sum
}
