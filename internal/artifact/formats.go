// Package artifact loads the precomputed similarity artifacts (records table,
// vectorizer, reducer, neighbor index and reduced matrix) into an immutable
// Bundle.
package artifact

// Artifact file names inside a source.
const (
	RecordsFile    = "companies.jsonl"
	VectorizerFile = "vectorizer.json"
	ReducerFile    = "reducer.json"
	IndexFile      = "neighbors.json"
	MatrixFile     = "reduced.json"
)

// CurrentVersion is the artifact format version this build reads.
// Increment this when making breaking changes to any document below.
const CurrentVersion = 1

// MatrixDoc is the reduced feature matrix in row-major order.
type MatrixDoc struct {
	Version int       `json:"version"`
	Rows    int       `json:"rows"`
	Cols    int       `json:"cols"`
	Data    []float64 `json:"data"`
}

// IndexDoc describes the neighbor index fitted over the reduced matrix.
// The index is exact, so only its parameters are stored; it is rebuilt over
// the matrix rows at load.
type IndexDoc struct {
	Version    int    `json:"version"`
	Metric     string `json:"metric"`
	Algorithm  string `json:"algorithm,omitempty"`
	NSamples   int    `json:"n_samples"`
	NFeatures  int    `json:"n_features"`
	NNeighbors int    `json:"n_neighbors,omitempty"`
}

// VectorizerDoc is the fitted TF-IDF vectorizer state.
type VectorizerDoc struct {
	Version      int            `json:"version"`
	Vocabulary   map[string]int `json:"vocabulary"`
	IDF          []float64      `json:"idf"`
	Lowercase    *bool          `json:"lowercase,omitempty"`     // default true
	StripAccents string         `json:"strip_accents,omitempty"` // "unicode", "ascii" or ""
	NgramRange   [2]int         `json:"ngram_range,omitempty"`
	StopWords    []string       `json:"stop_words,omitempty"`
	Norm         *string        `json:"norm,omitempty"` // default "l2"
	SublinearTF  bool           `json:"sublinear_tf,omitempty"`
}

// ReducerDoc is the fitted truncated SVD in row-major order
// (n_components x n_features).
type ReducerDoc struct {
	Version     int       `json:"version"`
	NComponents int       `json:"n_components"`
	NFeatures   int       `json:"n_features"`
	Components  []float64 `json:"components"`
}
