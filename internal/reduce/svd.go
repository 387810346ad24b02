// Package reduce projects sparse TF-IDF vectors into the reduced feature
// space using the component matrix of an upstream truncated SVD.
package reduce

import (
	"errors"
	"fmt"

	"github.com/companysim/cosim/internal/tfidf"
	"gonum.org/v1/gonum/mat"
)

// ErrShape is returned when the component data does not match the declared shape.
var ErrShape = errors.New("component matrix has wrong shape")

// SVD holds the fitted components (n_components x n_features).
type SVD struct {
	components *mat.Dense
}

// NewSVD builds a reducer from row-major component data.
func NewSVD(nComponents, nFeatures int, data []float64) (*SVD, error) {
	if nComponents < 1 || nFeatures < 1 {
		return nil, fmt.Errorf("%w: %d x %d", ErrShape, nComponents, nFeatures)
	}
	if len(data) != nComponents*nFeatures {
		return nil, fmt.Errorf("%w: have %d values, want %d x %d", ErrShape, len(data), nComponents, nFeatures)
	}
	return &SVD{components: mat.NewDense(nComponents, nFeatures, data)}, nil
}

// Components returns the output dimensionality.
func (s *SVD) Components() int {
	r, _ := s.components.Dims()
	return r
}

// Features returns the expected input dimensionality.
func (s *SVD) Features() int {
	_, c := s.components.Dims()
	return c
}

// Transform projects a sparse vector: out = components * x.
func (s *SVD) Transform(x tfidf.Vector) ([]float64, error) {
	nComp, nFeat := s.components.Dims()

	dense := mat.NewVecDense(nFeat, nil)
	for _, e := range x {
		if e.Col < 0 || e.Col >= nFeat {
			return nil, fmt.Errorf("feature %d outside reducer input size %d", e.Col, nFeat)
		}
		dense.SetVec(e.Col, e.Weight)
	}

	out := mat.NewVecDense(nComp, nil)
	out.MulVec(s.components, dense)
	return out.RawVector().Data, nil
}
