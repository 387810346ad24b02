// Package testutil builds small, hand-checkable artifact sets for tests.
package testutil

import (
	"fmt"

	"github.com/companysim/cosim/internal/artifact"
	"github.com/companysim/cosim/internal/company"
)

// Companies returns four records whose reduced vectors make B the nearest
// neighbor of A, C farther, and D orthogonal to A.
func Companies() []company.Record {
	return []company.Record{
		{Name: "Acme Cloud", Description: "cloud data platform", TopLevelCategory: "Software", SecondaryCategory: "Infrastructure", EmployeeCount: "120"},
		{Name: "Beta Data", Description: "data cloud warehouse", TopLevelCategory: "Software", SecondaryCategory: "Data", EmployeeCount: "45"},
		{Name: "Cyber Shield", Description: "cloud security", TopLevelCategory: "Software", SecondaryCategory: "Security", EmployeeCount: "51-200"},
		{Name: "Delta Pay", Description: "payments processing", TopLevelCategory: "Fintech", SecondaryCategory: "Payments"},
	}
}

// Vectors are the reduced rows matching Companies.
func Vectors() [][]float64 {
	return [][]float64{
		{1, 0, 0},
		{0.9, 0.1, 0},
		{0.5, 0.5, 0},
		{0, 0, 1},
	}
}

// Documents returns a consistent artifact set over Companies and Vectors.
// The vocabulary has four terms; the reducer maps cloud and data onto the
// first axis, security onto the second and payments onto the third.
func Documents() artifact.Documents {
	records := Companies()
	vectors := Vectors()
	cols := len(vectors[0])

	data := make([]float64, 0, len(vectors)*cols)
	for _, v := range vectors {
		data = append(data, v...)
	}

	return artifact.Documents{
		Records: records,
		Vectorizer: artifact.VectorizerDoc{
			Version:    artifact.CurrentVersion,
			Vocabulary: map[string]int{"cloud": 0, "data": 1, "security": 2, "payments": 3},
			IDF:        []float64{1, 1, 1, 1},
		},
		Reducer: artifact.ReducerDoc{
			Version:     artifact.CurrentVersion,
			NComponents: cols,
			NFeatures:   4,
			Components: []float64{
				1, 1, 0, 0,
				0, 0, 1, 0,
				0, 0, 0, 1,
			},
		},
		Index: artifact.IndexDoc{
			Version:    artifact.CurrentVersion,
			Metric:     "cosine",
			Algorithm:  "brute",
			NSamples:   len(vectors),
			NFeatures:  cols,
			NNeighbors: 5,
		},
		Matrix: artifact.MatrixDoc{
			Version: artifact.CurrentVersion,
			Rows:    len(vectors),
			Cols:    cols,
			Data:    data,
		},
	}
}

// Bundle assembles Documents, panicking on error since the fixture is fixed.
func Bundle() *artifact.Bundle {
	b, err := artifact.Assemble(Documents())
	if err != nil {
		panic(fmt.Sprintf("testutil: fixture does not assemble: %v", err))
	}
	return b
}
