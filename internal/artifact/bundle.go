package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/companysim/cosim/internal/company"
	"github.com/companysim/cosim/internal/neighbors"
	"github.com/companysim/cosim/internal/reduce"
	"github.com/companysim/cosim/internal/tfidf"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Errors returned while assembling a bundle.
var (
	ErrUnsupportedVersion = errors.New("unsupported artifact version")
	ErrMisaligned         = errors.New("artifacts are not row-aligned")
	ErrMalformed          = errors.New("malformed artifact")
)

// Documents holds the decoded artifact files before validation.
type Documents struct {
	Records    []company.Record
	Vectorizer VectorizerDoc
	Reducer    ReducerDoc
	Index      IndexDoc
	Matrix     MatrixDoc
}

// Bundle is the immutable set of loaded artifacts. It is built once at
// startup and shared read-only by every lookup.
type Bundle struct {
	Records    []company.Record
	Index      *neighbors.Index
	Vectorizer *tfidf.Vectorizer
	Reducer    *reduce.SVD
	Info       Info
}

// Info summarizes a bundle for logs and `cosim info`.
type Info struct {
	Source         string        `json:"source"`
	Version        int           `json:"version"`
	Records        int           `json:"records"`
	Dimensions     int           `json:"dimensions"`
	Metric         string        `json:"metric"`
	Algorithm      string        `json:"algorithm,omitempty"`
	DefaultK       int           `json:"default_k,omitempty"`
	VocabularySize int           `json:"vocabulary_size"`
	LoadDuration   time.Duration `json:"load_duration"`
}

// Load reads every artifact from src in parallel and assembles a Bundle.
// Any missing, malformed or misaligned artifact fails the whole load.
func Load(ctx context.Context, src Source, log logrus.FieldLogger) (*Bundle, error) {
	start := time.Now()
	var docs Documents

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rc, err := open(gctx, src, RecordsFile)
		if err != nil {
			return err
		}
		defer rc.Close()

		docs.Records, err = company.Read(rc)
		if err != nil {
			return fmt.Errorf("%s: %w", RecordsFile, err)
		}
		return nil
	})
	g.Go(func() error { return decodeJSON(gctx, src, VectorizerFile, &docs.Vectorizer) })
	g.Go(func() error { return decodeJSON(gctx, src, ReducerFile, &docs.Reducer) })
	g.Go(func() error { return decodeJSON(gctx, src, IndexFile, &docs.Index) })
	g.Go(func() error { return decodeJSON(gctx, src, MatrixFile, &docs.Matrix) })

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("loading artifacts from %s: %w", src, err)
	}

	b, err := Assemble(docs)
	if err != nil {
		return nil, fmt.Errorf("loading artifacts from %s: %w", src, err)
	}
	b.Info.Source = src.String()
	b.Info.LoadDuration = time.Since(start)

	log.WithFields(logrus.Fields{
		"source":     b.Info.Source,
		"records":    b.Info.Records,
		"dimensions": b.Info.Dimensions,
		"metric":     b.Info.Metric,
		"took":       b.Info.LoadDuration,
	}).Info("artifacts loaded")

	return b, nil
}

// Assemble validates decoded documents and builds the Bundle.
func Assemble(docs Documents) (*Bundle, error) {
	for name, v := range map[string]int{
		VectorizerFile: docs.Vectorizer.Version,
		ReducerFile:    docs.Reducer.Version,
		IndexFile:      docs.Index.Version,
		MatrixFile:     docs.Matrix.Version,
	} {
		if v != CurrentVersion {
			return nil, fmt.Errorf("%w: %s has version %d, want %d", ErrUnsupportedVersion, name, v, CurrentVersion)
		}
	}

	rows, err := matrixRows(docs.Matrix)
	if err != nil {
		return nil, err
	}
	if len(docs.Records) != len(rows) {
		return nil, fmt.Errorf("%w: %d records but %d matrix rows", ErrMisaligned, len(docs.Records), len(rows))
	}
	if docs.Index.NSamples != len(rows) || docs.Index.NFeatures != docs.Matrix.Cols {
		return nil, fmt.Errorf("%w: index fitted on %d x %d, matrix is %d x %d",
			ErrMisaligned, docs.Index.NSamples, docs.Index.NFeatures, len(rows), docs.Matrix.Cols)
	}

	metric, err := neighbors.ParseMetric(docs.Index.Metric)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", IndexFile, err)
	}
	idx, err := neighbors.New(metric, rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", IndexFile, err)
	}

	vec, err := newVectorizer(docs.Vectorizer)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", VectorizerFile, err)
	}

	svd, err := reduce.NewSVD(docs.Reducer.NComponents, docs.Reducer.NFeatures, docs.Reducer.Components)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ReducerFile, err)
	}
	if svd.Components() != docs.Matrix.Cols {
		return nil, fmt.Errorf("%w: reducer outputs %d components, matrix has %d columns",
			ErrMisaligned, svd.Components(), docs.Matrix.Cols)
	}
	if svd.Features() != vec.Features() {
		return nil, fmt.Errorf("%w: reducer expects %d features, vectorizer produces %d",
			ErrMisaligned, svd.Features(), vec.Features())
	}

	return &Bundle{
		Records:    docs.Records,
		Index:      idx,
		Vectorizer: vec,
		Reducer:    svd,
		Info: Info{
			Version:        CurrentVersion,
			Records:        len(docs.Records),
			Dimensions:     docs.Matrix.Cols,
			Metric:         string(metric),
			Algorithm:      docs.Index.Algorithm,
			DefaultK:       docs.Index.NNeighbors,
			VocabularySize: len(docs.Vectorizer.Vocabulary),
		},
	}, nil
}

// matrixRows splits the row-major data into row slices sharing its backing array.
func matrixRows(m MatrixDoc) ([][]float64, error) {
	if m.Rows < 1 || m.Cols < 1 {
		return nil, fmt.Errorf("%w: %s has shape %d x %d", ErrMalformed, MatrixFile, m.Rows, m.Cols)
	}
	if len(m.Data) != m.Rows*m.Cols {
		return nil, fmt.Errorf("%w: %s has %d values, want %d x %d", ErrMalformed, MatrixFile, len(m.Data), m.Rows, m.Cols)
	}

	rows := make([][]float64, m.Rows)
	for i := range rows {
		rows[i] = m.Data[i*m.Cols : (i+1)*m.Cols : (i+1)*m.Cols]
	}
	return rows, nil
}

func newVectorizer(d VectorizerDoc) (*tfidf.Vectorizer, error) {
	lowercase := true
	if d.Lowercase != nil {
		lowercase = *d.Lowercase
	}
	norm := "l2"
	if d.Norm != nil {
		norm = *d.Norm
	}
	switch d.StripAccents {
	case tfidf.AccentsNone, tfidf.AccentsUnicode, tfidf.AccentsASCII:
	default:
		return nil, fmt.Errorf("%w: strip_accents %q", ErrMalformed, d.StripAccents)
	}

	return tfidf.New(tfidf.Params{
		Vocabulary:   d.Vocabulary,
		IDF:          d.IDF,
		Lowercase:    lowercase,
		StripAccents: d.StripAccents,
		NgramMin:     d.NgramRange[0],
		NgramMax:     d.NgramRange[1],
		StopWords:    d.StopWords,
		Norm:         norm,
		SublinearTF:  d.SublinearTF,
	})
}

// WriteDir writes docs into dir in the layout Load expects, optionally
// zstd-compressing every file. Each file is written atomically.
func WriteDir(dir string, docs Documents, compress bool) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating artifact directory: %w", err)
	}

	var records bytes.Buffer
	if err := company.Write(&records, docs.Records); err != nil {
		return err
	}
	if err := writeFile(dir, RecordsFile, records.Bytes(), compress); err != nil {
		return err
	}

	for name, doc := range map[string]any{
		VectorizerFile: docs.Vectorizer,
		ReducerFile:    docs.Reducer,
		IndexFile:      docs.Index,
		MatrixFile:     docs.Matrix,
	} {
		data, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", name, err)
		}
		if err := writeFile(dir, name, data, compress); err != nil {
			return err
		}
	}
	return nil
}
