// Package similarity answers "which companies are most like this one" over a
// loaded artifact bundle.
package similarity

import (
	"errors"
	"fmt"
	"math"

	"github.com/companysim/cosim/internal/artifact"
	"github.com/companysim/cosim/internal/company"
	"github.com/companysim/cosim/internal/neighbors"
	"github.com/sirupsen/logrus"
)

// Errors returned by lookups. Callers branch on them with errors.Is.
var (
	ErrCompanyNotFound = errors.New("company not found")
	ErrTopNOutOfRange  = errors.New("number of results out of range")
	ErrEmptyQuery      = errors.New("query text has no known terms")
)

// Match is one lookup result: the matched company, its similarity score in
// [0, 1], and the raw index distance it was derived from.
type Match struct {
	company.Record
	Score    float64 `json:"score"`
	Distance float64 `json:"distance"`
}

// Service runs lookups against one immutable bundle. It is safe for
// concurrent use.
type Service struct {
	bundle *artifact.Bundle
	byName map[string]int
	names  []string
	log    logrus.FieldLogger
}

// NewService indexes the bundle's records by name. When names repeat, the
// first record in table order wins.
func NewService(b *artifact.Bundle, log logrus.FieldLogger) *Service {
	byName := make(map[string]int, len(b.Records))
	dupes := 0
	for i, r := range b.Records {
		if _, ok := byName[r.Name]; ok {
			dupes++
			continue
		}
		byName[r.Name] = i
	}
	if dupes > 0 {
		log.WithField("duplicates", dupes).Warn("duplicate company names; lookups use the first occurrence")
	}

	return &Service{
		bundle: b,
		byName: byName,
		names:  company.UniqueNames(b.Records),
		log:    log,
	}
}

// Len returns the number of records, the upper bound for topN.
func (s *Service) Len() int { return len(s.bundle.Records) }

// Metric returns the distance metric of the underlying index.
func (s *Service) Metric() neighbors.Metric { return s.bundle.Index.Metric() }

// Info returns the bundle summary.
func (s *Service) Info() artifact.Info { return s.bundle.Info }

// Records returns every record in table order.
// The returned slice must not be modified.
func (s *Service) Records() []company.Record { return s.bundle.Records }

// Companies returns the unique company names in table order.
// The returned slice must not be modified.
func (s *Service) Companies() []string { return s.names }

// Lookup returns the record for name.
func (s *Service) Lookup(name string) (company.Record, bool) {
	i, ok := s.byName[name]
	if !ok {
		return company.Record{}, false
	}
	return s.bundle.Records[i], true
}

// FindSimilar returns the topN companies nearest to name, nearest first.
// The company itself counts towards topN and is normally the first match
// with a score of 1.
func (s *Service) FindSimilar(name string, topN int) ([]Match, error) {
	row, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCompanyNotFound, name)
	}
	if err := s.checkTopN(topN); err != nil {
		return nil, err
	}

	matches, err := s.nearest(s.bundle.Index.Row(row), topN)
	if err != nil {
		return nil, fmt.Errorf("finding companies similar to %q: %w", name, err)
	}

	s.log.WithFields(logrus.Fields{"company": name, "top_n": topN}).Debug("similar companies")
	return matches, nil
}

// QueryText vectorizes free text with the fitted vectorizer, projects it
// with the reducer and returns the topN nearest companies.
func (s *Service) QueryText(text string, topN int) ([]Match, error) {
	if err := s.checkTopN(topN); err != nil {
		return nil, err
	}

	sparse := s.bundle.Vectorizer.Transform(text)
	if len(sparse) == 0 {
		return nil, ErrEmptyQuery
	}
	query, err := s.bundle.Reducer.Transform(sparse)
	if err != nil {
		return nil, fmt.Errorf("reducing query: %w", err)
	}

	matches, err := s.nearest(query, topN)
	if err != nil {
		return nil, fmt.Errorf("querying text: %w", err)
	}

	s.log.WithFields(logrus.Fields{"terms": len(sparse), "top_n": topN}).Debug("text query")
	return matches, nil
}

func (s *Service) checkTopN(topN int) error {
	if topN < 1 || topN > s.Len() {
		return fmt.Errorf("%w: %d (must be between 1 and %d)", ErrTopNOutOfRange, topN, s.Len())
	}
	return nil
}

func (s *Service) nearest(query []float64, topN int) ([]Match, error) {
	hits, err := s.bundle.Index.KNeighbors(query, topN)
	if err != nil {
		return nil, err
	}

	metric := s.bundle.Index.Metric()
	matches := make([]Match, len(hits))
	for i, h := range hits {
		matches[i] = Match{
			Record:   s.bundle.Records[h.Row],
			Score:    Score(metric, h.Distance),
			Distance: h.Distance,
		}
	}
	return matches, nil
}

// Score converts an index distance to a similarity in [0, 1].
// Cosine distances score 1 - d, clamped to [0, 1]. Euclidean and manhattan
// distances are unbounded, so they score 1 / (1 + d) and not 1 - d; their
// scores are comparable within one metric only.
func Score(metric neighbors.Metric, distance float64) float64 {
	if metric.Bounded() {
		return math.Min(math.Max(1-distance, 0), 1)
	}
	return 1 / (1 + math.Max(distance, 0))
}
