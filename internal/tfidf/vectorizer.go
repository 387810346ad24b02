// Package tfidf turns free text into the sparse TF-IDF vectors the reducer
// was fitted on. Fitting happens upstream; this package only transforms.
package tfidf

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Errors returned by vectorizer construction.
var (
	ErrEmptyVocabulary = errors.New("vectorizer vocabulary is empty")
	ErrInvalidNgram    = errors.New("invalid n-gram range")
	ErrInvalidAccents  = errors.New("invalid accent stripping mode")
)

// Accent stripping modes.
const (
	AccentsNone    = ""
	AccentsUnicode = "unicode" // drop combining marks after NFKD
	AccentsASCII   = "ascii"   // drop every non-ASCII rune after NFKD
)

// Entry is one non-zero component of a sparse vector.
type Entry struct {
	Col    int
	Weight float64
}

// Vector is a sparse vector sorted by column.
type Vector []Entry

// Params mirrors the fitted vectorizer state written by the upstream pipeline.
type Params struct {
	Vocabulary   map[string]int
	IDF          []float64
	Lowercase    bool
	StripAccents string // one of the Accents modes
	NgramMin     int
	NgramMax     int
	StopWords    []string
	Norm         string // "l2" or "" for none
	SublinearTF  bool
}

// Vectorizer maps text to TF-IDF weighted term vectors.
type Vectorizer struct {
	vocab     map[string]int
	idf       []float64
	lowercase bool
	accents   string
	ngramMin  int
	ngramMax  int
	stopWords map[string]struct{}
	l2        bool
	sublinear bool
}

// New validates p and builds a Vectorizer.
func New(p Params) (*Vectorizer, error) {
	if len(p.Vocabulary) == 0 {
		return nil, ErrEmptyVocabulary
	}
	if p.NgramMin == 0 && p.NgramMax == 0 {
		p.NgramMin, p.NgramMax = 1, 1
	}
	if p.NgramMin < 1 || p.NgramMax < p.NgramMin {
		return nil, fmt.Errorf("%w: (%d, %d)", ErrInvalidNgram, p.NgramMin, p.NgramMax)
	}
	for term, col := range p.Vocabulary {
		if col < 0 || col >= len(p.IDF) {
			return nil, fmt.Errorf("term %q maps to column %d outside idf length %d", term, col, len(p.IDF))
		}
	}
	if _, err := accentStripper(p.StripAccents); err != nil {
		return nil, err
	}
	switch p.Norm {
	case "", "l2":
	default:
		return nil, fmt.Errorf("unsupported norm %q", p.Norm)
	}

	stop := make(map[string]struct{}, len(p.StopWords))
	for _, w := range p.StopWords {
		stop[w] = struct{}{}
	}

	return &Vectorizer{
		vocab:     p.Vocabulary,
		idf:       p.IDF,
		lowercase: p.Lowercase,
		accents:   p.StripAccents,
		ngramMin:  p.NgramMin,
		ngramMax:  p.NgramMax,
		stopWords: stop,
		l2:        p.Norm == "l2",
		sublinear: p.SublinearTF,
	}, nil
}

// Features returns the vocabulary size (the length of dense vectors).
func (v *Vectorizer) Features() int { return len(v.idf) }

// Transform converts text to a sparse TF-IDF vector. Out-of-vocabulary
// terms are dropped, so the result may be empty.
func (v *Vectorizer) Transform(text string) Vector {
	counts := make(map[int]float64)
	for _, term := range v.Terms(text) {
		if col, ok := v.vocab[term]; ok {
			counts[col]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	vec := make(Vector, 0, len(counts))
	for col, tf := range counts {
		if v.sublinear {
			tf = 1 + math.Log(tf)
		}
		vec = append(vec, Entry{Col: col, Weight: tf * v.idf[col]})
	}

	// Sorted before summing so the norm is bit-for-bit reproducible.
	sort.Slice(vec, func(i, j int) bool {
		return vec[i].Col < vec[j].Col
	})

	if v.l2 {
		var sumSquares float64
		for _, e := range vec {
			sumSquares += e.Weight * e.Weight
		}
		if sumSquares > 0 {
			length := math.Sqrt(sumSquares)
			for i := range vec {
				vec[i].Weight /= length
			}
		}
	}
	return vec
}

// Terms returns the word n-grams of text after preprocessing, tokenizing and
// stop-word removal, in document order.
func (v *Vectorizer) Terms(text string) []string {
	tokens := Tokenize(v.preprocess(text))
	if len(v.stopWords) > 0 {
		kept := tokens[:0]
		for _, tok := range tokens {
			if _, stop := v.stopWords[tok]; !stop {
				kept = append(kept, tok)
			}
		}
		tokens = kept
	}

	if v.ngramMin == 1 && v.ngramMax == 1 {
		return tokens
	}

	var terms []string
	for n := v.ngramMin; n <= v.ngramMax; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}

func (v *Vectorizer) preprocess(text string) string {
	if v.accents != AccentsNone {
		text = stripAccents(v.accents, text)
	}
	if v.lowercase {
		text = strings.ToLower(text)
	}
	return text
}

// accentStripper returns the transformer for mode, or nil for AccentsNone.
// Unicode mode turns "café" into "cafe" and keeps "ß"; ASCII mode also
// drops "ß" and any other rune without an ASCII decomposition.
func accentStripper(mode string) (transform.Transformer, error) {
	switch mode {
	case AccentsNone:
		return nil, nil
	case AccentsUnicode:
		return transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), nil
	case AccentsASCII:
		return transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
			return r > unicode.MaxASCII
		}))), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidAccents, mode)
	}
}

// stripAccents applies mode to text. Transformers are stateful, so each call
// builds its own.
func stripAccents(mode, text string) string {
	t, err := accentStripper(mode)
	if err != nil || t == nil {
		return text
	}
	out, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return out
}

// Tokenize splits text into runs of word characters (letters, digits,
// underscore) and keeps runs of at least two characters.
func Tokenize(text string) []string {
	var tokens []string
	start := -1
	runeCount := 0

	flush := func(end int) {
		if start >= 0 && runeCount >= 2 {
			tokens = append(tokens, text[start:end])
		}
		start = -1
		runeCount = 0
	}

	for i, r := range text {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			runeCount++
			continue
		}
		flush(i)
	}
	flush(len(text))

	return tokens
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}
