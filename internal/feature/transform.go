// Package feature builds fixed-width numeric feature vectors from labeled
// reviews: a capped-vocabulary TF-IDF block over the review text followed
// by standardized numeric columns. A Transform is fit once on a reference
// corpus and reused unmodified for every later application; re-fitting is
// an explicit call that produces a new Transform.
package feature

import (
	"math"
	"sort"
	"sync"

	"github.com/rotisserie/eris"
)

// ErrEmptyCorpus is returned when Fit is called with no documents.
var ErrEmptyCorpus = eris.New("feature: fit on empty corpus")

// numericColumns is the width of the numeric block appended after the
// text block: stars, extreme_sentiment, poor_quality. Order is fixed.
const numericColumns = 3

// Config holds vectorizer settings.
type Config struct {
	VocabSize int `yaml:"vocab_size" mapstructure:"vocab_size"`
}

// DefaultConfig returns the standard feature settings.
func DefaultConfig() Config {
	return Config{VocabSize: 1000}
}

// Row is one input row for fitting or applying a Transform.
type Row struct {
	Text             string
	Stars            int
	ExtremeSentiment bool
	PoorQuality      bool
}

// Transform holds the fitted vectorizer vocabulary and numeric scalers.
// It is immutable after Fit; concurrent Apply calls are safe.
type Transform struct {
	Vocabulary []string       `msgpack:"vocabulary"` // column order of the text block
	IDF        []float64      `msgpack:"idf"`        // parallel to Vocabulary
	Scalers    []columnScaler `msgpack:"scalers"`    // stars, extreme_sentiment, poor_quality

	indexOnce sync.Once
	index     map[string]int // term -> column, built lazily after load
}

// Fit learns a Transform from the corpus: the top VocabSize terms by
// document frequency (ties broken lexicographically) with their IDF
// values, and mean/stddev for each numeric column.
func Fit(rows []Row, cfg Config) (*Transform, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyCorpus
	}
	if cfg.VocabSize <= 0 {
		return nil, eris.Errorf("feature: vocab size must be positive (got %d)", cfg.VocabSize)
	}

	// Document frequency per term.
	df := make(map[string]int)
	for _, row := range rows {
		seen := make(map[string]struct{})
		for _, tok := range Tokenize(row.Text) {
			seen[tok] = struct{}{}
		}
		for tok := range seen {
			df[tok]++
		}
	}

	terms := make([]string, 0, len(df))
	for t := range df {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if df[terms[i]] != df[terms[j]] {
			return df[terms[i]] > df[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > cfg.VocabSize {
		terms = terms[:cfg.VocabSize]
	}

	n := float64(len(rows))
	idf := make([]float64, len(terms))
	index := make(map[string]int, len(terms))
	for i, t := range terms {
		// Smoothed IDF keeps weights positive for terms present in
		// every document.
		idf[i] = math.Log(n/float64(df[t])) + 1
		index[t] = i
	}

	// Numeric column statistics.
	scalers := make([]columnScaler, numericColumns)
	cols := make([][]float64, numericColumns)
	for i := range cols {
		cols[i] = make([]float64, len(rows))
	}
	for i, row := range rows {
		cols[0][i] = float64(row.Stars)
		cols[1][i] = boolToFloat(row.ExtremeSentiment)
		cols[2][i] = boolToFloat(row.PoorQuality)
	}
	for i := range scalers {
		scalers[i] = fitScaler(cols[i])
	}

	tr := &Transform{
		Vocabulary: terms,
		IDF:        idf,
		Scalers:    scalers,
	}
	tr.indexOnce.Do(func() { tr.index = index })
	return tr, nil
}

// Width returns the feature-vector width produced by this transform.
func (t *Transform) Width() int {
	return len(t.Vocabulary) + numericColumns
}

// Apply vectorizes rows using the fitted vocabulary and scalers. The
// output is [text block | stars | extreme_sentiment | poor_quality],
// stable across calls: identical input yields identical output.
func (t *Transform) Apply(rows []Row) ([][]float64, error) {
	if len(t.Vocabulary) != len(t.IDF) || len(t.Scalers) != numericColumns {
		return nil, eris.New("feature: transform is not fitted")
	}

	matrix := make([][]float64, len(rows))
	for i, row := range rows {
		vec := make([]float64, t.Width())

		tokens := Tokenize(row.Text)
		if len(tokens) > 0 {
			counts := make(map[int]int)
			for _, tok := range tokens {
				if col, ok := t.termIndex(tok); ok {
					counts[col]++
				}
			}
			total := float64(len(tokens))
			for col, c := range counts {
				vec[col] = float64(c) / total * t.IDF[col]
			}
		}

		base := len(t.Vocabulary)
		vec[base] = t.Scalers[0].apply(float64(row.Stars))
		vec[base+1] = t.Scalers[1].apply(boolToFloat(row.ExtremeSentiment))
		vec[base+2] = t.Scalers[2].apply(boolToFloat(row.PoorQuality))

		matrix[i] = vec
	}
	return matrix, nil
}

// termIndex resolves a term to its column. The lookup map is rebuilt at
// most once when the transform was deserialized, so concurrent Apply
// calls remain safe.
func (t *Transform) termIndex(term string) (int, bool) {
	t.indexOnce.Do(func() {
		t.index = make(map[string]int, len(t.Vocabulary))
		for i, v := range t.Vocabulary {
			t.index[v] = i
		}
	})
	col, ok := t.index[term]
	return col, ok
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
