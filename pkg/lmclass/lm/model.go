package lm

import "math"

// DefaultBackoffDiscount is the weight applied to the unigram estimate when
// a bigram was never observed ("stupid backoff").
const DefaultBackoffDiscount = 0.4

// ClassLanguageModel holds one class's training documents and the unigram
// and bigram count tables derived from them.
//
// Count tables are rebuilt from scratch by FitUnigram and FitBigram. Adding a
// document drops the derived tables, so a model must be refit before scoring.
// Once fit, the model is read-only and safe for concurrent scoring.
type ClassLanguageModel struct {
	label     string
	documents []Document
	discount  float64

	unigramCounts      map[string]int64
	bigramCounts       map[Pair]int64
	vocabularySize     int
	totalUnigramTokens int64
}

// Option configures a ClassLanguageModel
type Option func(*ClassLanguageModel)

// WithBackoffDiscount sets the backoff discount. Values outside (0,1) are
// ignored and the default is kept.
func WithBackoffDiscount(d float64) Option {
	return func(m *ClassLanguageModel) {
		if d > 0 && d < 1 {
			m.discount = d
		}
	}
}

// NewClassLanguageModel creates an empty model for label
func NewClassLanguageModel(label string, opts ...Option) *ClassLanguageModel {
	m := &ClassLanguageModel{
		label:         label,
		discount:      DefaultBackoffDiscount,
		unigramCounts: make(map[string]int64),
		bigramCounts:  make(map[Pair]int64),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Label returns the class label
func (m *ClassLanguageModel) Label() string { return m.label }

// BackoffDiscount returns the discount used by SmoothedBigramProbability
func (m *ClassLanguageModel) BackoffDiscount() float64 { return m.discount }

// AddDocument appends doc to the training documents of this class.
func (m *ClassLanguageModel) AddDocument(doc Document) error {
	if doc.Label != m.label {
		return &LabelMismatchError{Model: m.label, Document: doc.Label}
	}
	m.documents = append(m.documents, doc)
	m.reset()
	return nil
}

func (m *ClassLanguageModel) reset() {
	m.unigramCounts = make(map[string]int64)
	m.bigramCounts = make(map[Pair]int64)
	m.vocabularySize = 0
	m.totalUnigramTokens = 0
}

// Documents returns a copy of the training documents
func (m *ClassLanguageModel) Documents() []Document {
	out := make([]Document, len(m.documents))
	copy(out, m.documents)
	return out
}

// NumDocuments returns the number of training documents
func (m *ClassLanguageModel) NumDocuments() int { return len(m.documents) }

// FitUnigram rebuilds the unigram count table from the documents
func (m *ClassLanguageModel) FitUnigram() {
	counts := make(map[string]int64)
	var total int64
	for _, doc := range m.documents {
		for _, tok := range doc.Tokens {
			counts[tok]++
			total++
		}
	}
	m.unigramCounts = counts
	m.vocabularySize = len(counts)
	m.totalUnigramTokens = total
}

// FitBigram rebuilds the bigram count table. Pairs never cross document
// boundaries.
func (m *ClassLanguageModel) FitBigram() {
	counts := make(map[Pair]int64)
	for _, doc := range m.documents {
		for i := 0; i+1 < len(doc.Tokens); i++ {
			counts[Pair{First: doc.Tokens[i], Second: doc.Tokens[i+1]}]++
		}
	}
	m.bigramCounts = counts
}

// Fit runs FitUnigram followed by FitBigram
func (m *ClassLanguageModel) Fit() {
	m.FitUnigram()
	m.FitBigram()
}

// UnigramCount returns the frequency of word in this class
func (m *ClassLanguageModel) UnigramCount(word string) int64 {
	return m.unigramCounts[word]
}

// BigramCount returns the frequency of the adjacent pair (w1, w2)
func (m *ClassLanguageModel) BigramCount(w1, w2 string) int64 {
	return m.bigramCounts[Pair{First: w1, Second: w2}]
}

// UnigramCounts returns a copy of the unigram table
func (m *ClassLanguageModel) UnigramCounts() map[string]int64 {
	out := make(map[string]int64, len(m.unigramCounts))
	for k, v := range m.unigramCounts {
		out[k] = v
	}
	return out
}

// BigramCounts returns a copy of the bigram table
func (m *ClassLanguageModel) BigramCounts() map[Pair]int64 {
	out := make(map[Pair]int64, len(m.bigramCounts))
	for k, v := range m.bigramCounts {
		out[k] = v
	}
	return out
}

// VocabularySize returns the number of distinct words seen in this class
func (m *ClassLanguageModel) VocabularySize() int { return m.vocabularySize }

// TotalUnigramTokens returns the sum of all unigram counts
func (m *ClassLanguageModel) TotalUnigramTokens() int64 { return m.totalUnigramTokens }

// UniqueBigrams returns the number of distinct bigrams
func (m *ClassLanguageModel) UniqueBigrams() int { return len(m.bigramCounts) }

// UnigramProbability returns the add-one smoothed probability of word:
//
//	(count(w) + 1) / (total + V)
//
// A model without evidence returns 1.0, the limit over an empty vocabulary.
func (m *ClassLanguageModel) UnigramProbability(word string) float64 {
	denom := float64(m.totalUnigramTokens) + float64(m.vocabularySize)
	if denom == 0 {
		return 1.0
	}
	return (float64(m.unigramCounts[word]) + 1) / denom
}

// BigramProbability returns the maximum-likelihood estimate of w2 following w1.
// The denominator floors at 1 when w1 is unseen.
func (m *ClassLanguageModel) BigramProbability(w1, w2 string) float64 {
	ctx := m.unigramCounts[w1]
	if ctx == 0 {
		ctx = 1
	}
	return float64(m.bigramCounts[Pair{First: w1, Second: w2}]) / float64(ctx)
}

// SmoothedBigramProbability returns the bigram estimate for observed pairs and
// the discounted unigram estimate of w2 otherwise.
func (m *ClassLanguageModel) SmoothedBigramProbability(w1, w2 string) float64 {
	if m.bigramCounts[Pair{First: w1, Second: w2}] > 0 {
		return m.BigramProbability(w1, w2)
	}
	return m.discount * m.UnigramProbability(w2)
}

// ScoreDocument returns the natural-log probability of doc under this class.
// Unigram mode sums over tokens, the bigram modes over adjacent pairs; a
// document with fewer than two tokens scores 0 in the bigram modes. An unseen
// pair in Bigram mode contributes log(0) = -Inf.
func (m *ClassLanguageModel) ScoreDocument(doc Document, mode Mode) (float64, error) {
	var score float64
	switch mode {
	case Unigram:
		for _, tok := range doc.Tokens {
			score += math.Log(m.UnigramProbability(tok))
		}
	case Bigram:
		for i := 0; i+1 < len(doc.Tokens); i++ {
			score += math.Log(m.BigramProbability(doc.Tokens[i], doc.Tokens[i+1]))
		}
	case Smoothed:
		for i := 0; i+1 < len(doc.Tokens); i++ {
			score += math.Log(m.SmoothedBigramProbability(doc.Tokens[i], doc.Tokens[i+1]))
		}
	default:
		return 0, &InvalidModeError{Mode: mode.String()}
	}
	return score, nil
}

// Stats summarizes a fitted model
type Stats struct {
	Label          string `json:"label"`
	Documents      int    `json:"documents"`
	Tokens         int64  `json:"tokens"`
	VocabularySize int    `json:"vocabulary_size"`
	UniqueBigrams  int    `json:"unique_bigrams"`
}

// Stats returns summary statistics about the model
func (m *ClassLanguageModel) Stats() Stats {
	return Stats{
		Label:          m.label,
		Documents:      len(m.documents),
		Tokens:         m.totalUnigramTokens,
		VocabularySize: m.vocabularySize,
		UniqueBigrams:  len(m.bigramCounts),
	}
}
