package lm

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/lmclass/pkg/lmclass/internalerr"
)

func fitted(t *testing.T, label string, texts ...string) *ClassLanguageModel {
	t.Helper()
	m := NewClassLanguageModel(label)
	for _, text := range texts {
		require.NoError(t, m.AddDocument(NewDocument(label, strings.Fields(text))))
	}
	m.FitUnigram()
	m.FitBigram()
	return m
}

func TestFitUnigramCounts(t *testing.T) {
	m := fitted(t, "A", "the cat sat")

	assert.Equal(t, map[string]int64{"the": 1, "cat": 1, "sat": 1}, m.UnigramCounts())
	assert.Equal(t, int64(3), m.TotalUnigramTokens())
	assert.Equal(t, 3, m.VocabularySize())
}

func TestFitUnigramTotalsMatchTable(t *testing.T) {
	m := fitted(t, "A", "a b a c", "b b d", "")

	var sum int64
	for _, c := range m.UnigramCounts() {
		sum += c
	}
	assert.Equal(t, sum, m.TotalUnigramTokens())
	assert.Equal(t, len(m.UnigramCounts()), m.VocabularySize())
	assert.Equal(t, int64(3), m.UnigramCount("b"))
}

func TestFitIsIdempotent(t *testing.T) {
	m := fitted(t, "A", "a b a b", "b a")
	uni := m.UnigramCounts()
	bi := m.BigramCounts()

	m.FitUnigram()
	m.FitBigram()
	m.FitUnigram()
	m.FitBigram()

	assert.Equal(t, uni, m.UnigramCounts())
	assert.Equal(t, bi, m.BigramCounts())
	assert.Equal(t, int64(6), m.TotalUnigramTokens())
}

func TestBigramsStayInsideDocuments(t *testing.T) {
	m := fitted(t, "A", "a b", "c d")

	assert.Equal(t, int64(1), m.BigramCount("a", "b"))
	assert.Equal(t, int64(1), m.BigramCount("c", "d"))
	assert.Zero(t, m.BigramCount("b", "c"), "pair across a document boundary must not be counted")
	assert.Equal(t, 2, m.UniqueBigrams())
}

func TestBigramOrderMatters(t *testing.T) {
	m := fitted(t, "A", "x y")

	assert.Equal(t, int64(1), m.BigramCount("x", "y"))
	assert.Zero(t, m.BigramCount("y", "x"))
}

func TestUnigramProbabilityNeverZero(t *testing.T) {
	m := fitted(t, "A", "the cat sat")

	assert.InDelta(t, 2.0/6.0, m.UnigramProbability("cat"), 1e-12)
	unseen := m.UnigramProbability("zebra")
	assert.Greater(t, unseen, 0.0)
	assert.InDelta(t, 1.0/6.0, unseen, 1e-12)
}

func TestBigramProbabilityMLE(t *testing.T) {
	m := fitted(t, "A", "the cat sat", "the cat ran", "the dog")

	// the occurs 3 times, (the, cat) twice
	assert.InDelta(t, 2.0/3.0, m.BigramProbability("the", "cat"), 1e-12)
	assert.InDelta(t, 1.0/3.0, m.BigramProbability("the", "dog"), 1e-12)
	assert.Zero(t, m.BigramProbability("cat", "the"))
	// unseen conditioning word floors the denominator at 1
	assert.Zero(t, m.BigramProbability("zebra", "cat"))
}

func TestSmoothedBigramProbability(t *testing.T) {
	m := fitted(t, "A", "the cat sat", "the cat ran")

	assert.Equal(t, m.BigramProbability("the", "cat"), m.SmoothedBigramProbability("the", "cat"))
	assert.InDelta(t, DefaultBackoffDiscount*m.UnigramProbability("the"),
		m.SmoothedBigramProbability("sat", "the"), 1e-12)
	assert.InDelta(t, DefaultBackoffDiscount*m.UnigramProbability("zebra"),
		m.SmoothedBigramProbability("zebra", "zebra"), 1e-12)
}

func TestWithBackoffDiscount(t *testing.T) {
	m := NewClassLanguageModel("A", WithBackoffDiscount(0.25))
	assert.Equal(t, 0.25, m.BackoffDiscount())

	for _, bad := range []float64{0, 1, -0.5, 2} {
		m := NewClassLanguageModel("A", WithBackoffDiscount(bad))
		assert.Equal(t, DefaultBackoffDiscount, m.BackoffDiscount(), "discount %v should be ignored", bad)
	}
}

func TestScoreDocumentUnigram(t *testing.T) {
	m := fitted(t, "A", "the cat sat")

	score, err := m.ScoreDocument(NewDocument("", []string{"the", "cat", "sat"}), Unigram)
	require.NoError(t, err)
	assert.InDelta(t, 3*math.Log(2.0/6.0), score, 1e-12)
}

func TestScoreDocumentBigramModes(t *testing.T) {
	m := fitted(t, "A", "the cat sat")
	doc := NewDocument("", []string{"the", "cat", "ran"})

	bigram, err := m.ScoreDocument(doc, Bigram)
	require.NoError(t, err)
	assert.True(t, math.IsInf(bigram, -1), "unseen bigram under MLE gives log(0)")

	smoothed, err := m.ScoreDocument(doc, Smoothed)
	require.NoError(t, err)
	want := math.Log(1.0) + math.Log(DefaultBackoffDiscount*m.UnigramProbability("ran"))
	assert.InDelta(t, want, smoothed, 1e-12)
}

func TestScoreDocumentShortDocuments(t *testing.T) {
	m := fitted(t, "A", "the cat sat")

	for _, tokens := range [][]string{nil, {}, {"cat"}} {
		for _, mode := range []Mode{Bigram, Smoothed} {
			score, err := m.ScoreDocument(NewDocument("", tokens), mode)
			require.NoError(t, err)
			assert.Zero(t, score, "tokens=%v mode=%s", tokens, mode)
		}
	}
}

func TestScoreDocumentInvalidMode(t *testing.T) {
	m := fitted(t, "A", "the cat sat")

	_, err := m.ScoreDocument(NewDocument("", []string{"the"}), Mode(0))
	var modeErr *InvalidModeError
	require.ErrorAs(t, err, &modeErr)
	assert.True(t, errors.Is(err, internalerr.ErrInvalidInput))
}

func TestEmptyModel(t *testing.T) {
	m := NewClassLanguageModel("A")
	m.FitUnigram()
	m.FitBigram()

	assert.Zero(t, m.VocabularySize())
	assert.Zero(t, m.TotalUnigramTokens())
	assert.Equal(t, 1.0, m.UnigramProbability("anything"))
	assert.Zero(t, m.BigramProbability("a", "b"))
	assert.Equal(t, DefaultBackoffDiscount, m.SmoothedBigramProbability("a", "b"))

	score, err := m.ScoreDocument(NewDocument("", []string{"a", "b"}), Unigram)
	require.NoError(t, err)
	assert.Zero(t, score)
}

func TestAddDocumentLabelMismatch(t *testing.T) {
	m := NewClassLanguageModel("A")

	err := m.AddDocument(NewDocument("B", []string{"x"}))
	var mismatch *LabelMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "A", mismatch.Model)
	assert.Equal(t, "B", mismatch.Document)
	assert.ErrorIs(t, err, internalerr.ErrInvalidInput)
	assert.Zero(t, m.NumDocuments())
}

func TestAddDocumentDropsDerivedTables(t *testing.T) {
	m := fitted(t, "A", "a b")
	require.NoError(t, m.AddDocument(NewDocument("A", []string{"c"})))

	assert.Zero(t, m.VocabularySize())
	assert.Zero(t, m.BigramCount("a", "b"))

	m.Fit()
	assert.Equal(t, 3, m.VocabularySize())
	assert.Equal(t, int64(1), m.BigramCount("a", "b"))
}

func TestNewDocumentCopiesTokens(t *testing.T) {
	tokens := []string{"a", "b"}
	doc := NewDocument("A", tokens)
	tokens[0] = "z"

	assert.Equal(t, []string{"a", "b"}, doc.Tokens)
}

func TestStats(t *testing.T) {
	m := fitted(t, "A", "a b c", "a b")

	assert.Equal(t, Stats{Label: "A", Documents: 2, Tokens: 5, VocabularySize: 3, UniqueBigrams: 2}, m.Stats())
}

func TestBigramCountsKeyedByPair(t *testing.T) {
	m := fitted(t, "A", "a b a b")

	counts := m.BigramCounts()
	assert.Equal(t, int64(2), counts[Pair{First: "a", Second: "b"}])
	assert.Equal(t, int64(1), counts[Pair{First: "b", Second: "a"}])
	assert.Zero(t, counts[Pair{First: "b", Second: "b"}])

	score, err := m.ScoreDocument(NewDocument("", []string{"a", "b"}), Bigram)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, score, 1e-12)
}
