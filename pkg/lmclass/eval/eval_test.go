package eval

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cognicore/lmclass/pkg/lmclass/classify"
	"github.com/cognicore/lmclass/pkg/lmclass/corpus"
	"github.com/cognicore/lmclass/pkg/lmclass/internalerr"
	"github.com/cognicore/lmclass/pkg/lmclass/lm"
)

func doc(label, text string) lm.Document {
	return lm.NewDocument(label, strings.Fields(text))
}

func newEvaluator(t *testing.T, opts ...Option) *Evaluator {
	t.Helper()
	c, err := corpus.Train([]lm.Document{
		doc("A", "the cat sat on the mat"),
		doc("B", "the dog ran in the park"),
	})
	require.NoError(t, err)
	return New(classify.New(c), opts...)
}

func TestEvaluateContingency(t *testing.T) {
	e := newEvaluator(t)

	res, err := e.Evaluate(context.Background(), []lm.Document{
		doc("A", "cat sat mat"),
		doc("A", "dog ran park"),
		doc("B", "dog park"),
	}, lm.Unigram)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, res.Labels)
	assert.Equal(t, 1, res.Count("A", "A"))
	assert.Equal(t, 1, res.Count("A", "B"))
	assert.Equal(t, 1, res.Count("B", "B"))
	assert.Equal(t, 0, res.Count("B", "A"))
	assert.Equal(t, 2, res.Correct)
	assert.Equal(t, 3, res.Total)
	assert.InDelta(t, 2.0/3.0, res.Accuracy, 1e-12)
	assert.Equal(t, lm.Unigram, res.Mode)
}

func TestEvaluatePredictedOnlyLabel(t *testing.T) {
	e := newEvaluator(t)

	// Only A appears as a true label; B appears only as a prediction.
	res, err := e.Evaluate(context.Background(), []lm.Document{
		doc("A", "dog ran park"),
	}, lm.Unigram)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, res.Labels)
	assert.Equal(t, 1, res.Count("A", "B"))
	require.Contains(t, res.Contingency["A"], "A")
	assert.Equal(t, 0, res.Contingency["A"]["A"])
	require.Contains(t, res.Contingency, "B")
	assert.Equal(t, 0, res.Contingency["B"]["A"])
	assert.Zero(t, res.Accuracy)
}

func TestEvaluateUnknownTrueLabel(t *testing.T) {
	e := newEvaluator(t)

	res, err := e.Evaluate(context.Background(), []lm.Document{
		doc("C", "cat sat"),
	}, lm.Smoothed)
	require.NoError(t, err)

	assert.Equal(t, []string{"C", "A"}, res.Labels)
	assert.Equal(t, 1, res.Count("C", "A"))
	assert.Zero(t, res.Correct)
}

func TestEvaluateEmptyTestSet(t *testing.T) {
	e := newEvaluator(t)

	_, err := e.Evaluate(context.Background(), nil, lm.Unigram)
	assert.ErrorIs(t, err, ErrEmptyTestSet)
	assert.ErrorIs(t, err, internalerr.ErrInvalidInput)
}

func TestEvaluateInvalidMode(t *testing.T) {
	e := newEvaluator(t)

	_, err := e.Evaluate(context.Background(), []lm.Document{doc("A", "x")}, lm.Mode(0))
	var modeErr *lm.InvalidModeError
	assert.ErrorAs(t, err, &modeErr)
}

func TestEvaluateCancelled(t *testing.T) {
	e := newEvaluator(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Evaluate(ctx, []lm.Document{doc("A", "x")}, lm.Unigram)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvaluateEmptyTokenDocuments(t *testing.T) {
	e := newEvaluator(t)

	res, err := e.Evaluate(context.Background(), []lm.Document{
		lm.NewDocument("A", nil),
		lm.NewDocument("B", nil),
	}, lm.Bigram)
	require.NoError(t, err)

	// every class ties at log-probability 0, so the first class wins
	assert.Equal(t, 1, res.Count("A", "A"))
	assert.Equal(t, 1, res.Count("B", "A"))
}

func TestPrecisionRecall(t *testing.T) {
	res := Result{
		Labels: []string{"A", "B"},
		Contingency: map[string]map[string]int{
			"A": {"A": 3, "B": 1},
			"B": {"A": 2, "B": 4},
		},
	}

	assert.InDelta(t, 0.75, res.Recall("A"), 1e-12)
	assert.InDelta(t, 0.6, res.Precision("A"), 1e-12)
	assert.InDelta(t, 4.0/6.0, res.Recall("B"), 1e-12)
	assert.Zero(t, res.Recall("C"))
	assert.Zero(t, res.Precision("C"))
}

func TestEvaluateLogs(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	e := newEvaluator(t, WithLogger(zap.New(core)))

	_, err := e.Evaluate(context.Background(), []lm.Document{doc("A", "cat")}, lm.Unigram)
	require.NoError(t, err)

	entries := logs.FilterMessage("evaluation complete").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].ContextMap()["documents"])
}
