// Package eval runs a classifier over a labeled test set and tallies a
// true-label by predicted-label contingency table.
package eval

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cognicore/lmclass/pkg/lmclass/classify"
	"github.com/cognicore/lmclass/pkg/lmclass/internalerr"
	"github.com/cognicore/lmclass/pkg/lmclass/lm"
)

// ErrEmptyTestSet is returned when evaluating zero documents
var ErrEmptyTestSet = fmt.Errorf("eval: empty test set: %w", internalerr.ErrInvalidInput)

// Result is the outcome of an evaluation
type Result struct {
	Mode        lm.Mode                   `json:"mode"`
	Labels      []string                  `json:"labels"`
	Contingency map[string]map[string]int `json:"contingency"`
	Correct     int                       `json:"correct"`
	Total       int                       `json:"total"`
	Accuracy    float64                   `json:"accuracy"`
}

// Count returns how many documents labeled truth were predicted as predicted
func (r Result) Count(truth, predicted string) int {
	return r.Contingency[truth][predicted]
}

// Recall returns the fraction of documents labeled label that were predicted
// as label, or 0 when no test document carries it.
func (r Result) Recall(label string) float64 {
	row := r.Contingency[label]
	var total int
	for _, n := range row {
		total += n
	}
	if total == 0 {
		return 0
	}
	return float64(row[label]) / float64(total)
}

// Precision returns the fraction of predictions of label that were correct,
// or 0 when label was never predicted.
func (r Result) Precision(label string) float64 {
	var total int
	for _, row := range r.Contingency {
		total += row[label]
	}
	if total == 0 {
		return 0
	}
	return float64(r.Contingency[label][label]) / float64(total)
}

// Evaluator scores a classifier against labeled documents
type Evaluator struct {
	classifier *classify.Classifier
	logger     *zap.Logger
}

// Option configures an Evaluator
type Option func(*Evaluator)

// WithLogger sets the logger used for per-document debug output
func WithLogger(logger *zap.Logger) Option {
	return func(e *Evaluator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an Evaluator
func New(cl *classify.Classifier, opts ...Option) *Evaluator {
	e := &Evaluator{classifier: cl, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate classifies every document under mode and builds the contingency
// table. Rows and columns cover the union of true labels (first-seen order)
// and labels only ever predicted (appended in first-seen order); every cell
// starts at zero.
func (e *Evaluator) Evaluate(ctx context.Context, docs []lm.Document, mode lm.Mode) (Result, error) {
	if len(docs) == 0 {
		return Result{}, ErrEmptyTestSet
	}
	if !mode.Valid() {
		return Result{}, &lm.InvalidModeError{Mode: mode.String()}
	}

	predictions := make([]string, len(docs))
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		predicted, err := e.classifier.Classify(doc, mode)
		if err != nil {
			return Result{}, fmt.Errorf("classify document %d: %w", i, err)
		}
		predictions[i] = predicted
		e.logger.Debug("classified",
			zap.Int("index", i),
			zap.String("label", doc.Label),
			zap.String("predicted", predicted))
	}

	labels := unionLabels(docs, predictions)
	res := Result{
		Mode:        mode,
		Labels:      labels,
		Contingency: make(map[string]map[string]int, len(labels)),
		Total:       len(docs),
	}
	for _, truth := range labels {
		row := make(map[string]int, len(labels))
		for _, predicted := range labels {
			row[predicted] = 0
		}
		res.Contingency[truth] = row
	}

	for i, doc := range docs {
		res.Contingency[doc.Label][predictions[i]]++
		if predictions[i] == doc.Label {
			res.Correct++
		}
	}
	res.Accuracy = float64(res.Correct) / float64(res.Total)

	e.logger.Info("evaluation complete",
		zap.Stringer("mode", mode),
		zap.Int("documents", res.Total),
		zap.Int("correct", res.Correct),
		zap.Float64("accuracy", res.Accuracy))

	return res, nil
}

func unionLabels(docs []lm.Document, predictions []string) []string {
	seen := make(map[string]struct{})
	var labels []string
	add := func(l string) {
		if _, ok := seen[l]; ok {
			return
		}
		seen[l] = struct{}{}
		labels = append(labels, l)
	}
	for _, d := range docs {
		add(d.Label)
	}
	for _, p := range predictions {
		add(p)
	}
	return labels
}
