// Package lmclass ties tokenization, training, classification, evaluation
// and run storage together behind a single Engine.
package lmclass

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cognicore/lmclass/internal/dataset"
	"github.com/cognicore/lmclass/pkg/lmclass/classify"
	"github.com/cognicore/lmclass/pkg/lmclass/corpus"
	"github.com/cognicore/lmclass/pkg/lmclass/eval"
	"github.com/cognicore/lmclass/pkg/lmclass/ingest"
	"github.com/cognicore/lmclass/pkg/lmclass/internalerr"
	"github.com/cognicore/lmclass/pkg/lmclass/lm"
	"github.com/cognicore/lmclass/pkg/lmclass/store"
)

// Engine trains a corpus from raw labeled text and answers classification
// and evaluation requests against it
type Engine struct {
	tokenizer *ingest.Tokenizer
	store     store.Store
	logger    *zap.Logger
	discount  float64
	now       func() time.Time

	mu         sync.RWMutex
	classifier *classify.Classifier
}

// Options configures an Engine
type Options struct {
	Tokenizer       *ingest.Tokenizer
	Store           store.Store // optional: datasets and run history
	Logger          *zap.Logger
	BackoffDiscount float64
}

// Example is a labeled raw text
type Example = dataset.Example

// New creates an Engine. Missing options fall back to a whitespace
// tokenizer, no store, a no-op logger and the default backoff discount.
func New(opts Options) *Engine {
	e := &Engine{
		tokenizer: opts.Tokenizer,
		store:     opts.Store,
		logger:    opts.Logger,
		discount:  opts.BackoffDiscount,
		now:       time.Now,
	}
	if e.tokenizer == nil {
		e.tokenizer = ingest.NewTokenizer(ingest.Options{})
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.discount == 0 {
		e.discount = lm.DefaultBackoffDiscount
	}
	return e
}

// Close cleanly shuts down the engine's store
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// Documents tokenizes examples
func (e *Engine) Documents(examples []Example) []lm.Document {
	return dataset.Tokenize(examples, e.tokenizer)
}

// Train builds a new corpus from examples, replacing any previous one
func (e *Engine) Train(ctx context.Context, examples []Example) error {
	return e.train(ctx, e.Documents(examples))
}

// TrainDataset trains from a dataset held in the store
func (e *Engine) TrainDataset(ctx context.Context, name string) error {
	if e.store == nil {
		return fmt.Errorf("no store configured: %w", internalerr.ErrInvalidConfig)
	}
	docs, err := e.store.LoadDataset(ctx, name)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	return e.train(ctx, docs)
}

func (e *Engine) train(ctx context.Context, docs []lm.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := e.now()
	c, err := corpus.Train(docs, corpus.WithBackoffDiscount(e.discount), corpus.WithLogger(e.logger))
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.classifier = classify.New(c)
	e.mu.Unlock()

	e.logger.Info("corpus trained",
		zap.Int("documents", c.TotalDocuments()),
		zap.Strings("classes", c.Labels()),
		zap.Duration("elapsed", e.now().Sub(start)))
	return nil
}

// ImportDataset tokenizes examples and saves them to the store under name
func (e *Engine) ImportDataset(ctx context.Context, name string, examples []Example) error {
	if e.store == nil {
		return fmt.Errorf("no store configured: %w", internalerr.ErrInvalidConfig)
	}
	return e.store.SaveDataset(ctx, name, e.Documents(examples))
}

func (e *Engine) current() (*classify.Classifier, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.classifier == nil {
		return nil, internalerr.ErrNotTrained
	}
	return e.classifier, nil
}

// Classify returns the most likely label for text
func (e *Engine) Classify(text string, mode lm.Mode) (string, error) {
	cl, err := e.current()
	if err != nil {
		return "", err
	}
	return cl.Classify(lm.Document{Tokens: e.tokenizer.Tokenize(text)}, mode)
}

// Scores returns every class's log-likelihood for text
func (e *Engine) Scores(text string, mode lm.Mode) ([]classify.Score, error) {
	cl, err := e.current()
	if err != nil {
		return nil, err
	}
	return cl.Scores(lm.Document{Tokens: e.tokenizer.Tokenize(text)}, mode)
}

// Priors returns the class priors of the trained corpus
func (e *Engine) Priors() (map[string]float64, error) {
	cl, err := e.current()
	if err != nil {
		return nil, err
	}
	return cl.Corpus().Priors(), nil
}

// Stats returns per-class model statistics
func (e *Engine) Stats() ([]lm.Stats, error) {
	cl, err := e.current()
	if err != nil {
		return nil, err
	}
	return cl.Corpus().Stats(), nil
}

// Evaluate classifies the test examples and, when a store is configured,
// records the result as a run. The run ID is empty without a store.
func (e *Engine) Evaluate(ctx context.Context, dataset string, examples []Example, mode lm.Mode) (eval.Result, string, error) {
	cl, err := e.current()
	if err != nil {
		return eval.Result{}, "", err
	}

	res, err := eval.New(cl, eval.WithLogger(e.logger)).Evaluate(ctx, e.Documents(examples), mode)
	if err != nil {
		return eval.Result{}, "", err
	}
	if e.store == nil {
		return res, "", nil
	}

	now := e.now()
	run := store.Run{
		ID:          store.NewRunID(now),
		Dataset:     dataset,
		Mode:        mode.String(),
		Labels:      res.Labels,
		Contingency: res.Contingency,
		Correct:     res.Correct,
		Total:       res.Total,
		Accuracy:    res.Accuracy,
		CreatedAt:   now,
	}
	if err := e.store.SaveRun(ctx, run); err != nil {
		return res, "", fmt.Errorf("save run: %w", err)
	}
	return res, run.ID, nil
}

// Runs lists stored evaluation runs, newest first
func (e *Engine) Runs(ctx context.Context, limit int) ([]store.Run, error) {
	if e.store == nil {
		return nil, nil
	}
	return e.store.ListRuns(ctx, limit)
}
