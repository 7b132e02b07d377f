// Package corpus groups labeled documents into per-class language models.
package corpus

import (
	"go.uber.org/zap"

	"github.com/cognicore/lmclass/pkg/lmclass/lm"
)

// Corpus maps class labels to fitted language models and class priors.
// Labels keep the order in which they were first seen during training.
type Corpus struct {
	labels    []string
	models    map[string]*lm.ClassLanguageModel
	priors    map[string]float64
	totalDocs int
}

type options struct {
	discount float64
	logger   *zap.Logger
}

// Option configures training
type Option func(*options)

// WithBackoffDiscount sets the backoff discount of every class model
func WithBackoffDiscount(d float64) Option {
	return func(o *options) { o.discount = d }
}

// WithLogger sets the logger used to report per-class statistics
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Train builds a Corpus from labeled documents: documents are grouped by
// label, each class model is fit (unigram, then bigram), and priors are set
// to each class's share of the training documents.
//
// Priors are exposed for inspection only; the decision rule in package
// classify does not use them.
func Train(docs []lm.Document, opts ...Option) (*Corpus, error) {
	o := options{discount: lm.DefaultBackoffDiscount, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Corpus{
		models: make(map[string]*lm.ClassLanguageModel),
		priors: make(map[string]float64),
	}

	for _, doc := range docs {
		model, ok := c.models[doc.Label]
		if !ok {
			model = lm.NewClassLanguageModel(doc.Label, lm.WithBackoffDiscount(o.discount))
			c.models[doc.Label] = model
			c.labels = append(c.labels, doc.Label)
		}
		if err := model.AddDocument(doc); err != nil {
			return nil, err
		}
	}

	for _, label := range c.labels {
		model := c.models[label]
		model.FitUnigram()
		model.FitBigram()
		stats := model.Stats()
		if stats.Tokens == 0 {
			o.logger.Warn("class has no training tokens", zap.String("label", label))
		}
		o.logger.Debug("class model fit",
			zap.String("label", label),
			zap.Int("documents", stats.Documents),
			zap.Int64("tokens", stats.Tokens),
			zap.Int("vocabulary", stats.VocabularySize),
			zap.Int("bigrams", stats.UniqueBigrams))
	}

	c.totalDocs = len(docs)
	for _, label := range c.labels {
		c.priors[label] = float64(c.models[label].NumDocuments()) / float64(c.totalDocs)
	}

	return c, nil
}

// Labels returns class labels in first-seen order
func (c *Corpus) Labels() []string {
	out := make([]string, len(c.labels))
	copy(out, c.labels)
	return out
}

// Len returns the number of classes
func (c *Corpus) Len() int { return len(c.labels) }

// TotalDocuments returns the number of training documents
func (c *Corpus) TotalDocuments() int { return c.totalDocs }

// Model returns the language model for label
func (c *Corpus) Model(label string) (*lm.ClassLanguageModel, bool) {
	m, ok := c.models[label]
	return m, ok
}

// Prior returns the fraction of training documents labeled label
func (c *Corpus) Prior(label string) float64 {
	return c.priors[label]
}

// Priors returns a copy of the prior table
func (c *Corpus) Priors() map[string]float64 {
	out := make(map[string]float64, len(c.priors))
	for k, v := range c.priors {
		out[k] = v
	}
	return out
}

// Stats returns per-class model statistics in label order
func (c *Corpus) Stats() []lm.Stats {
	out := make([]lm.Stats, 0, len(c.labels))
	for _, label := range c.labels {
		out = append(out, c.models[label].Stats())
	}
	return out
}
