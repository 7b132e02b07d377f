package classify

import (
	"math"

	"github.com/cognicore/lmclass/pkg/lmclass/corpus"
	"github.com/cognicore/lmclass/pkg/lmclass/internalerr"
	"github.com/cognicore/lmclass/pkg/lmclass/lm"
)

// Classifier assigns the most likely class to a document
type Classifier struct {
	corpus *corpus.Corpus
}

// Score is one class's log-likelihood for a document
type Score struct {
	Label   string  `json:"label"`
	LogProb float64 `json:"log_prob"`
	Prior   float64 `json:"prior"`
}

// New creates a classifier over a trained corpus
func New(c *corpus.Corpus) *Classifier {
	return &Classifier{corpus: c}
}

// Corpus returns the underlying corpus
func (cl *Classifier) Corpus() *corpus.Corpus { return cl.corpus }

// Scores returns the log-likelihood of doc under every class, in corpus
// label order. The prior is reported alongside but not folded into LogProb.
// A class whose training documents held no tokens scores -Inf.
func (cl *Classifier) Scores(doc lm.Document, mode lm.Mode) ([]Score, error) {
	if !mode.Valid() {
		return nil, &lm.InvalidModeError{Mode: mode.String()}
	}
	if cl.corpus == nil || cl.corpus.Len() == 0 {
		return nil, internalerr.ErrEmptyCorpus
	}

	labels := cl.corpus.Labels()
	scores := make([]Score, 0, len(labels))
	for _, label := range labels {
		model, _ := cl.corpus.Model(label)
		// A class trained on no tokens has no evidence for any document.
		lp := math.Inf(-1)
		if model.TotalUnigramTokens() > 0 {
			var err error
			if lp, err = model.ScoreDocument(doc, mode); err != nil {
				return nil, err
			}
		}
		scores = append(scores, Score{Label: label, LogProb: lp, Prior: cl.corpus.Prior(label)})
	}
	return scores, nil
}

// Classify returns the label whose model gives doc the highest likelihood.
// Ties, including every class scoring -Inf, go to the first label in corpus
// order. Class priors do not take part in the decision.
func (cl *Classifier) Classify(doc lm.Document, mode lm.Mode) (string, error) {
	scores, err := cl.Scores(doc, mode)
	if err != nil {
		return "", err
	}
	return Best(scores), nil
}

// Best returns the label of the highest score, the first one on ties.
// It returns "" for no scores.
func Best(scores []Score) string {
	if len(scores) == 0 {
		return ""
	}
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i].LogProb > scores[best].LogProb {
			best = i
		}
	}
	return scores[best].Label
}
