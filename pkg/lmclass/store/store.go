package store

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/lmclass/pkg/lmclass/lm"
)

// Store persists labeled datasets and evaluation run history.
// Trained models are never stored; they are rebuilt from datasets.
type Store interface {
	Close() error

	// Datasets
	SaveDataset(ctx context.Context, name string, docs []lm.Document) error
	LoadDataset(ctx context.Context, name string) ([]lm.Document, error)
	ListDatasets(ctx context.Context) ([]string, error)

	// Evaluation runs
	SaveRun(ctx context.Context, r Run) error
	GetRun(ctx context.Context, id string) (Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)
}

// Run is a stored evaluation result
type Run struct {
	ID          string                    `json:"id"`
	Dataset     string                    `json:"dataset"`
	Mode        string                    `json:"mode"`
	Labels      []string                  `json:"labels"`
	Contingency map[string]map[string]int `json:"contingency"`
	Correct     int                       `json:"correct"`
	Total       int                       `json:"total"`
	Accuracy    float64                   `json:"accuracy"`
	CreatedAt   time.Time                 `json:"created_at"`
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewRunID returns a lexicographically sortable run identifier
func NewRunID(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}
