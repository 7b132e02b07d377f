package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cognicore/lmclass/pkg/lmclass/internalerr"
	"github.com/cognicore/lmclass/pkg/lmclass/lm"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "empty.yaml", "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, lm.Smoothed, cfg.Model.Mode)
	assert.Equal(t, lm.DefaultBackoffDiscount, cfg.Model.BackoffDiscount)
	assert.Equal(t, "@@@@@@@@@@", cfg.Data.Delimiter)
	assert.Equal(t, "memory", cfg.Store.Driver)
}

func TestLoadFull(t *testing.T) {
	path := writeFile(t, t.TempDir(), "lmclass.yaml", `
data:
  train: Train.txt
  test: Test.txt
  format: jsonl
tokenizer:
  split: words
  lowercase: true
  stopwords: [the, a]
model:
  mode: U
  backoff_discount: 0.25
store:
  driver: sqlite
  path: runs.db
server:
  addr: ":9090"
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Train.txt", cfg.Data.Train)
	assert.Equal(t, "jsonl", cfg.Data.Format)
	assert.Equal(t, lm.Unigram, cfg.Model.Mode)
	assert.Equal(t, 0.25, cfg.Model.BackoffDiscount)
	assert.True(t, cfg.Tokenizer.Lowercase)
	assert.Equal(t, []string{"the", "a"}, cfg.Tokenizer.Stopwords)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"discount too high", "model:\n  backoff_discount: 1.5\n"},
		{"discount negative", "model:\n  backoff_discount: -1\n"},
		{"bad format", "data:\n  format: csv\n"},
		{"bad split", "tokenizer:\n  split: chars\n"},
		{"sqlite without path", "store:\n  driver: sqlite\n"},
		{"unknown driver", "store:\n  driver: redis\n"},
		{"empty delimiter", "data:\n  delimiter: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "bad.yaml", tt.content)
			_, err := Load(path)
			assert.ErrorIs(t, err, internalerr.ErrInvalidConfig)
		})
	}
}

func TestLoadInvalidMode(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.yaml", "model:\n  mode: trigram\n")

	_, err := Load(path)
	var modeErr *lm.InvalidModeError
	assert.ErrorAs(t, err, &modeErr)
}

func TestLoadNonExistent(t *testing.T) {
	_, err := Load("/nonexistent/lmclass.yaml")
	assert.Error(t, err)
}

func TestBuildWithStoplist(t *testing.T) {
	dir := t.TempDir()
	stoplist := writeFile(t, dir, "stoplist.yaml", "terms:\n  - the\n  - of\n")

	cfg := Default()
	cfg.Tokenizer.Stoplist = stoplist
	cfg.Tokenizer.Stopwords = []string{"a"}

	comp, err := Build(context.Background(), &cfg)
	require.NoError(t, err)
	defer comp.Close()

	assert.Equal(t, []string{"state", "union"}, comp.Tokenizer.Tokenize("the state of a union"))
}

func TestBuildMissingStoplist(t *testing.T) {
	cfg := Default()
	cfg.Tokenizer.Stoplist = "/nonexistent/stoplist.yaml"

	_, err := Build(context.Background(), &cfg)
	assert.Error(t, err)
}

func TestBuildSQLiteStore(t *testing.T) {
	cfg := Default()
	cfg.Store.Driver = "sqlite"
	cfg.Store.Path = filepath.Join(t.TempDir(), "runs.db")

	comp, err := Build(context.Background(), &cfg)
	require.NoError(t, err)
	defer comp.Close()

	_, err = comp.Store.ListRuns(context.Background(), 10)
	assert.NoError(t, err)
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	_, err = NewLogger("loud")
	assert.Error(t, err)
}
