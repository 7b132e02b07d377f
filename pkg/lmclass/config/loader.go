package config

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cognicore/lmclass/pkg/lmclass/ingest"
	"github.com/cognicore/lmclass/pkg/lmclass/store"
	"github.com/cognicore/lmclass/pkg/lmclass/store/memstore"
	"github.com/cognicore/lmclass/pkg/lmclass/store/sqlite"
)

// Components holds the objects built from a Config
type Components struct {
	Tokenizer *ingest.Tokenizer
	Store     store.Store
}

// Close releases resources held by the components
func (c *Components) Close() error {
	if c.Store == nil {
		return nil
	}
	return c.Store.Close()
}

// Build constructs the tokenizer and store described by cfg
func Build(ctx context.Context, cfg *Config) (*Components, error) {
	stopwords := append([]string(nil), cfg.Tokenizer.Stopwords...)
	if cfg.Tokenizer.Stoplist != "" {
		sl, err := LoadStoplist(cfg.Tokenizer.Stoplist)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		stopwords = append(stopwords, sl.Terms...)
	}

	comp := &Components{
		Tokenizer: ingest.NewTokenizer(ingest.Options{
			Split:     cfg.Tokenizer.Split,
			Lowercase: cfg.Tokenizer.Lowercase,
			StripHTML: cfg.Tokenizer.StripHTML,
			Stopwords: stopwords,
		}),
	}

	switch cfg.Store.Driver {
	case "sqlite":
		st, err := sqlite.OpenSQLite(ctx, cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		comp.Store = st
	default:
		comp.Store = memstore.New()
	}

	return comp, nil
}

// NewLogger builds a production zap logger at the given level
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level.SetLevel(lvl)
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}
