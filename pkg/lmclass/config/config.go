package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/lmclass/internal/dataset"
	"github.com/cognicore/lmclass/pkg/lmclass/ingest"
	"github.com/cognicore/lmclass/pkg/lmclass/internalerr"
	"github.com/cognicore/lmclass/pkg/lmclass/lm"
)

// Config is the top-level YAML configuration
type Config struct {
	Data      Data      `yaml:"data"`
	Tokenizer Tokenizer `yaml:"tokenizer"`
	Model     Model     `yaml:"model"`
	Store     Store     `yaml:"store"`
	Server    Server    `yaml:"server"`
	Log       Log       `yaml:"log"`
}

// Data locates the training and test sets
type Data struct {
	Train     string `yaml:"train"`
	Test      string `yaml:"test"`
	Format    string `yaml:"format"`
	Delimiter string `yaml:"delimiter"`
}

// Tokenizer configures text tokenization
type Tokenizer struct {
	Split     string   `yaml:"split"`
	Lowercase bool     `yaml:"lowercase"`
	StripHTML bool     `yaml:"strip_html"`
	Stopwords []string `yaml:"stopwords"`
	Stoplist  string   `yaml:"stoplist"`
}

// Model configures scoring
type Model struct {
	Mode            lm.Mode `yaml:"mode"`
	BackoffDiscount float64 `yaml:"backoff_discount"`
}

// Store selects where datasets and runs are kept
type Store struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// Server configures the HTTP server
type Server struct {
	Addr string `yaml:"addr"`
}

// Log configures logging
type Log struct {
	Level string `yaml:"level"`
}

// Default returns a Config with every default applied
func Default() Config {
	return Config{
		Data: Data{
			Format:    dataset.FormatDelimited,
			Delimiter: dataset.DefaultDelimiter,
		},
		Tokenizer: Tokenizer{Split: ingest.SplitWhitespace},
		Model: Model{
			Mode:            lm.Smoothed,
			BackoffDiscount: lm.DefaultBackoffDiscount,
		},
		Store:  Store{Driver: "memory"},
		Server: Server{Addr: ":8080"},
		Log:    Log{Level: "info"},
	}
}

// Load reads a YAML config file on top of the defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field values
func (c *Config) Validate() error {
	switch c.Data.Format {
	case dataset.FormatDelimited, dataset.FormatJSONL:
	default:
		return fmt.Errorf("data.format %q: %w", c.Data.Format, internalerr.ErrInvalidConfig)
	}
	if c.Data.Format == dataset.FormatDelimited && c.Data.Delimiter == "" {
		return fmt.Errorf("data.delimiter is empty: %w", internalerr.ErrInvalidConfig)
	}
	switch c.Tokenizer.Split {
	case ingest.SplitWhitespace, ingest.SplitWords:
	default:
		return fmt.Errorf("tokenizer.split %q: %w", c.Tokenizer.Split, internalerr.ErrInvalidConfig)
	}
	if !c.Model.Mode.Valid() {
		return fmt.Errorf("model.mode: %w", internalerr.ErrInvalidConfig)
	}
	if c.Model.BackoffDiscount <= 0 || c.Model.BackoffDiscount >= 1 {
		return fmt.Errorf("model.backoff_discount %v not in (0,1): %w", c.Model.BackoffDiscount, internalerr.ErrInvalidConfig)
	}
	switch c.Store.Driver {
	case "memory":
	case "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path required for sqlite: %w", internalerr.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("store.driver %q: %w", c.Store.Driver, internalerr.ErrInvalidConfig)
	}
	return nil
}

// Stoplist represents the stopword list configuration
type Stoplist struct {
	Terms []string `yaml:"terms"`
}

// LoadStoplist loads stopwords from a YAML file
func LoadStoplist(path string) (*Stoplist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sl Stoplist
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, err
	}

	return &sl, nil
}
