package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/cognicore/lmclass/pkg/lmclass/lm"
)

// DefaultDelimiter separates the label from the text on each line
const DefaultDelimiter = "@@@@@@@@@@"

// File formats
const (
	FormatDelimited = "delimited"
	FormatJSONL     = "jsonl"
)

// maxLineSize bounds a single document line
const maxLineSize = 4 * 1024 * 1024

// Tokenizer turns raw text into tokens
type Tokenizer interface {
	Tokenize(text string) []string
}

// Example is a raw labeled text before tokenization
type Example struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// ReadDelimited reads one example per line in the form label<delim>text.
// Blank lines are skipped; lines without the delimiter are skipped with a
// warning.
func ReadDelimited(r io.Reader, delim string, logger *zap.Logger) ([]Example, error) {
	if delim == "" {
		delim = DefaultDelimiter
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var examples []Example
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		label, text, ok := strings.Cut(line, delim)
		label = strings.TrimSpace(label)
		if !ok || label == "" {
			logger.Warn("skipping malformed line", zap.Int("line", lineNo))
			continue
		}
		examples = append(examples, Example{Label: label, Text: text})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read line %d: %w", lineNo+1, err)
	}
	return examples, nil
}

// ReadJSONL reads one {"label": ..., "text": ...} object per line, skipping
// malformed lines with a warning.
func ReadJSONL(r io.Reader, logger *zap.Logger) ([]Example, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var examples []Example
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var ex Example
		if err := json.Unmarshal([]byte(line), &ex); err != nil {
			logger.Warn("skipping malformed JSON", zap.Int("line", lineNo), zap.Error(err))
			continue
		}
		ex.Label = strings.TrimSpace(ex.Label)
		if ex.Label == "" {
			logger.Warn("skipping example without label", zap.Int("line", lineNo))
			continue
		}
		examples = append(examples, ex)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read line %d: %w", lineNo+1, err)
	}
	return examples, nil
}

// LoadFile reads examples from path in the given format
func LoadFile(path, format, delim string, logger *zap.Logger) ([]Example, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var examples []Example
	switch format {
	case "", FormatDelimited:
		examples, err = ReadDelimited(f, delim, logger)
	case FormatJSONL:
		examples, err = ReadJSONL(f, logger)
	default:
		return nil, fmt.Errorf("unknown dataset format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(examples) == 0 {
		return nil, fmt.Errorf("no valid examples found in %s", path)
	}
	return examples, nil
}

// Tokenize converts examples into documents with tok
func Tokenize(examples []Example, tok Tokenizer) []lm.Document {
	docs := make([]lm.Document, len(examples))
	for i, ex := range examples {
		docs[i] = lm.Document{Label: ex.Label, Tokens: tok.Tokenize(ex.Text)}
	}
	return docs
}
