package lm

import (
	"fmt"
	"strings"
)

// Mode selects the estimator used to score a document
type Mode int

const (
	// Unigram scores every token with the add-one smoothed unigram estimate
	Unigram Mode = iota + 1
	// Bigram scores every adjacent pair with the maximum-likelihood bigram estimate
	Bigram
	// Smoothed scores every adjacent pair with the bigram estimate,
	// backing off to the discounted unigram estimate for unseen pairs
	Smoothed
)

// Modes lists every supported mode in a stable order
var Modes = []Mode{Unigram, Bigram, Smoothed}

// ParseMode accepts the single-letter tags U, B, S and the mode names,
// case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "u", "unigram":
		return Unigram, nil
	case "b", "bigram":
		return Bigram, nil
	case "s", "smoothed", "backoff":
		return Smoothed, nil
	}
	return 0, &InvalidModeError{Mode: s}
}

// Valid reports whether m is one of the supported modes
func (m Mode) Valid() bool {
	return m >= Unigram && m <= Smoothed
}

func (m Mode) String() string {
	switch m {
	case Unigram:
		return "unigram"
	case Bigram:
		return "bigram"
	case Smoothed:
		return "smoothed"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Tag returns the single-letter tag for m
func (m Mode) Tag() string {
	switch m {
	case Unigram:
		return "U"
	case Bigram:
		return "B"
	case Smoothed:
		return "S"
	default:
		return "?"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, &InvalidModeError{Mode: m.String()}
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
