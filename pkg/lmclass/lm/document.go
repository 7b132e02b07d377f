package lm

// Document is a single labeled text instance
type Document struct {
	Label  string
	Tokens []string
}

// NewDocument creates a document that owns a copy of tokens
func NewDocument(label string, tokens []string) Document {
	toks := make([]string, len(tokens))
	copy(toks, tokens)
	return Document{Label: label, Tokens: toks}
}

// Pair is an ordered pair of adjacent tokens (not canonicalized)
type Pair struct {
	First, Second string
}
