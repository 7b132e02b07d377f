package ingest

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// Split modes
const (
	// SplitWhitespace splits raw text on runs of whitespace
	SplitWhitespace = "whitespace"
	// SplitWords keeps runs of letters, digits and hyphens
	SplitWords = "words"
)

// Options configures a Tokenizer
type Options struct {
	Split     string
	Lowercase bool
	StripHTML bool
	Stopwords []string
}

// Tokenizer turns raw document text into an ordered token sequence.
// The same instance must be used for training and test text.
type Tokenizer struct {
	split     string
	lowercase bool
	stripHTML bool
	stopwords map[string]struct{}
}

// NewTokenizer creates a tokenizer. An empty Split means SplitWhitespace.
func NewTokenizer(opts Options) *Tokenizer {
	split := opts.Split
	if split == "" {
		split = SplitWhitespace
	}
	stops := make(map[string]struct{}, len(opts.Stopwords))
	for _, w := range opts.Stopwords {
		if opts.Lowercase {
			w = strings.ToLower(w)
		}
		stops[w] = struct{}{}
	}
	return &Tokenizer{
		split:     split,
		lowercase: opts.Lowercase,
		stripHTML: opts.StripHTML,
		stopwords: stops,
	}
}

// Tokenize splits text into tokens
func (t *Tokenizer) Tokenize(text string) []string {
	if t.stripHTML {
		text = StripHTML(text)
	}

	var raw []string
	if t.split == SplitWords {
		raw = splitWords(text)
	} else {
		raw = strings.Fields(text)
	}

	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		if t.lowercase {
			tok = strings.ToLower(tok)
		}
		if t.isStopword(tok) {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// splitWords keeps runs of letters, digits and hyphens, trimming
// leading/trailing hyphens and collapsing repeated ones
func splitWords(text string) []string {
	var words []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		word := strings.Trim(current.String(), "-")
		for strings.Contains(word, "--") {
			word = strings.ReplaceAll(word, "--", "-")
		}
		if word != "" {
			words = append(words, word)
		}
		current.Reset()
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '-' {
			current.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()

	return words
}

func (t *Tokenizer) isStopword(word string) bool {
	_, ok := t.stopwords[word]
	return ok
}

// AddStopword adds a word to the stopword list
func (t *Tokenizer) AddStopword(word string) {
	if t.lowercase {
		word = strings.ToLower(word)
	}
	t.stopwords[word] = struct{}{}
}

// StripHTML returns the text content of an HTML fragment. Text that fails to
// parse is returned unchanged.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}

	var buf strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			buf.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extractText(c)
		}
	}
	extractText(doc)

	return strings.TrimSpace(buf.String())
}
