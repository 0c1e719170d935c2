package token

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/nao1215/websearch/internal/config"
)

// Tokenizer normalizes text into index terms. It is safe for concurrent
// use; all configuration is fixed at construction time.
type Tokenizer struct {
	// minLen is the minimum rune length of an emitted token.
	minLen int
	// maxLen is the maximum rune length of an emitted token.
	maxLen int
	// removeStopwords drops common English words.
	removeStopwords bool
	// stemming applies the suffix stemmer to each token.
	stemming bool
}

// NewTokenizer creates a Tokenizer from the indexer configuration.
func NewTokenizer(cfg config.IndexerConfig) *Tokenizer {
	return &Tokenizer{
		minLen:          cfg.MinTokenLength,
		maxLen:          cfg.MaxTokenLength,
		removeStopwords: cfg.RemoveStopwords,
		stemming:        cfg.Stemming,
	}
}

// Tokenize breaks text into normalized terms. It never returns nil; empty
// or all-noise input yields an empty slice.
func (t *Tokenizer) Tokenize(text string) []string {
	text = strings.ToLower(foldAccents(text))

	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	terms := make([]string, 0, len(words))
	for _, word := range words {
		n := utf8.RuneCountInString(word)
		if n < t.minLen || n > t.maxLen {
			continue
		}
		if t.removeStopwords {
			if _, isStop := stopwords[word]; isStop {
				continue
			}
		}
		if t.stemming {
			word = stem(word)
			if word == "" {
				continue
			}
		}
		terms = append(terms, word)
	}
	return terms
}

// foldAccents removes combining marks so that accented and unaccented
// spellings index to the same term. The transform chain is built per call
// because chained transformers carry internal buffers and must not be
// shared across goroutines.
func foldAccents(s string) string {
	// Fast path: pure ASCII needs no folding.
	if isASCII(s) {
		return s
	}

	chain := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(chain, s)
	if err != nil {
		return s
	}
	return folded
}

// isASCII reports whether s contains only ASCII bytes.
func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// suffixRules drive the stemmer. Rules are tried in order and the first
// matching suffix wins; minStem is the minimum length of the word without
// the suffix, which keeps short words like "gas" intact.
var suffixRules = []struct {
	suffix  string
	replace string
	minStem int
}{
	{"ational", "ate", 3},
	{"ization", "ize", 3},
	{"fulness", "ful", 3},
	{"iveness", "ive", 3},
	{"tional", "tion", 2},
	{"encies", "ence", 2},
	{"ancies", "ance", 2},
	{"ements", "ement", 2},
	{"ments", "ment", 2},
	{"ating", "ate", 2},
	{"izing", "ize", 2},
	{"ously", "ous", 2},
	{"ively", "ive", 2},
	{"ities", "ity", 2},
	{"ness", "", 3},
	{"tion", "t", 3},
	{"sion", "s", 3},
	{"ying", "y", 2},
	{"ies", "y", 2},
	{"ing", "", 3},
	{"ers", "er", 2},
	{"est", "", 3},
	{"ful", "", 3},
	{"ed", "", 3},
	{"ly", "", 3},
	// Words ending in a double s keep it ("class" must not become "clas").
	{"ss", "ss", 2},
	{"es", "", 3},
	{"s", "", 3},
}

// stem applies a simple suffix-stripping stemmer to the given word.
func stem(word string) string {
	for _, rule := range suffixRules {
		if !strings.HasSuffix(word, rule.suffix) {
			continue
		}
		if len(word)-len(rule.suffix) < rule.minStem {
			continue
		}
		return word[:len(word)-len(rule.suffix)] + rule.replace
	}
	return word
}
