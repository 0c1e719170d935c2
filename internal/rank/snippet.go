package rank

import "strings"

// SnippetGenerator picks a short body excerpt to show with a result.
type SnippetGenerator struct {
	length int
}

// NewSnippetGenerator returns a generator whose snippets hold at most
// length runes before the ellipsis.
func NewSnippetGenerator(length int) *SnippetGenerator {
	return &SnippetGenerator{length: length}
}

// Generate returns the sentence of text most relevant to the query
// tokens, truncated to the configured budget with a trailing "..." when
// cut.
//
// Sentences are delimited by runs of '.', '!' and '?'. Each is scored by
// how many query tokens it contains case-insensitively; the first
// sentence with the highest score wins, and the first sentence serves as
// fallback when nothing matches. Empty text or an empty token list skips
// selection and truncates the text as-is.
func (g *SnippetGenerator) Generate(text string, queryTokens []string) string {
	if text == "" || len(queryTokens) == 0 {
		return g.truncate(text)
	}

	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return g.truncate(text)
	}

	best := sentences[0]
	bestScore := 0
	for _, sentence := range sentences {
		if score := scoreSentence(sentence, queryTokens); score > bestScore {
			bestScore = score
			best = sentence
		}
	}
	return g.truncate(best)
}

func (g *SnippetGenerator) truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= g.length {
		return s
	}
	return string(runes[:g.length]) + "..."
}

// splitSentences breaks text on sentence terminators, trimming whitespace
// and dropping empty pieces.
func splitSentences(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})

	sentences := make([]string, 0, len(fields))
	for _, field := range fields {
		if s := strings.TrimSpace(field); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// scoreSentence counts the query tokens present in the sentence,
// case-insensitively. Each token counts once however often it occurs.
func scoreSentence(sentence string, queryTokens []string) int {
	lower := strings.ToLower(sentence)
	score := 0
	for _, token := range queryTokens {
		if strings.Contains(lower, strings.ToLower(token)) {
			score++
		}
	}
	return score
}
