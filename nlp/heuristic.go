package nlp

import (
	"regexp"
	"strings"
	"unicode"
)

// HeuristicProvider approximates the feature contract without a model:
// regex tokenization plus closed wordlists and suffix rules for the coarse
// tags. It yields no sentence boundaries, so the sentence locator falls
// back to the whole window. It is the cheap deterministic alternative to
// the prose-backed provider.
type HeuristicProvider struct{}

// NewHeuristicProvider returns the regex-based provider.
func NewHeuristicProvider() *HeuristicProvider {
	return &HeuristicProvider{}
}

// Numbers (with decimal/grouping marks and unit suffixes), then words
// (with inner apostrophes and hyphens), then any single non-space rune.
var tokenPattern = regexp.MustCompile(`\pN+(?:[.,]\pN+)*[\pL\pN]*|\pL[\pL\pN]*(?:['\x{2019}-][\pL\pN]+)*|\S`)

// Tokenize splits text into word, number and punctuation tokens.
func (h *HeuristicProvider) Tokenize(text string) ([]Token, error) {
	matches := tokenPattern.FindAllStringIndex(text, -1)
	tokens := make([]Token, 0, len(matches))
	for _, m := range matches {
		word := text[m[0]:m[1]]
		tokens = append(tokens, Token{
			Text:      word,
			POS:       guessPOS(word),
			IsAlpha:   isAlphaText(word),
			IsNumeric: isNumericLike(word),
			Start:     m[0],
		})
	}
	return tokens, nil
}

// Sentences always reports no boundaries in heuristic mode.
func (h *HeuristicProvider) Sentences(text string) ([]Span, error) {
	return nil, nil
}

func guessPOS(word string) POS {
	if !isWordLike(word) {
		return POSPunctuation
	}
	if isNumericLike(word) {
		return POSOther
	}

	lower := strings.ToLower(word)
	switch {
	case heuristicConjunctions[lower]:
		return POSConjunction
	case heuristicDeterminers[lower]:
		return POSDeterminer
	case heuristicAdpositions[lower]:
		return POSAdposition
	case heuristicPronouns[lower]:
		return POSPronoun
	case heuristicVerbs[lower]:
		return POSVerb
	case heuristicAdverbs[lower]:
		return POSAdverb
	case len(lower) > 3 && strings.HasSuffix(lower, "ly"):
		return POSAdverb
	}

	if r := firstRune(word); unicode.IsUpper(r) {
		return POSProperNoun
	}
	return POSNoun
}

var heuristicConjunctions = wordSet("and", "but", "or", "nor", "yet", "so")

var heuristicDeterminers = wordSet(
	"a", "an", "the", "this", "that", "these", "those", "each", "every",
	"either", "neither", "some", "any", "no", "all", "both",
)

var heuristicAdpositions = wordSet(
	"in", "on", "at", "by", "for", "with", "about", "against", "between",
	"into", "through", "during", "before", "after", "above", "below", "to",
	"from", "up", "down", "of", "off", "over", "under",
)

var heuristicPronouns = wordSet(
	"i", "you", "he", "she", "it", "we", "they", "me", "him", "her", "us",
	"them", "my", "your", "his", "its", "our", "their", "who", "whom",
	"whose", "what", "which", "anyone", "everyone", "someone", "nobody",
	"anybody", "everybody", "somebody", "nothing", "something", "everything",
)

var heuristicVerbs = wordSet(
	"is", "are", "was", "were", "be", "been", "being", "am", "have", "has",
	"had", "do", "does", "did", "will", "would", "can", "could", "shall",
	"should", "may", "might", "must",
)

var heuristicAdverbs = wordSet(
	"not", "never", "always", "often", "sometimes", "very", "too", "quite",
	"rather", "almost", "nearly", "just", "already", "soon", "again",
	"however", "perhaps", "maybe", "also", "still", "then", "there", "here",
	"now",
)

func wordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}
