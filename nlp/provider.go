package nlp

import (
	"strings"
	"unicode"

	lru "github.com/hashicorp/golang-lru"
	"github.com/jdkato/prose/v2"
	"go.uber.org/zap"
)

// FeatureProvider turns a span of text into tokens with coarse linguistic
// features. The classifier is written against this contract only; it does
// not care whether a full tagging model or a regex approximation sits
// behind it.
//
// Sentences may return an empty slice when the implementation has no notion
// of sentence boundaries; the sentence locator then treats the whole window
// as one sentence.
type FeatureProvider interface {
	Tokenize(text string) ([]Token, error)
	Sentences(text string) ([]Span, error)
}

// ProseProvider backs the feature contract with prose's tagging model.
// Tokenizing a window is the expensive step on the hot path, so results are
// memoized per window text in an LRU cache; the cache is the memory-heavy
// state that the model lifecycle manager constructs and evicts.
type ProseProvider struct {
	tokenCache *lru.Cache
	sentCache  *lru.Cache
	logger     *zap.Logger
}

// NewProseProvider builds the provider and runs one throwaway document
// through prose so that model-load failures surface here rather than midway
// through a document pass.
func NewProseProvider(cacheSize int, logger *zap.Logger) (*ProseProvider, error) {
	if cacheSize <= 0 {
		cacheSize = 512
	}
	if _, err := prose.NewDocument("Warm up.", prose.WithExtraction(false)); err != nil {
		return nil, err
	}
	tokenCache, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	sentCache, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	return &ProseProvider{tokenCache: tokenCache, sentCache: sentCache, logger: logger}, nil
}

// Tokenize returns tagged tokens with byte offsets into text.
func (p *ProseProvider) Tokenize(text string) ([]Token, error) {
	if text == "" {
		return nil, nil
	}
	if cached, ok := p.tokenCache.Get(text); ok {
		return cached.([]Token), nil
	}

	doc, err := prose.NewDocument(text,
		prose.WithExtraction(false),
		prose.WithSegmentation(false))
	if err != nil {
		return nil, err
	}

	tokens := alignTokens(text, doc.Tokens())
	p.tokenCache.Add(text, tokens)
	return tokens, nil
}

// Sentences returns the sentence spans prose's segmenter finds in text.
func (p *ProseProvider) Sentences(text string) ([]Span, error) {
	if text == "" {
		return nil, nil
	}
	if cached, ok := p.sentCache.Get(text); ok {
		return cached.([]Span), nil
	}

	doc, err := prose.NewDocument(text,
		prose.WithExtraction(false),
		prose.WithTagging(false))
	if err != nil {
		return nil, err
	}

	var spans []Span
	cursor := 0
	for _, sent := range doc.Sentences() {
		idx := strings.Index(text[cursor:], sent.Text)
		if idx < 0 {
			continue
		}
		start := cursor + idx
		spans = append(spans, Span{Start: start, End: start + len(sent.Text)})
		cursor = start + len(sent.Text)
	}
	p.sentCache.Add(text, spans)
	return spans, nil
}

// alignTokens recovers byte offsets for prose tokens, which carry text and
// tag but no position, by walking a cursor through the source text.
func alignTokens(text string, proseTokens []prose.Token) []Token {
	tokens := make([]Token, 0, len(proseTokens))
	cursor := 0
	for _, pt := range proseTokens {
		if pt.Text == "" {
			continue
		}
		idx := strings.Index(text[cursor:], pt.Text)
		if idx < 0 {
			// Prose occasionally normalizes token text (quotes in
			// particular); skip tokens we cannot place.
			continue
		}
		start := cursor + idx
		tokens = append(tokens, Token{
			Text:      pt.Text,
			POS:       proseCoarsePOS(pt),
			IsAlpha:   isAlphaText(pt.Text),
			IsNumeric: pt.Tag == "CD" || isNumericLike(pt.Text),
			Start:     start,
		})
		cursor = start + len(pt.Text)
	}
	return tokens
}

func proseCoarsePOS(pt prose.Token) POS {
	pos := coarsePOS(pt.Tag)
	if pos == POSOther && !isWordLike(pt.Text) {
		return POSPunctuation
	}
	return pos
}

func isWordLike(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
