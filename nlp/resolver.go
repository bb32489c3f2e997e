package nlp

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	scruberrors "github.com/nisc/LLM-output-scrub/errors"
)

// Engine classifies em dashes in context. It owns nothing but references:
// the manager decides when the underlying provider lives and dies, and the
// stats collector is shared with the web layer.
type Engine struct {
	manager *ModelManager
	stats   *Stats
	width   int
	logger  *zap.Logger
}

// NewEngine builds an engine with the given context window width (runes
// per side; <=0 means DefaultWindowWidth).
func NewEngine(manager *ModelManager, stats *Stats, width int, logger *zap.Logger) *Engine {
	if width <= 0 {
		width = DefaultWindowWidth
	}
	return &Engine{manager: manager, stats: stats, width: width, logger: logger}
}

// Classify decides what the em dash at byte offset in text means. The
// offset must point at the first byte of an em dash; anything else is
// ErrInvalidOffset. Provider errors degrade to the default verdict rather
// than failing the dash.
func (e *Engine) Classify(text string, offset int) (Verdict, error) {
	if offset < 0 || offset > len(text)-len(EmDash) || !strings.HasPrefix(text[offset:], EmDash) {
		return Verdict{}, fmt.Errorf("%w: byte %d", scruberrors.ErrInvalidOffset, offset)
	}

	provider, err := e.manager.Acquire()
	if err != nil {
		return Verdict{}, err
	}

	win := ExtractWindow(text, offset, e.width)

	tokens, err := provider.Tokenize(win.Text)
	if err != nil {
		e.logger.Debug("Tokenization failed, using default verdict",
			zap.Int("offset", offset), zap.Error(err))
		tokens = nil
	}

	sentences, err := provider.Sentences(win.Text)
	if err != nil {
		e.logger.Debug("Sentence segmentation failed, using whole window",
			zap.Int("offset", offset), zap.Error(err))
		sentences = nil
	}

	dc := newDashContext(win, locateSentence(win, sentences), tokens)
	v := classify(dc)

	if e.stats != nil {
		e.stats.Record(v)
	}
	return v, nil
}

// ResolveDash classifies the dash at offset and returns its replacement
// string plus the byte offset in text where splicing should resume. When
// the verdict consumes whitespace, resume skips the whitespace run after
// the dash so the replacement's own spacing wins.
func (e *Engine) ResolveDash(text string, offset int) (replacement string, resume int, err error) {
	v, err := e.Classify(text, offset)
	if err != nil {
		return "", 0, err
	}

	resume = offset + len(EmDash)
	if v.ConsumeWhitespace {
		for resume < len(text) {
			r, size := utf8.DecodeRuneInString(text[resume:])
			if !unicode.IsSpace(r) {
				break
			}
			resume += size
		}
	}
	return v.Replacement, resume, nil
}

// FindDashes returns the byte offsets of every em dash in text, ascending.
func FindDashes(text string) []int {
	var offsets []int
	search := 0
	for {
		idx := strings.Index(text[search:], EmDash)
		if idx < 0 {
			return offsets
		}
		offsets = append(offsets, search+idx)
		search += idx + len(EmDash)
	}
}
