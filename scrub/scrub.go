// Package scrub turns typographic LLM output into plain ASCII prose. It
// layers a context-aware em-dash pass over table-driven character
// substitution and optional unicode cleanup, with markdown code regions
// held out of all of it.
package scrub

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/nisc/LLM-output-scrub/config"
	scruberrors "github.com/nisc/LLM-output-scrub/errors"
	"github.com/nisc/LLM-output-scrub/nlp"
)

// Scrubber applies the configured cleanup pipeline to documents. The
// engine may be nil, in which case em dashes only get the simple table
// replacement.
type Scrubber struct {
	cfg    *config.Config
	engine *nlp.Engine
	logger *zap.Logger
}

// Result reports what one Scrub call did.
type Result struct {
	Output      string
	DashCount   int
	CharCount   int
	UsedContext bool
}

func New(cfg *config.Config, engine *nlp.Engine, logger *zap.Logger) *Scrubber {
	return &Scrubber{cfg: cfg, engine: engine, logger: logger}
}

// Scrub rewrites text per the active configuration. Empty input is
// ErrInvalidInput.
func (s *Scrubber) Scrub(text string) (Result, error) {
	if text == "" {
		return Result{}, scruberrors.WrapError(scruberrors.ErrInvalidInput, "empty document")
	}

	var ranges [][2]int
	if s.cfg.GeneralSettings().ProtectMarkdownCode {
		ranges = codeRanges(text)
	}

	var (
		out       strings.Builder
		res       Result
		contextOK = s.engine != nil && s.cfg.EmDashEnabled() && s.cfg.EmDashContextual()
	)
	for _, seg := range split(text, ranges) {
		if seg.protected {
			out.WriteString(seg.text)
			continue
		}
		cleaned := s.scrubSegment(seg.text, &res, &contextOK)
		out.WriteString(cleaned)
	}

	res.Output = out.String()
	res.UsedContext = contextOK && res.DashCount > 0
	return res, nil
}

// scrubSegment runs the full pipeline over one unprotected segment.
// contextOK flips to false for the rest of the document once the language
// model proves unavailable.
func (s *Scrubber) scrubSegment(text string, res *Result, contextOK *bool) string {
	if *contextOK {
		text = s.resolveDashes(text, res, contextOK)
	}
	if !*contextOK && s.cfg.EmDashEnabled() && s.cfg.EmDashContextual() {
		// Contextual table excludes the em dash, so the fallback has to
		// splice the simple replacement itself.
		text = strings.ReplaceAll(text, nlp.EmDash, s.cfg.SimpleEmDashReplacement())
	}
	text = s.applyTable(text, res)

	g := s.cfg.GeneralSettings()
	if g.NormalizeUnicode {
		text = normalizeUnicode(text, g.RemoveCombiningChars)
	}
	if g.RemoveNonASCII {
		text = stripNonASCII(text)
	}
	if g.NormalizeWhitespace {
		text = normalizeWhitespace(text)
	}
	return text
}

// resolveDashes classifies and splices every em dash in text. Descending
// offset order keeps earlier offsets valid while later bytes are already
// rewritten; whitespace adjustments scan the evolving buffer, which is
// safe because a whitespace run never crosses a dash.
func (s *Scrubber) resolveDashes(text string, res *Result, contextOK *bool) string {
	offsets := nlp.FindDashes(text)
	if len(offsets) == 0 {
		return text
	}

	out := text
	for i := len(offsets) - 1; i >= 0; i-- {
		off := offsets[i]

		v, err := s.engine.Classify(text, off)
		if err != nil {
			if scruberrors.IsModelUnavailable(err) {
				s.logger.Warn("Language model unavailable, falling back to simple replacement",
					zap.Error(err))
				*contextOK = false
				return out
			}
			v = nlp.Verdict{Category: nlp.CategoryParenthetical, Replacement: ", ", Confidence: 0.5, ConsumeWhitespace: true}
		}

		start, end := off, off+len(nlp.EmDash)
		if v.ConsumeWhitespace {
			for start > 0 {
				r, size := utf8.DecodeLastRuneInString(out[:start])
				if !unicode.IsSpace(r) {
					break
				}
				start -= size
			}
			for end < len(out) {
				r, size := utf8.DecodeRuneInString(out[end:])
				if !unicode.IsSpace(r) {
					break
				}
				end += size
			}
		}
		out = out[:start] + v.Replacement + out[end:]
		res.DashCount++
	}
	return out
}

// applyTable runs the per-category character substitution table. When the
// contextual pass handled em dashes the table excludes them already.
func (s *Scrubber) applyTable(text string, res *Result) string {
	table := s.cfg.AllReplacements()
	if len(table) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if repl, ok := table[string(r)]; ok {
			b.WriteString(repl)
			res.CharCount++
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// normalizeUnicode decomposes to NFKD so accented and compatibility forms
// become base characters, optionally dropping the combining marks.
func normalizeUnicode(text string, removeCombining bool) string {
	var t transform.Transformer = norm.NFKD
	if removeCombining {
		t = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	}
	out, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return out
}

func stripNonASCII(text string) string {
	return strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, text)
}

// normalizeWhitespace collapses horizontal whitespace runs to a single
// space and drops runs that butt against a newline, leaving line structure
// alone. A run at either end of the text still yields one space, so a
// segment cut out around protected code keeps its boundary spacing.
func normalizeWhitespace(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	pending := false
	for _, r := range text {
		switch {
		case r == '\n':
			pending = false
			b.WriteRune('\n')
		case unicode.IsSpace(r):
			pending = true
		default:
			if pending {
				b.WriteByte(' ')
				pending = false
			}
			b.WriteRune(r)
		}
	}
	if pending {
		b.WriteByte(' ')
	}
	return b.String()
}
