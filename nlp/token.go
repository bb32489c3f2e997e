// Package nlp implements the context-aware em-dash disambiguation engine:
// a bounded context window around each dash is tokenized by a feature
// provider, the sentence containing the dash is located, and a fixed-order
// rule cascade decides which ASCII substitute the dash stands for.
package nlp

import (
	"strings"
	"unicode"
)

// POS is the coarse part-of-speech vocabulary the cascade matches against.
// It deliberately collapses fine-grained tag sets; the detectors only need
// these distinctions.
type POS int

const (
	POSOther POS = iota
	POSNoun
	POSProperNoun
	POSVerb
	POSAdjective
	POSAdverb
	POSDeterminer
	POSPronoun
	POSConjunction
	POSAdposition
	POSPunctuation
)

var posNames = [...]string{
	POSOther:       "other",
	POSNoun:        "noun",
	POSProperNoun:  "proper_noun",
	POSVerb:        "verb",
	POSAdjective:   "adjective",
	POSAdverb:      "adverb",
	POSDeterminer:  "determiner",
	POSPronoun:     "pronoun",
	POSConjunction: "conjunction",
	POSAdposition:  "adposition",
	POSPunctuation: "punctuation",
}

func (p POS) String() string {
	if int(p) < len(posNames) {
		return posNames[p]
	}
	return "other"
}

// Token is one unit of a tokenized context window. Offsets are byte offsets
// into the text that was tokenized. Tokens are owned by the analysis call
// that produced them and are never persisted.
type Token struct {
	Text      string
	POS       POS
	IsAlpha   bool
	IsNumeric bool
	Start     int
}

// End returns the byte offset just past the token.
func (t Token) End() int {
	return t.Start + len(t.Text)
}

// Span is a half-open byte range [Start, End) into a context window.
type Span struct {
	Start int
	End   int
}

// Contains reports whether the byte offset falls inside the span.
func (s Span) Contains(off int) bool {
	return off >= s.Start && off < s.End
}

// coarsePOS maps a Penn Treebank tag (the tag set prose emits) onto the
// coarse vocabulary.
func coarsePOS(tag string) POS {
	switch {
	case tag == "NNP" || tag == "NNPS":
		return POSProperNoun
	case strings.HasPrefix(tag, "NN"):
		return POSNoun
	case strings.HasPrefix(tag, "VB") || tag == "MD":
		return POSVerb
	case strings.HasPrefix(tag, "JJ"):
		return POSAdjective
	case strings.HasPrefix(tag, "RB") || tag == "WRB":
		return POSAdverb
	case tag == "DT" || tag == "PDT" || tag == "WDT":
		return POSDeterminer
	case tag == "PRP" || tag == "PRP$" || tag == "WP" || tag == "WP$" || tag == "EX":
		return POSPronoun
	case tag == "CC":
		return POSConjunction
	case tag == "IN" || tag == "TO":
		return POSAdposition
	case isPunctTag(tag):
		return POSPunctuation
	default:
		return POSOther
	}
}

func isPunctTag(tag string) bool {
	switch tag {
	case ".", ",", ":", "(", ")", "``", "''", "$", "#", "SYM", "HYPH", "NFP":
		return true
	}
	return false
}

// isAlphaText reports whether the string consists solely of letters.
func isAlphaText(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// isNumericLike reports whether a token reads as a number-bearing unit:
// "5", "2.1", "2x", "15th". Any digit qualifies — ranges and versions attach
// letters and punctuation to their numerals.
func isNumericLike(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// isCapitalized reports whether the first rune is an uppercase letter.
func isCapitalized(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}
