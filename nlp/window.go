package nlp

import "unicode/utf8"

// EmDash is the character this package disambiguates.
const EmDash = "—"

// DefaultWindowWidth bounds the context fed to the feature provider per
// dash, in runes either side. Keeps per-dash classification cost O(width)
// regardless of document size.
const DefaultWindowWidth = 500

// ContextWindow is the bounded slice of document text analyzed for one
// dash occurrence. Created per occurrence and discarded after
// classification.
type ContextWindow struct {
	Text       string
	DashOffset int // byte offset of the dash within Text
	Start      int // byte offset of Text within the document
}

// ExtractWindow returns a window of at most width runes on either side of
// the em dash at offset, clipped to document bounds. Pure function of its
// arguments.
func ExtractWindow(text string, offset, width int) ContextWindow {
	if width <= 0 {
		width = DefaultWindowWidth
	}

	start := offset
	for i := 0; i < width && start > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:start])
		start -= size
	}

	end := offset + len(EmDash)
	if end > len(text) {
		end = len(text)
	}
	for i := 0; i < width && end < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[end:])
		end += size
	}

	return ContextWindow{
		Text:       text[start:end],
		DashOffset: offset - start,
		Start:      start,
	}
}

// locateSentence returns the sentence span containing the dash. When the
// provider reports no boundaries, or none of them cover the dash, the whole
// window counts as the sentence; the returned span therefore always
// contains the dash offset.
func locateSentence(win ContextWindow, sentences []Span) Span {
	for _, s := range sentences {
		if s.Contains(win.DashOffset) {
			return s
		}
	}
	return Span{Start: 0, End: len(win.Text)}
}
