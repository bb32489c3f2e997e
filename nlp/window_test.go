package nlp

import (
	"strings"
	"testing"
)

func TestExtractWindowClipsToBounds(t *testing.T) {
	text := "short—text"
	off := strings.Index(text, EmDash)

	win := ExtractWindow(text, off, 500)
	if win.Text != text {
		t.Errorf("window = %q, want whole document", win.Text)
	}
	if win.Start != 0 {
		t.Errorf("start = %d, want 0", win.Start)
	}
	if win.DashOffset != off {
		t.Errorf("dash offset = %d, want %d", win.DashOffset, off)
	}
}

func TestExtractWindowLimitsWidth(t *testing.T) {
	left := strings.Repeat("a", 600)
	right := strings.Repeat("b", 600)
	text := left + EmDash + right
	off := len(left)

	win := ExtractWindow(text, off, 500)
	if got := len(win.Text); got != 500+len(EmDash)+500 {
		t.Errorf("window length = %d, want %d", got, 500+len(EmDash)+500)
	}
	if win.DashOffset != 500 {
		t.Errorf("dash offset = %d, want 500", win.DashOffset)
	}
	if !strings.HasPrefix(win.Text[win.DashOffset:], EmDash) {
		t.Error("dash offset does not point at the dash")
	}
}

func TestExtractWindowCountsRunesNotBytes(t *testing.T) {
	// Multibyte text on both sides; width is in runes.
	left := strings.Repeat("é", 10)
	right := strings.Repeat("ü", 10)
	text := left + EmDash + right
	off := len(left)

	win := ExtractWindow(text, off, 3)
	want := strings.Repeat("é", 3) + EmDash + strings.Repeat("ü", 3)
	if win.Text != want {
		t.Errorf("window = %q, want %q", win.Text, want)
	}
	if !strings.HasPrefix(win.Text[win.DashOffset:], EmDash) {
		t.Error("dash offset does not point at the dash")
	}
}

func TestExtractWindowDashAtEdges(t *testing.T) {
	for _, text := range []string{EmDash + "after", "before" + EmDash} {
		off := strings.Index(text, EmDash)
		win := ExtractWindow(text, off, 500)
		if !strings.HasPrefix(win.Text[win.DashOffset:], EmDash) {
			t.Errorf("%q: dash offset does not point at the dash", text)
		}
	}
}

func TestLocateSentence(t *testing.T) {
	win := ContextWindow{Text: "First one. Second—here. Third.", DashOffset: 17}

	sentences := []Span{{0, 10}, {11, 23}, {24, 30}}
	if got := locateSentence(win, sentences); got != (Span{11, 23}) {
		t.Errorf("sentence = %+v, want {11 23}", got)
	}

	// No boundaries: the whole window is the sentence.
	if got := locateSentence(win, nil); got != (Span{0, len(win.Text)}) {
		t.Errorf("fallback sentence = %+v, want whole window", got)
	}

	// Boundaries that miss the dash also fall back.
	if got := locateSentence(win, []Span{{0, 10}}); got != (Span{0, len(win.Text)}) {
		t.Errorf("missed sentence = %+v, want whole window", got)
	}
}
