package nlp

import (
	"testing"

	prose "github.com/jdkato/prose/v2"
)

func TestCoarsePOSMapping(t *testing.T) {
	tests := []struct {
		tag  string
		want POS
	}{
		{"NN", POSNoun},
		{"NNS", POSNoun},
		{"NNP", POSProperNoun},
		{"NNPS", POSProperNoun},
		{"VB", POSVerb},
		{"VBD", POSVerb},
		{"MD", POSVerb},
		{"JJ", POSAdjective},
		{"JJR", POSAdjective},
		{"RB", POSAdverb},
		{"WRB", POSAdverb},
		{"DT", POSDeterminer},
		{"PRP", POSPronoun},
		{"WP", POSPronoun},
		{"CC", POSConjunction},
		{"IN", POSAdposition},
		{"TO", POSAdposition},
		{",", POSPunctuation},
		{".", POSPunctuation},
		{"FW", POSOther},
	}
	for _, tt := range tests {
		if got := coarsePOS(tt.tag); got != tt.want {
			t.Errorf("coarsePOS(%q) = %s, want %s", tt.tag, got, tt.want)
		}
	}
}

func TestGuessPOS(t *testing.T) {
	tests := []struct {
		word string
		want POS
	}{
		{"and", POSConjunction},
		{"the", POSDeterminer},
		{"with", POSAdposition},
		{"nobody", POSPronoun},
		{"was", POSVerb},
		{"never", POSAdverb},
		{"quickly", POSAdverb},
		{"fly", POSNoun}, // too short for the -ly suffix rule
		{"Marcus", POSProperNoun},
		{"table", POSNoun},
		{"—", POSPunctuation},
		{"!", POSPunctuation},
		{"42", POSOther},
	}
	for _, tt := range tests {
		if got := guessPOS(tt.word); got != tt.want {
			t.Errorf("guessPOS(%q) = %s, want %s", tt.word, got, tt.want)
		}
	}
}

func TestHeuristicTokenizeOffsets(t *testing.T) {
	h := NewHeuristicProvider()
	text := "self—driving, fast"
	tokens, err := h.Tokenize(text)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}

	wantTexts := []string{"self", "—", "driving", ",", "fast"}
	if len(tokens) != len(wantTexts) {
		t.Fatalf("got %d tokens %v, want %d", len(tokens), tokens, len(wantTexts))
	}
	for i, tok := range tokens {
		if tok.Text != wantTexts[i] {
			t.Errorf("token %d = %q, want %q", i, tok.Text, wantTexts[i])
		}
		if text[tok.Start:tok.End()] != tok.Text {
			t.Errorf("token %d offsets [%d,%d) do not slice to %q", i, tok.Start, tok.End(), tok.Text)
		}
	}
}

func TestHeuristicTokenizeNumbers(t *testing.T) {
	h := NewHeuristicProvider()
	tokens, err := h.Tokenize("versions 2.1 and 3.0")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}

	var numbers []string
	for _, tok := range tokens {
		if tok.IsNumeric {
			numbers = append(numbers, tok.Text)
		}
	}
	if len(numbers) != 2 || numbers[0] != "2.1" || numbers[1] != "3.0" {
		t.Errorf("numeric tokens = %v, want [2.1 3.0]", numbers)
	}
}

func TestAlignTokens(t *testing.T) {
	text := "The cat—slept."
	proseTokens := []prose.Token{
		{Text: "The", Tag: "DT"},
		{Text: "cat", Tag: "NN"},
		{Text: "—", Tag: ":"},
		{Text: "slept", Tag: "VBD"},
		{Text: ".", Tag: "."},
	}

	tokens := alignTokens(text, proseTokens)
	if len(tokens) != len(proseTokens) {
		t.Fatalf("got %d tokens, want %d", len(tokens), len(proseTokens))
	}
	for i, tok := range tokens {
		if text[tok.Start:tok.End()] != tok.Text {
			t.Errorf("token %d offsets [%d,%d) do not slice to %q", i, tok.Start, tok.End(), tok.Text)
		}
	}
	if tokens[1].POS != POSNoun || tokens[3].POS != POSVerb {
		t.Errorf("unexpected tags: %+v", tokens)
	}
}

func TestAlignTokensSkipsUnplaceable(t *testing.T) {
	text := "only these words"
	proseTokens := []prose.Token{
		{Text: "only", Tag: "RB"},
		{Text: "missing", Tag: "NN"},
		{Text: "these", Tag: "DT"},
	}

	tokens := alignTokens(text, proseTokens)
	if len(tokens) != 2 {
		t.Fatalf("got %d tokens %v, want 2", len(tokens), tokens)
	}
	if tokens[0].Text != "only" || tokens[1].Text != "these" {
		t.Errorf("tokens = %v", tokens)
	}
}
