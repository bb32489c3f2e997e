package scrub

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/nisc/LLM-output-scrub/config"
	scruberrors "github.com/nisc/LLM-output-scrub/errors"
	"github.com/nisc/LLM-output-scrub/nlp"
)

func contextualConfig() *config.Config {
	return &config.Config{
		LogLevel: "debug",
		NLP:      config.NLPConfig{Provider: "heuristic", WindowWidth: 500},
		Categories: map[string]config.Category{
			config.CategoryEmDashes: {
				Enabled:        true,
				ContextualMode: true,
				Replacements:   map[string]string{config.EmDash: "-"},
			},
		},
	}
}

func newTestScrubber(t *testing.T, cfg *config.Config) *Scrubber {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	manager := nlp.NewModelManager(func() (nlp.FeatureProvider, error) {
		return nlp.NewHeuristicProvider(), nil
	}, 0, logger)
	t.Cleanup(manager.Close)
	engine := nlp.NewEngine(manager, nil, cfg.NLP.WindowWidth, logger)
	return New(cfg, engine, logger)
}

func TestScrubContextualScenarios(t *testing.T) {
	s := newTestScrubber(t, contextualConfig())

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "dialogue_attribution",
			input: `"Hello" — John said`,
			want:  `"Hello", John said`,
		},
		{
			name:  "numeric_range",
			input: "The range is 1—5.",
			want:  "The range is 1-5.",
		},
		{
			name:  "parenthetical_pair",
			input: "The cat—a fluffy Persian—was sleeping.",
			want:  "The cat, a fluffy Persian, was sleeping.",
		},
		{
			name:  "compound_word",
			input: "self—driving car",
			want:  "self-driving car",
		},
		{
			name:  "emphasis_pair",
			input: "The result—amazingly—was perfect",
			want:  "The result, amazingly, was perfect",
		},
		{
			name:  "interruption",
			input: "I was going to—never mind",
			want:  "I was going to... never mind",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.Scrub(tt.input)
			if err != nil {
				t.Fatalf("Scrub: %v", err)
			}
			if res.Output != tt.want {
				t.Errorf("output = %q, want %q", res.Output, tt.want)
			}
			if !res.UsedContext {
				t.Error("UsedContext = false, want true")
			}
		})
	}
}

func TestScrubCountsDashes(t *testing.T) {
	s := newTestScrubber(t, contextualConfig())

	res, err := s.Scrub("The cat—a fluffy Persian—was sleeping.")
	if err != nil {
		t.Fatalf("Scrub: %v", err)
	}
	if res.DashCount != 2 {
		t.Errorf("DashCount = %d, want 2", res.DashCount)
	}
}

func TestScrubPlainTextUnchanged(t *testing.T) {
	s := newTestScrubber(t, contextualConfig())

	input := "plain ascii text stays exactly as it is.\nSecond line."
	res, err := s.Scrub(input)
	if err != nil {
		t.Fatalf("Scrub: %v", err)
	}
	if res.Output != input {
		t.Errorf("output = %q, want unchanged input", res.Output)
	}
	if res.DashCount != 0 || res.CharCount != 0 {
		t.Errorf("counts = %d/%d, want 0/0", res.DashCount, res.CharCount)
	}
}

func TestScrubIsIdempotent(t *testing.T) {
	s := newTestScrubber(t, contextualConfig())

	inputs := []string{
		"The cat—a fluffy Persian—was sleeping.",
		"self—driving car",
		"I was going to—never mind",
	}
	for _, input := range inputs {
		first, err := s.Scrub(input)
		if err != nil {
			t.Fatalf("first Scrub: %v", err)
		}
		second, err := s.Scrub(first.Output)
		if err != nil {
			t.Fatalf("second Scrub: %v", err)
		}
		if second.Output != first.Output {
			t.Errorf("%q: second pass changed %q to %q", input, first.Output, second.Output)
		}
	}
}

func TestScrubSimpleMode(t *testing.T) {
	cfg := contextualConfig()
	cat := cfg.Categories[config.CategoryEmDashes]
	cat.ContextualMode = false
	cfg.Categories[config.CategoryEmDashes] = cat

	s := newTestScrubber(t, cfg)
	res, err := s.Scrub("a—b and c—d")
	if err != nil {
		t.Fatalf("Scrub: %v", err)
	}
	if res.Output != "a-b and c-d" {
		t.Errorf("output = %q, want %q", res.Output, "a-b and c-d")
	}
	if res.UsedContext {
		t.Error("UsedContext = true in simple mode")
	}
	if res.CharCount != 2 {
		t.Errorf("CharCount = %d, want 2", res.CharCount)
	}
}

func TestScrubModelUnavailableFallback(t *testing.T) {
	cfg := contextualConfig()
	logger, _ := zap.NewDevelopment()
	manager := nlp.NewModelManager(func() (nlp.FeatureProvider, error) {
		return nil, errors.New("model file missing")
	}, 0, logger)
	t.Cleanup(manager.Close)
	engine := nlp.NewEngine(manager, nil, 500, logger)
	s := New(cfg, engine, logger)

	res, err := s.Scrub("self—driving car")
	if err != nil {
		t.Fatalf("Scrub: %v", err)
	}
	if res.Output != "self-driving car" {
		t.Errorf("output = %q, want simple replacement", res.Output)
	}
	if res.UsedContext {
		t.Error("UsedContext = true despite model failure")
	}
}

func TestScrubCharacterTable(t *testing.T) {
	cfg := contextualConfig()
	cfg.Categories[config.CategorySmartQuotes] = config.Category{
		Enabled: true,
		Replacements: map[string]string{
			"“": `"`, "”": `"`, "‘": "'", "’": "'",
		},
	}

	s := newTestScrubber(t, cfg)
	res, err := s.Scrub("“Hi there” she said, ‘casually’.")
	if err != nil {
		t.Fatalf("Scrub: %v", err)
	}
	want := `"Hi there" she said, 'casually'.`
	if res.Output != want {
		t.Errorf("output = %q, want %q", res.Output, want)
	}
	if res.CharCount != 4 {
		t.Errorf("CharCount = %d, want 4", res.CharCount)
	}
}

func TestScrubUnicodeNormalization(t *testing.T) {
	cfg := &config.Config{
		General:    config.GeneralConfig{NormalizeUnicode: true, RemoveCombiningChars: true},
		Categories: map[string]config.Category{},
	}
	logger, _ := zap.NewDevelopment()
	s := New(cfg, nil, logger)

	res, err := s.Scrub("café déjà-vu")
	if err != nil {
		t.Fatalf("Scrub: %v", err)
	}
	if res.Output != "cafe deja-vu" {
		t.Errorf("output = %q, want %q", res.Output, "cafe deja-vu")
	}
}

func TestScrubRemoveNonASCII(t *testing.T) {
	cfg := &config.Config{
		General:    config.GeneralConfig{RemoveNonASCII: true},
		Categories: map[string]config.Category{},
	}
	logger, _ := zap.NewDevelopment()
	s := New(cfg, nil, logger)

	res, err := s.Scrub("naïve—x")
	if err != nil {
		t.Fatalf("Scrub: %v", err)
	}
	if res.Output != "navex" {
		t.Errorf("output = %q, want %q", res.Output, "navex")
	}
}

func TestScrubNormalizeWhitespace(t *testing.T) {
	cfg := &config.Config{
		General:    config.GeneralConfig{NormalizeWhitespace: true},
		Categories: map[string]config.Category{},
	}
	logger, _ := zap.NewDevelopment()
	s := New(cfg, nil, logger)

	res, err := s.Scrub("a   b\t c \nd  e")
	if err != nil {
		t.Fatalf("Scrub: %v", err)
	}
	if res.Output != "a b c\nd e" {
		t.Errorf("output = %q, want %q", res.Output, "a b c\nd e")
	}
}

func TestScrubProtectsMarkdownCode(t *testing.T) {
	cfg := contextualConfig()
	cfg.General.ProtectMarkdownCode = true

	s := newTestScrubber(t, cfg)
	input := "Use `x—y` here.\n\nAlso self—driving cars."
	res, err := s.Scrub(input)
	if err != nil {
		t.Fatalf("Scrub: %v", err)
	}
	want := "Use `x—y` here.\n\nAlso self-driving cars."
	if res.Output != want {
		t.Errorf("output = %q, want %q", res.Output, want)
	}
}

func TestScrubProtectsCodeNotProseTwin(t *testing.T) {
	cfg := contextualConfig()
	cfg.General.ProtectMarkdownCode = true

	// The prose mentions the same text the code span contains. Only the
	// backticked occurrence may survive untouched.
	s := newTestScrubber(t, cfg)
	res, err := s.Scrub("Say x—y aloud, then type `x—y` in the shell.")
	if err != nil {
		t.Fatalf("Scrub: %v", err)
	}
	want := "Say x-y aloud, then type `x—y` in the shell."
	if res.Output != want {
		t.Errorf("output = %q, want %q", res.Output, want)
	}
}

func TestScrubNormalizesWhitespaceAroundProtectedCode(t *testing.T) {
	cfg := contextualConfig()
	cfg.General.ProtectMarkdownCode = true
	cfg.General.NormalizeWhitespace = true

	s := newTestScrubber(t, cfg)
	res, err := s.Scrub("Text   with  runs and `kept   spaces—x` here.\n")
	if err != nil {
		t.Fatalf("Scrub: %v", err)
	}
	want := "Text with runs and `kept   spaces—x` here.\n"
	if res.Output != want {
		t.Errorf("output = %q, want %q", res.Output, want)
	}
}

func TestScrubOutputHasNoEmDashes(t *testing.T) {
	s := newTestScrubber(t, contextualConfig())

	input := strings.Join([]string{
		`"Hello" — John said.`,
		"The range is 1—5 and versions 2.1—3.0.",
		"The cat—a fluffy Persian—was sleeping.",
		"self—driving cars—amazingly—work.",
		"I was going to—never mind.",
		"—",
		"a——b",
	}, "\n")

	res, err := s.Scrub(input)
	if err != nil {
		t.Fatalf("Scrub: %v", err)
	}
	if strings.Contains(res.Output, nlp.EmDash) {
		t.Errorf("output still contains an em dash: %q", res.Output)
	}
	if want := strings.Count(input, nlp.EmDash); res.DashCount != want {
		t.Errorf("DashCount = %d, want %d", res.DashCount, want)
	}
}

func TestScrubEmptyInput(t *testing.T) {
	s := newTestScrubber(t, contextualConfig())
	if _, err := s.Scrub(""); !scruberrors.IsInvalidInput(err) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}
