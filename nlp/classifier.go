package nlp

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Category names the rhetorical/syntactic role a dash was classified as.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryDialogue
	CategoryNumericRange
	CategoryDateRange
	CategoryVersionRange
	CategoryLetterRange
	CategoryMath
	CategoryCompound
	CategoryVariableCompound
	CategoryParentheticalPair
	CategoryConjunction
	CategoryEmphasis
	CategoryInterruption
	CategoryNumeralList
	CategoryNumeralCompound
	CategoryBulletList
	CategorySentenceBoundary
	CategoryParenthetical
)

var categoryNames = [...]string{
	CategoryUnknown:           "unknown",
	CategoryDialogue:          "dialogue_attribution",
	CategoryNumericRange:      "numeric_range",
	CategoryDateRange:         "date_range",
	CategoryVersionRange:      "version_range",
	CategoryLetterRange:       "letter_range",
	CategoryMath:              "mathematical",
	CategoryCompound:          "compound",
	CategoryVariableCompound:  "variable_compound",
	CategoryParentheticalPair: "parenthetical_pair",
	CategoryConjunction:       "conjunction_parenthetical",
	CategoryEmphasis:          "emphasis",
	CategoryInterruption:      "interruption",
	CategoryNumeralList:       "numeral_list",
	CategoryNumeralCompound:   "numeral_list_compound",
	CategoryBulletList:        "bullet_list",
	CategorySentenceBoundary:  "sentence_boundary",
	CategoryParenthetical:     "parenthetical",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "unknown"
}

// Verdict is the classifier's decision for one dash occurrence. Confidence
// is observational only; the cascade order is the sole tie-break.
// ConsumeWhitespace tells the replacement driver to swallow the whitespace
// run adjacent to the dash so the output reads "word, word" rather than
// "word ,  word".
type Verdict struct {
	Category          Category
	Replacement       string
	Confidence        float64
	ConsumeWhitespace bool
}

// dashContext is everything a detector may inspect: the trimmed spans
// either side of the dash, the tokens of the containing sentence, and the
// positions of the surrounding dashes. All fields are call-local.
type dashContext struct {
	window    string
	dashOff   int    // byte offset of the dash within window
	before    string // trimmed span before the dash
	after     string // trimmed span after the dash
	sentence  Span   // sentence bounds within window
	tokens    []Token
	beforeTok *Token
	afterTok  *Token
	dashes    []int // em-dash offsets within the sentence, window coords
}

func newDashContext(win ContextWindow, sentence Span, tokens []Token) *dashContext {
	dc := &dashContext{
		window:   win.Text,
		dashOff:  win.DashOffset,
		before:   strings.TrimSpace(win.Text[:win.DashOffset]),
		after:    strings.TrimSpace(win.Text[win.DashOffset+len(EmDash):]),
		sentence: sentence,
	}

	for _, t := range tokens {
		if t.Start < sentence.Start || t.End() > sentence.End {
			continue
		}
		if t.Text == EmDash {
			continue
		}
		dc.tokens = append(dc.tokens, t)
	}

	for i := range dc.tokens {
		t := &dc.tokens[i]
		if t.End() <= dc.dashOff {
			dc.beforeTok = t
		}
		if dc.afterTok == nil && t.Start >= dc.dashOff+len(EmDash) {
			dc.afterTok = t
		}
	}

	sentText := win.Text[sentence.Start:sentence.End]
	search := 0
	for {
		idx := strings.Index(sentText[search:], EmDash)
		if idx < 0 {
			break
		}
		dc.dashes = append(dc.dashes, sentence.Start+search+idx)
		search += idx + len(EmDash)
	}

	return dc
}

// tokenAfter returns the sentence token following t, or nil.
func (dc *dashContext) tokenAfter(t *Token) *Token {
	if t == nil {
		return nil
	}
	for i := range dc.tokens {
		if dc.tokens[i].Start > t.Start {
			return &dc.tokens[i]
		}
	}
	return nil
}

// detector is one rule of the cascade: a pure predicate that either claims
// the dash with a verdict or passes.
type detector struct {
	name string
	fn   func(dc *dashContext) *Verdict
}

// cascade is the fixed-priority rule order. Categories overlap, so the
// order encodes a priority policy rather than a disjoint partition; the
// first detector that matches wins.
var cascade = []detector{
	{"dialogue_attribution", detectDialogue},
	{"range", detectRange},
	{"mathematical", detectMath},
	{"compound_word", detectCompound},
	{"parenthetical_pair", detectParentheticalPair},
	{"conjunction_led", detectConjunction},
	{"emphasis", detectEmphasis},
	{"interruption", detectInterruption},
	{"numeral_list", detectNumeralList},
	{"numeral_list_compound", detectNumeralCompound},
	{"bullet_list", detectBulletList},
	{"sentence_boundary", detectSentenceBoundary},
	{"default", detectDefault},
}

// classify runs the cascade. The default rule guarantees a verdict for any
// context, however malformed.
func classify(dc *dashContext) Verdict {
	for _, d := range cascade {
		if v := d.fn(dc); v != nil {
			return *v
		}
	}
	// Unreachable: detectDefault always matches.
	return Verdict{Category: CategoryParenthetical, Replacement: ", ", Confidence: 0.5, ConsumeWhitespace: true}
}

var closingQuotes = map[rune]bool{
	'"': true, '\'': true, '”': true, '’': true, '»': true,
}

// detectDialogue: a quotation mark ends right before the dash, or the
// preceding token is a bare noun, and the following token is a capitalized
// proper-noun-like token. Classic attribution: `"..." — Speaker said`.
func detectDialogue(dc *dashContext) *Verdict {
	if dc.afterTok == nil || dc.afterTok.POS != POSProperNoun || !isCapitalized(dc.afterTok.Text) {
		return nil
	}
	quoteBefore := dc.before != "" && closingQuotes[lastRune(dc.before)]
	nounBefore := dc.beforeTok != nil && dc.beforeTok.POS == POSNoun
	if !quoteBefore && !nounBefore {
		return nil
	}
	return &Verdict{CategoryDialogue, ", ", 0.85, true}
}

var (
	yearBefore    = regexp.MustCompile(`\d{4}$`)
	yearAfter     = regexp.MustCompile(`^\d{4}`)
	dayMonth      = regexp.MustCompile(`^\d{1,2}/\d{1,2}$`)
	versionBefore = regexp.MustCompile(`\d+\.\d+$`)
	versionAfter  = regexp.MustCompile(`^\d+\.\d+`)
)

// detectRange: both neighbors are digit-bearing, or single letters A–Z
// style, or the surroundings match a date/version shape. `1—5`, `A—Z`,
// `2020—2023`, `2.1—3.0`.
func detectRange(dc *dashContext) *Verdict {
	bw, aw := lastWord(dc.before), firstWord(dc.after)
	if bw == "" || aw == "" {
		return nil
	}

	switch {
	case yearBefore.MatchString(bw) && yearAfter.MatchString(aw),
		dayMonth.MatchString(bw) && dayMonth.MatchString(aw):
		return &Verdict{CategoryDateRange, "-", 0.95, false}
	case versionBefore.MatchString(bw) && versionAfter.MatchString(aw):
		return &Verdict{CategoryVersionRange, "-", 0.95, false}
	case isSingleUpper(bw) && isSingleUpper(aw):
		return &Verdict{CategoryLetterRange, "-", 0.9, false}
	case isNumericLike(bw) && isNumericLike(aw):
		return &Verdict{CategoryNumericRange, "-", 0.95, false}
	}
	return nil
}

const operators = `+*/=<>` + "≤≥≠≈±" + `-`

var (
	opEndsBefore   = regexp.MustCompile(`[0-9A-Za-z)]\s*[` + operators + `]\s*$`)
	opTrailsBefore = regexp.MustCompile(`[` + operators + `]\s*[0-9A-Za-z]+$`)
	opStartsAfter  = regexp.MustCompile(`^[` + operators + `]\s*[0-9A-Za-z(]`)
	opLeadsAfter   = regexp.MustCompile(`^[0-9A-Za-z]+\s*[` + operators + `]`)
	callBefore     = regexp.MustCompile(`[A-Za-z]\w*\([^()]*\)\s*$`)
	callAfter      = regexp.MustCompile(`^[A-Za-z]\w*\([^()]*\)\s*[` + operators + `]`)
)

// detectMath: an arithmetic/relational operator touches either side of the
// dash, optionally wrapped in function-call notation.
func detectMath(dc *dashContext) *Verdict {
	if dc.before == "" && dc.after == "" {
		return nil
	}
	if opEndsBefore.MatchString(dc.before) || opTrailsBefore.MatchString(dc.before) ||
		opStartsAfter.MatchString(dc.after) || opLeadsAfter.MatchString(dc.after) ||
		callBefore.MatchString(dc.before) || callAfter.MatchString(dc.after) {
		return &Verdict{CategoryMath, " - ", 0.9, false}
	}
	return nil
}

// detectCompound: a lone dash gluing two short alphabetic tokens together,
// `self—driving`. Proper nouns, adverbs and conjunctions opt out, except
// for single-lowercase-letter pairs, which read as variable names (`x—y`).
func detectCompound(dc *dashContext) *Verdict {
	if len(dc.dashes) != 1 {
		return nil
	}
	bt, at := dc.beforeTok, dc.afterTok
	if bt == nil || at == nil || !bt.IsAlpha || !at.IsAlpha {
		return nil
	}
	// Tokens must sit flush against the dash; spaced dashes are not
	// compounds.
	if bt.End() != dc.dashOff || at.Start != dc.dashOff+len(EmDash) {
		return nil
	}
	if utf8.RuneCountInString(bt.Text) > 8 || utf8.RuneCountInString(at.Text) > 8 {
		return nil
	}

	variablePair := isSingleLower(bt.Text) && isSingleLower(at.Text)
	if compoundExcluded(bt.POS) || compoundExcluded(at.POS) {
		if !variablePair {
			return nil
		}
		return &Verdict{CategoryVariableCompound, "-", 0.95, false}
	}
	if variablePair {
		return &Verdict{CategoryVariableCompound, "-", 0.95, false}
	}
	return &Verdict{CategoryCompound, "-", 0.95, false}
}

func compoundExcluded(p POS) bool {
	return p == POSProperNoun || p == POSAdverb || p == POSConjunction
}

// detectParentheticalPair: a second dash in the same sentence frames an
// aside — `The cat—a fluffy Persian—was sleeping.` Both dashes of the pair
// classify this way independently. A single framed token only qualifies
// when it is an adverb or adjective longer than two characters.
func detectParentheticalPair(dc *dashContext) *Verdict {
	if len(dc.dashes) < 2 {
		return nil
	}

	lo, hi := -1, -1
	for _, d := range dc.dashes {
		if d > dc.dashOff {
			lo, hi = dc.dashOff+len(EmDash), d
			break
		}
	}
	if lo < 0 {
		for _, d := range dc.dashes {
			if d < dc.dashOff {
				lo, hi = d+len(EmDash), dc.dashOff
			}
		}
	}
	if lo < 0 {
		return nil
	}

	var framed []Token
	for _, t := range dc.tokens {
		if t.Start < lo || t.End() > hi {
			continue
		}
		if t.POS == POSPunctuation || strings.TrimSpace(t.Text) == "" {
			continue
		}
		framed = append(framed, t)
	}

	if len(framed) > 1 {
		return &Verdict{CategoryParentheticalPair, ", ", 0.85, true}
	}
	if len(framed) == 1 {
		t := framed[0]
		if (t.POS == POSAdverb || t.POS == POSAdjective) && utf8.RuneCountInString(t.Text) > 2 {
			return &Verdict{CategoryParentheticalPair, ", ", 0.85, true}
		}
	}
	return nil
}

// detectConjunction: a coordinating conjunction right after the dash opens
// a parenthetical continuation — `€50—or £30`.
func detectConjunction(dc *dashContext) *Verdict {
	if dc.afterTok != nil && dc.afterTok.POS == POSConjunction {
		return &Verdict{CategoryConjunction, ", ", 0.85, true}
	}
	return nil
}

// detectEmphasis: the dash sets off an intensifier — a -ly adverb or an
// adjective directly after it (or one step after leading punctuation), or
// an adposition+adverb opener such as "at last".
func detectEmphasis(dc *dashContext) *Verdict {
	t1 := dc.afterTok
	if t1 == nil {
		return nil
	}
	t2 := dc.tokenAfter(t1)

	if isEmphaticToken(t1) {
		return &Verdict{CategoryEmphasis, ", ", 0.75, true}
	}
	if t1.POS == POSPunctuation && isEmphaticToken(t2) {
		return &Verdict{CategoryEmphasis, ", ", 0.75, true}
	}
	if t1.POS == POSAdposition && t2 != nil && t2.POS == POSAdverb {
		return &Verdict{CategoryEmphasis, ", ", 0.75, true}
	}
	return nil
}

func isEmphaticToken(t *Token) bool {
	if t == nil {
		return false
	}
	if t.POS == POSAdjective {
		return true
	}
	return t.POS == POSAdverb && strings.HasSuffix(strings.ToLower(t.Text), "ly")
}

// interruptionMarkers are discourse openers that signal a broken-off
// sentence when they follow a dash.
var interruptionMarkers = []string{
	"never mind", "forget it", "whatever", "anyway", "actually", "well",
	"oh", "um", "uh", "er", "hmm", "so", "but", "however", "nevertheless",
	"meanwhile", "suddenly", "unexpectedly", "fortunately", "unfortunately",
	"interestingly", "surprisingly", "obviously", "clearly", "apparently",
	"evidently", "what",
}

// detectInterruption: the sentence breaks off at the dash — terminal
// punctuation follows immediately, or the continuation opens with a
// discourse marker, or it restarts capitalized in a way the sentence
// boundary rule below does not claim.
func detectInterruption(dc *dashContext) *Verdict {
	v := &Verdict{CategoryInterruption, "... ", 0.8, false}

	if r := runeAt(dc.window, dc.dashOff+len(EmDash)); r == '.' || r == '!' || r == '?' {
		return v
	}

	afterLower := strings.ToLower(dc.after)
	for _, marker := range interruptionMarkers {
		if hasPhrasePrefix(afterLower, marker) {
			return v
		}
	}

	if dc.afterTok != nil && isCapitalized(dc.afterTok.Text) && !sentenceBoundaryShape(dc) {
		return v
	}
	return nil
}

// detectNumeralList: a numeral runs into prose — `1—self driving cars`
// becomes a labeled list item.
func detectNumeralList(dc *dashContext) *Verdict {
	if dc.before == "" || dc.after == "" {
		return nil
	}
	if unicode.IsDigit(lastRune(dc.before)) && unicode.IsLetter(firstRune(dc.after)) {
		return &Verdict{CategoryNumeralList, ": ", 0.8, false}
	}
	return nil
}

// detectNumeralCompound: a compound word inside an already-colonized list
// item — `1: anti—establishment movements`.
func detectNumeralCompound(dc *dashContext) *Verdict {
	if dc.before == "" || dc.after == "" {
		return nil
	}
	if !unicode.IsLetter(lastRune(dc.before)) || !unicode.IsLetter(firstRune(dc.after)) {
		return nil
	}
	colon := strings.LastIndex(dc.window[:dc.dashOff], ":")
	if colon < 0 {
		return nil
	}
	beforeColon := strings.TrimSpace(dc.window[:colon])
	if beforeColon == "" || !unicode.IsDigit(lastRune(beforeColon)) {
		return nil
	}
	return &Verdict{CategoryNumeralCompound, "-", 0.75, false}
}

// detectBulletList: the dash follows a bare numeral or bullet glyph.
func detectBulletList(dc *dashContext) *Verdict {
	if dc.before == "" {
		return nil
	}
	r := lastRune(dc.before)
	if unicode.IsDigit(r) || r == '•' || r == '·' {
		return &Verdict{CategoryBulletList, " - ", 0.7, false}
	}
	return nil
}

// detectSentenceBoundary: prose stops and restarts capitalized across the
// dash, with real words on both sides.
func detectSentenceBoundary(dc *dashContext) *Verdict {
	if sentenceBoundaryShape(dc) {
		return &Verdict{CategorySentenceBoundary, ". ", 0.65, false}
	}
	return nil
}

// sentenceBoundaryShape is the overlap boundary between the interruption
// and sentence-boundary rules: an alphabetic word before the dash, a
// capitalized word after, both longer than one character.
func sentenceBoundaryShape(dc *dashContext) bool {
	bw, aw := lastWord(dc.before), firstWord(dc.after)
	if bw == "" || aw == "" {
		return false
	}
	return unicode.IsLetter(lastRune(bw)) &&
		isCapitalized(aw) &&
		utf8.RuneCountInString(bw) > 1 &&
		utf8.RuneCountInString(aw) > 1
}

// detectDefault: anything that survives the cascade reads as a soft
// parenthetical break.
func detectDefault(dc *dashContext) *Verdict {
	return &Verdict{CategoryParenthetical, ", ", 0.5, true}
}

// hasPhrasePrefix reports whether s starts with phrase followed by a word
// boundary, so "so" matches "so that" but not "software".
func hasPhrasePrefix(s, phrase string) bool {
	if !strings.HasPrefix(s, phrase) {
		return false
	}
	if len(s) == len(phrase) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[len(phrase):])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func lastWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func lastRune(s string) rune {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r
}

// runeAt decodes the rune starting at byte offset off, or 0 past the end.
func runeAt(s string, off int) rune {
	if off < 0 || off >= len(s) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(s[off:])
	return r
}

func isSingleUpper(s string) bool {
	return utf8.RuneCountInString(s) == 1 && unicode.IsUpper(firstRune(s))
}

func isSingleLower(s string) bool {
	return utf8.RuneCountInString(s) == 1 && unicode.IsLower(firstRune(s))
}
