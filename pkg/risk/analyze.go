package risk

import (
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var foldCaser = cases.Fold()

// foldText normalizes text for matching: NFKC normalization (collapses
// full-width and compatibility forms) followed by unicode case folding.
func foldText(s string) string {
	return foldCaser.String(norm.NFKC.String(s))
}

// Analyzer classifies single text samples against a vocabulary.
// It is stateless and safe for concurrent use.
type Analyzer struct {
	vocab *Vocabulary
}

// NewAnalyzer creates an analyzer over the given vocabulary.
// A nil vocabulary uses the embedded default table.
func NewAnalyzer(vocab *Vocabulary) *Analyzer {
	if vocab == nil {
		vocab = Default()
	}
	return &Analyzer{vocab: vocab}
}

// AnalyzeText classifies a single free-text input for crisis-risk
// indicators. The assessment takes the highest severity tier found;
// Matches collects every matched phrase, ordered by first occurrence
// in the text regardless of tier.
//
// This is a pure function: same text, same result, no side effects.
// Empty text yields LevelNone.
func (a *Analyzer) AnalyzeText(text string) (Assessment, error) {
	if !utf8.ValidString(text) {
		return Assessment{}, &InvalidInputError{Reason: "text is not valid UTF-8"}
	}

	assessment := Assessment{Level: LevelNone, Matches: []string{}}
	if text == "" {
		return assessment, nil
	}

	folded := foldText(text)

	type hit struct {
		pos    int
		phrase string
	}
	var hits []hit
	for _, p := range a.vocab.Phrases() {
		if pos := strings.Index(folded, p.Text); pos >= 0 {
			hits = append(hits, hit{pos: pos, phrase: p.Text})
			if p.Level.Rank() > assessment.Level.Rank() {
				assessment.Level = p.Level
			}
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })
	for _, h := range hits {
		assessment.Matches = append(assessment.Matches, h.phrase)
	}

	return assessment, nil
}
