package llm

import (
	"math"
	"strings"
	"unicode"
)

// heuristicFeedback is the templated message attached to heuristic grades.
const heuristicFeedback = "Automated grading was unavailable, so this score estimates how closely the answer matches the expected one."

// stopwords are excluded from overlap comparison so shared filler words do
// not inflate scores.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true, "was": true,
	"were": true, "be": true, "been": true, "being": true, "of": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "with": true,
	"by": true, "from": true, "as": true, "and": true, "or": true, "but": true,
	"not": true, "no": true, "it": true, "its": true, "this": true,
	"that": true, "these": true, "those": true, "they": true, "we": true,
	"you": true, "i": true, "their": true, "our": true, "your": true,
	"my": true, "them": true, "us": true, "what": true, "which": true,
	"who": true, "how": true, "when": true, "where": true, "why": true,
	"do": true, "does": true, "did": true, "have": true, "has": true,
	"had": true, "will": true, "would": true, "can": true, "could": true,
	"should": true, "may": true, "might": true, "must": true, "there": true,
	"if": true, "then": true, "than": true, "so": true, "such": true,
	"about": true, "into": true, "also": true, "each": true, "all": true,
	"any": true, "some": true, "more": true, "most": true, "other": true,
	"very": true, "only": true, "same": true, "both": true,
}

// heuristicScore grades by lexical overlap: the Jaccard ratio of
// significant words shared between the model and student answers, scaled
// to maxMarks. Identical texts score exactly maxMarks and fully disjoint
// texts score 0.
func heuristicScore(modelAnswer, studentAnswer string, maxMarks int) int {
	modelWords := significantWords(modelAnswer)
	studentWords := significantWords(studentAnswer)

	// When stopword filtering empties a side, compare raw tokens instead so
	// very short answers still grade sensibly.
	if len(modelWords) == 0 || len(studentWords) == 0 {
		modelWords = tokenSet(modelAnswer)
		studentWords = tokenSet(studentAnswer)
	}
	if len(modelWords) == 0 || len(studentWords) == 0 {
		return 0
	}

	overlap := 0
	union := len(studentWords)
	for w := range modelWords {
		if studentWords[w] {
			overlap++
		} else {
			union++
		}
	}

	ratio := float64(overlap) / float64(union)
	return clampScore(int(math.Round(ratio*float64(maxMarks))), maxMarks)
}

func significantWords(text string) map[string]bool {
	words := tokenSet(text)
	for w := range words {
		if stopwords[w] {
			delete(words, w)
		}
	}
	return words
}

func tokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, w := range fields {
		set[w] = true
	}
	return set
}
