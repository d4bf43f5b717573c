package plagiarism

import (
	"context"
	"strings"
	"unicode/utf8"
)

// suspiciousPatterns are copy/paste and citation markers that rarely
// appear in an answer written from memory. Each hit adds patternPoints,
// capped at heuristicCap.
var suspiciousPatterns = []string{
	"copied from",
	"copy",
	"paste",
	"source:",
	"wikipedia",
	"according to",
	"retrieved from",
	"cited from",
}

const (
	patternPoints = 15
	heuristicCap  = 50
	shortTextLen  = 30
	shortTextPct  = 10
)

// Heuristic scores text locally by scanning for suspicious patterns. It
// is the terminal rung behind the remote client and never fails.
type Heuristic struct{}

var _ Checker = Heuristic{}

// Check scores the text by pattern matching. Very short texts score a
// floor percentage: they carry too little signal to clear.
func (Heuristic) Check(_ context.Context, text string) Report {
	lower := strings.ToLower(text)

	score := 0
	var sources []string
	for _, pat := range suspiciousPatterns {
		if strings.Contains(lower, pat) {
			score += patternPoints
			sources = append(sources, "pattern: "+pat)
		}
	}
	if score > heuristicCap {
		score = heuristicCap
	}

	if utf8.RuneCountInString(strings.TrimSpace(text)) < shortTextLen && score < shortTextPct {
		score = shortTextPct
	}

	return Report{Percent: float64(score), Sources: sources, Origin: OriginHeuristic}
}
