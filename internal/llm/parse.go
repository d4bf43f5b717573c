package llm

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Grading replies are free text from instruction-following models, so the
// parser has to scrape rather than decode. Precedence: an explicit
// "Score:" label (the format the grading prompt asks for), then a
// percentage anywhere, then a fraction anywhere, then the first bare
// number, then qualitative wording. Labeled bare numbers are read on the
// marks scale; percentages and fractions are linearly scaled.
var (
	scoreLabelRe = regexp.MustCompile(`(?i)\bscore\b\s*[:=\-]?\s*`)
	percentRe    = regexp.MustCompile(`(-?\d+(?:\.\d+)?)\s*%`)
	fractionRe   = regexp.MustCompile(`(-?\d+(?:\.\d+)?)\s*(?:/|out\s+of)\s*(\d+(?:\.\d+)?)`)
	numberRe     = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
	feedbackRe   = regexp.MustCompile(`(?is)\bfeedback\b\s*[:\-]?\s*(.+)`)

	leadPercentRe  = regexp.MustCompile(`^\s*(-?\d+(?:\.\d+)?)\s*%`)
	leadFractionRe = regexp.MustCompile(`^\s*(-?\d+(?:\.\d+)?)\s*(?:/|out\s+of)\s*(\d+(?:\.\d+)?)`)
	leadNumberRe   = regexp.MustCompile(`^\s*(-?\d+(?:\.\d+)?)`)
)

type scoreMode int

const (
	modeMarks   scoreMode = iota // value already on the [0, maxMarks] scale
	modePercent                  // value is a percentage
)

// Coarse bands for qualitative-only replies, as fractions of maxMarks.
const (
	lowBand  = 0.2
	midBand  = 0.55
	highBand = 0.85
)

var (
	negativeTerms = []string{"incorrect", "wrong", "poor", "irrelevant", "off-topic", "does not answer", "fails to", "no understanding"}
	partialTerms  = []string{"partially", "partial", "incomplete", "somewhat", "some understanding", "on the right track", "needs improvement"}
	positiveTerms = []string{"excellent", "perfect", "correct", "accurate", "very good", "well done", "strong", "comprehensive", "thorough"}
)

// parseGradeReply maps a free-text grading reply to a score in
// [0, maxMarks] plus feedback text. The reply is unparseable when it
// carries neither a numeric signal nor recognizable qualitative wording.
func parseGradeReply(reply string, maxMarks int) (int, string, error) {
	text := strings.TrimSpace(reply)
	if text == "" {
		return 0, "", errors.New("empty reply")
	}

	feedback := extractFeedback(text)

	if score, ok := extractScore(text, maxMarks); ok {
		return score, feedback, nil
	}
	if score, ok := qualitativeScore(text, maxMarks); ok {
		return score, feedback, nil
	}
	return 0, "", errors.New("no score signal in reply")
}

func extractScore(text string, maxMarks int) (int, bool) {
	if loc := scoreLabelRe.FindStringIndex(text); loc != nil {
		rest := text[loc[1]:]
		if end := strings.IndexByte(rest, '\n'); end >= 0 {
			rest = rest[:end]
		}
		if v, mode, ok := leadingNumber(rest); ok {
			return scaleScore(v, mode, maxMarks), true
		}
	}
	if m := percentRe.FindStringSubmatch(text); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		return scaleScore(v, modePercent, maxMarks), true
	}
	if m := fractionRe.FindStringSubmatch(text); m != nil {
		num, _ := strconv.ParseFloat(m[1], 64)
		den, _ := strconv.ParseFloat(m[2], 64)
		if den > 0 {
			return scaleScore(num/den*100, modePercent, maxMarks), true
		}
	}
	if m := numberRe.FindString(text); m != "" {
		v, _ := strconv.ParseFloat(m, 64)
		return scaleScore(v, modeMarks, maxMarks), true
	}
	return 0, false
}

// leadingNumber reads the value immediately after a score label. Fractions
// are tried before bare numbers so "7/10" is not read as 7 marks.
func leadingNumber(s string) (float64, scoreMode, bool) {
	if m := leadPercentRe.FindStringSubmatch(s); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		return v, modePercent, true
	}
	if m := leadFractionRe.FindStringSubmatch(s); m != nil {
		num, _ := strconv.ParseFloat(m[1], 64)
		den, _ := strconv.ParseFloat(m[2], 64)
		if den > 0 {
			return num / den * 100, modePercent, true
		}
	}
	if m := leadNumberRe.FindStringSubmatch(s); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		return v, modeMarks, true
	}
	return 0, modeMarks, false
}

// qualitativeScore maps judgment wording to a coarse band of maxMarks.
// Negative terms are checked first so "incorrect" never matches "correct".
func qualitativeScore(text string, maxMarks int) (int, bool) {
	lower := strings.ToLower(text)
	for _, term := range negativeTerms {
		if strings.Contains(lower, term) {
			return bandScore(lowBand, maxMarks), true
		}
	}
	for _, term := range partialTerms {
		if strings.Contains(lower, term) {
			return bandScore(midBand, maxMarks), true
		}
	}
	for _, term := range positiveTerms {
		if strings.Contains(lower, term) {
			return bandScore(highBand, maxMarks), true
		}
	}
	return 0, false
}

func bandScore(band float64, maxMarks int) int {
	return clampScore(int(math.Round(band*float64(maxMarks))), maxMarks)
}

func scaleScore(v float64, mode scoreMode, maxMarks int) int {
	score := v
	if mode == modePercent {
		score = v / 100 * float64(maxMarks)
	}
	return clampScore(int(math.Round(score)), maxMarks)
}

func clampScore(score, maxMarks int) int {
	if score < 0 {
		return 0
	}
	if score > maxMarks {
		return maxMarks
	}
	return score
}

func extractFeedback(text string) string {
	if m := feedbackRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return text
}
