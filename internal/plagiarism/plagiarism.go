// Package plagiarism scores submitted text for likely plagiarism. A
// remote checking service is consulted first; when it is unreachable or
// unconfigured, a local pattern heuristic supplies a best-effort score.
// Like the grading chain, the public contract has no failure case: Check
// always returns a report, and its Origin tag tells callers which path
// produced it.
package plagiarism

import "context"

// Origin tags, matching the provenance scheme of the grading chain.
const OriginHeuristic = "fallback:heuristic"

// RemoteOrigin returns the origin tag for a remote checking service.
func RemoteOrigin(name string) string { return "remote:" + name }

// Report is the outcome of one plagiarism check. Percent is in [0, 100].
type Report struct {
	Percent float64  `json:"percent"`
	Sources []string `json:"sources,omitempty"`
	Origin  string   `json:"origin"`
}

// Checker scores a text for plagiarism.
type Checker interface {
	Check(ctx context.Context, text string) Report
}

// Severity classifies a plagiarism percentage for display.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeverityVeryHigh Severity = "very_high"
)

// Level maps a percentage to its severity band.
func Level(percent float64) Severity {
	switch {
	case percent <= 0:
		return SeverityNone
	case percent < 15:
		return SeverityLow
	case percent < 30:
		return SeverityModerate
	case percent < 50:
		return SeverityHigh
	default:
		return SeverityVeryHigh
	}
}

func clampPercent(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
