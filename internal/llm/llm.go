// Package llm implements the answer-generation and grading fallback chain:
// an ordered list of remote text-generation backends tried in priority
// order, terminating in a static knowledge-base or heuristic rung that
// cannot fail. Callers never see an error; degraded results are signaled
// through provenance tags only.
package llm

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/markzero/markzero/internal/knowledge"
	"github.com/markzero/markzero/internal/llm/prompts"
)

// Provenance tags for terminal rungs. Remote rungs tag results with
// RemoteProvenance of their backend name.
const (
	ProvenanceStatic    = "fallback:static"
	ProvenanceHeuristic = "fallback:heuristic"
)

// RemoteProvenance returns the provenance tag for a remote backend.
func RemoteProvenance(name string) string { return "remote:" + name }

// IsFallback reports whether a provenance tag marks a degraded result.
func IsFallback(provenance string) bool {
	return strings.HasPrefix(provenance, "fallback:")
}

// Result is generated text plus the provenance tag of the rung that
// produced it.
type Result struct {
	Text       string `json:"text"`
	Provenance string `json:"provenance"`
}

// Grade is a graded answer: a score clamped to [0, max marks], feedback
// text, and the provenance tag of the rung that produced it.
type Grade struct {
	Score      int    `json:"score"`
	Feedback   string `json:"feedback"`
	Provenance string `json:"provenance"`
}

// minAnswerRunes is the shortest generation reply accepted as usable; a
// handful of characters is an apology or a refusal, not a model answer.
const minAnswerRunes = 20

// DefaultTimeout bounds each backend attempt.
const DefaultTimeout = 30 * time.Second

// Service runs the ordered fallback chain. It holds no mutable state, so
// concurrent calls for different questions are independent. Both public
// operations always return a result: every failure mode ends at a
// terminal rung that cannot fail, so neither method has an error return.
type Service struct {
	backends []Backend
	kb       *knowledge.Base
	timeout  time.Duration
}

// NewService creates a Service over the given backends in priority order.
// A non-positive timeout falls back to DefaultTimeout.
func NewService(backends []Backend, kb *knowledge.Base, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{backends: backends, kb: kb, timeout: timeout}
}

// GenerateAnswer produces a model answer for a question. Backends are
// tried in priority order; the first usable reply wins and no later
// backend is invoked. When every backend fails, the knowledge base
// supplies the answer for the subject.
func (s *Service) GenerateAnswer(ctx context.Context, question, subject string) Result {
	req := Request{
		System:      prompts.AnswerSystem,
		Prompt:      prompts.BuildAnswerPrompt(question, subject),
		MaxTokens:   1024,
		Temperature: 0.7,
	}

	for _, b := range s.backends {
		text, err := s.complete(ctx, b, req)
		if err == nil && utf8.RuneCountInString(text) < minAnswerRunes {
			err = &ErrUnparseableResponse{Backend: b.Name(), Reason: "reply too short to be a model answer"}
		}
		if err != nil {
			slog.Warn("answer backend failed", "backend", b.Name(), "error", err)
			continue
		}
		slog.Debug("answer generated", "backend", b.Name(), "runes", utf8.RuneCountInString(text))
		return Result{Text: text, Provenance: RemoteProvenance(b.Name())}
	}

	slog.Info("all answer backends failed, using knowledge base", "subject", subject)
	return Result{Text: s.kb.Lookup(subject), Provenance: ProvenanceStatic}
}

// Grade scores a student answer against a model answer, returning a score
// in [0, maxMarks]. Backends are tried in priority order and their free-
// text replies parsed defensively; a reply that yields no score is treated
// as a backend failure. When every backend fails, a lexical-overlap
// heuristic produces the score.
func (s *Service) Grade(ctx context.Context, modelAnswer, studentAnswer string, maxMarks int) Grade {
	req := Request{
		System:      prompts.GradeSystem,
		Prompt:      prompts.BuildGradePrompt(modelAnswer, studentAnswer, maxMarks),
		MaxTokens:   512,
		Temperature: 0.2,
	}

	for _, b := range s.backends {
		reply, err := s.complete(ctx, b, req)
		if err != nil {
			slog.Warn("grading backend failed", "backend", b.Name(), "error", err)
			continue
		}
		score, feedback, perr := parseGradeReply(reply, maxMarks)
		if perr != nil {
			uerr := &ErrUnparseableResponse{Backend: b.Name(), Reason: perr.Error()}
			slog.Warn("grading backend failed", "backend", b.Name(), "error", uerr)
			continue
		}
		slog.Debug("answer graded", "backend", b.Name(), "score", score, "max_marks", maxMarks)
		return Grade{Score: score, Feedback: feedback, Provenance: RemoteProvenance(b.Name())}
	}

	slog.Info("all grading backends failed, using overlap heuristic")
	return Grade{
		Score:      heuristicScore(modelAnswer, studentAnswer, maxMarks),
		Feedback:   heuristicFeedback,
		Provenance: ProvenanceHeuristic,
	}
}

// complete runs one bounded backend attempt.
func (s *Service) complete(ctx context.Context, b Backend, req Request) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return b.Complete(attemptCtx, req)
}
