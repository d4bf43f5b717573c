// Package service orchestrates submission grading: it validates a
// student's answers against the assessment, grades every question through
// the fallback chain and the plagiarism checker, applies the plagiarism
// penalty policy, and aggregates the overall result.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/markzero/markzero/internal/llm"
	"github.com/markzero/markzero/internal/model"
	"github.com/markzero/markzero/internal/plagiarism"
	"github.com/markzero/markzero/internal/worker"
)

// DefaultWorkers is the per-submission grading concurrency.
const DefaultWorkers = 4

// AnswerCountError reports a submission whose answer sequence does not
// match the assessment's question count.
type AnswerCountError struct {
	Want, Got int
}

func (e *AnswerCountError) Error() string {
	return fmt.Sprintf("submission has %d answers, assessment has %d questions", e.Got, e.Want)
}

// EmptyAnswerError reports an unanswered question.
type EmptyAnswerError struct {
	QuestionIndex int
}

func (e *EmptyAnswerError) Error() string {
	return fmt.Sprintf("question %d is unanswered", e.QuestionIndex+1)
}

// WordMinimumError reports an answer shorter than its question's minimum
// word count.
type WordMinimumError struct {
	QuestionIndex int
	Minimum, Got  int
}

func (e *WordMinimumError) Error() string {
	return fmt.Sprintf("answer %d has %d words, minimum is %d", e.QuestionIndex+1, e.Got, e.Minimum)
}

// Summary aggregates a graded submission.
type Summary struct {
	TotalScore int        `json:"total_score"`
	TotalMarks int        `json:"total_marks"`
	Percent    float64    `json:"percent"`
	Band       model.Band `json:"band"`
}

// Grader manages grading of student submissions. It is safe for
// concurrent use: all state is read-only configuration.
type Grader struct {
	llm     *llm.Service
	checker plagiarism.Checker
	workers int
	penalty bool
}

// New creates a Grader. penalty controls whether plagiarism reduces the
// final score; a non-positive workers count falls back to DefaultWorkers.
func New(llmSvc *llm.Service, checker plagiarism.Checker, workers int, penalty bool) *Grader {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Grader{llm: llmSvc, checker: checker, workers: workers, penalty: penalty}
}

// Validate checks a submission's shape against the assessment without
// grading anything: answer count, unanswered questions, word minimums.
func (g *Grader) Validate(a model.Assessment, answers []string) error {
	if len(answers) != len(a.Questions) {
		return &AnswerCountError{Want: len(a.Questions), Got: len(answers)}
	}
	for i, answer := range answers {
		if strings.TrimSpace(answer) == "" {
			return &EmptyAnswerError{QuestionIndex: i}
		}
		if min := a.Questions[i].WordLimit; min > 0 {
			if words := len(strings.Fields(answer)); words < min {
				return &WordMinimumError{QuestionIndex: i, Minimum: min, Got: words}
			}
		}
	}
	return nil
}

// GradeSubmission validates and grades a full submission. Questions are
// graded concurrently through a worker pool; results come back in
// question order regardless of completion order. The fallback chain and
// the plagiarism checker cannot fail, so after validation neither can
// this method.
func (g *Grader) GradeSubmission(ctx context.Context, a model.Assessment, answers []string) ([]model.QuestionResult, Summary, error) {
	if err := g.Validate(a, answers); err != nil {
		return nil, Summary{}, err
	}

	pool := worker.NewPool[model.QuestionResult](g.workers, len(a.Questions))
	for i, q := range a.Questions {
		question, answer := q, answers[i]
		pool.Submit(q.ID, func() model.QuestionResult {
			return g.gradeQuestion(ctx, question, answer)
		})
	}
	pool.Close()

	byID := make(map[string]model.QuestionResult, len(a.Questions))
	for range a.Questions {
		res := <-pool.Results()
		byID[res.JobID] = res.Output
	}

	results := make([]model.QuestionResult, len(a.Questions))
	summary := Summary{TotalMarks: a.TotalMarks}
	for i, q := range a.Questions {
		results[i] = byID[q.ID]
		summary.TotalScore += results[i].FinalScore
	}
	if summary.TotalMarks > 0 {
		summary.Percent = float64(summary.TotalScore) / float64(summary.TotalMarks) * 100
	}
	summary.Band = model.BandFor(summary.Percent)

	return results, summary, nil
}

// gradeQuestion grades one answer: content score from the chain,
// plagiarism from the checker, then the penalty policy.
func (g *Grader) gradeQuestion(ctx context.Context, q model.Question, answer string) model.QuestionResult {
	modelAnswer := q.ModelAnswer
	if modelAnswer == "" {
		// The teacher never supplied one and generation was skipped at
		// authoring time; generate on demand so grading has a reference.
		generated := g.llm.GenerateAnswer(ctx, q.Text, q.Subject)
		modelAnswer = generated.Text
		slog.Debug("generated model answer at grading time", "question", q.ID, "provenance", generated.Provenance)
	}

	grade := g.llm.Grade(ctx, modelAnswer, answer, q.Marks)
	report := g.checker.Check(ctx, answer)

	return model.QuestionResult{
		QuestionID:        q.ID,
		ContentScore:      grade.Score,
		FinalScore:        g.applyPenalty(grade.Score, report.Percent, q.Marks),
		MaxMarks:          q.Marks,
		Feedback:          grade.Feedback,
		Provenance:        grade.Provenance,
		PlagiarismPercent: report.Percent,
		PlagiarismOrigin:  report.Origin,
	}
}

// applyPenalty combines the content score with the plagiarism percentage:
// final = round(content × (1 − plagiarism/100)), clamped to [0, marks].
// With the penalty disabled the content score passes through unchanged.
func (g *Grader) applyPenalty(content int, plagiarismPercent float64, marks int) int {
	if !g.penalty {
		return content
	}
	final := int(math.Round(float64(content) * (1 - plagiarismPercent/100)))
	if final < 0 {
		return 0
	}
	if final > marks {
		return marks
	}
	return final
}
