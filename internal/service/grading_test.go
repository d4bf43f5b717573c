package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/markzero/markzero/internal/knowledge"
	"github.com/markzero/markzero/internal/llm"
	"github.com/markzero/markzero/internal/model"
	"github.com/markzero/markzero/internal/plagiarism"
)

// stubChecker returns a fixed plagiarism percentage.
type stubChecker struct {
	percent float64
}

func (s stubChecker) Check(_ context.Context, _ string) plagiarism.Report {
	return plagiarism.Report{Percent: s.percent, Origin: plagiarism.OriginHeuristic}
}

// offlineLLM builds a chain whose only backend always fails, so grading
// lands on the lexical-overlap heuristic deterministically.
func offlineLLM(t *testing.T) *llm.Service {
	t.Helper()
	dead := llm.NewMockBackend("dead")
	return llm.NewService([]llm.Backend{dead}, knowledge.New(), time.Second)
}

func testAssessment(answers ...string) model.Assessment {
	a := model.Assessment{ID: "a1", Title: "Quiz"}
	for i, text := range answers {
		a.Questions = append(a.Questions, model.Question{
			ID:          fmt.Sprintf("q%d", i+1),
			Text:        "Explain the topic.",
			Subject:     "general",
			ModelAnswer: text,
			Marks:       10,
		})
	}
	a.TotalMarks = a.SumMarks()
	return a
}

func TestValidate(t *testing.T) {
	g := New(offlineLLM(t), stubChecker{}, 1, true)
	a := testAssessment("The mitochondria is the powerhouse of the cell.")
	a.Questions[0].WordLimit = 5

	tests := []struct {
		name    string
		answers []string
		wantErr any
	}{
		{"count mismatch", []string{"one", "two"}, &AnswerCountError{}},
		{"empty answer", []string{"   "}, &EmptyAnswerError{}},
		{"under word minimum", []string{"mitochondria powerhouse cell"}, &WordMinimumError{}},
		{"valid", []string{"the mitochondria is the powerhouse of the cell"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.Validate(a, tt.answers)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			switch tt.wantErr.(type) {
			case *AnswerCountError:
				var target *AnswerCountError
				if !errors.As(err, &target) {
					t.Errorf("error %v is not AnswerCountError", err)
				}
			case *EmptyAnswerError:
				var target *EmptyAnswerError
				if !errors.As(err, &target) {
					t.Errorf("error %v is not EmptyAnswerError", err)
				}
			case *WordMinimumError:
				var target *WordMinimumError
				if !errors.As(err, &target) {
					t.Errorf("error %v is not WordMinimumError", err)
				}
			}
		})
	}
}

// The word limit is a floor, not a ceiling: short answers are rejected,
// long ones are welcome.
func TestWordLimitIsAMinimum(t *testing.T) {
	g := New(offlineLLM(t), stubChecker{}, 1, true)
	a := testAssessment("A thorough explanation of the topic in many words.")
	a.Questions[0].WordLimit = 50

	short := []string{"too short answer"}
	err := g.Validate(a, short)
	var minErr *WordMinimumError
	if !errors.As(err, &minErr) {
		t.Fatalf("3-word answer under a 50-word minimum: got %v, want WordMinimumError", err)
	}
	if minErr.Minimum != 50 || minErr.Got != 3 {
		t.Errorf("error reports %d/%d, want got=3 minimum=50", minErr.Got, minErr.Minimum)
	}

	long := []string{strings.Repeat("word ", 60)}
	if err := g.Validate(a, long); err != nil {
		t.Errorf("60-word answer over a 50-word minimum should pass, got %v", err)
	}
}

func TestGradeSubmissionOrdersAndAggregates(t *testing.T) {
	a := testAssessment(
		"Plants convert sunlight into chemical energy.",
		"Water boils at one hundred degrees celsius.",
		"Gravity pulls objects toward the earth.",
	)
	g := New(offlineLLM(t), stubChecker{}, 3, true)

	// Identical answers score full marks on the heuristic rung.
	answers := []string{a.Questions[0].ModelAnswer, a.Questions[1].ModelAnswer, a.Questions[2].ModelAnswer}
	results, summary, err := g.GradeSubmission(context.Background(), a, answers)
	if err != nil {
		t.Fatalf("GradeSubmission: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i, res := range results {
		if res.QuestionID != a.Questions[i].ID {
			t.Errorf("result %d is for question %q, want %q", i, res.QuestionID, a.Questions[i].ID)
		}
		if res.FinalScore != 10 {
			t.Errorf("question %d final score = %d, want 10", i, res.FinalScore)
		}
		if res.Provenance != llm.ProvenanceHeuristic {
			t.Errorf("question %d provenance = %q, want %q", i, res.Provenance, llm.ProvenanceHeuristic)
		}
	}
	if summary.TotalScore != 30 || summary.TotalMarks != 30 {
		t.Errorf("summary = %d/%d, want 30/30", summary.TotalScore, summary.TotalMarks)
	}
	if summary.Band != model.BandExcellent {
		t.Errorf("band = %q, want %q", summary.Band, model.BandExcellent)
	}
}

func TestPlagiarismPenalty(t *testing.T) {
	a := testAssessment("The french revolution began in seventeen eighty nine.")
	answers := []string{a.Questions[0].ModelAnswer}

	withPenalty := New(offlineLLM(t), stubChecker{percent: 50}, 1, true)
	results, _, err := withPenalty.GradeSubmission(context.Background(), a, answers)
	if err != nil {
		t.Fatalf("GradeSubmission: %v", err)
	}
	if results[0].ContentScore != 10 || results[0].FinalScore != 5 {
		t.Errorf("with penalty: content=%d final=%d, want 10 and 5", results[0].ContentScore, results[0].FinalScore)
	}

	noPenalty := New(offlineLLM(t), stubChecker{percent: 50}, 1, false)
	results, _, err = noPenalty.GradeSubmission(context.Background(), a, answers)
	if err != nil {
		t.Fatalf("GradeSubmission: %v", err)
	}
	if results[0].FinalScore != 10 {
		t.Errorf("without penalty: final=%d, want content score 10", results[0].FinalScore)
	}
}

func TestGradesRemotelyWhenBackendUp(t *testing.T) {
	a := testAssessment("Paris is the capital of France.")
	backend := llm.NewMockBackend("groq",
		llm.MockReply{Text: "Score: 7\nFeedback: Mostly right but missing detail."},
	)
	svc := llm.NewService([]llm.Backend{backend}, knowledge.New(), time.Second)
	g := New(svc, stubChecker{}, 1, true)

	results, _, err := g.GradeSubmission(context.Background(), a, []string{"France's capital is Paris."})
	if err != nil {
		t.Fatalf("GradeSubmission: %v", err)
	}
	if results[0].ContentScore != 7 {
		t.Errorf("content score = %d, want 7", results[0].ContentScore)
	}
	if results[0].Provenance != llm.RemoteProvenance("groq") {
		t.Errorf("provenance = %q, want remote:groq", results[0].Provenance)
	}
	if !strings.Contains(results[0].Feedback, "Mostly right") {
		t.Errorf("feedback = %q, want backend feedback", results[0].Feedback)
	}
}

func TestGeneratesModelAnswerWhenMissing(t *testing.T) {
	a := testAssessment("")
	a.Questions[0].ModelAnswer = ""
	a.Questions[0].Text = "What is photosynthesis?"
	a.Questions[0].Subject = "biology"

	// First reply answers the generation request, second the grading one.
	backend := llm.NewMockBackend("groq",
		llm.MockReply{Text: "Photosynthesis is the process by which plants convert light energy into glucose."},
		llm.MockReply{Text: "Score: 8\nFeedback: Good coverage of the process."},
	)
	svc := llm.NewService([]llm.Backend{backend}, knowledge.New(), time.Second)
	g := New(svc, stubChecker{}, 1, true)

	results, _, err := g.GradeSubmission(context.Background(), a, []string{"Plants turn light into sugar."})
	if err != nil {
		t.Fatalf("GradeSubmission: %v", err)
	}
	if backend.CallCount() != 2 {
		t.Fatalf("backend called %d times, want 2 (generate + grade)", backend.CallCount())
	}
	if results[0].ContentScore != 8 {
		t.Errorf("content score = %d, want 8", results[0].ContentScore)
	}
}
