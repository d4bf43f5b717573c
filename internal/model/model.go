package model

import "time"

// AnswerOriginTeacher marks a model answer typed in by the teacher rather
// than produced by a generation backend. Generated answers carry the
// provenance tag of the chain rung that produced them.
const AnswerOriginTeacher = "teacher"

// Question is a single prompt inside an assessment.
type Question struct {
	ID           string    `json:"id"`
	Text         string    `json:"text"`
	Subject      string    `json:"subject"`
	ModelAnswer  string    `json:"model_answer,omitempty"`
	AnswerOrigin string    `json:"answer_origin,omitempty"`
	Marks        int       `json:"marks"`
	WordLimit    int       `json:"word_limit,omitempty"` // minimum words required; 0 means none
	CreatedAt    time.Time `json:"created_at"`
}

// Assessment is an ordered set of questions authored by a teacher.
// TotalMarks is always the sum of per-question marks; the store keeps it
// in sync on every question mutation.
type Assessment struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Questions  []Question `json:"questions"`
	TotalMarks int        `json:"total_marks"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// SumMarks returns the sum of per-question marks.
func (a *Assessment) SumMarks() int {
	total := 0
	for _, q := range a.Questions {
		total += q.Marks
	}
	return total
}

// QuestionByID returns the question with the given ID.
func (a *Assessment) QuestionByID(id string) (Question, bool) {
	for _, q := range a.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// QuestionResult holds the graded outcome for one answer. ContentScore is
// the AI-assigned score before the plagiarism policy; FinalScore is the
// score after it. Both are clamped to [0, MaxMarks]. Provenance is always
// set: remote:<backend> or a fallback: tag.
type QuestionResult struct {
	QuestionID        string  `json:"question_id"`
	ContentScore      int     `json:"content_score"`
	FinalScore        int     `json:"final_score"`
	MaxMarks          int     `json:"max_marks"`
	Feedback          string  `json:"feedback"`
	Provenance        string  `json:"provenance"`
	PlagiarismPercent float64 `json:"plagiarism_percent"`
	PlagiarismOrigin  string  `json:"plagiarism_origin"`
}

// StudentResponse is one student's graded submission for an assessment.
// It is created already graded and never mutated afterwards.
type StudentResponse struct {
	ID           string           `json:"id"`
	AssessmentID string           `json:"assessment_id"`
	StudentName  string           `json:"student_name"`
	Answers      []string         `json:"answers"`
	Results      []QuestionResult `json:"results"`
	TotalScore   int              `json:"total_score"`
	TotalMarks   int              `json:"total_marks"`
	Percent      float64          `json:"percent"`
	Band         Band             `json:"band"`
	SubmittedAt  time.Time        `json:"submitted_at"`
	GradedAt     time.Time        `json:"graded_at"`
}

// Band classifies an overall submission result.
type Band string

const (
	BandExcellent        Band = "excellent"
	BandGood             Band = "good"
	BandNeedsImprovement Band = "needs_improvement"
)

// BandFor returns the overall band for a score percentage.
func BandFor(percent float64) Band {
	switch {
	case percent >= 80:
		return BandExcellent
	case percent >= 60:
		return BandGood
	default:
		return BandNeedsImprovement
	}
}
