// Package prompts renders the prompt texts sent to generation backends.
// Untrusted text (questions, student answers) is sanitized before it is
// placed inside prompt delimiters.
package prompts

import (
	"bytes"
	"embed"
	"regexp"
	"strings"
	"text/template"
	"unicode/utf8"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// System prompts for the two chain operations.
const (
	AnswerSystem = "You are an experienced teacher writing model answers for assessment questions. " +
		"Write clear, accurate, well-structured answers that student work can be graded against."
	GradeSystem = "You are an experienced examiner. Compare the student's answer with the model answer " +
		"and reply in exactly the format requested."
)

var (
	answerTmpl = template.Must(template.ParseFS(templateFS, "templates/answer.tmpl"))
	gradeTmpl  = template.Must(template.ParseFS(templateFS, "templates/grade.tmpl"))
)

// delimiterTagRe matches markup that could impersonate the prompt's own
// delimiters or smuggle instructions past them.
var delimiterTagRe = regexp.MustCompile(`(?i)</?\s*(?:student-answer|model-answer|system-instructions)\b[^>]*>`)

const maxPromptRunes = 10000

// AnswerData holds template data for answer-generation prompts.
type AnswerData struct {
	Question string
	Subject  string
}

// GradeData holds template data for grading prompts.
type GradeData struct {
	ModelAnswer   string
	StudentAnswer string
	MaxMarks      int
}

// BuildAnswerPrompt renders the model-answer generation prompt.
func BuildAnswerPrompt(question, subject string) string {
	var buf bytes.Buffer
	_ = answerTmpl.Execute(&buf, AnswerData{
		Question: Sanitize(question),
		Subject:  strings.TrimSpace(subject),
	})
	return buf.String()
}

// BuildGradePrompt renders the grading prompt.
func BuildGradePrompt(modelAnswer, studentAnswer string, maxMarks int) string {
	var buf bytes.Buffer
	_ = gradeTmpl.Execute(&buf, GradeData{
		ModelAnswer:   Sanitize(modelAnswer),
		StudentAnswer: Sanitize(studentAnswer),
		MaxMarks:      maxMarks,
	})
	return buf.String()
}

// Sanitize strips delimiter lookalikes from untrusted text and truncates
// it to a bounded length.
func Sanitize(text string) string {
	text = delimiterTagRe.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)

	if text == "" {
		return "[no text provided]"
	}

	if utf8.RuneCountInString(text) > maxPromptRunes {
		runes := []rune(text)
		text = string(runes[:maxPromptRunes]) + "\n\n[truncated due to length]"
	}

	return text
}
