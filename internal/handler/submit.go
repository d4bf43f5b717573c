package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/markzero/markzero/internal/i18n"
	"github.com/markzero/markzero/internal/llm"
	"github.com/markzero/markzero/internal/model"
	"github.com/markzero/markzero/internal/plagiarism"
	"github.com/markzero/markzero/internal/service"
)

type submitRequest struct {
	StudentName string   `json:"student_name"`
	Answers     []string `json:"answers"`
}

// resultView decorates a QuestionResult with localized display text.
type resultView struct {
	model.QuestionResult
	PlagiarismLevel plagiarism.Severity `json:"plagiarism_level"`
	PlagiarismNote  string              `json:"plagiarism_note"`
	Notice          string              `json:"notice,omitempty"`
}

// handleSubmit grades and persists a student submission. Grading cannot
// fail once the submission validates; degraded results carry notices, not
// errors.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	a, err := h.store.GetAssessment(chi.URLParam(r, "assessmentID"))
	if h.handleStoreError(w, r, err, "AssessmentNotFound") {
		return
	}

	results, summary, err := h.grader.GradeSubmission(ctx, a, req.Answers)
	if err != nil {
		respondErrorMsg(w, http.StatusBadRequest, localizeValidation(ctx, err))
		return
	}

	response := model.StudentResponse{
		AssessmentID: a.ID,
		StudentName:  strings.TrimSpace(req.StudentName),
		Answers:      req.Answers,
		Results:      results,
		TotalScore:   summary.TotalScore,
		TotalMarks:   summary.TotalMarks,
		Percent:      summary.Percent,
		Band:         summary.Band,
	}
	saved, err := h.store.SaveResponse(response)
	if h.handleStoreError(w, r, err, "AssessmentNotFound") {
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"response":     saved,
		"results":      viewResults(ctx, results),
		"band_message": bandMessage(ctx, summary.Band),
		"message":      i18n.Tp(ctx, "AnswersGraded", len(results)),
	})
}

func (h *Handler) handleListResponses(w http.ResponseWriter, r *http.Request) {
	responses, err := h.store.ListResponses(chi.URLParam(r, "assessmentID"))
	if h.handleStoreError(w, r, err, "AssessmentNotFound") {
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"responses": responses})
}

func (h *Handler) handleGetResponse(w http.ResponseWriter, r *http.Request) {
	resp, err := h.store.GetResponse(chi.URLParam(r, "responseID"))
	if h.handleStoreError(w, r, err, "ResponseNotFound") {
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"response":     resp,
		"results":      viewResults(r.Context(), resp.Results),
		"band_message": bandMessage(r.Context(), resp.Band),
	})
}

// viewResults attaches plagiarism explanations and degraded-quality
// notices to raw results.
func viewResults(ctx context.Context, results []model.QuestionResult) []resultView {
	views := make([]resultView, len(results))
	for i, res := range results {
		level := plagiarism.Level(res.PlagiarismPercent)
		views[i] = resultView{
			QuestionResult:  res,
			PlagiarismLevel: level,
			PlagiarismNote:  plagiarismNote(ctx, level),
		}
		if llm.IsFallback(res.Provenance) {
			views[i].Notice = i18n.T(ctx, "FallbackNotice")
		}
	}
	return views
}

func plagiarismNote(ctx context.Context, level plagiarism.Severity) string {
	switch level {
	case plagiarism.SeverityNone:
		return i18n.T(ctx, "PlagiarismNone")
	case plagiarism.SeverityLow:
		return i18n.T(ctx, "PlagiarismLow")
	case plagiarism.SeverityModerate:
		return i18n.T(ctx, "PlagiarismModerate")
	case plagiarism.SeverityHigh:
		return i18n.T(ctx, "PlagiarismHigh")
	default:
		return i18n.T(ctx, "PlagiarismVeryHigh")
	}
}

func bandMessage(ctx context.Context, band model.Band) string {
	switch band {
	case model.BandExcellent:
		return i18n.T(ctx, "BandExcellent")
	case model.BandGood:
		return i18n.T(ctx, "BandGood")
	default:
		return i18n.T(ctx, "BandNeedsImprovement")
	}
}

// localizeValidation maps the grader's typed validation errors to
// localized messages.
func localizeValidation(ctx context.Context, err error) string {
	var countErr *service.AnswerCountError
	if errors.As(err, &countErr) {
		return i18n.Td(ctx, "AnswerCountMismatch", map[string]any{
			"Want": countErr.Want, "Got": countErr.Got,
		})
	}
	var emptyErr *service.EmptyAnswerError
	if errors.As(err, &emptyErr) {
		return i18n.Td(ctx, "AnswerEmpty", map[string]any{"Number": emptyErr.QuestionIndex + 1})
	}
	var minErr *service.WordMinimumError
	if errors.As(err, &minErr) {
		return i18n.Td(ctx, "WordLimitNotMet", map[string]any{
			"Number": minErr.QuestionIndex + 1, "Minimum": minErr.Minimum, "Got": minErr.Got,
		})
	}
	return i18n.T(ctx, "InvalidRequest")
}
