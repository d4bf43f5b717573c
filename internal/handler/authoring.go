package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/markzero/markzero/internal/i18n"
	"github.com/markzero/markzero/internal/llm"
	"github.com/markzero/markzero/internal/model"
)

type questionRequest struct {
	Text           string `json:"text"`
	Subject        string `json:"subject"`
	ModelAnswer    string `json:"model_answer"`
	Marks          int    `json:"marks"`
	WordLimit      int    `json:"word_limit"`
	GenerateAnswer bool   `json:"generate_answer"`
}

type createAssessmentRequest struct {
	Title     string            `json:"title"`
	Questions []questionRequest `json:"questions"`
}

// validate checks authoring input, returning the message ID of the first
// problem found.
func (q *questionRequest) validate() string {
	if strings.TrimSpace(q.Text) == "" {
		return "QuestionTextRequired"
	}
	if q.Marks <= 0 {
		return "MarksPositive"
	}
	return ""
}

// toModel builds the Question, generating a model answer through the
// chain when requested and none was supplied. Returns the question and
// whether the generated answer came from a fallback rung.
func (h *Handler) toModel(r *http.Request, qr questionRequest) (model.Question, bool) {
	q := model.Question{
		Text:        strings.TrimSpace(qr.Text),
		Subject:     strings.TrimSpace(qr.Subject),
		ModelAnswer: strings.TrimSpace(qr.ModelAnswer),
		Marks:       qr.Marks,
		WordLimit:   qr.WordLimit,
	}
	if q.ModelAnswer != "" {
		q.AnswerOrigin = model.AnswerOriginTeacher
		return q, false
	}
	if !qr.GenerateAnswer {
		return q, false
	}
	result := h.llm.GenerateAnswer(r.Context(), q.Text, q.Subject)
	q.ModelAnswer = result.Text
	q.AnswerOrigin = result.Provenance
	return q, llm.IsFallback(result.Provenance)
}

func (h *Handler) handleCreateAssessment(w http.ResponseWriter, r *http.Request) {
	var req createAssessmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		respondError(r.Context(), w, http.StatusBadRequest, "TitleRequired")
		return
	}

	var notices []string
	a := model.Assessment{Title: strings.TrimSpace(req.Title)}
	for _, qr := range req.Questions {
		if msgID := qr.validate(); msgID != "" {
			respondError(r.Context(), w, http.StatusBadRequest, msgID)
			return
		}
		q, degraded := h.toModel(r, qr)
		if degraded {
			notices = append(notices, i18n.T(r.Context(), "FallbackAnswerNotice"))
		}
		a.Questions = append(a.Questions, q)
	}

	created, err := h.store.CreateAssessment(a)
	if h.handleStoreError(w, r, err, "AssessmentNotFound") {
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"assessment": created,
		"notices":    notices,
	})
}

func (h *Handler) handleListAssessments(w http.ResponseWriter, r *http.Request) {
	assessments, err := h.store.ListAssessments()
	if h.handleStoreError(w, r, err, "AssessmentNotFound") {
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"assessments": assessments})
}

func (h *Handler) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	a, err := h.store.GetAssessment(chi.URLParam(r, "assessmentID"))
	if h.handleStoreError(w, r, err, "AssessmentNotFound") {
		return
	}
	respondJSON(w, http.StatusOK, a)
}

func (h *Handler) handleDeleteAssessment(w http.ResponseWriter, r *http.Request) {
	err := h.store.DeleteAssessment(chi.URLParam(r, "assessmentID"))
	if h.handleStoreError(w, r, err, "AssessmentNotFound") {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAddQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msgID := req.validate(); msgID != "" {
		respondError(r.Context(), w, http.StatusBadRequest, msgID)
		return
	}

	q, degraded := h.toModel(r, req)
	added, err := h.store.AddQuestion(chi.URLParam(r, "assessmentID"), q)
	if h.handleStoreError(w, r, err, "AssessmentNotFound") {
		return
	}

	var notices []string
	if degraded {
		notices = append(notices, i18n.T(r.Context(), "FallbackAnswerNotice"))
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"question": added,
		"notices":  notices,
	})
}

func (h *Handler) handleRemoveQuestion(w http.ResponseWriter, r *http.Request) {
	err := h.store.RemoveQuestion(chi.URLParam(r, "assessmentID"), chi.URLParam(r, "questionID"))
	if h.handleStoreError(w, r, err, "QuestionNotFound") {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type generateAnswerRequest struct {
	Question string `json:"question"`
	Subject  string `json:"subject"`
}

// handleGenerateAnswer previews a model answer without persisting it, so
// teachers can review before attaching it to a question.
func (h *Handler) handleGenerateAnswer(w http.ResponseWriter, r *http.Request) {
	var req generateAnswerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		respondError(r.Context(), w, http.StatusBadRequest, "QuestionTextRequired")
		return
	}

	result := h.llm.GenerateAnswer(r.Context(), req.Question, req.Subject)
	payload := map[string]any{
		"text":       result.Text,
		"provenance": result.Provenance,
	}
	if llm.IsFallback(result.Provenance) {
		payload["notice"] = i18n.T(r.Context(), "FallbackAnswerNotice")
	}
	respondJSON(w, http.StatusOK, payload)
}
