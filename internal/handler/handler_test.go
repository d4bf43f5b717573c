package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/markzero/markzero/internal/i18n"
	"github.com/markzero/markzero/internal/knowledge"
	"github.com/markzero/markzero/internal/llm"
	"github.com/markzero/markzero/internal/plagiarism"
	"github.com/markzero/markzero/internal/service"
	"github.com/markzero/markzero/internal/store"
)

// newTestServer wires a full API over a temp-file store. backends is the
// chain; pass none for an offline chain that always lands on fallbacks.
func newTestServer(t *testing.T, backends ...llm.Backend) *httptest.Server {
	t.Helper()

	if err := i18n.Init("en"); err != nil {
		t.Fatalf("i18n.Init: %v", err)
	}

	s, err := store.New(filepath.Join(t.TempDir(), "markzero.json"))
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if len(backends) == 0 {
		backends = []llm.Backend{llm.NewMockBackend("dead")}
	}
	kb := knowledge.New()
	llmSvc := llm.NewService(backends, kb, time.Second)
	grader := service.New(llmSvc, plagiarism.Heuristic{}, 2, true)

	r := chi.NewRouter()
	r.Use(i18n.Middleware("en"))
	New(s, llmSvc, grader, kb).Routes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	if resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp, decoded
}

func createAssessment(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/assessments", map[string]any{
		"title": "Geography quiz",
		"questions": []map[string]any{
			{"text": "What is the capital of France?", "subject": "geography",
				"model_answer": "Paris is the capital of France.", "marks": 10},
		},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create assessment: status %d", resp.StatusCode)
	}
	a := body["assessment"].(map[string]any)
	return a["id"].(string)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	resp, body := doJSON(t, http.MethodGet, srv.URL+"/healthz", nil)
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Errorf("healthz: status %d body %v", resp.StatusCode, body)
	}
}

func TestCreateAssessmentValidation(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/assessments", map[string]any{"title": "  "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if body["error"] != "The assessment needs a title." {
		t.Errorf("error = %q, want localized title message", body["error"])
	}

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/assessments", map[string]any{
		"title":     "Quiz",
		"questions": []map[string]any{{"text": "Why?", "marks": 0}},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if body["error"] != "Marks must be a positive number." {
		t.Errorf("error = %q, want localized marks message", body["error"])
	}
}

func TestAssessmentLifecycle(t *testing.T) {
	srv := newTestServer(t)
	id := createAssessment(t, srv)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/assessments/"+id, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get: status %d", resp.StatusCode)
	}
	if body["total_marks"].(float64) != 10 {
		t.Errorf("total_marks = %v, want 10", body["total_marks"])
	}

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/assessments/"+id, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete: status %d, want 204", resp.StatusCode)
	}

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/assessments/"+id, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete: status %d, want 404", resp.StatusCode)
	}
	if body["error"] != "Assessment not found." {
		t.Errorf("error = %q, want localized not-found message", body["error"])
	}
}

func TestGeneratedModelAnswer(t *testing.T) {
	answer := strings.Repeat("Photosynthesis converts light into chemical energy. ", 2)
	srv := newTestServer(t, llm.NewMockBackend("groq", llm.MockReply{Text: answer}))
	id := createAssessment(t, srv)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/assessments/"+id+"/questions", map[string]any{
		"text": "Explain photosynthesis.", "subject": "biology", "marks": 5, "generate_answer": true,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add question: status %d", resp.StatusCode)
	}
	q := body["question"].(map[string]any)
	if q["model_answer"] == "" {
		t.Error("model answer not generated")
	}
	if q["answer_origin"] != "remote:groq" {
		t.Errorf("answer_origin = %v, want remote:groq", q["answer_origin"])
	}
}

func TestGenerateAnswerPreviewFallsBack(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/generate-answer", map[string]any{
		"question": "What is photosynthesis?", "subject": "biology",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["provenance"] != llm.ProvenanceStatic {
		t.Errorf("provenance = %v, want %q", body["provenance"], llm.ProvenanceStatic)
	}
	if body["text"] == "" {
		t.Error("fallback answer is empty")
	}
	if body["notice"] == nil {
		t.Error("expected degraded-quality notice on fallback answer")
	}
}

func TestSubmitAndResults(t *testing.T) {
	srv := newTestServer(t)
	id := createAssessment(t, srv)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/assessments/"+id+"/responses", map[string]any{
		"student_name": "Alice",
		"answers":      []string{"The capital of France is Paris."},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("submit: status %d body %v", resp.StatusCode, body)
	}

	results := body["results"].([]any)
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	first := results[0].(map[string]any)
	if first["provenance"] != llm.ProvenanceHeuristic {
		t.Errorf("provenance = %v, want %q", first["provenance"], llm.ProvenanceHeuristic)
	}
	if first["notice"] == nil {
		t.Error("expected degraded-quality notice on heuristic result")
	}
	if score := first["final_score"].(float64); score < 7 {
		t.Errorf("final_score = %v, want >= 7 for near-identical answer", score)
	}
	if body["message"] != "1 answer graded." {
		t.Errorf("message = %q, want graded count message", body["message"])
	}

	// The saved response is retrievable by ID.
	saved := body["response"].(map[string]any)
	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/responses/"+saved["id"].(string), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get response: status %d", resp.StatusCode)
	}
	if body["band_message"] == "" {
		t.Error("band_message missing")
	}
}

func TestSubmitValidationLocalized(t *testing.T) {
	srv := newTestServer(t)
	id := createAssessment(t, srv)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/assessments/"+id+"/responses", map[string]any{
		"student_name": "Bob",
		"answers":      []string{"one", "two"},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	want := "The submission has 2 answers but the assessment has 1 questions."
	if body["error"] != want {
		t.Errorf("error = %q, want %q", body["error"], want)
	}
}

func TestAssessmentLockedAfterSubmission(t *testing.T) {
	srv := newTestServer(t)
	id := createAssessment(t, srv)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/assessments/"+id+"/responses", map[string]any{
		"student_name": "Alice",
		"answers":      []string{"Paris is the capital city of France."},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("submit: status %d", resp.StatusCode)
	}

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/assessments/"+id+"/questions", map[string]any{
		"text": "A late question?", "marks": 5,
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("add question on locked assessment: status %d, want 409", resp.StatusCode)
	}
	if body["error"] != "This assessment already has submissions and can no longer be changed." {
		t.Errorf("error = %q, want localized locked message", body["error"])
	}
}

func TestSubjects(t *testing.T) {
	srv := newTestServer(t)
	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/subjects", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	subjects := body["subjects"].([]any)
	found := false
	for _, s := range subjects {
		if s == "general" {
			found = true
		}
	}
	if !found {
		t.Errorf("subjects %v missing general entry", subjects)
	}
}
