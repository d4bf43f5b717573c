// Package store persists assessments and student responses in a single
// JSON file. A mutex guards all access and every mutation rewrites the
// file atomically, so a crash leaves either the old or the new state,
// never a torn one. All returned values are deep copies; internal state
// is never aliased out.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/markzero/markzero/internal/model"
)

// ErrNotFound is returned when no entity has the requested ID.
var ErrNotFound = errors.New("not found")

// ErrAssessmentLocked is returned when mutating an assessment that
// already has student responses. An assessment becomes read-only the
// moment the first submission arrives.
var ErrAssessmentLocked = errors.New("assessment has responses and is read-only")

// fileData is the on-disk shape of the whole store.
type fileData struct {
	Assessments []model.Assessment      `json:"assessments"`
	Responses   []model.StudentResponse `json:"responses"`
}

// Store is the JSON-file persistence layer.
type Store struct {
	mu   sync.Mutex
	path string
	data fileData
}

// New opens the store at path, loading existing data if the file exists.
// A missing file is an empty store; the file is created on first write.
func New(path string) (*Store, error) {
	s := &Store{path: path}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read data file: %w", err)
	}
	if len(raw) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("parse data file %s: %w", path, err)
	}
	return s, nil
}

// Close flushes the current state to disk.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked()
}

// persistLocked writes the full state atomically: marshal to a temp file
// in the same directory, then rename over the target. Caller holds s.mu.
func (s *Store) persistLocked() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal data: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".markzero-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace data file: %w", err)
	}
	return nil
}

// snapshotLocked deep-copies the current state so a failed persist can
// roll the mutation back, keeping memory and disk in agreement. Caller
// holds s.mu.
func (s *Store) snapshotLocked() fileData {
	prev := fileData{
		Assessments: make([]model.Assessment, len(s.data.Assessments)),
		Responses:   make([]model.StudentResponse, len(s.data.Responses)),
	}
	for i, a := range s.data.Assessments {
		prev.Assessments[i] = cloneAssessment(a)
	}
	for i, r := range s.data.Responses {
		prev.Responses[i] = cloneResponse(r)
	}
	return prev
}

// commitLocked persists the mutated state, restoring prev on failure.
// Caller holds s.mu.
func (s *Store) commitLocked(prev fileData) error {
	if err := s.persistLocked(); err != nil {
		s.data = prev
		return err
	}
	return nil
}

// CreateAssessment stores a new assessment, assigning its ID and
// timestamps. Question IDs and the marks total are filled in as well, so
// callers may pass questions inline at creation time.
func (s *Store) CreateAssessment(a model.Assessment) (model.Assessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.snapshotLocked()
	now := time.Now().UTC()
	a.ID = uuid.NewString()
	a.CreatedAt = now
	a.UpdatedAt = now
	for i := range a.Questions {
		a.Questions[i].ID = uuid.NewString()
		a.Questions[i].CreatedAt = now
	}
	a.TotalMarks = a.SumMarks()

	s.data.Assessments = append(s.data.Assessments, cloneAssessment(a))
	if err := s.commitLocked(prev); err != nil {
		return model.Assessment{}, err
	}
	return a, nil
}

// GetAssessment returns the assessment with the given ID.
func (s *Store) GetAssessment(id string) (model.Assessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.findAssessmentLocked(id)
	if a == nil {
		return model.Assessment{}, fmt.Errorf("assessment %s: %w", id, ErrNotFound)
	}
	return cloneAssessment(*a), nil
}

// ListAssessments returns all assessments in creation order.
func (s *Store) ListAssessments() ([]model.Assessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Assessment, 0, len(s.data.Assessments))
	for _, a := range s.data.Assessments {
		out = append(out, cloneAssessment(a))
	}
	return out, nil
}

// DeleteAssessment removes an assessment. Assessments with responses are
// locked and cannot be deleted.
func (s *Store) DeleteAssessment(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.data.Assessments, func(a model.Assessment) bool { return a.ID == id })
	if idx < 0 {
		return fmt.Errorf("assessment %s: %w", id, ErrNotFound)
	}
	if s.hasResponsesLocked(id) {
		return fmt.Errorf("assessment %s: %w", id, ErrAssessmentLocked)
	}
	prev := s.snapshotLocked()
	s.data.Assessments = slices.Delete(s.data.Assessments, idx, idx+1)
	return s.commitLocked(prev)
}

// AddQuestion appends a question to an unlocked assessment, assigning
// its ID and keeping the marks total in sync.
func (s *Store) AddQuestion(assessmentID string, q model.Question) (model.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.findAssessmentLocked(assessmentID)
	if a == nil {
		return model.Question{}, fmt.Errorf("assessment %s: %w", assessmentID, ErrNotFound)
	}
	if s.hasResponsesLocked(assessmentID) {
		return model.Question{}, fmt.Errorf("assessment %s: %w", assessmentID, ErrAssessmentLocked)
	}

	prev := s.snapshotLocked()
	now := time.Now().UTC()
	q.ID = uuid.NewString()
	q.CreatedAt = now
	a.Questions = append(a.Questions, q)
	a.TotalMarks = a.SumMarks()
	a.UpdatedAt = now

	if err := s.commitLocked(prev); err != nil {
		return model.Question{}, err
	}
	return q, nil
}

// RemoveQuestion deletes a question from an unlocked assessment.
func (s *Store) RemoveQuestion(assessmentID, questionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.findAssessmentLocked(assessmentID)
	if a == nil {
		return fmt.Errorf("assessment %s: %w", assessmentID, ErrNotFound)
	}
	if s.hasResponsesLocked(assessmentID) {
		return fmt.Errorf("assessment %s: %w", assessmentID, ErrAssessmentLocked)
	}

	idx := slices.IndexFunc(a.Questions, func(q model.Question) bool { return q.ID == questionID })
	if idx < 0 {
		return fmt.Errorf("question %s: %w", questionID, ErrNotFound)
	}
	prev := s.snapshotLocked()
	a.Questions = slices.Delete(a.Questions, idx, idx+1)
	a.TotalMarks = a.SumMarks()
	a.UpdatedAt = time.Now().UTC()
	return s.commitLocked(prev)
}

// SetModelAnswer records a model answer and its origin on a question in
// an unlocked assessment.
func (s *Store) SetModelAnswer(assessmentID, questionID, answer, origin string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.findAssessmentLocked(assessmentID)
	if a == nil {
		return fmt.Errorf("assessment %s: %w", assessmentID, ErrNotFound)
	}
	if s.hasResponsesLocked(assessmentID) {
		return fmt.Errorf("assessment %s: %w", assessmentID, ErrAssessmentLocked)
	}

	idx := slices.IndexFunc(a.Questions, func(q model.Question) bool { return q.ID == questionID })
	if idx < 0 {
		return fmt.Errorf("question %s: %w", questionID, ErrNotFound)
	}
	prev := s.snapshotLocked()
	a.Questions[idx].ModelAnswer = answer
	a.Questions[idx].AnswerOrigin = origin
	a.UpdatedAt = time.Now().UTC()
	return s.commitLocked(prev)
}

// SaveResponse stores a graded submission, assigning its ID and
// submission time. The referenced assessment must exist. Responses are
// immutable once saved; there is no update operation.
func (s *Store) SaveResponse(r model.StudentResponse) (model.StudentResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findAssessmentLocked(r.AssessmentID) == nil {
		return model.StudentResponse{}, fmt.Errorf("assessment %s: %w", r.AssessmentID, ErrNotFound)
	}

	prev := s.snapshotLocked()
	r.ID = uuid.NewString()
	// Submissions arrive already graded, so both stamps are set here.
	now := time.Now().UTC()
	r.SubmittedAt = now
	r.GradedAt = now
	s.data.Responses = append(s.data.Responses, cloneResponse(r))
	if err := s.commitLocked(prev); err != nil {
		return model.StudentResponse{}, err
	}
	return r, nil
}

// GetResponse returns the response with the given ID.
func (s *Store) GetResponse(id string) (model.StudentResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.data.Responses {
		if r.ID == id {
			return cloneResponse(r), nil
		}
	}
	return model.StudentResponse{}, fmt.Errorf("response %s: %w", id, ErrNotFound)
}

// ListResponses returns all responses for an assessment in submission
// order.
func (s *Store) ListResponses(assessmentID string) ([]model.StudentResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findAssessmentLocked(assessmentID) == nil {
		return nil, fmt.Errorf("assessment %s: %w", assessmentID, ErrNotFound)
	}

	var out []model.StudentResponse
	for _, r := range s.data.Responses {
		if r.AssessmentID == assessmentID {
			out = append(out, cloneResponse(r))
		}
	}
	return out, nil
}

// HasResponses reports whether any submission exists for an assessment.
func (s *Store) HasResponses(assessmentID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasResponsesLocked(assessmentID), nil
}

func (s *Store) findAssessmentLocked(id string) *model.Assessment {
	for i := range s.data.Assessments {
		if s.data.Assessments[i].ID == id {
			return &s.data.Assessments[i]
		}
	}
	return nil
}

func (s *Store) hasResponsesLocked(assessmentID string) bool {
	for _, r := range s.data.Responses {
		if r.AssessmentID == assessmentID {
			return true
		}
	}
	return false
}

func cloneAssessment(a model.Assessment) model.Assessment {
	a.Questions = slices.Clone(a.Questions)
	return a
}

func cloneResponse(r model.StudentResponse) model.StudentResponse {
	r.Answers = slices.Clone(r.Answers)
	r.Results = slices.Clone(r.Results)
	return r
}
