package store

import (
	"fmt"
	"time"

	"github.com/markzero/markzero/internal/model"
)

// ExportAssessment bundles an assessment with all its graded responses
// into the export DTO written by the export command.
func (s *Store) ExportAssessment(assessmentID string) (model.AssessmentExport, error) {
	a, err := s.GetAssessment(assessmentID)
	if err != nil {
		return model.AssessmentExport{}, fmt.Errorf("get assessment: %w", err)
	}

	responses, err := s.ListResponses(assessmentID)
	if err != nil {
		return model.AssessmentExport{}, fmt.Errorf("list responses: %w", err)
	}

	return model.AssessmentExport{
		ExportedAt: time.Now().UTC(),
		Assessment: a,
		Responses:  responses,
	}, nil
}
