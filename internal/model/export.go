package model

import "time"

// AssessmentExport bundles an assessment with every graded response,
// ready for JSON output by the export command.
type AssessmentExport struct {
	ExportedAt time.Time         `json:"exported_at"`
	Assessment Assessment        `json:"assessment"`
	Responses  []StudentResponse `json:"responses"`
}
