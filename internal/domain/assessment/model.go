// Package assessment runs the evaluators against one published catalog and
// serves them over REST and CDS Hooks.
package assessment

import (
	"time"

	"github.com/google/uuid"

	"github.com/ehr/cdsengine/internal/domain/caregap"
	"github.com/ehr/cdsengine/internal/domain/finding"
	"github.com/ehr/cdsengine/internal/domain/medsafety"
	"github.com/ehr/cdsengine/internal/domain/safety"
	"github.com/ehr/cdsengine/internal/domain/sepsis"
)

// Evaluator names used in logs and metrics.
const (
	EvaluatorSepsis           = "sepsis"
	EvaluatorSafety           = "safety"
	EvaluatorCareGaps         = "care-gaps"
	EvaluatorMedicationSafety = "medication-safety"
	EvaluatorAll              = "all"
)

// CareGapResult is a care-gap report with the risk level and ranked
// recommendations it contributes to the aggregate.
type CareGapResult struct {
	caregap.Report
	AsOf            time.Time     `json:"asOf"`
	Risk            finding.Level `json:"riskLevel"`
	Recommendations []string      `json:"recommendations"`
}

// Report is a full evaluation of one snapshot. Everything except ID and
// GeneratedAt is a pure function of the snapshot, the catalog and AsOf.
type Report struct {
	ID                     uuid.UUID            `json:"id"`
	PatientID              string               `json:"patientId,omitempty"`
	GeneratedAt            time.Time            `json:"generatedAt"`
	AsOf                   time.Time            `json:"asOf"`
	CatalogVersion         string               `json:"catalogVersion"`
	Sepsis                 sepsis.Assessment    `json:"sepsis"`
	Safety                 safety.Assessment    `json:"safety"`
	CareGaps               CareGapResult        `json:"careGaps"`
	MedicationSafety       medsafety.Assessment `json:"medicationSafety"`
	Overall                finding.Level        `json:"overallRisk"`
	PrimaryRecommendations []string             `json:"primaryRecommendations"`
	InputClamped           bool                 `json:"inputClamped"`
}
