// Package medsafety checks an active medication list for drug-drug
// interactions and for conflicts with recorded allergies.
package medsafety

import (
	"github.com/ehr/cdsengine/internal/domain/catalog"
	"github.com/ehr/cdsengine/internal/domain/finding"
	"github.com/ehr/cdsengine/internal/domain/snapshot"
)

// Interaction is one catalog row matched by a pair of active medications.
// Drug1 is the medication that matched the row's first drug slot.
type Interaction struct {
	Drug1          string `json:"drug1"`
	Drug2          string `json:"drug2"`
	RuleID         string `json:"ruleId"`
	Severity       string `json:"severity"`
	Description    string `json:"description"`
	Recommendation string `json:"recommendation"`
}

// Level maps the interaction severity onto the shared risk scale.
func (i Interaction) Level() finding.Level {
	switch i.Severity {
	case catalog.SeverityContraindicated:
		return finding.Critical
	case catalog.SeverityMajor:
		return finding.High
	case catalog.SeverityModerate:
		return finding.Moderate
	default:
		return finding.Low
	}
}

// AlertSeverity grades an allergy alert.
type AlertSeverity string

const (
	// AlertDanger: the medication matches the allergen directly.
	AlertDanger AlertSeverity = "danger"
	// AlertWarning: the medication cross-reacts with the allergen's class.
	AlertWarning AlertSeverity = "warning"
)

// AllergyAlert is a medication that conflicts with a recorded allergy.
type AllergyAlert struct {
	Medication      string                   `json:"medication"`
	Allergen        string                   `json:"allergen"`
	AllergySeverity snapshot.AllergySeverity `json:"allergySeverity,omitempty"`
	Severity        AlertSeverity            `json:"severity"`
	CrossReactivity bool                     `json:"crossReactivity"`
	ClassID         string                   `json:"classId,omitempty"`
	Description     string                   `json:"description"`
	Recommendation  string                   `json:"recommendation"`
}

// Level maps the alert severity onto the shared risk scale.
func (a AllergyAlert) Level() finding.Level {
	if a.Severity == AlertDanger {
		return finding.Critical
	}
	return finding.High
}

// Assessment is the combined medication-safety evaluation.
type Assessment struct {
	Interactions           []Interaction  `json:"interactions"`
	AllergyAlerts          []AllergyAlert `json:"allergyAlerts"`
	InteractionRisk        finding.Level  `json:"interactionRisk"`
	AllergyRisk            finding.Level  `json:"allergyRisk"`
	Overall                finding.Level  `json:"overallRisk"`
	PrimaryRecommendations []string       `json:"primaryRecommendations"`
}
