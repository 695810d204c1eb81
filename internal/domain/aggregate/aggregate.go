// Package aggregate merges per-domain risk levels into one overall level and
// a ranked list of primary recommendations.
package aggregate

import "github.com/ehr/cdsengine/internal/domain/finding"

// Domain markers prefixed to primary recommendation lines.
const (
	MarkerQSOFA           = "[qSOFA]"
	MarkerSIRS            = "[SIRS]"
	MarkerNEWS2           = "[NEWS2]"
	MarkerFalls           = "[FALLS]"
	MarkerReadmission     = "[READMISSION]"
	MarkerPressureUlcer   = "[PRESSURE ULCER]"
	MarkerDrugInteraction = "[DRUG INTERACTION]"
	MarkerAllergy         = "[ALLERGY]"
	MarkerCareGaps        = "[CARE GAPS]"
)

// NoCriticalRisk is the single line emitted when no domain reaches high risk.
const NoCriticalRisk = "No critical risk identified; continue routine monitoring and reassess per protocol."

// Domain is one evaluator's contribution to an aggregate.
type Domain struct {
	Marker          string
	Name            string
	Level           finding.Level
	Recommendations []string
}

// FromFinding builds a Domain from a scored finding.
func FromFinding(marker string, f finding.Finding) Domain {
	return Domain{Marker: marker, Name: f.Name, Level: f.Level, Recommendations: f.Recommendations}
}

// Overall returns the worst level across domains.
func Overall(domains []Domain) finding.Level {
	worst := finding.Low
	for _, d := range domains {
		worst = finding.Worst(worst, d.Level)
	}
	return worst
}

// Primary returns one line per domain at high risk or above, in the order the
// domains were given, each carrying that domain's first recommendation.
func Primary(domains []Domain) []string {
	var lines []string
	for _, d := range domains {
		if !d.Level.AtLeast(finding.High) {
			continue
		}
		rec := "Clinical review recommended."
		if len(d.Recommendations) > 0 {
			rec = d.Recommendations[0]
		}
		lines = append(lines, d.Marker+" "+rec)
	}
	if len(lines) == 0 {
		return []string{NoCriticalRisk}
	}
	return lines
}
