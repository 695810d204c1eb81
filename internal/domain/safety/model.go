// Package safety scores inpatient safety risks: falls (Morse), 30-day
// readmission (LACE) and pressure ulcers (Braden).
package safety

import (
	"github.com/ehr/cdsengine/internal/domain/aggregate"
	"github.com/ehr/cdsengine/internal/domain/finding"
	"github.com/ehr/cdsengine/internal/domain/snapshot"
)

const (
	NameMorse  = "Morse Fall Scale"
	NameLACE   = "LACE Index"
	NameBraden = "Braden Scale"
)

// Assessment is the combined safety evaluation.
type Assessment struct {
	Falls                  finding.Finding `json:"falls"`
	Readmission            finding.Finding `json:"readmission"`
	PressureUlcer          finding.Finding `json:"pressureUlcer"`
	Overall                finding.Level   `json:"overallRisk"`
	PrimaryRecommendations []string        `json:"primaryRecommendations"`
}

// Clamped reports whether any sub-score clamped its input.
func (a Assessment) Clamped() bool {
	return a.Falls.Clamped() || a.Readmission.Clamped() || a.PressureUlcer.Clamped()
}

// Assess runs all three scores. Primary recommendations follow falls,
// readmission, pressure ulcer.
func Assess(rf snapshot.RiskFactors) Assessment {
	a := Assessment{
		Falls:         Morse(rf),
		Readmission:   LACE(rf),
		PressureUlcer: Braden(rf),
	}
	domains := a.Domains()
	a.Overall = aggregate.Overall(domains)
	a.PrimaryRecommendations = aggregate.Primary(domains)
	return a
}

// Domains returns the three scores as aggregate domains, falls first.
func (a Assessment) Domains() []aggregate.Domain {
	return []aggregate.Domain{
		aggregate.FromFinding(aggregate.MarkerFalls, a.Falls),
		aggregate.FromFinding(aggregate.MarkerReadmission, a.Readmission),
		aggregate.FromFinding(aggregate.MarkerPressureUlcer, a.PressureUlcer),
	}
}

func points(met bool, pts int) int {
	if met {
		return pts
	}
	return 0
}

func sum(components []finding.Component) int {
	total := 0
	for _, c := range components {
		total += c.Points
	}
	return total
}
