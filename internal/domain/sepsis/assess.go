package sepsis

import (
	"github.com/ehr/cdsengine/internal/domain/aggregate"
	"github.com/ehr/cdsengine/internal/domain/finding"
	"github.com/ehr/cdsengine/internal/domain/snapshot"
)

// Assess runs qSOFA, SIRS and NEWS2 and combines them. The overall level is
// the worst of the three; primary recommendations follow qSOFA, SIRS, NEWS2.
func Assess(v snapshot.Vitals, l snapshot.Labs) Assessment {
	q := QSOFA(v)
	s := SIRS(v, l)
	a := Assessment{
		QSOFA:            q,
		SIRS:             s,
		NEWS2:            NEWS2(v),
		QSOFAPositive:    QSOFAPositive(q.Score),
		SIRSPositive:     SIRSPositive(s.Score),
		OrganDysfunction: OrganDysfunction(l),
	}
	domains := a.Domains()
	a.Overall = aggregate.Overall(domains)
	a.PrimaryRecommendations = aggregate.Primary(domains)
	return a
}

// Domains returns the three scores as aggregate domains, qSOFA first.
func (a Assessment) Domains() []aggregate.Domain {
	return []aggregate.Domain{
		aggregate.FromFinding(aggregate.MarkerQSOFA, a.QSOFA),
		aggregate.FromFinding(aggregate.MarkerSIRS, a.SIRS),
		aggregate.FromFinding(aggregate.MarkerNEWS2, a.NEWS2),
	}
}

type marker struct {
	factor   string
	value    *float64
	unit     string
	criteria string
	met      func(float64) bool
}

// OrganDysfunction lists lab markers of sepsis-related organ dysfunction.
// They are informational and never contribute points. Unmeasured labs are
// listed as not measured.
func OrganDysfunction(l snapshot.Labs) []finding.Component {
	markers := []marker{
		{"Lactate", l.Lactate, "mmol/L", ">= 2.0 mmol/L", func(v float64) bool { return v >= 2 }},
		{"Creatinine", l.Creatinine, "mg/dL", "> 2.0 mg/dL", func(v float64) bool { return v > 2 }},
		{"Bilirubin", l.Bilirubin, "mg/dL", "> 2.0 mg/dL", func(v float64) bool { return v > 2 }},
		{"Platelets", l.Platelets, "x10^3/uL", "< 100 x10^3/uL", func(v float64) bool { return v < 100 }},
		{"INR", l.INR, "", "> 1.5", func(v float64) bool { return v > 1.5 }},
		{"Glucose", l.Glucose, "mg/dL", "> 180 mg/dL", func(v float64) bool { return v > 180 }},
	}
	out := make([]finding.Component, 0, len(markers))
	for _, m := range markers {
		c := finding.Component{Factor: m.factor, Criteria: m.criteria, Value: "not measured"}
		if m.value != nil {
			c.Value = finding.Measure(*m.value, m.unit)
			c.Met = m.met(*m.value)
		}
		out = append(out, c)
	}
	return out
}
