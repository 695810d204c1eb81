package sepsis

import (
	"fmt"

	"github.com/ehr/cdsengine/internal/domain/finding"
	"github.com/ehr/cdsengine/internal/domain/snapshot"
)

// QSOFA scores the quick Sequential Organ Failure Assessment (0–3).
func QSOFA(v snapshot.Vitals) finding.Finding {
	r := readVitals(v)

	rr := r.respRate >= 22
	ms := r.altered()
	bp := r.systolic <= 100

	components := []finding.Component{
		{Factor: "Respiratory rate", Value: finding.Measure(r.respRate, "/min"), Points: point(rr, 1), Criteria: ">= 22 /min", Met: rr},
		{Factor: "Altered mentation", Value: r.mentation(), Points: point(ms, 1), Criteria: "GCS < 15 or not alert", Met: ms},
		{Factor: "Systolic blood pressure", Value: finding.Measure(r.systolic, "mmHg"), Points: point(bp, 1), Criteria: "<= 100 mmHg", Met: bp},
	}
	score := 0
	for _, c := range components {
		score += c.Points
	}

	f := finding.Finding{
		Name:        NameQSOFA,
		Score:       score,
		MaxScore:    3,
		Components:  components,
		Adjustments: r.clamp.Adjustments(),
	}
	switch {
	case score >= 2:
		f.Level = finding.High
		f.Interpretation = fmt.Sprintf("qSOFA %d/3: positive screen, high risk of poor outcome if infection is present.", score)
		f.Recommendations = []string{
			"Evaluate for sepsis now: obtain serum lactate and blood cultures before antibiotics.",
			"Assess for organ dysfunction with a full SOFA score.",
			"Consider escalation to a higher level of care.",
		}
	case score == 1:
		f.Level = finding.Moderate
		f.Interpretation = "qSOFA 1/3: one criterion met; not a positive screen."
		f.Recommendations = []string{
			"Repeat vital signs and qSOFA within 1 hour.",
			"Review for a possible infectious source.",
		}
	default:
		f.Level = finding.Low
		f.Interpretation = "qSOFA 0/3: no criteria met."
		f.Recommendations = []string{"Continue routine vital-sign monitoring."}
	}
	f.Label = f.Level.String()
	return f
}

// QSOFAPositive is the conventional qSOFA screen threshold.
func QSOFAPositive(score int) bool { return score >= 2 }
