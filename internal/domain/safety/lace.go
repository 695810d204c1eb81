package safety

import (
	"fmt"
	"math"
	"strconv"

	"github.com/ehr/cdsengine/internal/domain/finding"
	"github.com/ehr/cdsengine/internal/domain/snapshot"
)

func lengthOfStayPoints(days int) int {
	switch {
	case days >= 14:
		return 7
	case days >= 7:
		return 5
	case days >= 4:
		return 4
	default:
		return days
	}
}

var acuityPoints = map[snapshot.Acuity]int{
	snapshot.AcuityElective: 0,
	snapshot.AcuityUrgent:   2,
	snapshot.AcuityEmergent: 3,
}

func comorbidityPoints(index int) int {
	if index >= 4 {
		return 5
	}
	return index
}

func edVisitPoints(visits int) int {
	if visits >= 4 {
		return 4
	}
	return visits
}

// LACE scores 30-day readmission risk (0–19).
func LACE(rf snapshot.RiskFactors) finding.Finding {
	var clamp finding.Clamper
	los := clamp.Int("lengthOfStay", rf.LengthOfStayDays, 0, math.MaxInt32)
	comorbidity := clamp.Int("comorbidityIndex", rf.ComorbidityIndex, 0, math.MaxInt32)
	ed := clamp.Int("edVisits", rf.EDVisits, 0, math.MaxInt32)

	components := []finding.Component{
		{Factor: "Length of stay", Value: strconv.Itoa(los) + " days", Points: lengthOfStayPoints(los),
			Criteria: "0: 0, 1: 1, 2: 2, 3: 3, 4-6: 4, 7-13: 5, 14+: 7"},
		{Factor: "Acuity of admission", Value: rf.Acuity.String(), Points: acuityPoints[rf.Acuity],
			Criteria: "elective: 0, urgent: 2, emergent: 3"},
		{Factor: "Comorbidity index", Value: strconv.Itoa(comorbidity), Points: comorbidityPoints(comorbidity),
			Criteria: "0: 0, 1: 1, 2: 2, 3: 3, 4+: 5"},
		{Factor: "ED visits (6 months)", Value: strconv.Itoa(ed), Points: edVisitPoints(ed),
			Criteria: "0: 0, 1: 1, 2: 2, 3: 3, 4+: 4"},
	}
	for i := range components {
		components[i].Met = components[i].Points > 0
	}
	score := sum(components)

	f := finding.Finding{
		Name:        NameLACE,
		Score:       score,
		MaxScore:    19,
		Components:  components,
		Adjustments: clamp.Adjustments(),
	}
	switch {
	case score >= 10:
		f.Level = finding.Critical
		f.Label = "very-high"
		f.Interpretation = fmt.Sprintf("LACE %d: very high 30-day readmission risk.", score)
		f.Recommendations = []string{
			"Refer to transitional care and arrange follow-up within 7 days of discharge.",
			"Complete medication reconciliation and teach-back before discharge.",
		}
	case score >= 7:
		f.Level = finding.High
		f.Interpretation = fmt.Sprintf("LACE %d: high 30-day readmission risk.", score)
		f.Recommendations = []string{
			"Schedule follow-up within 7 days and complete medication reconciliation before discharge.",
		}
	case score >= 4:
		f.Level = finding.Moderate
		f.Interpretation = fmt.Sprintf("LACE %d: moderate 30-day readmission risk.", score)
		f.Recommendations = []string{"Schedule follow-up within 14 days and provide discharge education."}
	default:
		f.Level = finding.Low
		f.Interpretation = fmt.Sprintf("LACE %d: low 30-day readmission risk.", score)
		f.Recommendations = []string{"Standard discharge planning."}
	}
	if f.Label == "" {
		f.Label = f.Level.String()
	}

	if los >= 7 {
		f.Recommendations = append(f.Recommendations, "Prolonged stay: start discharge planning early and assess home support.")
	}
	if comorbidity >= 4 {
		f.Recommendations = append(f.Recommendations, "Coordinate care across specialties for multiple comorbidities.")
	}
	if ed >= 2 {
		f.Recommendations = append(f.Recommendations, "Frequent ED use: link to primary care and case management.")
	}
	return f
}
