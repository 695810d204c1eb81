package safety

import (
	"fmt"
	"strconv"

	"github.com/ehr/cdsengine/internal/domain/finding"
	"github.com/ehr/cdsengine/internal/domain/snapshot"
)

type subscale struct {
	factor string
	field  string
	rating *int
	max    int
	// rec fires when the rating is at or below 2 (1 for friction/shear).
	rec string
}

// Braden scores pressure-ulcer risk (6–23, lower is worse). Omitted
// sub-scales take their maximum rating.
func Braden(rf snapshot.RiskFactors) finding.Finding {
	b := rf.Braden
	scales := []subscale{
		{"Sensory perception", "braden.sensoryPerception", b.SensoryPerception, 4,
			"Inspect skin at least daily, focusing on areas with reduced sensation."},
		{"Moisture", "braden.moisture", b.Moisture, 4,
			"Manage moisture with barrier cream and prompt incontinence care."},
		{"Activity", "braden.activity", b.Activity, 4,
			"Encourage activity; chair-bound patients should shift weight every 15 minutes."},
		{"Mobility", "braden.mobility", b.Mobility, 4,
			"Reposition at least every 2 hours and use a pressure-redistribution surface."},
		{"Nutrition", "braden.nutrition", b.Nutrition, 4,
			"Request a nutrition consult to ensure adequate protein and calorie intake."},
		{"Friction and shear", "braden.frictionShear", b.FrictionShear, 3,
			"Use lift sheets and keep the head of bed at or below 30 degrees to reduce shear."},
	}

	var clamp finding.Clamper
	var components []finding.Component
	var subRecs []string
	for _, s := range scales {
		rating := clamp.Int(s.field, snapshot.Int(s.rating, s.max), 1, s.max)
		threshold := 2
		if s.max == 3 {
			threshold = 1
		}
		low := rating <= threshold
		value := strconv.Itoa(rating)
		if s.rating == nil {
			value += " (not assessed)"
		}
		components = append(components, finding.Component{
			Factor:   s.factor,
			Value:    value,
			Points:   rating,
			Criteria: fmt.Sprintf("1-%d, lower is worse; <= %d flags an intervention", s.max, threshold),
			Met:      low,
		})
		if low {
			subRecs = append(subRecs, s.rec)
		}
	}
	score := sum(components)

	f := finding.Finding{
		Name:        NameBraden,
		Score:       score,
		MinScore:    6,
		MaxScore:    23,
		Components:  components,
		Adjustments: clamp.Adjustments(),
	}
	switch {
	case score <= 9:
		f.Level, f.Label = finding.Critical, "very-high"
		f.Interpretation = fmt.Sprintf("Braden %d: very high pressure-ulcer risk.", score)
		f.Recommendations = []string{"Very high risk: specialty pressure-redistribution surface, turning every 2 hours, and wound-care consult."}
	case score <= 12:
		f.Level, f.Label = finding.High, "high"
		f.Interpretation = fmt.Sprintf("Braden %d: high pressure-ulcer risk.", score)
		f.Recommendations = []string{"High risk: turning schedule, pressure-redistribution mattress, and heel off-loading."}
	case score <= 14:
		f.Level, f.Label = finding.Moderate, "moderate"
		f.Interpretation = fmt.Sprintf("Braden %d: moderate pressure-ulcer risk.", score)
		f.Recommendations = []string{"Moderate risk: turning schedule with 30-degree lateral positioning and foam wedges."}
	case score <= 18:
		f.Level, f.Label = finding.Low, "mild"
		f.Interpretation = fmt.Sprintf("Braden %d: mild pressure-ulcer risk.", score)
		f.Recommendations = []string{"Mild risk: turning schedule and protect heels."}
	default:
		f.Level, f.Label = finding.Low, "no-risk"
		f.Interpretation = fmt.Sprintf("Braden %d: no significant pressure-ulcer risk.", score)
		f.Recommendations = []string{"Continue routine skin assessment."}
	}
	f.Recommendations = append(f.Recommendations, subRecs...)
	return f
}
