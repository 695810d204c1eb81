package sepsis

import (
	"fmt"

	"github.com/ehr/cdsengine/internal/domain/finding"
	"github.com/ehr/cdsengine/internal/domain/snapshot"
)

// band is one step of a NEWS2 parameter table: values up to and including
// upTo score points. The last band of every table has no upper bound.
type band struct {
	upTo   float64
	points int
}

var (
	respRateBands = []band{{8, 3}, {11, 1}, {20, 0}, {24, 2}, {unbounded, 3}}
	spo2Bands     = []band{{91, 3}, {93, 2}, {95, 1}, {unbounded, 0}}
	systolicBands = []band{{90, 3}, {100, 2}, {110, 1}, {219, 0}, {unbounded, 3}}
	pulseBands    = []band{{40, 3}, {50, 1}, {90, 0}, {110, 1}, {130, 2}, {unbounded, 3}}
	tempBands     = []band{{35.0, 3}, {36.0, 1}, {38.0, 0}, {39.0, 1}, {unbounded, 2}}
)

func bandScore(bands []band, v float64) int {
	for _, b := range bands {
		if v <= b.upTo {
			return b.points
		}
	}
	return bands[len(bands)-1].points
}

const redScoreRecommendation = "Single parameter scored 3 (red score): urgent ward-based review by a clinician."

// NEWS2 computes the National Early Warning Score 2 on SpO2 scale 1 (0–20).
func NEWS2(v snapshot.Vitals) finding.Finding {
	r := readVitals(v)
	tempC := snapshot.FahrenheitToCelsius(r.tempF)
	altered := r.altered()

	o2 := 0
	if r.oxygen {
		o2 = 2
	}
	conscious := point(altered, 3)
	oxygenValue := "room air"
	if r.oxygen {
		oxygenValue = "supplemental oxygen"
	}

	components := []finding.Component{
		{Factor: "Respiratory rate", Value: finding.Measure(r.respRate, "/min"), Points: bandScore(respRateBands, r.respRate),
			Criteria: "<=8: 3, 9-11: 1, 12-20: 0, 21-24: 2, >=25: 3"},
		{Factor: "Oxygen saturation", Value: finding.Measure(r.spo2, "%"), Points: bandScore(spo2Bands, r.spo2),
			Criteria: "<=91: 3, 92-93: 2, 94-95: 1, >=96: 0"},
		{Factor: "Supplemental oxygen", Value: oxygenValue, Points: o2,
			Criteria: "any supplemental oxygen: 2"},
		{Factor: "Systolic blood pressure", Value: finding.Measure(r.systolic, "mmHg"), Points: bandScore(systolicBands, r.systolic),
			Criteria: "<=90: 3, 91-100: 2, 101-110: 1, 111-219: 0, >=220: 3"},
		{Factor: "Heart rate", Value: finding.Measure(r.heartRate, "bpm"), Points: bandScore(pulseBands, r.heartRate),
			Criteria: "<=40: 3, 41-50: 1, 51-90: 0, 91-110: 1, 111-130: 2, >=131: 3"},
		{Factor: "Temperature", Value: fmt.Sprintf("%.1f °C", tempC), Points: bandScore(tempBands, tempC),
			Criteria: "<=35.0: 3, 35.1-36.0: 1, 36.1-38.0: 0, 38.1-39.0: 1, >=39.1: 2"},
		{Factor: "Consciousness", Value: r.mentation(), Points: conscious,
			Criteria: "new confusion, voice, pain or unresponsive: 3"},
	}
	total := 0
	red := false
	for i := range components {
		components[i].Met = components[i].Points > 0
		total += components[i].Points
		if components[i].Points == 3 {
			red = true
		}
	}

	f := finding.Finding{
		Name:        NameNEWS2,
		Score:       total,
		MaxScore:    20,
		Components:  components,
		Adjustments: r.clamp.Adjustments(),
	}
	switch {
	case total >= 7:
		f.Level = finding.Critical
		f.Interpretation = fmt.Sprintf("NEWS2 %d: high clinical risk, emergency response threshold.", total)
		f.Recommendations = []string{
			"Emergency assessment by a critical-care competent team; consider transfer to a higher level of care.",
			"Continuous vital-sign monitoring.",
		}
	case total >= 5:
		f.Level = finding.High
		f.Interpretation = fmt.Sprintf("NEWS2 %d: medium clinical risk, urgent response threshold.", total)
		f.Recommendations = []string{
			"Urgent review by a clinician competent in assessing acutely ill patients.",
			"Increase monitoring to at least hourly.",
		}
	case total >= 1:
		f.Level = finding.Moderate
		f.Interpretation = fmt.Sprintf("NEWS2 %d: low clinical risk.", total)
		f.Recommendations = []string{
			"Inform the registered nurse; increase observations to at least every 4-6 hours.",
		}
	default:
		f.Level = finding.Low
		f.Interpretation = "NEWS2 0: no deterioration signs."
		f.Recommendations = []string{"Continue routine observations at least every 12 hours."}
	}
	if red {
		if f.Level < finding.High {
			f.Recommendations = append([]string{redScoreRecommendation}, f.Recommendations...)
		} else {
			f.Recommendations = append(f.Recommendations, redScoreRecommendation)
		}
	}
	f.Label = f.Level.String()
	return f
}
