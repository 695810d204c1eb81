package sepsis

import (
	"fmt"
	"math"

	"github.com/ehr/cdsengine/internal/domain/finding"
	"github.com/ehr/cdsengine/internal/domain/snapshot"
)

// SIRS counts Systemic Inflammatory Response Syndrome criteria (0–4).
// Temperature arrives in Fahrenheit and is compared in Celsius.
func SIRS(v snapshot.Vitals, l snapshot.Labs) finding.Finding {
	r := readVitals(v)
	paco2 := r.clamp.Float("paco2", snapshot.Float(l.PaCO2, snapshot.DefaultPaCO2), 0, unbounded)
	wbc := r.clamp.Float("wbc", snapshot.Float(l.WBC, snapshot.DefaultWBC), 0, unbounded)
	bands := r.clamp.Float("bands", snapshot.Float(l.Bands, snapshot.DefaultBands), 0, 100)

	tempC := snapshot.FahrenheitToCelsius(r.tempF)
	// Criteria use the unrounded conversion; 0.001 °C rounding only drops
	// floating-point residue so that 100.4 °F is exactly 38.0 °C.
	exactC := math.Round((r.tempF-32)*5/9*1000) / 1000
	temp := exactC < 36.0 || exactC > 38.0
	hr := r.heartRate > 90
	resp := r.respRate > 20 || paco2 < 32
	white := wbc < 4 || wbc > 12 || bands > 10

	components := []finding.Component{
		{
			Factor: "Temperature", Value: fmt.Sprintf("%.1f °C (%s °F)", tempC, finding.Measure(r.tempF, "")),
			Points: point(temp, 1), Criteria: "< 36.0 °C or > 38.0 °C", Met: temp,
		},
		{
			Factor: "Heart rate", Value: finding.Measure(r.heartRate, "bpm"),
			Points: point(hr, 1), Criteria: "> 90 bpm", Met: hr,
		},
		{
			Factor: "Respiratory rate / PaCO2",
			Value:  fmt.Sprintf("RR %s, PaCO2 %s", finding.Measure(r.respRate, "/min"), finding.Measure(paco2, "mmHg")),
			Points: point(resp, 1), Criteria: "RR > 20 /min or PaCO2 < 32 mmHg", Met: resp,
		},
		{
			Factor: "White cell count / bands",
			Value:  fmt.Sprintf("WBC %s, bands %s", finding.Measure(wbc, "x10^3/uL"), finding.Measure(bands, "%")),
			Points: point(white, 1), Criteria: "WBC < 4 or > 12 x10^3/uL, or bands > 10%", Met: white,
		},
	}
	score := 0
	for _, c := range components {
		score += c.Points
	}

	f := finding.Finding{
		Name:        NameSIRS,
		Score:       score,
		MaxScore:    4,
		Components:  components,
		Adjustments: r.clamp.Adjustments(),
	}
	positive := ""
	if SIRSPositive(score) {
		positive = " (SIRS positive)"
	}
	f.Interpretation = fmt.Sprintf("%d of 4 SIRS criteria met%s.", score, positive)
	switch {
	case score >= 3:
		f.Level = finding.High
		f.Recommendations = []string{
			"Initiate sepsis workup: lactate, blood cultures, and source identification.",
			"Start broad-spectrum antibiotics within 1 hour if infection is suspected.",
			"Reassess fluid status and vital signs hourly.",
		}
	case score == 2:
		f.Level = finding.Moderate
		f.Recommendations = []string{
			"SIRS positive: assess for an infectious source and consider lactate and cultures.",
			"Repeat vital signs within 1 hour.",
		}
	default:
		f.Level = finding.Low
		f.Recommendations = []string{"Continue routine monitoring."}
	}
	f.Label = f.Level.String()
	return f
}

// SIRSPositive reports whether at least two SIRS criteria are met. This is a
// separate concept from the high-risk band, which starts at three.
func SIRSPositive(score int) bool { return score >= 2 }
