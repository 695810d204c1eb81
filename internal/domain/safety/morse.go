package safety

import (
	"fmt"
	"math"
	"strconv"

	"github.com/ehr/cdsengine/internal/domain/finding"
	"github.com/ehr/cdsengine/internal/domain/snapshot"
)

var aidPoints = map[snapshot.AmbulatoryAid]int{
	snapshot.AidNone:               0,
	snapshot.AidCrutchesCaneWalker: 15,
	snapshot.AidFurniture:          30,
}

var gaitPoints = map[snapshot.Gait]int{
	snapshot.GaitNormal:   0,
	snapshot.GaitWeak:     10,
	snapshot.GaitImpaired: 20,
}

var mentalPoints = map[snapshot.MentalStatus]int{
	snapshot.MentalOriented:  0,
	snapshot.MentalForgetful: 15,
}

// Morse scores the Morse Fall Scale (0–125).
func Morse(rf snapshot.RiskFactors) finding.Finding {
	var clamp finding.Clamper
	diagnoses := clamp.Int("diagnosisCount", rf.DiagnosisCount, 0, math.MaxInt32)

	secondary := diagnoses >= 2
	components := []finding.Component{
		{Factor: "History of falling", Value: strconv.FormatBool(rf.HistoryOfFalling),
			Points: points(rf.HistoryOfFalling, 25), Criteria: "fall during this admission or within 3 months: 25", Met: rf.HistoryOfFalling},
		{Factor: "Secondary diagnosis", Value: strconv.Itoa(diagnoses),
			Points: points(secondary, 15), Criteria: "2 or more medical diagnoses: 15", Met: secondary},
		{Factor: "Ambulatory aid", Value: rf.AmbulatoryAid.String(),
			Points: aidPoints[rf.AmbulatoryAid], Criteria: "none/bedrest: 0, crutches/cane/walker: 15, furniture: 30"},
		{Factor: "IV or heparin lock", Value: strconv.FormatBool(rf.IVAccess),
			Points: points(rf.IVAccess, 20), Criteria: "present: 20", Met: rf.IVAccess},
		{Factor: "Gait/transfer", Value: rf.Gait.String(),
			Points: gaitPoints[rf.Gait], Criteria: "normal: 0, weak: 10, impaired: 20"},
		{Factor: "Mental status", Value: rf.MentalStatus.String(),
			Points: mentalPoints[rf.MentalStatus], Criteria: "oriented: 0, forgets limitations: 15"},
	}
	for i := range components {
		components[i].Met = components[i].Points > 0
	}
	score := sum(components)

	f := finding.Finding{
		Name:        NameMorse,
		Score:       score,
		MaxScore:    125,
		Components:  components,
		Adjustments: clamp.Adjustments(),
	}
	switch {
	case score >= 51:
		f.Level = finding.High
		f.Interpretation = fmt.Sprintf("Morse %d: high fall risk.", score)
		f.Recommendations = []string{"Implement high fall-risk protocol: bed alarm, low bed, non-slip footwear and hourly rounding."}
	case score >= 25:
		f.Level = finding.Moderate
		f.Interpretation = fmt.Sprintf("Morse %d: moderate fall risk.", score)
		f.Recommendations = []string{"Implement standard fall precautions and reassess every shift."}
	default:
		f.Level = finding.Low
		f.Interpretation = fmt.Sprintf("Morse %d: low fall risk.", score)
		f.Recommendations = []string{"Maintain basic safety measures; reassess on any change in condition."}
	}

	if rf.HistoryOfFalling {
		f.Recommendations = append(f.Recommendations, "Review circumstances of previous falls and address modifiable causes.")
	}
	if rf.AmbulatoryAid != snapshot.AidNone {
		f.Recommendations = append(f.Recommendations, "Keep the ambulatory aid within reach and assist with transfers.")
	}
	if rf.IVAccess {
		f.Recommendations = append(f.Recommendations, "Secure IV lines and assist with ambulation while attached to a pole.")
	}
	if rf.Gait != snapshot.GaitNormal {
		f.Recommendations = append(f.Recommendations, "Refer to physical therapy for gait and transfer assessment.")
	}
	if rf.MentalStatus == snapshot.MentalForgetful {
		f.Recommendations = append(f.Recommendations, "Reorient frequently and keep the call light within reach.")
	}
	if rf.Age != nil {
		age := clamp.Int("age", *rf.Age, 0, 130)
		f.Adjustments = clamp.Adjustments()
		if age >= 65 {
			f.Recommendations = append(f.Recommendations, "Age 65 or older: review medications that increase fall risk.")
		}
		if age >= 80 {
			f.Recommendations = append(f.Recommendations, "Age 80 or older: consider hip protectors and a bed-exit alarm.")
		}
	}
	f.Label = f.Level.String()
	return f
}
