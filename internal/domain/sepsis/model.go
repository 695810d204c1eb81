// Package sepsis scores early-warning signs of sepsis and clinical
// deterioration: qSOFA, SIRS and NEWS2.
package sepsis

import (
	"math"

	"github.com/ehr/cdsengine/internal/domain/finding"
	"github.com/ehr/cdsengine/internal/domain/snapshot"
)

// Finding names.
const (
	NameQSOFA = "qSOFA"
	NameSIRS  = "SIRS"
	NameNEWS2 = "NEWS2"
)

// Assessment is the combined sepsis evaluation.
type Assessment struct {
	QSOFA                  finding.Finding     `json:"qsofa"`
	SIRS                   finding.Finding     `json:"sirs"`
	NEWS2                  finding.Finding     `json:"news2"`
	QSOFAPositive          bool                `json:"qsofaPositive"`
	SIRSPositive           bool                `json:"sirsPositive"`
	OrganDysfunction       []finding.Component `json:"organDysfunction"`
	Overall                finding.Level       `json:"overallRisk"`
	PrimaryRecommendations []string            `json:"primaryRecommendations"`
}

// Clamped reports whether any sub-score clamped its input.
func (a Assessment) Clamped() bool {
	return a.QSOFA.Clamped() || a.SIRS.Clamped() || a.NEWS2.Clamped()
}

// vitals resolves defaults and clamps raw vitals for one sub-score.
type vitals struct {
	clamp finding.Clamper

	heartRate float64
	systolic  float64
	respRate  float64
	tempF     float64
	spo2      float64
	gcs       int

	gcsMeasured   bool
	consciousness snapshot.Consciousness
	oxygen        bool
}

var unbounded = math.Inf(1)

func readVitals(v snapshot.Vitals) *vitals {
	r := &vitals{consciousness: v.Consciousness, oxygen: v.SupplementalOxygen, gcsMeasured: v.GCS != nil}
	r.heartRate = r.clamp.Float("heartRate", snapshot.Float(v.HeartRate, snapshot.DefaultHeartRate), 0, unbounded)
	r.systolic = r.clamp.Float("systolicBP", snapshot.Float(v.SystolicBP, snapshot.DefaultSystolicBP), 0, unbounded)
	r.respRate = r.clamp.Float("respiratoryRate", snapshot.Float(v.RespiratoryRate, snapshot.DefaultRespiratoryRate), 0, unbounded)
	r.tempF = r.clamp.Float("temperature", snapshot.Float(v.Temperature, snapshot.DefaultTemperatureF), 0, unbounded)
	r.spo2 = r.clamp.Float("oxygenSaturation", snapshot.Float(v.OxygenSaturation, snapshot.DefaultOxygenSaturation), 0, 100)
	r.gcs = r.clamp.Int("gcs", snapshot.Int(v.GCS, snapshot.DefaultGCS), 3, 15)
	return r
}

// altered is true for any consciousness other than alert, or a GCS below 15.
func (r *vitals) altered() bool {
	return r.consciousness != snapshot.Alert || r.gcs < 15
}

func (r *vitals) mentation() string {
	if r.gcsMeasured {
		return r.consciousness.String() + ", GCS " + finding.Measure(float64(r.gcs), "")
	}
	return r.consciousness.String()
}

func point(met bool, pts int) int {
	if met {
		return pts
	}
	return 0
}
