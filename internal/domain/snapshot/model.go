// Package snapshot defines the immutable clinical input evaluated by the
// rules engine. Optional numeric fields are pointers; a nil field resolves
// to a clinically normal default, never to zero.
package snapshot

import (
	"math"
	"time"
)

// Default values used when a vital sign or lab is absent.
const (
	DefaultHeartRate        = 80.0
	DefaultSystolicBP       = 120.0
	DefaultDiastolicBP      = 80.0
	DefaultRespiratoryRate  = 16.0
	DefaultTemperatureF     = 98.6
	DefaultOxygenSaturation = 98.0
	DefaultGCS              = 15
	DefaultWBC              = 8.0
	DefaultPaCO2            = 40.0
	DefaultBands            = 0.0
)

// Vitals is a bedside vital-sign snapshot. Temperature is in Fahrenheit.
type Vitals struct {
	HeartRate          *float64      `json:"heartRate,omitempty"`
	SystolicBP         *float64      `json:"systolicBP,omitempty"`
	DiastolicBP        *float64      `json:"diastolicBP,omitempty"`
	RespiratoryRate    *float64      `json:"respiratoryRate,omitempty"`
	Temperature        *float64      `json:"temperature,omitempty"`
	OxygenSaturation   *float64      `json:"oxygenSaturation,omitempty"`
	SupplementalOxygen bool          `json:"supplementalOxygen,omitempty"`
	Consciousness      Consciousness `json:"mentalStatus,omitempty"`
	GCS                *int          `json:"gcs,omitempty"`
}

// Labs holds laboratory values in conventional US units:
// WBC and platelets ×10³/µL, lactate mmol/L, PaCO2 mmHg, bands %,
// glucose/creatinine/bilirubin mg/dL, INR unitless.
type Labs struct {
	WBC        *float64 `json:"wbc,omitempty"`
	Lactate    *float64 `json:"lactate,omitempty"`
	PaCO2      *float64 `json:"paco2,omitempty"`
	Bands      *float64 `json:"bands,omitempty"`
	Glucose    *float64 `json:"glucose,omitempty"`
	Creatinine *float64 `json:"creatinine,omitempty"`
	Bilirubin  *float64 `json:"bilirubin,omitempty"`
	Platelets  *float64 `json:"platelets,omitempty"`
	INR        *float64 `json:"inr,omitempty"`
}

// BradenRatings are the six Braden sub-scale ratings. Sensory perception,
// moisture, activity, mobility and nutrition range 1–4; friction/shear 1–3.
type BradenRatings struct {
	SensoryPerception *int `json:"sensoryPerception,omitempty"`
	Moisture          *int `json:"moisture,omitempty"`
	Activity          *int `json:"activity,omitempty"`
	Mobility          *int `json:"mobility,omitempty"`
	Nutrition         *int `json:"nutrition,omitempty"`
	FrictionShear     *int `json:"frictionShear,omitempty"`
}

// RiskFactors feeds the fall, readmission and pressure-ulcer scores.
type RiskFactors struct {
	Age              *int          `json:"age,omitempty"`
	HistoryOfFalling bool          `json:"historyOfFalling,omitempty"`
	DiagnosisCount   int           `json:"diagnosisCount,omitempty"`
	AmbulatoryAid    AmbulatoryAid `json:"ambulatoryAid,omitempty"`
	IVAccess         bool          `json:"ivAccess,omitempty"`
	Gait             Gait          `json:"gaitTransfer,omitempty"`
	MentalStatus     MentalStatus  `json:"mentalStatus,omitempty"`
	LengthOfStayDays int           `json:"lengthOfStay,omitempty"`
	Acuity           Acuity        `json:"acuity,omitempty"`
	ComorbidityIndex int           `json:"comorbidityIndex,omitempty"`
	EDVisits         int           `json:"edVisits,omitempty"`
	Braden           BradenRatings `json:"braden"`
}

// Demographics drives care-gap eligibility. LastPerformed maps a lab or rule
// identifier to the date it was last performed.
type Demographics struct {
	Age           int                  `json:"age"`
	Sex           Sex                  `json:"gender,omitempty"`
	Conditions    []string             `json:"conditions,omitempty"`
	Procedures    []string             `json:"procedures,omitempty"`
	Immunizations []string             `json:"immunizations,omitempty"`
	LastPerformed map[string]time.Time `json:"lastPerformed,omitempty"`
}

// Allergy is a recorded allergen with its reaction severity.
type Allergy struct {
	Allergen string          `json:"allergen"`
	Severity AllergySeverity `json:"severity,omitempty"`
}

// Snapshot is everything the engine needs for one patient evaluation.
// AsOf is the clinical reference date for date-based rules; when nil the
// host's clock supplies it.
type Snapshot struct {
	PatientID    string       `json:"patientId,omitempty"`
	Vitals       Vitals       `json:"vitals"`
	Labs         Labs         `json:"labs"`
	RiskFactors  RiskFactors  `json:"riskFactors"`
	Demographics Demographics `json:"demographics"`
	Medications  []string     `json:"medications,omitempty"`
	Allergies    []Allergy    `json:"allergies,omitempty"`
	AsOf         *time.Time   `json:"asOf,omitempty"`
}

// Float returns *p, or def when p is nil.
func Float(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// Int returns *p, or def when p is nil.
func Int(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

// F and I build optional fields; mostly useful in tests and adapters.
func F(v float64) *float64 { return &v }
func I(v int) *int         { return &v }

// FahrenheitToCelsius converts a body temperature, rounded to 0.1 °C so that
// threshold comparisons are not disturbed by floating-point residue.
func FahrenheitToCelsius(f float64) float64 {
	return math.Round((f-32)*5/9*10) / 10
}
