package sepsis

import (
	"reflect"
	"strings"
	"testing"

	"github.com/ehr/cdsengine/internal/domain/aggregate"
	"github.com/ehr/cdsengine/internal/domain/finding"
	"github.com/ehr/cdsengine/internal/domain/snapshot"
)

var f = snapshot.F

func TestQSOFA_AllCriteria(t *testing.T) {
	v := snapshot.Vitals{RespiratoryRate: f(24), SystolicBP: f(88), Consciousness: snapshot.Confused}
	got := QSOFA(v)
	if got.Score != 3 {
		t.Errorf("expected score 3, got %d", got.Score)
	}
	if got.Level != finding.High {
		t.Errorf("expected high, got %s", got.Level)
	}
	if len(got.Components) != 3 {
		t.Fatalf("expected 3 components, got %d", len(got.Components))
	}
	for _, c := range got.Components {
		if !c.Met || c.Points != 1 {
			t.Errorf("expected %s met for 1 point, got %+v", c.Factor, c)
		}
	}
	if !QSOFAPositive(got.Score) {
		t.Error("expected positive qSOFA")
	}
}

func TestQSOFA_SystolicBoundary(t *testing.T) {
	if got := QSOFA(snapshot.Vitals{SystolicBP: f(100)}); got.Score != 1 {
		t.Errorf("expected SBP 100 to score, got %d", got.Score)
	}
	if got := QSOFA(snapshot.Vitals{SystolicBP: f(101)}); got.Score != 0 {
		t.Errorf("expected SBP 101 not to score, got %d", got.Score)
	}
}

func TestQSOFA_MentationFromGCS(t *testing.T) {
	got := QSOFA(snapshot.Vitals{GCS: snapshot.I(14)})
	if got.Score != 1 || !got.Components[1].Met {
		t.Errorf("expected GCS 14 to count as altered mentation, got %+v", got.Components[1])
	}
	if !strings.Contains(got.Components[1].Value, "GCS 14") {
		t.Errorf("expected GCS in value, got %q", got.Components[1].Value)
	}
	if got.Level != finding.Moderate {
		t.Errorf("expected moderate, got %s", got.Level)
	}
}

func TestSIRS_Criteria(t *testing.T) {
	tests := []struct {
		name  string
		v     snapshot.Vitals
		l     snapshot.Labs
		score int
		level finding.Level
	}{
		{"defaults", snapshot.Vitals{}, snapshot.Labs{}, 0, finding.Low},
		{"fever and tachycardia", snapshot.Vitals{Temperature: f(101.3), HeartRate: f(110)}, snapshot.Labs{}, 2, finding.Moderate},
		{"hypocapnia counts for respiration", snapshot.Vitals{}, snapshot.Labs{PaCO2: f(30)}, 1, finding.Low},
		{"bands count for white cells", snapshot.Vitals{}, snapshot.Labs{Bands: f(12)}, 1, finding.Low},
		{"leukopenia", snapshot.Vitals{}, snapshot.Labs{WBC: f(3.5)}, 1, finding.Low},
		{"three criteria", snapshot.Vitals{Temperature: f(95), HeartRate: f(95), RespiratoryRate: f(22)}, snapshot.Labs{}, 3, finding.High},
		{"all four", snapshot.Vitals{Temperature: f(102), HeartRate: f(120), RespiratoryRate: f(28)}, snapshot.Labs{WBC: f(15)}, 4, finding.High},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SIRS(tt.v, tt.l)
			if got.Score != tt.score {
				t.Errorf("expected score %d, got %d", tt.score, got.Score)
			}
			if got.Level != tt.level {
				t.Errorf("expected %s, got %s", tt.level, got.Level)
			}
		})
	}
}

func TestSIRS_PositiveIsNotHigh(t *testing.T) {
	got := SIRS(snapshot.Vitals{HeartRate: f(95), RespiratoryRate: f(24)}, snapshot.Labs{})
	if !SIRSPositive(got.Score) {
		t.Error("expected SIRS positive at 2 criteria")
	}
	if got.Level != finding.Moderate {
		t.Errorf("expected moderate at 2 criteria, got %s", got.Level)
	}
	if !strings.Contains(got.Interpretation, "SIRS positive") {
		t.Errorf("expected interpretation to flag SIRS positive, got %q", got.Interpretation)
	}
}

func TestSIRS_TemperatureBoundary(t *testing.T) {
	// 100.4 °F is exactly 38.0 °C.
	if got := SIRS(snapshot.Vitals{Temperature: f(100.4)}, snapshot.Labs{}); got.Components[0].Met {
		t.Error("expected 38.0 °C not to meet the temperature criterion")
	}
	if got := SIRS(snapshot.Vitals{Temperature: f(100.6)}, snapshot.Labs{}); !got.Components[0].Met {
		t.Error("expected 38.1 °C to meet the temperature criterion")
	}
	// 96.8 °F is exactly 36.0 °C.
	if got := SIRS(snapshot.Vitals{Temperature: f(96.8)}, snapshot.Labs{}); got.Components[0].Met {
		t.Error("expected 36.0 °C not to meet the temperature criterion")
	}
	// 100.45 °F is 38.03 °C: above the threshold even though it displays as 38.0.
	if got := SIRS(snapshot.Vitals{Temperature: f(100.45)}, snapshot.Labs{}); !got.Components[0].Met {
		t.Error("expected 100.45 °F to meet the fever criterion")
	}
	if got := SIRS(snapshot.Vitals{Temperature: f(96.75)}, snapshot.Labs{}); !got.Components[0].Met {
		t.Error("expected 96.75 °F (35.97 °C) to meet the hypothermia criterion")
	}
}

func news2Points(t *testing.T, v snapshot.Vitals, factor string) int {
	t.Helper()
	for _, c := range NEWS2(v).Components {
		if c.Factor == factor {
			return c.Points
		}
	}
	t.Fatalf("component %s not found", factor)
	return 0
}

func TestNEWS2_RespiratoryRateBands(t *testing.T) {
	want := map[float64]int{8: 3, 9: 1, 11: 1, 12: 0, 20: 0, 21: 2, 24: 2, 25: 3}
	for rr, pts := range want {
		if got := news2Points(t, snapshot.Vitals{RespiratoryRate: f(rr)}, "Respiratory rate"); got != pts {
			t.Errorf("RR %v: expected %d points, got %d", rr, pts, got)
		}
	}
}

func TestNEWS2_ParameterBands(t *testing.T) {
	tests := []struct {
		factor string
		v      snapshot.Vitals
		points int
	}{
		{"Oxygen saturation", snapshot.Vitals{OxygenSaturation: f(91)}, 3},
		{"Oxygen saturation", snapshot.Vitals{OxygenSaturation: f(92)}, 2},
		{"Oxygen saturation", snapshot.Vitals{OxygenSaturation: f(95)}, 1},
		{"Oxygen saturation", snapshot.Vitals{OxygenSaturation: f(96)}, 0},
		{"Supplemental oxygen", snapshot.Vitals{SupplementalOxygen: true}, 2},
		{"Systolic blood pressure", snapshot.Vitals{SystolicBP: f(90)}, 3},
		{"Systolic blood pressure", snapshot.Vitals{SystolicBP: f(91)}, 2},
		{"Systolic blood pressure", snapshot.Vitals{SystolicBP: f(101)}, 1},
		{"Systolic blood pressure", snapshot.Vitals{SystolicBP: f(111)}, 0},
		{"Systolic blood pressure", snapshot.Vitals{SystolicBP: f(219)}, 0},
		{"Systolic blood pressure", snapshot.Vitals{SystolicBP: f(220)}, 3},
		{"Heart rate", snapshot.Vitals{HeartRate: f(40)}, 3},
		{"Heart rate", snapshot.Vitals{HeartRate: f(41)}, 1},
		{"Heart rate", snapshot.Vitals{HeartRate: f(51)}, 0},
		{"Heart rate", snapshot.Vitals{HeartRate: f(91)}, 1},
		{"Heart rate", snapshot.Vitals{HeartRate: f(111)}, 2},
		{"Heart rate", snapshot.Vitals{HeartRate: f(131)}, 3},
		{"Temperature", snapshot.Vitals{Temperature: f(95)}, 3},      // 35.0 °C
		{"Temperature", snapshot.Vitals{Temperature: f(96.8)}, 1},    // 36.0 °C
		{"Temperature", snapshot.Vitals{Temperature: f(100.4)}, 0},   // 38.0 °C
		{"Temperature", snapshot.Vitals{Temperature: f(102.2)}, 1},   // 39.0 °C
		{"Temperature", snapshot.Vitals{Temperature: f(102.4)}, 2},   // 39.1 °C
		{"Consciousness", snapshot.Vitals{Consciousness: snapshot.Unresponsive}, 3},
	}
	for _, tt := range tests {
		if got := news2Points(t, tt.v, tt.factor); got != tt.points {
			t.Errorf("%s %+v: expected %d points, got %d", tt.factor, tt.v, tt.points, got)
		}
	}
}

func TestNEWS2_Levels(t *testing.T) {
	tests := []struct {
		name  string
		v     snapshot.Vitals
		score int
		level finding.Level
	}{
		{"normal", snapshot.Vitals{}, 0, finding.Low},
		{"mild tachycardia", snapshot.Vitals{HeartRate: f(95)}, 1, finding.Moderate},
		{"urgent", snapshot.Vitals{HeartRate: f(115), RespiratoryRate: f(22), OxygenSaturation: f(95)}, 5, finding.High},
		{"emergency", snapshot.Vitals{RespiratoryRate: f(26), OxygenSaturation: f(90), SystolicBP: f(88)}, 9, finding.Critical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NEWS2(tt.v)
			if got.Score != tt.score {
				t.Errorf("expected score %d, got %d", tt.score, got.Score)
			}
			if got.Level != tt.level {
				t.Errorf("expected %s, got %s", tt.level, got.Level)
			}
		})
	}
}

func TestNEWS2_RedScore(t *testing.T) {
	got := NEWS2(snapshot.Vitals{OxygenSaturation: f(90)})
	if got.Score != 3 || got.Level != finding.Moderate {
		t.Fatalf("expected score 3 moderate, got %d %s", got.Score, got.Level)
	}
	if got.TopRecommendation() != redScoreRecommendation {
		t.Errorf("expected red-score recommendation first, got %q", got.TopRecommendation())
	}
}

func TestDefaultsAreSafe(t *testing.T) {
	a := Assess(snapshot.Vitals{}, snapshot.Labs{})
	for _, fnd := range []finding.Finding{a.QSOFA, a.SIRS, a.NEWS2} {
		if fnd.Score != 0 || fnd.Level != finding.Low {
			t.Errorf("expected %s to be 0/low on empty input, got %d/%s", fnd.Name, fnd.Score, fnd.Level)
		}
		if fnd.Clamped() {
			t.Errorf("expected no clamping on empty input for %s", fnd.Name)
		}
	}
	if a.Overall != finding.Low {
		t.Errorf("expected overall low, got %s", a.Overall)
	}
	if len(a.PrimaryRecommendations) != 1 || a.PrimaryRecommendations[0] != aggregate.NoCriticalRisk {
		t.Errorf("expected default recommendation, got %v", a.PrimaryRecommendations)
	}
	for _, c := range a.OrganDysfunction {
		if c.Met || c.Value != "not measured" {
			t.Errorf("expected unmeasured organ marker, got %+v", c)
		}
	}
}

func TestAssess_OverallAndPrimary(t *testing.T) {
	v := snapshot.Vitals{RespiratoryRate: f(24), SystolicBP: f(88), Consciousness: snapshot.Confused}
	a := Assess(v, snapshot.Labs{})
	if a.NEWS2.Score != 8 {
		t.Errorf("expected NEWS2 8, got %d", a.NEWS2.Score)
	}
	if a.Overall != finding.Critical {
		t.Errorf("expected critical overall, got %s", a.Overall)
	}
	if len(a.PrimaryRecommendations) != 2 {
		t.Fatalf("expected qSOFA and NEWS2 lines, got %v", a.PrimaryRecommendations)
	}
	if !strings.HasPrefix(a.PrimaryRecommendations[0], aggregate.MarkerQSOFA+" ") {
		t.Errorf("expected qSOFA line first, got %q", a.PrimaryRecommendations[0])
	}
	if !strings.HasPrefix(a.PrimaryRecommendations[1], aggregate.MarkerNEWS2+" ") {
		t.Errorf("expected NEWS2 line second, got %q", a.PrimaryRecommendations[1])
	}
	if !a.QSOFAPositive || a.SIRSPositive {
		t.Errorf("expected qSOFA positive and SIRS negative, got %v/%v", a.QSOFAPositive, a.SIRSPositive)
	}
}

func TestAssess_Deterministic(t *testing.T) {
	v := snapshot.Vitals{HeartRate: f(118), Temperature: f(101.8), RespiratoryRate: f(23), GCS: snapshot.I(13)}
	l := snapshot.Labs{WBC: f(14.2), Lactate: f(3.1), Platelets: f(90)}
	first := Assess(v, l)
	for i := 0; i < 5; i++ {
		if got := Assess(v, l); !reflect.DeepEqual(first, got) {
			t.Fatalf("expected identical assessments, got %+v vs %+v", first, got)
		}
	}
}

func TestMonotonicity(t *testing.T) {
	// Moving a vital further from normal never lowers a score.
	up := func(set func(x float64) snapshot.Vitals, from, to, step float64) {
		t.Helper()
		prevQ, prevS, prevN := -1, -1, -1
		for x := from; x <= to; x += step {
			v := set(x)
			q, s, n := QSOFA(v).Score, SIRS(v, snapshot.Labs{}).Score, NEWS2(v).Score
			if q < prevQ || s < prevS || n < prevN {
				t.Errorf("score decreased at %v: qSOFA %d→%d SIRS %d→%d NEWS2 %d→%d", x, prevQ, q, prevS, s, prevN, n)
			}
			prevQ, prevS, prevN = q, s, n
		}
	}
	up(func(x float64) snapshot.Vitals { return snapshot.Vitals{RespiratoryRate: f(x)} }, 16, 40, 1)
	up(func(x float64) snapshot.Vitals { return snapshot.Vitals{RespiratoryRate: f(32 - x)} }, 16, 28, 1)
	up(func(x float64) snapshot.Vitals { return snapshot.Vitals{HeartRate: f(x)} }, 80, 180, 1)
	up(func(x float64) snapshot.Vitals { return snapshot.Vitals{SystolicBP: f(240 - x)} }, 120, 200, 1)
	up(func(x float64) snapshot.Vitals { return snapshot.Vitals{OxygenSaturation: f(196 - x)} }, 98, 116, 1)
}

func TestClampingIsReported(t *testing.T) {
	got := NEWS2(snapshot.Vitals{OxygenSaturation: f(104), GCS: snapshot.I(18)})
	if !got.Clamped() {
		t.Fatal("expected clamping to be reported")
	}
	fields := map[string]finding.Adjustment{}
	for _, a := range got.Adjustments {
		fields[a.Field] = a
	}
	if a := fields["oxygenSaturation"]; a.Given != 104 || a.Used != 100 {
		t.Errorf("expected SpO2 104 clamped to 100, got %+v", a)
	}
	if a := fields["gcs"]; a.Given != 18 || a.Used != 15 {
		t.Errorf("expected GCS 18 clamped to 15, got %+v", a)
	}
	if got.Score != 0 {
		t.Errorf("expected clamped values to score 0, got %d", got.Score)
	}
}

func TestOrganDysfunction(t *testing.T) {
	got := OrganDysfunction(snapshot.Labs{Lactate: f(2), Creatinine: f(2), Platelets: f(99), INR: f(1.6)})
	want := map[string]bool{"Lactate": true, "Creatinine": false, "Bilirubin": false, "Platelets": true, "INR": true, "Glucose": false}
	if len(got) != len(want) {
		t.Fatalf("expected %d markers, got %d", len(want), len(got))
	}
	for _, c := range got {
		if c.Met != want[c.Factor] {
			t.Errorf("%s: expected met=%v, got %v", c.Factor, want[c.Factor], c.Met)
		}
		if c.Points != 0 {
			t.Errorf("%s: expected no points, got %d", c.Factor, c.Points)
		}
	}
}
