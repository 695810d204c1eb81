// Package caregap finds preventive screenings, immunizations and chronic-care
// monitoring that a patient is due for under the guideline catalog.
package caregap

import (
	"fmt"
	"strings"
	"time"

	"github.com/ehr/cdsengine/internal/domain/finding"
)

type Category string

const (
	CategoryScreening    Category = "screening"
	CategoryImmunization Category = "immunization"
	CategoryChronicCare  Category = "chronic-care"
	CategoryFollowUp     Category = "follow-up"
)

// Priority orders gaps low < medium < high < overdue.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityOverdue
)

var priorityNames = []string{"low", "medium", "high", "overdue"}

func (p Priority) String() string {
	if p < PriorityLow || p > PriorityOverdue {
		return fmt.Sprintf("invalid(%d)", int(p))
	}
	return priorityNames[p]
}

func (p Priority) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Priority) UnmarshalText(b []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(b)))
	for i, n := range priorityNames {
		if s == n {
			*p = Priority(i)
			return nil
		}
	}
	return fmt.Errorf("unknown gap priority %q", string(b))
}

// Policy holds the tunable priority thresholds.
type Policy struct {
	// ScreeningOverdueGraceYears: a screening gap is overdue once the patient
	// is more than this many years past the rule's minimum age. The published
	// rule of thumb is 2 years, but that would make a 50-year-old's first
	// mammogram (minimum age 40) overdue rather than high priority, so the
	// default is 10. Confirm the threshold with clinical stakeholders before
	// changing it.
	ScreeningOverdueGraceYears int
	// ChronicCareOverdueGrace: a monitoring lab is overdue once it is more
	// than this far past its due date.
	ChronicCareOverdueGrace time.Duration
}

// DefaultPolicy returns the thresholds used when the host configures none.
func DefaultPolicy() Policy {
	return Policy{
		ScreeningOverdueGraceYears: 10,
		ChronicCareOverdueGrace:    30 * 24 * time.Hour,
	}
}

// Gap is one guideline action not documented as completed.
type Gap struct {
	RuleID         string     `json:"ruleId"`
	Title          string     `json:"title"`
	Category       Category   `json:"category"`
	Priority       Priority   `json:"priority"`
	Description    string     `json:"description"`
	Recommendation string     `json:"recommendation"`
	OrderCode      string     `json:"orderCode,omitempty"`
	DueDate        *time.Time `json:"dueDate,omitempty"`
}

// Report groups gaps by category, each in catalog order. FollowUps are
// supplied by external workflows; Detect always leaves it empty.
type Report struct {
	Screenings    []Gap `json:"screenings"`
	Immunizations []Gap `json:"immunizations"`
	ChronicCare   []Gap `json:"chronicCare"`
	FollowUps     []Gap `json:"followUps"`
	TotalGaps     int   `json:"totalGaps"`
	OverdueCount  int   `json:"overdueCount"`
}

// All returns every gap: screenings, immunizations, chronic care, follow-ups.
func (r Report) All() []Gap {
	out := make([]Gap, 0, r.TotalGaps)
	out = append(out, r.Screenings...)
	out = append(out, r.Immunizations...)
	out = append(out, r.ChronicCare...)
	out = append(out, r.FollowUps...)
	return out
}

// Level maps the gap set to a risk level for aggregation.
func (r Report) Level() finding.Level {
	switch {
	case r.OverdueCount > 0:
		return finding.High
	case r.TotalGaps > 0:
		return finding.Moderate
	default:
		return finding.Low
	}
}

// Recommendations lists gap recommendations, overdue gaps first, otherwise
// in report order.
func (r Report) Recommendations() []string {
	all := r.All()
	var recs []string
	for _, g := range all {
		if g.Priority == PriorityOverdue {
			recs = append(recs, g.Recommendation)
		}
	}
	for _, g := range all {
		if g.Priority != PriorityOverdue {
			recs = append(recs, g.Recommendation)
		}
	}
	return recs
}
