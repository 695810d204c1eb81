package caregap

import (
	"fmt"
	"strings"
	"time"

	"github.com/ehr/cdsengine/internal/domain/catalog"
	"github.com/ehr/cdsengine/internal/domain/snapshot"
	"github.com/ehr/cdsengine/internal/platform/textmatch"
)

var matcher textmatch.Matcher = textmatch.Contains{}

// eligibility is the part shared by screening and immunization rules.
type eligibility struct {
	minAge, maxAge int
	sex            string
	requires       []string
}

// eligible applies, in order: age range, sex, prerequisite conditions.
func (e eligibility) eligible(d snapshot.Demographics) bool {
	if d.Age < e.minAge || d.Age > e.maxAge {
		return false
	}
	if e.sex != "" && !strings.EqualFold(e.sex, d.Sex.String()) {
		return false
	}
	if len(e.requires) > 0 && !textmatch.AnyText(matcher, d.Conditions, e.requires) {
		return false
	}
	return true
}

// lapsed reports whether a dated record is due again: last + interval <= asOf.
// A zero interval never lapses.
func lapsed(last time.Time, months int, asOf time.Time) (time.Time, bool) {
	if months <= 0 {
		return time.Time{}, false
	}
	due := last.AddDate(0, months, 0)
	return due, !due.After(asOf)
}

// Detect evaluates every catalog rule against d as of asOf. Ineligible rules
// are skipped silently; eligible rules not yet satisfied become gaps.
func Detect(d snapshot.Demographics, cat *catalog.Catalog, asOf time.Time, p Policy) Report {
	r := Report{
		Screenings:    []Gap{},
		Immunizations: []Gap{},
		ChronicCare:   []Gap{},
		FollowUps:     []Gap{},
	}

	for _, rule := range cat.Screenings {
		if g, ok := screeningGap(d, rule, asOf, p); ok {
			r.Screenings = append(r.Screenings, g)
		}
	}
	for _, rule := range cat.Immunizations {
		if g, ok := immunizationGap(d, rule, asOf); ok {
			r.Immunizations = append(r.Immunizations, g)
		}
	}
	for _, rule := range cat.ChronicCare {
		if g, ok := chronicCareGap(d, rule, asOf, p); ok {
			r.ChronicCare = append(r.ChronicCare, g)
		}
	}

	for _, g := range r.All() {
		r.TotalGaps++
		if g.Priority == PriorityOverdue {
			r.OverdueCount++
		}
	}
	return r
}

func orderText(verb, name, code string) string {
	if code == "" {
		return fmt.Sprintf("%s %s.", verb, name)
	}
	return fmt.Sprintf("%s %s (order code %s).", verb, name, code)
}

func screeningGap(d snapshot.Demographics, rule catalog.ScreeningRule, asOf time.Time, p Policy) (Gap, bool) {
	e := eligibility{rule.MinAge, rule.MaxAge, rule.Sex, rule.RequiresConditions}
	if !e.eligible(d) {
		return Gap{}, false
	}

	g := Gap{
		RuleID:         rule.ID,
		Title:          rule.Name,
		Category:       CategoryScreening,
		Description:    rule.Description,
		Recommendation: orderText("Order", rule.Name, rule.OrderCode),
		OrderCode:      rule.OrderCode,
	}
	if last, ok := d.LastPerformed[rule.ID]; ok {
		due, gap := lapsed(last, rule.IntervalMonths, asOf)
		if !gap {
			return Gap{}, false
		}
		g.DueDate = &due
		g.Priority = PriorityOverdue
		return g, true
	}
	if textmatch.AnyText(matcher, d.Procedures, rule.SatisfiedBy) {
		return Gap{}, false
	}

	g.Priority = PriorityHigh
	if d.Age > rule.MinAge+p.ScreeningOverdueGraceYears {
		g.Priority = PriorityOverdue
	}
	return g, true
}

func immunizationGap(d snapshot.Demographics, rule catalog.ImmunizationRule, asOf time.Time) (Gap, bool) {
	e := eligibility{rule.MinAge, rule.MaxAge, rule.Sex, rule.RequiresConditions}
	if !e.eligible(d) {
		return Gap{}, false
	}

	g := Gap{
		RuleID:         rule.ID,
		Title:          rule.Name,
		Category:       CategoryImmunization,
		Description:    rule.Description,
		Recommendation: orderText("Administer", rule.Name, rule.OrderCode),
		OrderCode:      rule.OrderCode,
	}
	if last, ok := d.LastPerformed[rule.ID]; ok {
		due, gap := lapsed(last, rule.IntervalMonths, asOf)
		if !gap {
			return Gap{}, false
		}
		g.DueDate = &due
		g.Priority = PriorityOverdue
		return g, true
	}
	if textmatch.AnyText(matcher, d.Immunizations, rule.SatisfiedBy) {
		return Gap{}, false
	}

	g.Priority = PriorityMedium
	if rule.Annual() {
		g.Priority = PriorityHigh
	}
	return g, true
}

func chronicCareGap(d snapshot.Demographics, rule catalog.ChronicCareRule, asOf time.Time, p Policy) (Gap, bool) {
	if !textmatch.AnyText(matcher, d.Conditions, rule.RequiresConditions) {
		return Gap{}, false
	}

	g := Gap{
		RuleID:      rule.ID,
		Title:       rule.Name,
		Category:    CategoryChronicCare,
		Description: rule.Description,
		OrderCode:   rule.OrderCode,
	}
	last, ok := d.LastPerformed[rule.LabID]
	if !ok {
		g.Priority = PriorityOverdue
		g.Recommendation = orderText("Order", rule.Name, rule.OrderCode) + " No prior result on file."
		return g, true
	}

	due, gap := lapsed(last, rule.IntervalMonths, asOf)
	if !gap {
		return Gap{}, false
	}
	g.DueDate = &due
	g.Recommendation = orderText("Order", rule.Name, rule.OrderCode) +
		fmt.Sprintf(" Last performed %s.", last.Format("2006-01-02"))
	g.Priority = PriorityMedium
	if asOf.After(due.Add(p.ChronicCareOverdueGrace)) {
		g.Priority = PriorityOverdue
	}
	return g, true
}
