package catalog

import (
	"fmt"
	"strings"
)

// Problem is one configuration defect found by Validate.
type Problem struct {
	Table   string `json:"table"`
	RuleID  string `json:"rule_id"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (p Problem) String() string {
	return fmt.Sprintf("%s[%s].%s: %s", p.Table, p.RuleID, p.Field, p.Message)
}

// ValidationError reports every defect in a catalog. It is a load-time
// failure, distinct from anything an evaluation can return.
type ValidationError struct {
	Version  string
	Problems []Problem
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.String())
	}
	return fmt.Sprintf("catalog %q invalid: %d problem(s): %s", e.Version, len(e.Problems), strings.Join(parts, "; "))
}

type validator struct {
	problems []Problem
}

func (v *validator) add(table, id, field, format string, args ...interface{}) {
	v.problems = append(v.problems, Problem{Table: table, RuleID: id, Field: field, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) ids(table string, seen map[string]bool, id, name string) {
	if strings.TrimSpace(id) == "" {
		v.add(table, id, "id", "is required")
	} else if seen[id] {
		v.add(table, id, "id", "duplicate id")
	}
	seen[id] = true
	if strings.TrimSpace(name) == "" {
		v.add(table, id, "name", "is required")
	}
}

func (v *validator) ages(table, id string, minAge, maxAge int) {
	if minAge < 0 {
		v.add(table, id, "min_age", "must not be negative, got %d", minAge)
	}
	if maxAge < minAge {
		v.add(table, id, "max_age", "must be >= min_age (%d), got %d", minAge, maxAge)
	}
}

func (v *validator) sex(table, id, sex string) {
	switch strings.ToLower(sex) {
	case "", "male", "female":
	default:
		v.add(table, id, "sex", "must be empty, male or female, got %q", sex)
	}
}

func (v *validator) keywords(table, id, field string, kw []string, required bool) {
	if required && len(kw) == 0 {
		v.add(table, id, field, "at least one keyword is required")
	}
	for _, k := range kw {
		if strings.TrimSpace(k) == "" {
			v.add(table, id, field, "contains an empty keyword")
			return
		}
	}
}

// Validate checks the catalog statically and returns a *ValidationError
// listing every problem, or nil.
func (c *Catalog) Validate() error {
	v := &validator{}
	if strings.TrimSpace(c.Version) == "" {
		v.add("catalog", "", "version", "is required")
	}

	seen := map[string]bool{}
	for _, r := range c.Screenings {
		v.ids(TableScreenings, seen, r.ID, r.Name)
		v.ages(TableScreenings, r.ID, r.MinAge, r.MaxAge)
		v.sex(TableScreenings, r.ID, r.Sex)
		v.keywords(TableScreenings, r.ID, "requires_conditions", r.RequiresConditions, false)
		v.keywords(TableScreenings, r.ID, "satisfied_by", r.SatisfiedBy, true)
		if r.IntervalMonths < 0 {
			v.add(TableScreenings, r.ID, "interval_months", "must not be negative")
		}
	}

	seen = map[string]bool{}
	for _, r := range c.Immunizations {
		v.ids(TableImmunizations, seen, r.ID, r.Name)
		v.ages(TableImmunizations, r.ID, r.MinAge, r.MaxAge)
		v.sex(TableImmunizations, r.ID, r.Sex)
		v.keywords(TableImmunizations, r.ID, "requires_conditions", r.RequiresConditions, false)
		v.keywords(TableImmunizations, r.ID, "satisfied_by", r.SatisfiedBy, true)
		if r.IntervalMonths < 0 {
			v.add(TableImmunizations, r.ID, "interval_months", "must not be negative")
		}
	}

	seen = map[string]bool{}
	for _, r := range c.ChronicCare {
		v.ids(TableChronicCare, seen, r.ID, r.Name)
		if strings.TrimSpace(r.LabID) == "" {
			v.add(TableChronicCare, r.ID, "lab_id", "is required")
		}
		v.keywords(TableChronicCare, r.ID, "requires_conditions", r.RequiresConditions, true)
		if r.IntervalMonths <= 0 {
			v.add(TableChronicCare, r.ID, "interval_months", "must be positive, got %d", r.IntervalMonths)
		}
	}

	seen = map[string]bool{}
	for _, r := range c.Interactions {
		v.ids(TableInteractions, seen, r.ID, r.ID)
		d1, d2 := strings.ToLower(strings.TrimSpace(r.Drug1)), strings.ToLower(strings.TrimSpace(r.Drug2))
		if d1 == "" || d2 == "" {
			v.add(TableInteractions, r.ID, "drug", "both drug slots are required")
		} else if d1 == d2 {
			v.add(TableInteractions, r.ID, "drug2", "must differ from drug1")
		}
		if SeverityRank(r.Severity) == 0 {
			v.add(TableInteractions, r.ID, "severity", "unknown severity %q", r.Severity)
		}
	}

	seen = map[string]bool{}
	for _, r := range c.CrossReactivity {
		v.ids(TableCrossReactivity, seen, r.ID, r.Name)
		v.keywords(TableCrossReactivity, r.ID, "allergens", r.Allergens, true)
		v.keywords(TableCrossReactivity, r.ID, "members", r.Members, true)
	}

	if len(v.problems) == 0 {
		return nil
	}
	return &ValidationError{Version: c.Version, Problems: v.problems}
}
