// Package catalog holds the guideline tables the evaluators read: screening,
// immunization and chronic-care rules, drug-drug interactions, and allergy
// cross-reactivity classes. A Catalog is never mutated once built; updates
// replace the whole value through a Store.
package catalog

import "strings"

// Interaction severities, ordered minor < moderate < major < contraindicated.
const (
	SeverityMinor           = "minor"
	SeverityModerate        = "moderate"
	SeverityMajor           = "major"
	SeverityContraindicated = "contraindicated"
)

var severityRank = map[string]int{
	SeverityMinor:           1,
	SeverityModerate:        2,
	SeverityMajor:           3,
	SeverityContraindicated: 4,
}

// SeverityRank orders interaction severities; unknown values rank 0.
func SeverityRank(s string) int { return severityRank[strings.ToLower(s)] }

// ScreeningRule is a preventive screening recommendation.
type ScreeningRule struct {
	ID                 string   `json:"id" mapstructure:"id"`
	Name               string   `json:"name" mapstructure:"name"`
	MinAge             int      `json:"min_age" mapstructure:"min_age"`
	MaxAge             int      `json:"max_age" mapstructure:"max_age"`
	Sex                string   `json:"sex,omitempty" mapstructure:"sex"`
	RequiresConditions []string `json:"requires_conditions,omitempty" mapstructure:"requires_conditions"`
	SatisfiedBy        []string `json:"satisfied_by" mapstructure:"satisfied_by"`
	IntervalMonths     int      `json:"interval_months" mapstructure:"interval_months"`
	OrderCode          string   `json:"order_code" mapstructure:"order_code"`
	Description        string   `json:"description" mapstructure:"description"`
}

// ImmunizationRule is a vaccine recommendation. IntervalMonths of 0 means a
// one-time vaccine or series.
type ImmunizationRule struct {
	ID                 string   `json:"id" mapstructure:"id"`
	Name               string   `json:"name" mapstructure:"name"`
	MinAge             int      `json:"min_age" mapstructure:"min_age"`
	MaxAge             int      `json:"max_age" mapstructure:"max_age"`
	Sex                string   `json:"sex,omitempty" mapstructure:"sex"`
	RequiresConditions []string `json:"requires_conditions,omitempty" mapstructure:"requires_conditions"`
	SatisfiedBy        []string `json:"satisfied_by" mapstructure:"satisfied_by"`
	IntervalMonths     int      `json:"interval_months" mapstructure:"interval_months"`
	OrderCode          string   `json:"order_code" mapstructure:"order_code"`
	Description        string   `json:"description" mapstructure:"description"`
}

// Annual reports whether the vaccine is repeated every year.
func (r ImmunizationRule) Annual() bool { return r.IntervalMonths > 0 && r.IntervalMonths <= 12 }

// ChronicCareRule is a monitoring lab for patients with a chronic condition.
// LabID keys into Demographics.LastPerformed.
type ChronicCareRule struct {
	ID                 string   `json:"id" mapstructure:"id"`
	Name               string   `json:"name" mapstructure:"name"`
	LabID              string   `json:"lab_id" mapstructure:"lab_id"`
	RequiresConditions []string `json:"requires_conditions" mapstructure:"requires_conditions"`
	IntervalMonths     int      `json:"interval_months" mapstructure:"interval_months"`
	OrderCode          string   `json:"order_code" mapstructure:"order_code"`
	Description        string   `json:"description" mapstructure:"description"`
}

// InteractionRule is a drug-drug interaction row.
type InteractionRule struct {
	ID             string `json:"id" mapstructure:"id"`
	Drug1          string `json:"drug1" mapstructure:"drug1"`
	Drug2          string `json:"drug2" mapstructure:"drug2"`
	Severity       string `json:"severity" mapstructure:"severity"`
	Description    string `json:"description" mapstructure:"description"`
	Recommendation string `json:"recommendation" mapstructure:"recommendation"`
}

// CrossReactivityClass groups allergens with the drugs they cross-react with.
type CrossReactivityClass struct {
	ID          string   `json:"id" mapstructure:"id"`
	Name        string   `json:"name" mapstructure:"name"`
	Allergens   []string `json:"allergens" mapstructure:"allergens"`
	Members     []string `json:"members" mapstructure:"members"`
	Description string   `json:"description" mapstructure:"description"`
}

// Catalog is one immutable, versioned set of guideline tables.
type Catalog struct {
	Version         string                 `json:"version" mapstructure:"version"`
	Screenings      []ScreeningRule        `json:"screenings" mapstructure:"screenings"`
	Immunizations   []ImmunizationRule     `json:"immunizations" mapstructure:"immunizations"`
	ChronicCare     []ChronicCareRule      `json:"chronic_care" mapstructure:"chronic_care"`
	Interactions    []InteractionRule      `json:"interactions" mapstructure:"interactions"`
	CrossReactivity []CrossReactivityClass `json:"cross_reactivity" mapstructure:"cross_reactivity"`
}

// Table names used by the API and the pg repository.
const (
	TableScreenings      = "screenings"
	TableImmunizations   = "immunizations"
	TableChronicCare     = "chronic-care"
	TableInteractions    = "interactions"
	TableCrossReactivity = "cross-reactivity"
)

// Counts returns the number of rows per table.
func (c *Catalog) Counts() map[string]int {
	return map[string]int{
		TableScreenings:      len(c.Screenings),
		TableImmunizations:   len(c.Immunizations),
		TableChronicCare:     len(c.ChronicCare),
		TableInteractions:    len(c.Interactions),
		TableCrossReactivity: len(c.CrossReactivity),
	}
}

// Table returns the rows of the named table as a slice of values, and false
// for an unknown name.
func (c *Catalog) Table(name string) ([]interface{}, bool) {
	var out []interface{}
	switch name {
	case TableScreenings:
		for _, r := range c.Screenings {
			out = append(out, r)
		}
	case TableImmunizations:
		for _, r := range c.Immunizations {
			out = append(out, r)
		}
	case TableChronicCare:
		for _, r := range c.ChronicCare {
			out = append(out, r)
		}
	case TableInteractions:
		for _, r := range c.Interactions {
			out = append(out, r)
		}
	case TableCrossReactivity:
		for _, r := range c.CrossReactivity {
			out = append(out, r)
		}
	default:
		return nil, false
	}
	return out, true
}

// Clone returns a deep copy, used to derive a modified catalog without
// touching one that may already be published.
func (c *Catalog) Clone() *Catalog {
	out := &Catalog{Version: c.Version}
	for _, r := range c.Screenings {
		r.RequiresConditions = cloneStrings(r.RequiresConditions)
		r.SatisfiedBy = cloneStrings(r.SatisfiedBy)
		out.Screenings = append(out.Screenings, r)
	}
	for _, r := range c.Immunizations {
		r.RequiresConditions = cloneStrings(r.RequiresConditions)
		r.SatisfiedBy = cloneStrings(r.SatisfiedBy)
		out.Immunizations = append(out.Immunizations, r)
	}
	for _, r := range c.ChronicCare {
		r.RequiresConditions = cloneStrings(r.RequiresConditions)
		out.ChronicCare = append(out.ChronicCare, r)
	}
	out.Interactions = append(out.Interactions, c.Interactions...)
	for _, r := range c.CrossReactivity {
		r.Allergens = cloneStrings(r.Allergens)
		r.Members = cloneStrings(r.Members)
		out.CrossReactivity = append(out.CrossReactivity, r)
	}
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
