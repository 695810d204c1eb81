package medsafety

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ehr/cdsengine/internal/domain/aggregate"
	"github.com/ehr/cdsengine/internal/domain/catalog"
	"github.com/ehr/cdsengine/internal/domain/finding"
	"github.com/ehr/cdsengine/internal/domain/snapshot"
	"github.com/ehr/cdsengine/internal/platform/textmatch"
)

var matcher textmatch.Matcher = textmatch.Either{}

type named struct {
	text string
	key  string
}

// normalizeMeds trims, drops empties, sorts by folded name and removes
// duplicates so results do not depend on input order.
func normalizeMeds(meds []string) []named {
	out := make([]named, 0, len(meds))
	for _, m := range meds {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		out = append(out, named{text: m, key: textmatch.Normalize(m)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].key != out[j].key {
			return out[i].key < out[j].key
		}
		return out[i].text < out[j].text
	})
	dedup := out[:0]
	for _, m := range out {
		if n := len(dedup); n > 0 && dedup[n-1].key == m.key {
			continue
		}
		dedup = append(dedup, m)
	}
	return dedup
}

func match(med, drug string) bool {
	return matcher.Match(med, []string{drug})
}

// CheckInteractions tests every unordered pair of distinct medications
// against every interaction row, in both slot orders. A pair emits one
// Interaction per matching row. Results are ordered by severity, most severe
// first, then by pair and row order.
func CheckInteractions(meds []string, cat *catalog.Catalog) []Interaction {
	list := normalizeMeds(meds)
	out := []Interaction{}
	for i := 0; i < len(list); i++ {
		for j := i + 1; j < len(list); j++ {
			a, b := list[i].text, list[j].text
			for _, row := range cat.Interactions {
				var d1, d2 string
				switch {
				case match(a, row.Drug1) && match(b, row.Drug2):
					d1, d2 = a, b
				case match(b, row.Drug1) && match(a, row.Drug2):
					d1, d2 = b, a
				default:
					continue
				}
				out = append(out, Interaction{
					Drug1:          d1,
					Drug2:          d2,
					RuleID:         row.ID,
					Severity:       strings.ToLower(row.Severity),
					Description:    row.Description,
					Recommendation: row.Recommendation,
				})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return catalog.SeverityRank(out[i].Severity) > catalog.SeverityRank(out[j].Severity)
	})
	return out
}

type allergy struct {
	snapshot.Allergy
	key string
}

func normalizeAllergies(allergies []snapshot.Allergy) []allergy {
	out := make([]allergy, 0, len(allergies))
	for _, a := range allergies {
		a.Allergen = strings.TrimSpace(a.Allergen)
		if a.Allergen == "" {
			continue
		}
		out = append(out, allergy{Allergy: a, key: textmatch.Normalize(a.Allergen)})
	}
	// Most severe record first within the same allergen, then drop repeats.
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].key != out[j].key {
			return out[i].key < out[j].key
		}
		return out[i].Severity > out[j].Severity
	})
	dedup := out[:0]
	for _, a := range out {
		if n := len(dedup); n > 0 && dedup[n-1].key == a.key {
			continue
		}
		dedup = append(dedup, a)
	}
	return dedup
}

// CheckAllergies tests every (medication, allergy) pair. A direct match is a
// danger alert; otherwise a medication listed as a cross-reactive member of a
// class containing the allergen is a warning. Alerts follow sorted
// medication order, then sorted allergen order.
func CheckAllergies(meds []string, allergies []snapshot.Allergy, cat *catalog.Catalog) []AllergyAlert {
	list := normalizeMeds(meds)
	recorded := normalizeAllergies(allergies)
	out := []AllergyAlert{}
	for _, m := range list {
		for _, a := range recorded {
			if match(m.text, a.Allergen) {
				out = append(out, AllergyAlert{
					Medication:      m.text,
					Allergen:        a.Allergen,
					AllergySeverity: a.Severity,
					Severity:        AlertDanger,
					Description:     fmt.Sprintf("%s matches the documented allergy to %s.", m.text, a.Allergen),
					Recommendation:  fmt.Sprintf("Do not administer %s; select an alternative agent.", m.text),
				})
				continue
			}
			for _, class := range cat.CrossReactivity {
				if !matcher.Match(a.Allergen, class.Allergens) || !matcher.Match(m.text, class.Members) {
					continue
				}
				out = append(out, AllergyAlert{
					Medication:      m.text,
					Allergen:        a.Allergen,
					AllergySeverity: a.Severity,
					Severity:        AlertWarning,
					CrossReactivity: true,
					ClassID:         class.ID,
					Description:     class.Description,
					Recommendation: fmt.Sprintf("Use %s with caution: possible %s cross-reactivity with %s allergy; consider an alternative.",
						m.text, strings.ToLower(class.Name), a.Allergen),
				})
				break
			}
		}
	}
	return out
}

// Assess runs both checks and aggregates drugs before allergies.
func Assess(meds []string, allergies []snapshot.Allergy, cat *catalog.Catalog) Assessment {
	a := Assessment{
		Interactions:  CheckInteractions(meds, cat),
		AllergyAlerts: CheckAllergies(meds, allergies, cat),
	}
	domains := a.Domains()
	a.InteractionRisk = domains[0].Level
	a.AllergyRisk = domains[1].Level
	a.Overall = aggregate.Overall(domains)
	a.PrimaryRecommendations = aggregate.Primary(domains)
	return a
}

// Domains returns the drug-interaction and allergy domains, in that order.
// Danger alerts lead the allergy recommendations.
func (a Assessment) Domains() []aggregate.Domain {
	drugs := aggregate.Domain{Marker: aggregate.MarkerDrugInteraction, Name: "Drug interactions"}
	for _, i := range a.Interactions {
		drugs.Level = finding.Worst(drugs.Level, i.Level())
		drugs.Recommendations = append(drugs.Recommendations,
			fmt.Sprintf("%s + %s (%s): %s", i.Drug1, i.Drug2, i.Severity, i.Recommendation))
	}

	allergyDomain := aggregate.Domain{Marker: aggregate.MarkerAllergy, Name: "Allergies"}
	var warnings []string
	for _, al := range a.AllergyAlerts {
		allergyDomain.Level = finding.Worst(allergyDomain.Level, al.Level())
		if al.Severity == AlertDanger {
			allergyDomain.Recommendations = append(allergyDomain.Recommendations, al.Recommendation)
		} else {
			warnings = append(warnings, al.Recommendation)
		}
	}
	allergyDomain.Recommendations = append(allergyDomain.Recommendations, warnings...)

	return []aggregate.Domain{drugs, allergyDomain}
}
