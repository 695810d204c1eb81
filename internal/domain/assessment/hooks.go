package assessment

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ehr/cdsengine/internal/domain/caregap"
	"github.com/ehr/cdsengine/internal/domain/finding"
	"github.com/ehr/cdsengine/internal/domain/medsafety"
	"github.com/ehr/cdsengine/internal/domain/snapshot"
	"github.com/ehr/cdsengine/internal/platform/cdshooks"
)

// CDS Hooks service ids.
const (
	HookSepsis           = "sepsis-early-warning"
	HookPatientSafety    = "patient-safety-risk"
	HookCareGaps         = "preventive-care-gaps"
	HookMedicationSafety = "medication-safety"
)

// SnapshotPrefetchKey is the prefetch entry carrying the engine snapshot,
// assembled by the EHR-side adapter.
const SnapshotPrefetchKey = "snapshot"

const (
	cardSource    = "CDS Engine"
	maxSummaryLen = 140
)

var snapshotPrefetch = map[string]string{SnapshotPrefetchKey: "Patient/{{context.patientId}}/$cds-snapshot"}

// RegisterHooks registers the engine's CDS services and a feedback logger
// for each.
func (s *Service) RegisterHooks(h *cdshooks.Handler) {
	services := []struct {
		svc     cdshooks.Service
		handler cdshooks.ServiceHandler
	}{
		{cdshooks.Service{
			ID: HookSepsis, Hook: cdshooks.HookPatientView, Title: "Sepsis early warning",
			Description: "qSOFA, SIRS and NEWS2 scoring from the latest vital signs and labs.",
			Prefetch:    snapshotPrefetch,
		}, s.sepsisHook},
		{cdshooks.Service{
			ID: HookPatientSafety, Hook: cdshooks.HookPatientView, Title: "Patient safety risk",
			Description: "Morse fall, LACE readmission and Braden pressure-ulcer risk.",
			Prefetch:    snapshotPrefetch,
		}, s.safetyHook},
		{cdshooks.Service{
			ID: HookCareGaps, Hook: cdshooks.HookPatientView, Title: "Preventive care gaps",
			Description: "Screenings, immunizations and chronic-care monitoring that are due.",
			Prefetch:    snapshotPrefetch,
		}, s.careGapsHook},
		{cdshooks.Service{
			ID: HookMedicationSafety, Hook: cdshooks.HookOrderSelect, Title: "Medication safety",
			Description: "Drug-drug interactions and allergy conflicts for the active and draft medications.",
			Prefetch:    snapshotPrefetch,
		}, s.medicationHook},
	}
	for _, entry := range services {
		h.RegisterService(entry.svc, entry.handler)
		h.RegisterFeedbackHandler(entry.svc.ID, s.logFeedback)
	}
}

func (s *Service) logFeedback(_ context.Context, serviceID string, fb cdshooks.Feedback) error {
	s.logger.Info().
		Str("service", serviceID).
		Str("card", fb.Card).
		Str("outcome", fb.Outcome).
		Int("override_reasons", len(fb.OverrideReasons)).
		Msg("cds card feedback")
	return nil
}

func decodeSnapshot(req cdshooks.Request) (snapshot.Snapshot, error) {
	var snap snapshot.Snapshot
	if err := req.DecodePrefetch(SnapshotPrefetchKey, &snap); err != nil {
		return snap, fmt.Errorf("%w: %v", cdshooks.ErrBadRequest, err)
	}
	return snap, nil
}

func indicator(l finding.Level) string {
	switch {
	case l.AtLeast(finding.High):
		return cdshooks.IndicatorCritical
	case l == finding.Moderate:
		return cdshooks.IndicatorWarning
	default:
		return cdshooks.IndicatorInfo
	}
}

func truncate(s string) string {
	if len(s) <= maxSummaryLen {
		return s
	}
	cut := maxSummaryLen - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// findingCard renders a finding at moderate risk or above; lower findings
// produce no card.
func findingCard(serviceID string, f finding.Finding) (cdshooks.Card, bool) {
	if !f.Level.AtLeast(finding.Moderate) {
		return cdshooks.Card{}, false
	}
	label := f.Label
	if label == "" {
		label = f.Level.String()
	}
	summary := truncate(fmt.Sprintf("%s %d/%d: %s risk", f.Name, f.Score, f.MaxScore, label))

	var detail strings.Builder
	detail.WriteString(f.Interpretation)
	for _, rec := range f.Recommendations {
		detail.WriteString("\n- ")
		detail.WriteString(rec)
	}
	return cdshooks.Card{
		UUID:      cdshooks.CardUUID(serviceID, summary),
		Summary:   summary,
		Detail:    detail.String(),
		Indicator: indicator(f.Level),
		Source:    cdshooks.Source{Label: cardSource},
	}, true
}

func findingCards(serviceID string, findings ...finding.Finding) *cdshooks.Response {
	resp := &cdshooks.Response{Cards: []cdshooks.Card{}}
	for _, f := range findings {
		if card, ok := findingCard(serviceID, f); ok {
			resp.Cards = append(resp.Cards, card)
		}
	}
	return resp
}

func (s *Service) sepsisHook(ctx context.Context, req cdshooks.Request) (*cdshooks.Response, error) {
	snap, err := decodeSnapshot(req)
	if err != nil {
		return nil, err
	}
	a := s.EvaluateSepsis(ctx, snap.Vitals, snap.Labs)
	return findingCards(HookSepsis, a.QSOFA, a.SIRS, a.NEWS2), nil
}

func (s *Service) safetyHook(ctx context.Context, req cdshooks.Request) (*cdshooks.Response, error) {
	snap, err := decodeSnapshot(req)
	if err != nil {
		return nil, err
	}
	a := s.EvaluateSafety(ctx, snap.RiskFactors)
	return findingCards(HookPatientSafety, a.Falls, a.Readmission, a.PressureUlcer), nil
}

func (s *Service) careGapsHook(ctx context.Context, req cdshooks.Request) (*cdshooks.Response, error) {
	snap, err := decodeSnapshot(req)
	if err != nil {
		return nil, err
	}
	r := s.EvaluateCareGaps(ctx, snap.Demographics, snap.AsOf)

	resp := &cdshooks.Response{Cards: []cdshooks.Card{}}
	for _, g := range r.All() {
		card := cdshooks.Card{
			UUID:      cdshooks.CardUUID(HookCareGaps, g.RuleID),
			Summary:   truncate(fmt.Sprintf("Care gap: %s (%s)", g.Title, g.Priority)),
			Detail:    g.Description + "\n\n" + g.Recommendation,
			Indicator: cdshooks.IndicatorInfo,
			Source:    cdshooks.Source{Label: cardSource},
		}
		if g.Priority == caregap.PriorityOverdue {
			card.Indicator = cdshooks.IndicatorWarning
		}
		if g.OrderCode != "" {
			card.Suggestions = []cdshooks.Suggestion{{
				Label: "Order " + g.Title,
				UUID:  cdshooks.CardUUID(HookCareGaps, g.RuleID+"/order"),
				Actions: []cdshooks.Action{{
					Type:        "create",
					Description: g.Recommendation,
					Resource:    proposedOrder(g),
				}},
			}}
		}
		resp.Cards = append(resp.Cards, card)
	}
	return resp, nil
}

// proposedOrder is the draft ServiceRequest attached to a care-gap card.
func proposedOrder(g caregap.Gap) map[string]interface{} {
	return map[string]interface{}{
		"resourceType": "ServiceRequest",
		"status":       "draft",
		"intent":       "proposal",
		"code": map[string]interface{}{
			"coding": []map[string]string{{"code": g.OrderCode, "display": g.Title}},
			"text":   g.Title,
		},
	}
}

// draftMedications extracts medication names from context.draftOrders, a
// FHIR Bundle of MedicationRequest resources.
func draftMedications(req cdshooks.Request) ([]string, error) {
	var bundle struct {
		Entry []struct {
			Resource struct {
				ResourceType              string `json:"resourceType"`
				MedicationCodeableConcept struct {
					Text   string `json:"text"`
					Coding []struct {
						Display string `json:"display"`
					} `json:"coding"`
				} `json:"medicationCodeableConcept"`
			} `json:"resource"`
		} `json:"entry"`
	}
	if _, err := req.DecodeContext("draftOrders", &bundle); err != nil {
		return nil, fmt.Errorf("%w: %v", cdshooks.ErrBadRequest, err)
	}
	var meds []string
	for _, e := range bundle.Entry {
		if e.Resource.ResourceType != "MedicationRequest" {
			continue
		}
		concept := e.Resource.MedicationCodeableConcept
		name := concept.Text
		if name == "" && len(concept.Coding) > 0 {
			name = concept.Coding[0].Display
		}
		if name != "" {
			meds = append(meds, name)
		}
	}
	return meds, nil
}

func (s *Service) medicationHook(ctx context.Context, req cdshooks.Request) (*cdshooks.Response, error) {
	snap, err := decodeSnapshot(req)
	if err != nil {
		return nil, err
	}
	drafts, err := draftMedications(req)
	if err != nil {
		return nil, err
	}
	meds := append(append([]string(nil), snap.Medications...), drafts...)
	a := s.EvaluateMedicationSafety(ctx, meds, snap.Allergies)

	resp := &cdshooks.Response{Cards: []cdshooks.Card{}}
	for _, i := range a.Interactions {
		summary := truncate(fmt.Sprintf("%s interaction: %s + %s", i.Severity, i.Drug1, i.Drug2))
		resp.Cards = append(resp.Cards, cdshooks.Card{
			UUID:      cdshooks.CardUUID(HookMedicationSafety, i.RuleID+"|"+i.Drug1+"|"+i.Drug2),
			Summary:   summary,
			Detail:    i.Description + "\n\n" + i.Recommendation,
			Indicator: indicator(i.Level()),
			Source:    cdshooks.Source{Label: cardSource},
		})
	}
	for _, al := range a.AllergyAlerts {
		summary := fmt.Sprintf("Allergy: %s conflicts with %s", al.Medication, al.Allergen)
		if al.CrossReactivity {
			summary = fmt.Sprintf("Possible cross-reactivity: %s with %s allergy", al.Medication, al.Allergen)
		}
		ind := cdshooks.IndicatorWarning
		if al.Severity == medsafety.AlertDanger {
			ind = cdshooks.IndicatorCritical
		}
		resp.Cards = append(resp.Cards, cdshooks.Card{
			UUID:      cdshooks.CardUUID(HookMedicationSafety, al.Medication+"|"+al.Allergen),
			Summary:   truncate(summary),
			Detail:    al.Description + "\n\n" + al.Recommendation,
			Indicator: ind,
			Source:    cdshooks.Source{Label: cardSource},
		})
	}
	return resp, nil
}
