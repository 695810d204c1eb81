package cdshooks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestHandler() *Handler {
	h := NewHandler()

	h.RegisterService(Service{
		Hook:        HookPatientView,
		Title:       "Patient Risk Alerts",
		Description: "Shows risk alerts when a patient chart is opened",
		ID:          "patient-risk-alerts",
		Prefetch:    map[string]string{"snapshot": "Snapshot/{{context.patientId}}"},
	}, func(ctx context.Context, req Request) (*Response, error) {
		var snap struct {
			Age int `json:"age"`
		}
		if err := req.DecodePrefetch("snapshot", &snap); err != nil {
			return nil, err
		}
		summary := fmt.Sprintf("High fall risk (age %d)", snap.Age)
		return &Response{Cards: []Card{{
			UUID:      CardUUID("patient-risk-alerts", summary),
			Summary:   summary,
			Indicator: IndicatorWarning,
			Source:    Source{Label: "CDS Engine"},
		}}}, nil
	})

	h.RegisterService(Service{
		Hook:        HookOrderSelect,
		Description: "Checks for drug interactions when a medication is selected",
		ID:          "drug-interaction-check",
	}, func(ctx context.Context, req Request) (*Response, error) {
		var selections []string
		if _, err := req.DecodeContext("selections", &selections); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
		if len(selections) == 0 {
			return nil, nil
		}
		return nil, fmt.Errorf("interaction database unavailable")
	})
	return h
}

func serve(h *Handler, method, path, body string) *httptest.ResponseRecorder {
	e := echo.New()
	h.RegisterRoutes(e)
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeOutcome(t *testing.T, rec *httptest.ResponseRecorder) OperationOutcome {
	t.Helper()
	var outcome OperationOutcome
	if err := json.Unmarshal(rec.Body.Bytes(), &outcome); err != nil {
		t.Fatalf("failed to unmarshal OperationOutcome: %v", err)
	}
	if outcome.ResourceType != "OperationOutcome" || len(outcome.Issue) == 0 {
		t.Fatalf("expected OperationOutcome with issues, got %s", rec.Body.String())
	}
	return outcome
}

func TestDiscovery(t *testing.T) {
	rec := serve(newTestHandler(), http.MethodGet, "/cds-services", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var result struct {
		Services []Service `json:"services"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(result.Services) != 2 {
		t.Fatalf("expected 2 services, got %d", len(result.Services))
	}
	if result.Services[0].ID != "patient-risk-alerts" || result.Services[1].ID != "drug-interaction-check" {
		t.Errorf("expected registration order, got %s, %s", result.Services[0].ID, result.Services[1].ID)
	}
	if result.Services[0].Prefetch["snapshot"] != "Snapshot/{{context.patientId}}" {
		t.Errorf("expected prefetch template, got %v", result.Services[0].Prefetch)
	}
}

func TestDiscovery_Empty(t *testing.T) {
	rec := serve(NewHandler(), http.MethodGet, "/cds-services", "")
	if !strings.Contains(rec.Body.String(), `"services":[]`) {
		t.Errorf("expected empty services array, got %s", rec.Body.String())
	}
}

func TestHandleHook_Success(t *testing.T) {
	payload := `{
		"hook": "patient-view",
		"hookInstance": "d1577c69-dfbe-44ad-bd63-8c2c87e28ccc",
		"context": {"patientId": "patient-123"},
		"prefetch": {"snapshot": {"age": 81}}
	}`
	rec := serve(newTestHandler(), http.MethodPost, "/cds-services/patient-risk-alerts", payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(resp.Cards) != 1 {
		t.Fatalf("expected 1 card, got %d", len(resp.Cards))
	}
	card := resp.Cards[0]
	if card.Summary != "High fall risk (age 81)" {
		t.Errorf("expected summary from prefetch, got %q", card.Summary)
	}
	if card.UUID != CardUUID("patient-risk-alerts", card.Summary) {
		t.Errorf("expected deterministic card uuid, got %s", card.UUID)
	}
}

func TestHandleHook_Errors(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		payload string
		status  int
		code    string
	}{
		{"unknown service", "/cds-services/nonexistent",
			`{"hook":"patient-view","hookInstance":"x","context":{}}`, http.StatusNotFound, "not-found"},
		{"invalid json", "/cds-services/patient-risk-alerts", `{invalid json`, http.StatusBadRequest, "processing"},
		{"hook mismatch", "/cds-services/patient-risk-alerts",
			`{"hook":"order-select","hookInstance":"x","context":{}}`, http.StatusBadRequest, "processing"},
		{"missing hookInstance", "/cds-services/patient-risk-alerts",
			`{"hook":"patient-view","context":{}}`, http.StatusBadRequest, "processing"},
		{"missing prefetch", "/cds-services/patient-risk-alerts",
			`{"hook":"patient-view","hookInstance":"x","context":{}}`, http.StatusBadRequest, "invalid"},
		{"bad context", "/cds-services/drug-interaction-check",
			`{"hook":"order-select","hookInstance":"x","context":{"selections":"not-a-list"}}`, http.StatusBadRequest, "invalid"},
		{"handler failure", "/cds-services/drug-interaction-check",
			`{"hook":"order-select","hookInstance":"x","context":{"selections":["MedicationRequest/1"]}}`,
			http.StatusInternalServerError, "exception"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(newTestHandler(), http.MethodPost, tt.path, tt.payload)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			if got := decodeOutcome(t, rec).Issue[0].Code; got != tt.code {
				t.Errorf("expected issue code %q, got %q", tt.code, got)
			}
		})
	}
}

func TestHandleHook_NilResponse(t *testing.T) {
	rec := serve(newTestHandler(), http.MethodPost, "/cds-services/drug-interaction-check",
		`{"hook":"order-select","hookInstance":"x","context":{}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"cards":[]`) {
		t.Errorf("expected empty cards array, got %s", rec.Body.String())
	}
}

func TestHandleFeedback(t *testing.T) {
	h := newTestHandler()
	var got []Feedback
	h.RegisterFeedbackHandler("patient-risk-alerts", func(ctx context.Context, serviceID string, fb Feedback) error {
		if serviceID != "patient-risk-alerts" {
			t.Errorf("expected serviceID patient-risk-alerts, got %q", serviceID)
		}
		got = append(got, fb)
		return nil
	})

	payload := `{"feedback": [
		{"card": "card-1", "outcome": "accepted", "outcomeTimestamp": "2024-01-15T10:30:00Z"},
		{"card": "card-2", "outcome": "overridden", "overrideReasons": [{"code": "not-relevant"}]}
	]}`
	rec := serve(h, http.MethodPost, "/cds-services/patient-risk-alerts/feedback", payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(got) != 2 || got[1].Outcome != "overridden" || got[1].OverrideReasons[0].Code != "not-relevant" {
		t.Errorf("unexpected feedback %+v", got)
	}
}

func TestHandleFeedback_NoHandlerAndUnknown(t *testing.T) {
	rec := serve(newTestHandler(), http.MethodPost, "/cds-services/drug-interaction-check/feedback",
		`{"feedback":[{"card":"c","outcome":"accepted"}]}`)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 no-op, got %d", rec.Code)
	}
	rec = serve(newTestHandler(), http.MethodPost, "/cds-services/nonexistent/feedback", `{"feedback":[]}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestCardUUID_Stable(t *testing.T) {
	a := CardUUID("sepsis-early-warning", "qSOFA positive")
	if a != CardUUID("sepsis-early-warning", "qSOFA positive") {
		t.Error("expected identical ids for identical input")
	}
	if a == CardUUID("patient-safety-risk", "qSOFA positive") {
		t.Error("expected ids to differ across services")
	}
}
