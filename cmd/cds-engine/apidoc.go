package main

import (
	"net/http"

	"github.com/ehr/cdsengine/internal/platform/openapi"
)

const apiVersion = "1.0.0"

// apiDocument describes the REST surface served by routes().
func apiDocument(baseURL string) *openapi.Generator {
	g := openapi.NewGenerator("CDS Engine API", apiVersion, baseURL)

	g.AddSchema("Snapshot", openapi.Object("Point-in-time patient data evaluated by the rules engine", map[string]string{
		"patientId":    "string",
		"vitals":       "object",
		"labs":         "object",
		"riskFactors":  "object",
		"demographics": "object",
		"medications":  "[]string",
		"allergies":    "[]object",
		"asOf":         "string",
	}))
	g.AddSchema("Report", openapi.Object("Combined assessment across every rule domain", map[string]string{
		"id":                     "string",
		"patientId":              "string",
		"generatedAt":            "string",
		"asOf":                   "string",
		"catalogVersion":         "string",
		"sepsis":                 "object",
		"safety":                 "object",
		"careGaps":               "object",
		"medicationSafety":       "object",
		"overallRisk":            "string",
		"primaryRecommendations": "[]string",
		"inputClamped":           "boolean",
	}))
	g.AddSchema("Assessment", openapi.Object("Single-domain assessment", map[string]string{
		"riskLevel":       "string",
		"recommendations": "[]string",
	}))
	g.AddSchema("CatalogSummary", openapi.Object("Published catalog version and table sizes", map[string]string{
		"version": "string",
		"source":  "string",
		"tables":  "object",
	}))
	g.AddSchema("Page", openapi.Object("Paginated catalog rows", map[string]string{
		"data":        "[]object",
		"total":       "integer",
		"limit":       "integer",
		"offset":      "integer",
		"has_more":    "boolean",
		"next_offset": "integer",
	}))

	g.Add(
		openapi.Operation{Method: http.MethodPost, Path: "/api/v1/assessments", Tag: "assessments",
			Summary: "Evaluate every rule domain", RequestSchema: "Snapshot", ResponseSchema: "Report"},
		openapi.Operation{Method: http.MethodPost, Path: "/api/v1/sepsis/evaluate", Tag: "assessments",
			Summary: "qSOFA, SIRS and NEWS2", RequestSchema: "Snapshot", ResponseSchema: "Assessment"},
		openapi.Operation{Method: http.MethodPost, Path: "/api/v1/safety/evaluate", Tag: "assessments",
			Summary: "Morse, LACE and Braden", RequestSchema: "Snapshot", ResponseSchema: "Assessment"},
		openapi.Operation{Method: http.MethodPost, Path: "/api/v1/care-gaps/evaluate", Tag: "assessments",
			Summary: "Preventive and chronic-care gaps", RequestSchema: "Snapshot", ResponseSchema: "Assessment"},
		openapi.Operation{Method: http.MethodPost, Path: "/api/v1/medication-safety/evaluate", Tag: "assessments",
			Summary: "Drug interactions and allergy conflicts", RequestSchema: "Snapshot", ResponseSchema: "Assessment"},
		openapi.Operation{Method: http.MethodGet, Path: "/api/v1/catalog", Tag: "catalog",
			Summary: "Catalog version and table sizes", ResponseSchema: "CatalogSummary"},
		openapi.Operation{Method: http.MethodGet, Path: "/api/v1/catalog/:table", Tag: "catalog",
			Summary: "List catalog rows", ResponseSchema: "Page", Query: []string{"limit", "offset"}},
		openapi.Operation{Method: http.MethodPost, Path: "/api/v1/catalog/reload", Tag: "catalog",
			Summary: "Reload the catalog from its source", ResponseSchema: "CatalogSummary"},
	)
	return g
}
