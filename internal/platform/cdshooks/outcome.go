package cdshooks

// OperationOutcome is the FHIR error body returned by every CDS Hooks
// endpoint, matching the rest of the EHR's FHIR surface.
type OperationOutcome struct {
	ResourceType string  `json:"resourceType"`
	Issue        []Issue `json:"issue"`
}

type Issue struct {
	Severity    string `json:"severity"`
	Code        string `json:"code"`
	Diagnostics string `json:"diagnostics,omitempty"`
}

func newOutcome(severity, code, diagnostics string) *OperationOutcome {
	return &OperationOutcome{
		ResourceType: "OperationOutcome",
		Issue:        []Issue{{Severity: severity, Code: code, Diagnostics: diagnostics}},
	}
}

func ErrorOutcome(diagnostics string) *OperationOutcome {
	return newOutcome("error", "processing", diagnostics)
}

func InvalidOutcome(diagnostics string) *OperationOutcome {
	return newOutcome("error", "invalid", diagnostics)
}

func NotFoundOutcome(kind, id string) *OperationOutcome {
	return newOutcome("error", "not-found", kind+"/"+id+" not found")
}

func InternalErrorOutcome(diagnostics string) *OperationOutcome {
	return newOutcome("fatal", "exception", diagnostics)
}
