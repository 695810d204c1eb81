package middleware

import (
	"github.com/labstack/echo/v4"
)

// outcome writes a FHIR OperationOutcome so CDS Hooks clients see the same
// error shape from middleware as from the hook handlers.
func outcome(c echo.Context, status int, code, diagnostics string) error {
	if c.Response().Committed {
		return nil
	}
	return c.JSON(status, map[string]interface{}{
		"resourceType": "OperationOutcome",
		"issue": []map[string]string{{
			"severity":    "error",
			"code":        code,
			"diagnostics": diagnostics,
		}},
	})
}
