package assessment

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ehr/cdsengine/internal/domain/snapshot"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/assessments", h.Evaluate)
	api.POST("/sepsis/evaluate", h.EvaluateSepsis)
	api.POST("/safety/evaluate", h.EvaluateSafety)
	api.POST("/care-gaps/evaluate", h.EvaluateCareGaps)
	api.POST("/medication-safety/evaluate", h.EvaluateMedicationSafety)
}

// bindSnapshot decodes the request body. Every endpoint accepts the full
// snapshot shape and reads the parts it needs.
func bindSnapshot(c echo.Context) (snapshot.Snapshot, error) {
	var snap snapshot.Snapshot
	if err := json.NewDecoder(c.Request().Body).Decode(&snap); err != nil {
		var httpErr *echo.HTTPError
		switch {
		case errors.As(err, &httpErr):
			return snap, httpErr
		case errors.Is(err, io.EOF):
			return snap, echo.NewHTTPError(http.StatusBadRequest, "request body is required")
		case errors.Is(err, snapshot.ErrUnknownCategory):
			return snap, echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return snap, echo.NewHTTPError(http.StatusBadRequest, "invalid snapshot: "+err.Error())
		}
	}
	return snap, nil
}

func (h *Handler) Evaluate(c echo.Context) error {
	snap, err := bindSnapshot(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.svc.Evaluate(c.Request().Context(), snap))
}

func (h *Handler) EvaluateSepsis(c echo.Context) error {
	snap, err := bindSnapshot(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.svc.EvaluateSepsis(c.Request().Context(), snap.Vitals, snap.Labs))
}

func (h *Handler) EvaluateSafety(c echo.Context) error {
	snap, err := bindSnapshot(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.svc.EvaluateSafety(c.Request().Context(), snap.RiskFactors))
}

func (h *Handler) EvaluateCareGaps(c echo.Context) error {
	snap, err := bindSnapshot(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.svc.EvaluateCareGaps(c.Request().Context(), snap.Demographics, snap.AsOf))
}

func (h *Handler) EvaluateMedicationSafety(c echo.Context) error {
	snap, err := bindSnapshot(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.svc.EvaluateMedicationSafety(c.Request().Context(), snap.Medications, snap.Allergies))
}
