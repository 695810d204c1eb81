package catalog

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/cdsengine/pkg/pagination"
)

type Handler struct {
	store  *Store
	source Source
	logger zerolog.Logger
}

// NewHandler serves the published catalog. source is what POST /catalog/reload
// re-reads; nil disables reloads.
func NewHandler(store *Store, source Source, logger zerolog.Logger) *Handler {
	return &Handler{store: store, source: source, logger: logger}
}

// RegisterRoutes mounts the catalog endpoints; read middleware (such as a
// version ETag) wraps the GET routes only.
func (h *Handler) RegisterRoutes(api *echo.Group, read ...echo.MiddlewareFunc) {
	api.GET("/catalog", h.Summary, read...)
	api.GET("/catalog/:table", h.ListTable, read...)
	api.POST("/catalog/reload", h.Reload)
}

type summary struct {
	Version string         `json:"version"`
	Source  string         `json:"source,omitempty"`
	Tables  map[string]int `json:"tables"`
}

func (h *Handler) summary(c *Catalog) summary {
	s := summary{Version: c.Version, Tables: c.Counts()}
	if h.source != nil {
		s.Source = h.source.Name()
	}
	return s
}

func (h *Handler) Summary(c echo.Context) error {
	return c.JSON(http.StatusOK, h.summary(h.store.Current()))
}

func (h *Handler) ListTable(c echo.Context) error {
	rows, ok := h.store.Current().Table(c.Param("table"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown catalog table")
	}
	pg := pagination.FromContext(c)
	total := len(rows)
	start, end := pg.Bounds(total)
	page := rows[start:end]
	if page == nil {
		page = []interface{}{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(page, total, pg))
}

func (h *Handler) Reload(c echo.Context) error {
	if h.source == nil {
		return echo.NewHTTPError(http.StatusConflict, "catalog reload is not configured")
	}
	cat, err := h.store.Reload(c.Request().Context(), h.source)
	if err != nil {
		h.logger.Warn().Err(err).Str("source", h.source.Name()).Msg("catalog reload rejected")
		var verr *ValidationError
		if errors.As(err, &verr) {
			return c.JSON(http.StatusUnprocessableEntity, map[string]interface{}{
				"message":  "catalog rejected; previous catalog still active",
				"problems": verr.Problems,
			})
		}
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	h.logger.Info().Str("source", h.source.Name()).Str("version", cat.Version).Msg("catalog reloaded")
	return c.JSON(http.StatusOK, h.summary(cat))
}
