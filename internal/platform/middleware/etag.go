package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// VersionETag answers GET and HEAD requests with a weak ETag derived from
// version(), and with 304 when If-None-Match already carries it. It suits
// read-only views of versioned data such as the guideline catalog.
func VersionETag(version func() string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method != http.MethodGet && req.Method != http.MethodHead {
				return next(c)
			}
			etag := `W/"` + version() + `"`
			h := c.Response().Header()
			h.Set("ETag", etag)
			h.Set("Cache-Control", "private, no-cache")
			if inm := req.Header.Get("If-None-Match"); inm != "" && etagMatch(inm, etag) {
				return c.NoContent(http.StatusNotModified)
			}
			return next(c)
		}
	}
}

// etagMatch checks an If-None-Match value against etag using weak
// comparison. Supports lists and "*".
func etagMatch(header, etag string) bool {
	header = strings.TrimSpace(header)
	if header == "*" {
		return true
	}
	for _, candidate := range strings.Split(header, ",") {
		if strings.TrimPrefix(strings.TrimSpace(candidate), "W/") == strings.TrimPrefix(etag, "W/") {
			return true
		}
	}
	return false
}
