package api

import (
	_ "embed"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

//go:embed openapi.yaml
var openapiSpec string

// SpecHandler serves the OpenAPI YAML spec. The embedded file carries a
// {serverURL} placeholder that is replaced with the scheme and host of the
// incoming request so "Try it out" targets the running instance.
func SpecHandler(c echo.Context) error {
	spec := strings.ReplaceAll(openapiSpec, "{serverURL}", requestBaseURL(c.Request()))
	return c.Blob(http.StatusOK, "application/yaml", []byte(spec))
}

// SwaggerHandler serves a Swagger UI page backed by CDN-hosted assets that
// points at SpecHandler.
func SwaggerHandler(c echo.Context) error {
	return c.HTML(http.StatusOK, strings.ReplaceAll(swaggerHTML, "${SPEC_URL}", "/openapi.yaml"))
}

func requestBaseURL(r *http.Request) string {
	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		scheme = "http"
		if r.TLS != nil {
			scheme = "https"
		}
	}
	return scheme + "://" + r.Host
}

const swaggerHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <title>Agent QA API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist/swagger-ui-bundle.js"></script>
  <script>
  window.onload = function() {
    window.ui = SwaggerUIBundle({
      url: "${SPEC_URL}",
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: "BaseLayout"
    });
  }
  </script>
</body>
</html>`
