package swagger

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/frahmantamala/paynow/api"
)

const SpecPath = "/openapi.yml"

func Handler() http.Handler {
	return httpSwagger.Handler(
		httpSwagger.URL(SpecPath),
	)
}

// SpecHandler serves the embedded OpenAPI document.
func SpecHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(api.Spec)
}
