package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"

	errors "github.com/frahmantamala/paynow/internal"
	"github.com/frahmantamala/paynow/pkg/logger"
)

// OpenAPIValidator rejects requests that do not match the operation doc
// describes for them. Requests to paths the document does not describe pass
// through untouched.
func OpenAPIValidator(doc *openapi3.T) (func(http.Handler) http.Handler, error) {
	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build openapi router: %w", err)
	}
	options := &openapi3filter.Options{
		AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, pathParams, err := router.FindRoute(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route:      route,
				Options:    options,
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				logger.From(r.Context()).Warn("request does not match api contract",
					"path", r.URL.Path,
					"error", err)
				writeContractError(w, route, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}, nil
}

func writeContractError(w http.ResponseWriter, route *routers.Route, err error) {
	message := err.Error()
	if reqErr, ok := err.(*openapi3filter.RequestError); ok && reqErr.Err != nil {
		message = reqErr.Err.Error()
	}
	appErr := errors.NewValidationError(
		fmt.Sprintf("%s %s: %s", route.Method, route.Path, message),
		errors.ErrCodeValidationFailed,
	)

	status, body := appErr.ToHTTPResponse()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
