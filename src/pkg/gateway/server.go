package gateway

import (
	"fmt"
	"net/http"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

const openAPIPath = "/openapi.yaml"

// NewMux routes the caption API, the OpenAPI document and the Swagger UI.
func NewMux(h *Handler) (http.Handler, error) {
	gw := runtime.NewServeMux()
	routes := []struct {
		method  string
		pattern string
		handler runtime.HandlerFunc
	}{
		{http.MethodPost, PathPrefix, h.Post},
		{http.MethodGet, PathPrefix, h.List},
		{http.MethodGet, PathPrefix + "/{runId}", h.Get},
	}
	for _, route := range routes {
		if err := gw.HandlePath(route.method, route.pattern, route.handler); err != nil {
			return nil, fmt.Errorf("failed to register %s %s: %w", route.method, route.pattern, err)
		}
	}

	specs, specsErr := GenerateOpenAPISpecs()
	if specsErr != nil {
		return nil, specsErr
	}

	mux := http.NewServeMux()
	mux.Handle("/", gw)
	mux.HandleFunc(openAPIPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write([]byte(specs))
	})
	mux.Handle("/swagger/", httpSwagger.Handler(httpSwagger.URL(openAPIPath)))
	return mux, nil
}
