// Package router assembles the producer API routes.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	ordershandler "github.com/jeziellopes/observability/internal/http/handlers/orders"
)

// New wires the chi router and wraps it with otelhttp so every request gets
// a server span; the queue producer picks that span up as the parent of the
// published envelope's carrier.
func New(oh *ordershandler.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", oh.Create)
		r.Get("/", oh.List)
		r.Get("/{id}", oh.Get)
	})

	return otelhttp.NewHandler(r, "api")
}
