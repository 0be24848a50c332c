package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

const eventsPath = "/api/v1/events"

// NewRouter creates a new HTTP router with all API endpoints.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(Recovery)
	r.Use(Logger)
	r.Use(LoopbackOnly)
	r.Use(CORS(deps.AllowedOrigins))
	r.Use(JSONContentType)

	h := NewHandler(deps)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/dns-servers", h.GetDNSServers)
		r.Get("/dns-selection", h.GetDNSSelection)
		r.Get("/events", h.StreamEvents) // SSE stream
		r.Get("/proxy-settings", h.GetProxySettings)

		r.Get("/status", h.GetStatus)
		r.Get("/health", h.CheckHealth)

		// State changes need the token the shell reads from the token file.
		r.Group(func(r chi.Router) {
			r.Use(RequireToken(deps.Token))

			r.Put("/dns-servers", h.SaveDNSServers)
			r.Put("/dns-selection", h.SetDNSSelection)
			r.Put("/page", h.SetPage)
		})
	})

	registerPprof(r)

	return r
}
