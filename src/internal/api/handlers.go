package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/dns-browser/dns-browser/src/internal/config"
)

// Handler manages all API endpoints and dependencies.
type Handler struct {
	configPath string
	dns        DNSController
	events     EventSource
	proxy      ProxyInfo

	// configMu serializes read-modify-write cycles on the config file.
	configMu sync.Mutex
}

// NewHandler creates a new API handler.
func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		configPath: deps.ConfigPath,
		dns:        deps.DNS,
		events:     deps.Events,
		proxy:      deps.Proxy,
	}
}

// loadConfig loads the configuration from disk.
func (h *Handler) loadConfig() (*config.Config, error) {
	return config.LoadConfig(h.configPath)
}

// writeJSON writes a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(DataResponse{Data: data})
}

// writeJSONData writes a successful JSON response with data.
func writeJSONData(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, data)
}

// decodeJSON decodes JSON from the request body.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
