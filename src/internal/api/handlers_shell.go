package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dns-browser/dns-browser/src/internal/config"
	"github.com/dns-browser/dns-browser/src/internal/log"
)

const (
	bypassRules       = "localhost"
	eventPingInterval = 15 * time.Second
)

// SetPage records the URL the shell currently displays.
// PUT /api/v1/page
func (h *Handler) SetPage(w http.ResponseWriter, r *http.Request) {
	var req PageRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteInvalidRequest(w, "Invalid request body: "+err.Error())
		return
	}

	h.dns.SetCurrentPage(req.URL)
	writeJSONData(w, req)
}

// StreamEvents streams shell notifications via SSE until the client disconnects.
// GET /api/v1/events
func (h *Handler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	// The stream outlives the server's write timeout.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		log.Debugf("Failed to clear write deadline for event stream: %v", err)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ch := h.events.Subscribe()
	defer h.events.Unsubscribe(ch)

	fmt.Fprint(w, ": connected\n\n")
	if err := rc.Flush(); err != nil {
		log.Errorf("Streaming not supported: %v", err)
		return
	}

	ticker := time.NewTicker(eventPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
		case ev, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				log.Errorf("Failed to marshal event: %v", err)
				continue
			}
			fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", ev.Seq, ev.Action, data)
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

// GetProxySettings returns the proxy rules the shell session must use.
// GET /api/v1/proxy-settings
func (h *Handler) GetProxySettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.loadConfig()
	if err != nil {
		WriteInternalError(w, "Failed to load configuration: "+err.Error())
		return
	}
	general := cfg.General
	if general == nil {
		general = config.DefaultConfig().General
	}

	writeJSONData(w, ProxySettingsResponse{
		ProxyRules:  general.ProxyRules(),
		BypassRules: bypassRules,
		ProxyPort:   general.GetProxyPort(),
	})
}
