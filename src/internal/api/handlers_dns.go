package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/dns-browser/dns-browser/src/internal/config"
	"github.com/dns-browser/dns-browser/src/internal/log"
)

// GetDNSServers returns the configured DNS server list.
// GET /api/v1/dns-servers
func (h *Handler) GetDNSServers(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.loadConfig()
	if err != nil {
		WriteInternalError(w, "Failed to load configuration: "+err.Error())
		return
	}

	writeJSONData(w, DNSServersResponse{
		DNSServers: cfg.DNSServers,
		Hash:       config.HashDNSServers(cfg.DNSServers),
	})
}

// SaveDNSServers replaces the DNS server list on disk.
// PUT /api/v1/dns-servers
func (h *Handler) SaveDNSServers(w http.ResponseWriter, r *http.Request) {
	var req SaveDNSServersRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteInvalidRequest(w, "Invalid request body: "+err.Error())
		return
	}
	if req.DNSServers == nil {
		WriteInvalidRequest(w, "dns_servers is required")
		return
	}

	if err := config.ValidateDNSServers(req.DNSServers); err != nil {
		var ve config.ValidationErrors
		if errors.As(err, &ve) {
			WriteValidationError(w, "DNS server list validation failed", map[string]interface{}{"errors": ve})
			return
		}
		WriteInvalidRequest(w, err.Error())
		return
	}

	h.configMu.Lock()
	defer h.configMu.Unlock()

	cfg, err := h.loadConfig()
	if err != nil {
		WriteInternalError(w, "Failed to load configuration: "+err.Error())
		return
	}

	if req.Hash != "" && req.Hash != config.HashDNSServers(cfg.DNSServers) {
		WriteConflict(w, "DNS server list was modified since it was read")
		return
	}

	cfg.SetDNSServers(req.DNSServers)
	if err := cfg.WriteConfig(); err != nil {
		WriteInternalError(w, "Failed to save configuration: "+err.Error())
		return
	}
	log.Infof("Saved %d DNS servers to %s", len(cfg.DNSServers), cfg.GetConfigPath())

	writeJSONData(w, DNSServersResponse{
		DNSServers: cfg.DNSServers,
		Hash:       config.HashDNSServers(cfg.DNSServers),
	})
}

// GetDNSSelection returns the active DNS server.
// GET /api/v1/dns-selection
func (h *Handler) GetDNSSelection(w http.ResponseWriter, r *http.Request) {
	writeJSONData(w, h.selection())
}

// SetDNSSelection switches the active DNS server and reloads the shell.
// PUT /api/v1/dns-selection
func (h *Handler) SetDNSSelection(w http.ResponseWriter, r *http.Request) {
	var req SetDNSSelectionRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteInvalidRequest(w, "Invalid request body: "+err.Error())
		return
	}
	if req.Host == nil {
		WriteInvalidRequest(w, "host is required (use \"\" for the OS default)")
		return
	}

	// Cache invalidation must finish even if the shell drops the request.
	ctx := context.WithoutCancel(r.Context())
	if err := h.dns.ApplyDNSSelection(ctx, *req.Host); err != nil {
		WriteDomainError(w, "Failed to apply DNS selection", err)
		return
	}

	writeJSONData(w, h.selection())
}

func (h *Handler) selection() DNSSelection {
	host := h.dns.Selection()
	sel := DNSSelection{Host: host, Label: config.Label(host)}

	cfg, err := h.loadConfig()
	if err != nil {
		log.Warnf("Failed to load configuration for DNS server name: %v", err)
		return sel
	}
	if entry := cfg.FindDNSServer(host); entry != nil {
		sel.Name = entry.Name
		sel.Label = entry.Name
	}
	return sel
}
