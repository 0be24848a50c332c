package api

import (
	"net"
	"net/http"
	"time"
)

var (
	// Version information set via ldflags at build time
	Version = "dev"
	Date    = "n/a"
	Commit  = "n/a"
)

// GetStatus returns runtime status information.
// GET /api/v1/status
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	response := StatusResponse{
		Version: VersionInfo{
			Version: Version,
			Date:    Date,
			Commit:  Commit,
		},
		Selection:   h.selection(),
		CurrentPage: h.dns.CurrentPage(),
		Subscribers: h.events.SubscriberCount(),
	}

	if h.proxy != nil {
		if addr := h.proxy.Addr(); addr != nil {
			response.ProxyAddr = addr.String()
		}
		snap := h.proxy.Stats().Snapshot(false)
		response.Proxy = &snap
	}

	writeJSONData(w, response)
}

// CheckHealth checks the configuration and the proxy listener.
// GET /api/v1/health
func (h *Handler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthCheckResponse{
		Healthy: true,
		Checks:  make(map[string]CheckResult),
	}

	cfg, err := h.loadConfig()
	if err == nil {
		err = cfg.ValidateConfig()
	}
	if err != nil {
		response.Healthy = false
		response.Checks["config_validation"] = CheckResult{
			Passed:  false,
			Message: "Configuration validation failed: " + err.Error(),
		}
	} else {
		response.Checks["config_validation"] = CheckResult{
			Passed:  true,
			Message: "Configuration is valid",
		}
	}

	if h.proxy != nil {
		response.Checks["proxy_listener"] = checkProxyListener(h.proxy.Addr())
		if !response.Checks["proxy_listener"].Passed {
			response.Healthy = false
		}
	}

	writeJSONData(w, response)
}

func checkProxyListener(addr net.Addr) CheckResult {
	if addr == nil {
		return CheckResult{Passed: false, Message: "Proxy is not listening"}
	}

	conn, err := net.DialTimeout("tcp", addr.String(), time.Second)
	if err != nil {
		return CheckResult{Passed: false, Message: "Proxy does not accept connections: " + err.Error()}
	}
	_ = conn.Close()
	return CheckResult{Passed: true, Message: "Proxy is listening on " + addr.String()}
}
