package api

import (
	"github.com/dns-browser/dns-browser/src/internal/config"
	"github.com/dns-browser/dns-browser/src/internal/proxy"
)

// DataResponse wraps successful responses with a "data" field.
type DataResponse struct {
	Data interface{} `json:"data"`
}

// DNSServersResponse returns the configured DNS server list.
type DNSServersResponse struct {
	DNSServers []*config.DNSServerEntry `json:"dns_servers"`
	// Hash identifies this revision of the list for SaveDNSServersRequest.
	Hash string `json:"hash"`
}

// SaveDNSServersRequest replaces the DNS server list.
type SaveDNSServersRequest struct {
	DNSServers []*config.DNSServerEntry `json:"dns_servers"`
	Hash       string                   `json:"hash,omitempty"` // optional; 409 if the list changed since
}

// DNSSelection describes the active DNS server.
type DNSSelection struct {
	Host  string `json:"host"` // "" = OS default
	Name  string `json:"name,omitempty"`
	Label string `json:"label"`
}

// SetDNSSelectionRequest switches the active DNS server.
type SetDNSSelectionRequest struct {
	Host *string `json:"host"`
}

// PageRequest reports the URL the shell currently displays.
type PageRequest struct {
	URL string `json:"url"`
}

// ProxySettingsResponse is what the shell configures its session with.
type ProxySettingsResponse struct {
	ProxyRules  string `json:"proxy_rules"`
	BypassRules string `json:"bypass_rules"`
	ProxyPort   uint16 `json:"proxy_port"`
}

// StatusResponse returns runtime status information.
type StatusResponse struct {
	Version     VersionInfo          `json:"version"`
	Selection   DNSSelection         `json:"selection"`
	CurrentPage string               `json:"current_page"`
	Subscribers int                  `json:"subscribers"`
	ProxyAddr   string               `json:"proxy_addr,omitempty"`
	Proxy       *proxy.StatsSnapshot `json:"proxy,omitempty"`
}

// VersionInfo contains build version information.
type VersionInfo struct {
	Version string `json:"version"`
	Date    string `json:"date"`
	Commit  string `json:"commit"`
}

// HealthCheckResponse returns health check results.
type HealthCheckResponse struct {
	Healthy bool                   `json:"healthy"`
	Checks  map[string]CheckResult `json:"checks"`
}

// CheckResult contains the result of a single health check.
type CheckResult struct {
	Passed  bool   `json:"passed"`
	Message string `json:"message,omitempty"`
}
