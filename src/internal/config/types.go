package config

import (
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"time"
)

const (
	DefaultListenAddr        = "127.0.0.1"
	DefaultListenPort        = 8899
	DefaultAPIBindAddr       = "127.0.0.1:8898"
	DefaultDNSQueryTimeoutMs = 5000
	DefaultDialTimeoutMs     = 30000
)

type Config struct {
	// General holds proxy and control API settings.
	General *GeneralConfig `toml:"general" json:"general"`
	// DNSServers is the ordered list of selectable DNS servers. Order is display order only.
	DNSServers []*DNSServerEntry `toml:"dns_server" json:"dns_servers"`

	_absConfigFilePath string
}

type GeneralConfig struct {
	// ListenAddr is the proxy bind address (default: 127.0.0.1).
	ListenAddr string `toml:"listen_addr" json:"listen_addr" validate:"omitempty,ip"`
	// ListenPort is the proxy port the browser session is pointed at (default: 8899).
	ListenPort uint16 `toml:"listen_port" json:"listen_port"`
	// APIEnabled enables the control API used by the browser shell (default: true).
	APIEnabled *bool `toml:"api_enabled,omitempty" json:"api_enabled,omitempty"`
	// APIBindAddr is the control API listen address (default: 127.0.0.1:8898).
	APIBindAddr string `toml:"api_bind_addr" json:"api_bind_addr" validate:"hostport_or_empty"`
	// APIAllowedOrigins are the browser origins of the shell's own pages, e.g. "app://shell".
	// Requests from any other origin are refused.
	APIAllowedOrigins []string `toml:"api_allowed_origins,omitempty" json:"api_allowed_origins,omitempty" validate:"dive,required"`
	// InitialDNS is the DNS server selected at startup, empty means OS default.
	InitialDNS string `toml:"initial_dns" json:"initial_dns" validate:"ipv4_or_empty"`
	// DNSQueryTimeoutMs bounds a single query against the selected DNS server (default: 5000).
	DNSQueryTimeoutMs int `toml:"dns_query_timeout_ms" json:"dns_query_timeout_ms" validate:"gte=0"`
	// DialTimeoutMs bounds the TCP connect to the resolved destination (default: 30000).
	DialTimeoutMs int `toml:"dial_timeout_ms" json:"dial_timeout_ms" validate:"gte=0"`
	// CacheFlushCommand is run on every DNS switch to flush OS resolver caches, e.g. ["resolvectl", "flush-caches"].
	CacheFlushCommand []string `toml:"cache_flush_command,omitempty" json:"cache_flush_command,omitempty"`
	// StatusIntervalSec prints proxy statistics periodically (0 = disabled).
	StatusIntervalSec int `toml:"status_interval_sec" json:"status_interval_sec" validate:"gte=0"`
}

// DNSServerEntry is one named, selectable DNS server.
type DNSServerEntry struct {
	// Name is the unique display name.
	Name string `toml:"name" json:"name" validate:"required"`
	// Host is an IPv4 literal, or empty for the OS default resolver.
	Host string `toml:"host" json:"host" validate:"ipv4_or_empty"`
}

// DefaultDNSServers returns the seed list written to a fresh configuration.
func DefaultDNSServers() []*DNSServerEntry {
	return []*DNSServerEntry{
		{Name: "Google DNS", Host: "8.8.8.8"},
		{Name: "Cloudflare DNS", Host: "1.1.1.1"},
		{Name: "OS Default", Host: ""},
	}
}

// DefaultConfig returns a configuration populated with defaults.
func DefaultConfig() *Config {
	apiEnabled := true
	return &Config{
		General: &GeneralConfig{
			ListenAddr:        DefaultListenAddr,
			ListenPort:        DefaultListenPort,
			APIEnabled:        &apiEnabled,
			APIBindAddr:       DefaultAPIBindAddr,
			DNSQueryTimeoutMs: DefaultDNSQueryTimeoutMs,
			DialTimeoutMs:     DefaultDialTimeoutMs,
		},
		DNSServers: DefaultDNSServers(),
	}
}

func (c *Config) GetConfigDir() string {
	return filepath.Dir(c._absConfigFilePath)
}

func (c *Config) GetConfigPath() string {
	return c._absConfigFilePath
}

// FindDNSServer returns the entry with the given host, or nil.
func (c *Config) FindDNSServer(host string) *DNSServerEntry {
	for _, e := range c.DNSServers {
		if e.Host == host {
			return e
		}
	}
	return nil
}

// Label returns the display form of a DNS server host.
func Label(host string) string {
	if host == "" {
		return "OS Default"
	}
	return host
}

func (g *GeneralConfig) GetListenAddress() string {
	addr := g.ListenAddr
	if addr == "" {
		addr = DefaultListenAddr
	}
	port := g.ListenPort
	if port == 0 {
		port = DefaultListenPort
	}
	return net.JoinHostPort(addr, strconv.Itoa(int(port)))
}

func (g *GeneralConfig) GetProxyPort() uint16 {
	if g.ListenPort == 0 {
		return DefaultListenPort
	}
	return g.ListenPort
}

func (g *GeneralConfig) IsAPIEnabled() bool {
	return g.APIEnabled == nil || *g.APIEnabled
}

func (g *GeneralConfig) GetAPIBindAddress() string {
	if g.APIBindAddr == "" {
		return DefaultAPIBindAddr
	}
	return g.APIBindAddr
}

func (g *GeneralConfig) GetDNSQueryTimeout() time.Duration {
	if g.DNSQueryTimeoutMs == 0 {
		return DefaultDNSQueryTimeoutMs * time.Millisecond
	}
	return time.Duration(g.DNSQueryTimeoutMs) * time.Millisecond
}

func (g *GeneralConfig) GetDialTimeout() time.Duration {
	if g.DialTimeoutMs == 0 {
		return DefaultDialTimeoutMs * time.Millisecond
	}
	return time.Duration(g.DialTimeoutMs) * time.Millisecond
}

func (g *GeneralConfig) GetStatusInterval() time.Duration {
	return time.Duration(g.StatusIntervalSec) * time.Second
}

// ProxyRules returns the proxy rule string the browser session is configured with.
func (g *GeneralConfig) ProxyRules() string {
	port := g.GetProxyPort()
	return fmt.Sprintf("http=localhost:%d;https=localhost:%d", port, port)
}
