package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoadConfig_CreatesDefaultsWhenMissing(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "nested", "dns-browser.toml")

	cfg, err := LoadConfig(configFile)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if diff := cmp.Diff(DefaultDNSServers(), cfg.DNSServers); diff != "" {
		t.Errorf("default DNS list mismatch (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(configFile); err != nil {
		t.Fatalf("expected default config to be written: %v", err)
	}

	// Reload from disk to make sure the written file round-trips
	reloaded, err := LoadConfig(configFile)
	if err != nil {
		t.Fatalf("LoadConfig() reload error = %v", err)
	}
	if diff := cmp.Diff(cfg.DNSServers, reloaded.DNSServers); diff != "" {
		t.Errorf("reloaded DNS list mismatch (-want +got):\n%s", diff)
	}
	if reloaded.General.GetProxyPort() != DefaultListenPort {
		t.Errorf("expected default port %d, got %d", DefaultListenPort, reloaded.General.GetProxyPort())
	}
}

func TestLoadConfig_InvalidTOML(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "invalid.toml")

	invalidTOML := `[general
	listen_port = 8899`

	if err := os.WriteFile(configFile, []byte(invalidTOML), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	if _, err := LoadConfig(configFile); err == nil {
		t.Error("Expected error for invalid TOML")
	}
}

func TestLoadConfig_ValidConfig(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "valid.toml")

	validTOML := `[general]
listen_port = 9000
initial_dns = "9.9.9.9"
dns_query_timeout_ms = 1500
cache_flush_command = ["resolvectl", "flush-caches"]

[[dns_server]]
name = "Quad9"
host = "9.9.9.9"

[[dns_server]]
name = "System"
host = ""`

	if err := os.WriteFile(configFile, []byte(validTOML), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	cfg, err := LoadConfig(configFile)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if err := cfg.ValidateConfig(); err != nil {
		t.Fatalf("ValidateConfig() error = %v", err)
	}

	want := []*DNSServerEntry{{Name: "Quad9", Host: "9.9.9.9"}, {Name: "System", Host: ""}}
	if diff := cmp.Diff(want, cfg.DNSServers); diff != "" {
		t.Errorf("DNS list mismatch (-want +got):\n%s", diff)
	}

	g := cfg.General
	if got := g.GetListenAddress(); got != "127.0.0.1:9000" {
		t.Errorf("GetListenAddress() = %s", got)
	}
	if got := g.GetDNSQueryTimeout(); got != 1500*time.Millisecond {
		t.Errorf("GetDNSQueryTimeout() = %v", got)
	}
	if got := g.GetDialTimeout(); got != DefaultDialTimeoutMs*time.Millisecond {
		t.Errorf("GetDialTimeout() = %v", got)
	}
	if !g.IsAPIEnabled() {
		t.Errorf("API should be enabled when api_enabled is absent")
	}
	if got := g.ProxyRules(); got != "http=localhost:9000;https=localhost:9000" {
		t.Errorf("ProxyRules() = %s", got)
	}
	if diff := cmp.Diff([]string{"resolvectl", "flush-caches"}, g.CacheFlushCommand); diff != "" {
		t.Errorf("CacheFlushCommand mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteConfig_PersistsDNSList(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "dns-browser.toml")
	cfg, err := LoadConfig(configFile)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	cfg.SetDNSServers([]*DNSServerEntry{{Name: "Local", Host: "192.168.1.1"}, nil})
	if err := cfg.WriteConfig(); err != nil {
		t.Fatalf("WriteConfig() error = %v", err)
	}

	content, err := os.ReadFile(configFile)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(content), "[[dns_server]]") {
		t.Errorf("expected array of tables in output:\n%s", content)
	}

	reloaded, err := LoadConfig(configFile)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if diff := cmp.Diff([]*DNSServerEntry{{Name: "Local", Host: "192.168.1.1"}}, reloaded.DNSServers); diff != "" {
		t.Errorf("DNS list mismatch (-want +got):\n%s", diff)
	}
}

func TestFindDNSServerAndLabel(t *testing.T) {
	cfg := DefaultConfig()

	if e := cfg.FindDNSServer("1.1.1.1"); e == nil || e.Name != "Cloudflare DNS" {
		t.Errorf("FindDNSServer(1.1.1.1) = %+v", e)
	}
	if e := cfg.FindDNSServer("4.4.4.4"); e != nil {
		t.Errorf("FindDNSServer(4.4.4.4) = %+v, want nil", e)
	}
	if Label("") != "OS Default" || Label("8.8.8.8") != "8.8.8.8" {
		t.Errorf("Label() returned unexpected values")
	}
}
