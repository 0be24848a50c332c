package config

import (
	"errors"
	"testing"
)

func TestValidateConfig_Defaults(t *testing.T) {
	if err := DefaultConfig().ValidateConfig(); err != nil {
		t.Errorf("Expected default config to be valid, got: %v", err)
	}
}

func TestValidateConfig_MissingGeneral(t *testing.T) {
	config := &Config{}

	if err := config.ValidateConfig(); err == nil {
		t.Error("Expected error for missing general config")
	}
}

func TestValidateConfig_GeneralFields(t *testing.T) {
	tests := []struct {
		name      string
		general   GeneralConfig
		wantField string
	}{
		{"bad initial dns", GeneralConfig{InitialDNS: "dns.google"}, "general.initial_dns"},
		{"ipv6 initial dns", GeneralConfig{InitialDNS: "2001:4860:4860::8888"}, "general.initial_dns"},
		{"bad api bind", GeneralConfig{APIBindAddr: "localhost"}, "general.api_bind_addr"},
		{"bad listen addr", GeneralConfig{ListenAddr: "not-an-ip"}, "general.listen_addr"},
		{"negative timeout", GeneralConfig{DNSQueryTimeoutMs: -1}, "general.dns_query_timeout_ms"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			general := tt.general
			cfg := &Config{General: &general}

			err := cfg.ValidateConfig()
			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			if len(verrs) != 1 || verrs[0].FieldPath != tt.wantField {
				t.Errorf("expected single error on %s, got %v", tt.wantField, verrs)
			}
		})
	}
}

func TestValidateDNSServers(t *testing.T) {
	tests := []struct {
		name       string
		entries    []*DNSServerEntry
		wantErrors int
	}{
		{
			name:       "valid with os default",
			entries:    DefaultDNSServers(),
			wantErrors: 0,
		},
		{
			name:       "empty list",
			entries:    nil,
			wantErrors: 0,
		},
		{
			name:       "missing name",
			entries:    []*DNSServerEntry{{Name: "", Host: "8.8.8.8"}},
			wantErrors: 1,
		},
		{
			name:       "hostname instead of ip",
			entries:    []*DNSServerEntry{{Name: "Google", Host: "dns.google"}},
			wantErrors: 1,
		},
		{
			name:       "ip with port",
			entries:    []*DNSServerEntry{{Name: "Google", Host: "8.8.8.8:53"}},
			wantErrors: 1,
		},
		{
			name: "duplicate names",
			entries: []*DNSServerEntry{
				{Name: "Mine", Host: "10.0.0.1"},
				{Name: "Mine", Host: "10.0.0.2"},
			},
			wantErrors: 1,
		},
		{
			name:       "null entry",
			entries:    []*DNSServerEntry{nil},
			wantErrors: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDNSServers(tt.entries)
			if tt.wantErrors == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			if len(verrs) != tt.wantErrors {
				t.Errorf("expected %d errors, got %d: %v", tt.wantErrors, len(verrs), verrs)
			}
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	verrs := ValidationErrors{
		{ItemName: "Mine", FieldPath: "dns_server.0.host", Message: "must be an IPv4 address or empty (OS default)"},
		{FieldPath: "general", Message: "missing"},
	}
	want := "validation failed with 2 error(s):\n" +
		"  1. [Mine] dns_server.0.host: must be an IPv4 address or empty (OS default)\n" +
		"  2. general: missing\n"
	if got := verrs.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
