package config

import "testing"

func TestHashDNSServers(t *testing.T) {
	a := []*DNSServerEntry{{Name: "A", Host: "1.1.1.1"}, {Name: "B", Host: ""}}
	b := []*DNSServerEntry{{Name: "B", Host: ""}, {Name: "A", Host: "1.1.1.1"}}

	if HashDNSServers(a) != HashDNSServers([]*DNSServerEntry{{Name: "A", Host: "1.1.1.1"}, {Name: "B", Host: ""}}) {
		t.Errorf("equal lists must hash equally")
	}
	if HashDNSServers(a) == HashDNSServers(b) {
		t.Errorf("reordered lists must hash differently")
	}
	if HashDNSServers(nil) != HashDNSServers([]*DNSServerEntry{}) {
		t.Errorf("nil and empty lists must hash equally")
	}
	if got := len(HashDNSServers(a)); got != 32 {
		t.Errorf("expected 32 hex chars, got %d", got)
	}
}
