package resolver

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/miekg/dns"

	domainerrors "github.com/dns-browser/dns-browser/src/internal/errors"
	"github.com/dns-browser/dns-browser/src/internal/mocks"
)

// newTestResolver maps each selectable host to a fake server address so tests
// can tell which server was queried.
func newTestResolver(system SystemLookup, servers map[string]*mocks.FakeDNSServer) *Resolver {
	return New(Options{
		QueryTimeout: 2 * time.Second,
		System:       system,
		ServerAddress: func(host string) string {
			if srv, ok := servers[host]; ok {
				return srv.Addr()
			}
			return net.JoinHostPort(host, defaultDNSPort)
		},
	})
}

func TestResolve_PinnedServerOnly(t *testing.T) {
	selected := mocks.NewFakeDNSServer(t, map[string][]string{"example.com": {"192.0.2.10", "192.0.2.11"}})
	other := mocks.NewFakeDNSServer(t, map[string][]string{"example.com": {"198.51.100.1"}})
	system := &mocks.MockSystemLookup{}

	r := newTestResolver(system, map[string]*mocks.FakeDNSServer{"10.0.0.1": selected, "10.0.0.2": other})
	r.SetServer("10.0.0.1")

	ip, err := r.Resolve(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !ip.Equal(net.ParseIP("192.0.2.10")) {
		t.Errorf("Resolve() = %v, want first A record 192.0.2.10", ip)
	}

	if diff := cmp.Diff([]string{"example.com"}, selected.Queries()); diff != "" {
		t.Errorf("selected server queries mismatch (-want +got):\n%s", diff)
	}
	if got := other.Queries(); len(got) != 0 {
		t.Errorf("unselected server was queried: %v", got)
	}
	if got := system.Hosts(); len(got) != 0 {
		t.Errorf("system resolver was used: %v", got)
	}
}

func TestResolve_SystemWhenNothingSelected(t *testing.T) {
	system := &mocks.MockSystemLookup{
		LookupIPFunc: func(ctx context.Context, network, host string) ([]net.IP, error) {
			if network != "ip4" {
				t.Errorf("expected ip4 lookup, got %s", network)
			}
			return []net.IP{net.ParseIP("203.0.113.5"), net.ParseIP("203.0.113.6")}, nil
		},
	}
	r := newTestResolver(system, nil)

	ip, err := r.Resolve(context.Background(), "example.org")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !ip.Equal(net.ParseIP("203.0.113.5")) {
		t.Errorf("Resolve() = %v, want first endpoint 203.0.113.5", ip)
	}
	if diff := cmp.Diff([]string{"example.org"}, system.Hosts()); diff != "" {
		t.Errorf("system lookups mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_Errors(t *testing.T) {
	srv := mocks.NewFakeDNSServer(t, map[string][]string{"empty.example": {}})
	failing := &mocks.MockSystemLookup{
		LookupIPFunc: func(ctx context.Context, network, host string) ([]net.IP, error) {
			return nil, errors.New("no such host")
		},
	}

	tests := []struct {
		name   string
		server string
		host   string
	}{
		{"nxdomain from pinned server", "10.0.0.1", "missing.example"},
		{"no A records", "10.0.0.1", "empty.example"},
		{"system failure", "", "missing.example"},
		{"empty hostname", "", ""},
		{"ipv6 literal", "", "2001:db8::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestResolver(failing, map[string]*mocks.FakeDNSServer{"10.0.0.1": srv})
			r.SetServer(tt.server)

			_, err := r.Resolve(context.Background(), tt.host)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !domainerrors.HasCode(err, domainerrors.ErrCodeResolution) {
				t.Errorf("expected RESOLUTION_ERROR, got %v", err)
			}
		})
	}
}

func TestResolve_IPv4LiteralBypassesDNS(t *testing.T) {
	srv := mocks.NewFakeDNSServer(t, nil)
	r := newTestResolver(&mocks.MockSystemLookup{}, map[string]*mocks.FakeDNSServer{"10.0.0.1": srv})
	r.SetServer("10.0.0.1")

	ip, err := r.Resolve(context.Background(), "192.168.1.1")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !ip.Equal(net.ParseIP("192.168.1.1")) {
		t.Errorf("Resolve() = %v", ip)
	}
	if got := srv.Queries(); len(got) != 0 {
		t.Errorf("literal should not be queried, got %v", got)
	}
}

func TestSetServer(t *testing.T) {
	r := New(Options{})
	if r.Server() != "" {
		t.Errorf("expected OS default initially, got %q", r.Server())
	}
	r.SetServer("8.8.8.8")
	if r.Server() != "8.8.8.8" {
		t.Errorf("Server() = %q", r.Server())
	}
	r.SetServer("")
	if r.Server() != "" {
		t.Errorf("expected OS default after empty selection, got %q", r.Server())
	}
}

func TestResolve_SwitchAffectsOnlyLaterLookups(t *testing.T) {
	d1 := mocks.NewFakeDNSServer(t, map[string][]string{"site.example": {"192.0.2.1"}})
	d2 := mocks.NewFakeDNSServer(t, map[string][]string{"site.example": {"192.0.2.2"}})
	r := newTestResolver(&mocks.MockSystemLookup{}, map[string]*mocks.FakeDNSServer{"10.0.0.1": d1, "10.0.0.2": d2})

	r.SetServer("10.0.0.1")
	before, err := r.Resolve(context.Background(), "site.example")
	if err != nil {
		t.Fatalf("Resolve() before switch error = %v", err)
	}

	r.SetServer("10.0.0.2")
	after, err := r.Resolve(context.Background(), "site.example")
	if err != nil {
		t.Fatalf("Resolve() after switch error = %v", err)
	}

	if !before.Equal(net.ParseIP("192.0.2.1")) {
		t.Errorf("result obtained before the switch changed: %v", before)
	}
	if !after.Equal(net.ParseIP("192.0.2.2")) {
		t.Errorf("lookup after the switch = %v, want 192.0.2.2", after)
	}
	if len(d1.Queries()) != 1 || len(d2.Queries()) != 1 {
		t.Errorf("expected one query per server, got d1=%v d2=%v", d1.Queries(), d2.Queries())
	}
}

// blockingExchanger holds the first query until released so a switch can happen mid-flight.
type blockingExchanger struct {
	started chan string
	release chan struct{}
	once    sync.Once
}

func (b *blockingExchanger) ExchangeContext(ctx context.Context, m *dns.Msg, address string) (*dns.Msg, time.Duration, error) {
	b.once.Do(func() {
		b.started <- address
		<-b.release
	})
	resp := new(dns.Msg)
	resp.SetReply(m)
	resp.Answer = append(resp.Answer, &dns.A{
		Hdr: dns.RR_Header{Name: m.Question[0].Name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 1},
		A:   net.ParseIP("192.0.2.99"),
	})
	return resp, 0, nil
}

func TestResolve_InFlightKeepsSnapshot(t *testing.T) {
	ex := &blockingExchanger{started: make(chan string, 1), release: make(chan struct{})}
	r := New(Options{UDP: ex, TCP: ex})
	r.SetServer("10.0.0.1")

	done := make(chan error, 1)
	go func() {
		_, err := r.Resolve(context.Background(), "slow.example")
		done <- err
	}()

	addr := <-ex.started
	r.SetServer("10.0.0.2")
	close(ex.release)

	if err := <-done; err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if addr != "10.0.0.1:53" {
		t.Errorf("in-flight lookup went to %s, want 10.0.0.1:53", addr)
	}
}

// truncatingExchanger returns a truncated UDP answer.
type truncatingExchanger struct{}

func (truncatingExchanger) ExchangeContext(ctx context.Context, m *dns.Msg, address string) (*dns.Msg, time.Duration, error) {
	resp := new(dns.Msg)
	resp.SetReply(m)
	resp.Truncated = true
	return resp, 0, nil
}

func TestResolve_TruncatedRetriesOverTCP(t *testing.T) {
	tcp := &blockingExchanger{started: make(chan string, 1), release: make(chan struct{})}
	close(tcp.release)
	r := New(Options{UDP: truncatingExchanger{}, TCP: tcp})
	r.SetServer("10.0.0.1")

	ip, err := r.Resolve(context.Background(), "big.example")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !ip.Equal(net.ParseIP("192.0.2.99")) {
		t.Errorf("Resolve() = %v, want TCP answer", ip)
	}
}
