// Package mocks provides fakes and mock implementations for testing.
//
// This package should ONLY be imported in test files (_test.go).
// The Go toolchain will automatically exclude this package from production builds
// since it's not imported in any production code.
package mocks

import (
	"net"
	"strings"
	"sync"
	"testing"

	"github.com/miekg/dns"
)

// FakeDNSServer is an authoritative-for-everything DNS server on a loopback UDP port.
//
// It answers A queries from Records and NXDOMAIN otherwise, and remembers every
// question it was asked so tests can assert which server a lookup went to.
//
// Example usage:
//
//	srv := mocks.NewFakeDNSServer(t, map[string][]string{
//	    "example.com": {"127.0.0.1"},
//	})
//	addr := srv.Addr() // "127.0.0.1:53533"
type FakeDNSServer struct {
	server *dns.Server
	addr   string

	mu      sync.Mutex
	records map[string][]string
	queries []string
}

// NewFakeDNSServer starts a fake server and registers its shutdown with t.Cleanup.
func NewFakeDNSServer(t testing.TB, records map[string][]string) *FakeDNSServer {
	t.Helper()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen for fake DNS server: %v", err)
	}

	f := &FakeDNSServer{
		addr:    pc.LocalAddr().String(),
		records: make(map[string][]string),
	}
	for name, ips := range records {
		f.records[dns.Fqdn(strings.ToLower(name))] = ips
	}

	started := make(chan struct{})
	f.server = &dns.Server{
		PacketConn:        pc,
		Handler:           dns.HandlerFunc(f.serveDNS),
		NotifyStartedFunc: func() { close(started) },
	}
	go func() {
		_ = f.server.ActivateAndServe()
	}()
	<-started

	t.Cleanup(func() {
		_ = f.server.Shutdown()
	})
	return f
}

// Addr returns the server's "ip:port".
func (f *FakeDNSServer) Addr() string {
	return f.addr
}

// SetRecords replaces the A records for name.
func (f *FakeDNSServer) SetRecords(name string, ips ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[dns.Fqdn(strings.ToLower(name))] = ips
}

// Queries returns the question names received so far, without the trailing dot.
func (f *FakeDNSServer) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

func (f *FakeDNSServer) serveDNS(w dns.ResponseWriter, req *dns.Msg) {
	resp := new(dns.Msg)
	resp.SetReply(req)
	resp.Authoritative = true

	if len(req.Question) == 0 {
		resp.Rcode = dns.RcodeFormatError
		_ = w.WriteMsg(resp)
		return
	}

	q := req.Question[0]
	name := strings.ToLower(q.Name)

	f.mu.Lock()
	f.queries = append(f.queries, strings.TrimSuffix(name, "."))
	ips, ok := f.records[name]
	f.mu.Unlock()

	switch {
	case !ok:
		resp.Rcode = dns.RcodeNameError
	case q.Qtype == dns.TypeA:
		for _, ip := range ips {
			resp.Answer = append(resp.Answer, &dns.A{
				Hdr: dns.RR_Header{Name: q.Name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 1},
				A:   net.ParseIP(ip),
			})
		}
	}

	_ = w.WriteMsg(resp)
}
