package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/miekg/dns"

	domainerrors "github.com/dns-browser/dns-browser/src/internal/errors"
	"github.com/dns-browser/dns-browser/src/internal/log"
	"github.com/dns-browser/dns-browser/src/internal/utils"
)

const (
	// DNS protocol defaults
	defaultDNSPort = "53"

	defaultQueryTimeout = 5 * time.Second
)

// Exchanger sends one DNS message and waits for the answer. *dns.Client satisfies it.
type Exchanger interface {
	ExchangeContext(ctx context.Context, m *dns.Msg, address string) (*dns.Msg, time.Duration, error)
}

// SystemLookup is the OS resolver. *net.Resolver satisfies it.
type SystemLookup interface {
	LookupIP(ctx context.Context, network, host string) ([]net.IP, error)
}

// Options configures a Resolver. Zero values select production defaults.
type Options struct {
	// QueryTimeout bounds a single query against the selected server.
	QueryTimeout time.Duration
	// UDP and TCP exchange queries with the selected server. TCP is used when a UDP answer is truncated.
	UDP Exchanger
	TCP Exchanger
	// System is used when no server is selected.
	System SystemLookup
	// ServerAddress maps a selected host to the address queried. Defaults to host:53.
	ServerAddress func(host string) string
}

// Resolver resolves hostnames against the currently selected DNS server.
type Resolver struct {
	current atomic.Pointer[string]

	udp           Exchanger
	tcp           Exchanger
	system        SystemLookup
	queryTimeout  time.Duration
	serverAddress func(host string) string
}

// New creates a Resolver using the OS resolver until SetServer is called.
func New(opts Options) *Resolver {
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = defaultQueryTimeout
	}
	if opts.UDP == nil {
		opts.UDP = &dns.Client{Net: "udp", Timeout: opts.QueryTimeout}
	}
	if opts.TCP == nil {
		opts.TCP = &dns.Client{Net: "tcp", Timeout: opts.QueryTimeout}
	}
	if opts.System == nil {
		opts.System = net.DefaultResolver
	}
	if opts.ServerAddress == nil {
		opts.ServerAddress = func(host string) string {
			return net.JoinHostPort(host, defaultDNSPort)
		}
	}

	return &Resolver{
		udp:           opts.UDP,
		tcp:           opts.TCP,
		system:        opts.System,
		queryTimeout:  opts.QueryTimeout,
		serverAddress: opts.ServerAddress,
	}
}

// SetServer replaces the selection. An empty host selects the OS resolver.
func (r *Resolver) SetServer(host string) {
	if host == "" {
		r.current.Store(nil)
		return
	}
	r.current.Store(&host)
}

// Server returns the selected host, or "" when the OS resolver is in use.
func (r *Resolver) Server() string {
	if p := r.current.Load(); p != nil {
		return *p
	}
	return ""
}

// Resolve returns the first IPv4 address of hostname using the selection current at call time.
// Failures are *errors.Error with code RESOLUTION_ERROR.
func (r *Resolver) Resolve(ctx context.Context, hostname string) (net.IP, error) {
	server := r.current.Load()
	if server == nil {
		return r.ResolveWith(ctx, hostname, "")
	}
	return r.ResolveWith(ctx, hostname, *server)
}

// ResolveWith resolves hostname against server regardless of the current selection.
// An empty server means the OS resolver.
func (r *Resolver) ResolveWith(ctx context.Context, hostname, server string) (net.IP, error) {
	hostname = strings.TrimSuffix(strings.TrimSpace(hostname), ".")
	if hostname == "" {
		return nil, domainerrors.NewResolutionError("empty hostname", nil)
	}

	if ip := net.ParseIP(hostname); ip != nil {
		if v4 := ip.To4(); v4 != nil {
			return v4, nil
		}
		return nil, domainerrors.NewResolutionError(fmt.Sprintf("%s is not an IPv4 address", hostname), nil)
	}

	if server == "" {
		return r.resolveSystem(ctx, hostname)
	}
	return r.resolvePinned(ctx, hostname, server)
}

func (r *Resolver) resolveSystem(ctx context.Context, hostname string) (net.IP, error) {
	ips, err := r.system.LookupIP(ctx, "ip4", hostname)
	if err != nil {
		return nil, domainerrors.NewResolutionError(fmt.Sprintf("system lookup of %s failed", hostname), err)
	}

	ip := utils.FirstIPv4(ips)
	if ip == nil {
		return nil, domainerrors.NewResolutionError(fmt.Sprintf("no IPv4 address for %s", hostname), nil)
	}

	log.Debugf("[resolver] %s -> %s (OS Default)", hostname, ip)
	return ip, nil
}

func (r *Resolver) resolvePinned(ctx context.Context, hostname, server string) (net.IP, error) {
	address := r.serverAddress(server)

	req := new(dns.Msg)
	req.SetQuestion(dns.Fqdn(hostname), dns.TypeA)

	resp, err := r.exchange(ctx, r.udp, req, address)
	if err == nil && resp.Truncated {
		log.Debugf("[%04x] Truncated answer from %s, retrying over TCP", req.Id, address)
		resp, err = r.exchange(ctx, r.tcp, req, address)
	}
	if err != nil {
		return nil, domainerrors.NewResolutionError(fmt.Sprintf("query for %s to %s failed", hostname, server), err)
	}

	if resp.Rcode != dns.RcodeSuccess {
		return nil, domainerrors.NewResolutionError(
			fmt.Sprintf("%s answered %s for %s", server, dns.RcodeToString[resp.Rcode], hostname), nil)
	}

	// The first A record wins; CNAMEs in the chain are skipped.
	for _, rr := range resp.Answer {
		if a, ok := rr.(*dns.A); ok {
			log.Debugf("[resolver] %s -> %s (via %s)", hostname, a.A, server)
			return a.A.To4(), nil
		}
	}

	return nil, domainerrors.NewResolutionError(fmt.Sprintf("no A records for %s from %s", hostname, server), nil)
}

func (r *Resolver) exchange(ctx context.Context, client Exchanger, req *dns.Msg, address string) (*dns.Msg, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	resp, _, err := client.ExchangeContext(ctx, req, address)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			log.Debugf("[%04x] DNS timeout querying %s", req.Id, address)
		}
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("empty response from %s", address)
	}
	return resp, nil
}
