package api

import (
	"context"
	"net"

	"github.com/dns-browser/dns-browser/src/internal/dnsswitch"
	"github.com/dns-browser/dns-browser/src/internal/proxy"
)

// DNSController applies DNS selections. *dnsswitch.Coordinator satisfies it.
type DNSController interface {
	ApplyDNSSelection(ctx context.Context, host string) error
	Selection() string
	SetCurrentPage(url string)
	CurrentPage() string
}

// EventSource delivers shell notifications. *dnsswitch.Hub satisfies it.
type EventSource interface {
	Subscribe() chan dnsswitch.Event
	Unsubscribe(ch chan dnsswitch.Event)
	SubscriberCount() int
}

// ProxyInfo exposes the running proxy. *proxy.Server satisfies it.
type ProxyInfo interface {
	Addr() net.Addr
	Stats() *proxy.Stats
}

// Dependencies are the collaborators the API handlers drive.
type Dependencies struct {
	ConfigPath string
	DNS        DNSController
	Events     EventSource
	// Proxy is optional; status and health report it when set.
	Proxy ProxyInfo
	// Token must accompany every PUT in the TokenHeader. Empty disables all PUTs.
	Token string
	// AllowedOrigins are the browser origins of the shell's own pages.
	AllowedOrigins []string
}
