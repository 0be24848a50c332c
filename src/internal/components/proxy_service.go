package components

import (
	"fmt"
	"sync"

	"github.com/dns-browser/dns-browser/src/internal/config"
	"github.com/dns-browser/dns-browser/src/internal/log"
	"github.com/dns-browser/dns-browser/src/internal/proxy"
	"github.com/dns-browser/dns-browser/src/internal/resolver"
)

// ProxyService owns the resolver and the forward proxy listener.
type ProxyService struct {
	listenAddr string
	resolver   *resolver.Resolver
	server     *proxy.Server
	running    bool
	mu         sync.Mutex
}

// NewProxyService builds the resolver and proxy from cfg. Nothing listens until Start.
// Relay failures are reported to loadErrors when it is non-nil.
func NewProxyService(cfg *config.Config, loadErrors proxy.LoadErrorReporter) *ProxyService {
	res := resolver.New(resolver.Options{
		QueryTimeout: cfg.General.GetDNSQueryTimeout(),
	})
	if cfg.General.InitialDNS != "" {
		res.SetServer(cfg.General.InitialDNS)
	}

	listenAddr := cfg.General.GetListenAddress()
	return &ProxyService{
		listenAddr: listenAddr,
		resolver:   res,
		server: proxy.NewServer(proxy.Options{
			ListenAddr:  listenAddr,
			DialTimeout: cfg.General.GetDialTimeout(),
			LoadErrors:  loadErrors,
		}, res),
	}
}

// Name returns the component name for logging.
func (p *ProxyService) Name() string {
	return "proxy"
}

// Start binds the proxy port. A stopped service can be started again.
func (p *ProxyService) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return fmt.Errorf("proxy is already running")
	}

	if err := p.server.Start(); err != nil {
		return fmt.Errorf("failed to start proxy: %w", err)
	}
	p.running = true

	log.Infof("Proxy started on %s, resolving via %s", p.listenAddr, config.Label(p.resolver.Server()))
	return nil
}

// Stop closes the listener and all open relays.
func (p *ProxyService) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return fmt.Errorf("proxy is not running")
	}

	log.Infof("Stopping proxy...")
	p.running = false
	return p.server.Stop()
}

// IsRunning returns whether the proxy is listening.
func (p *ProxyService) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Resolver returns the resolver whose selection the coordinator drives.
func (p *ProxyService) Resolver() *resolver.Resolver {
	return p.resolver
}

// Server returns the proxy listener.
func (p *ProxyService) Server() *proxy.Server {
	return p.server
}
