package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"time"

	"github.com/dns-browser/dns-browser/src/internal/api"
	"github.com/dns-browser/dns-browser/src/internal/components"
	"github.com/dns-browser/dns-browser/src/internal/config"
	"github.com/dns-browser/dns-browser/src/internal/dnsswitch"
	"github.com/dns-browser/dns-browser/src/internal/log"
)

func CreateServeCommand() *ServeCommand {
	sc := &ServeCommand{
		fs: flag.NewFlagSet("serve", flag.ContinueOnError),
	}

	sc.fs.IntVar(&sc.statusIntervalSec, "status-interval", -1, "Seconds between status reports (overrides status_interval_sec; 0 disables)")

	return sc
}

// ServeCommand runs the proxy, the DNS switch coordinator and the control API until signalled.
type ServeCommand struct {
	fs                *flag.FlagSet
	cfg               *config.Config
	ctx               *AppContext
	statusIntervalSec int

	hub         *dnsswitch.Hub
	proxy       *components.ProxyService
	coordinator *dnsswitch.Coordinator
	apiServer   *components.APIServer
	apiRunner   *RestartableRunner

	// serversMu guards cfg.DNSServers, which SIGHUP replaces while switches read it.
	serversMu sync.RWMutex

	signals   chan os.Signal
	ready     chan struct{}
	startTime time.Time
}

func (s *ServeCommand) Name() string {
	return s.fs.Name()
}

func (s *ServeCommand) Init(args []string, ctx *AppContext) error {
	s.ctx = ctx

	if err := s.fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadAndValidateConfigOrFail(ctx.ConfigPath)
	if err != nil {
		return err
	}
	s.cfg = cfg

	s.signals = make(chan os.Signal, 1)
	s.ready = make(chan struct{})
	return nil
}

// Ready is closed once every component has started.
func (s *ServeCommand) Ready() <-chan struct{} {
	return s.ready
}

func (s *ServeCommand) Run() error {
	s.startTime = time.Now()
	log.Infof("Starting dns-browser proxy...")
	log.Infof("Configuration loaded from: %s", s.cfg.GetConfigPath())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signal.Notify(s.signals, serveSignals...)
	defer signal.Stop(s.signals)

	s.hub = dnsswitch.NewHub()
	s.proxy = components.NewProxyService(s.cfg, s.hub)
	s.coordinator = dnsswitch.NewCoordinator(s.proxy.Resolver(), s.hub, dnsswitch.Options{
		Invalidator: s.cacheInvalidator(),
		Label:       s.label,
	})

	if err := s.proxy.Start(); err != nil {
		return err
	}

	if s.cfg.General.IsAPIEnabled() {
		s.startAPIServer(ctx)
	} else {
		log.Infof("Control API is disabled")
	}

	reporters := []reporter{s.proxy.Server().Stats(), s.coordinator}
	interval := s.statusInterval()

	log.Infof("Browser session proxy rules: %s", s.cfg.General.ProxyRules())
	log.Infof("Send SIGHUP to reload the DNS server list, SIGUSR1 for a status report")
	close(s.ready)

	var statusTimer <-chan time.Time
	if interval > 0 {
		statusTimer = time.After(nextInterval(time.Now(), interval))
	}

	for {
		select {
		case sig := <-s.signals:
			switch sig {
			case reloadSignal:
				log.Infof("Received %v, reloading DNS server list...", sig)
				s.reloadServers()
			case reportSignal:
				statusReport("User1", s.startTime, false, reporters)
			default:
				log.Infof("Received signal %v, shutting down...", sig)
				s.shutdown()
				if s.ctx.Verbose {
					statusReport("Status", s.startTime, true, reporters)
				}
				return nil
			}

		case <-statusTimer:
			statusReport("Status", s.startTime, true, reporters)
			statusTimer = time.After(nextInterval(time.Now(), interval))
		}
	}
}

// Stop asks a running serve loop to shut down.
func (s *ServeCommand) Stop() {
	select {
	case s.signals <- os.Interrupt:
	default:
	}
}

func (s *ServeCommand) statusInterval() time.Duration {
	if s.statusIntervalSec >= 0 {
		return time.Duration(s.statusIntervalSec) * time.Second
	}
	return s.cfg.General.GetStatusInterval()
}

// cacheInvalidator always clears the shell caches and optionally runs the configured flush command.
func (s *ServeCommand) cacheInvalidator() dnsswitch.CacheInvalidator {
	chain := dnsswitch.Chain{dnsswitch.NewShellNotifier(s.hub)}
	if cmd := dnsswitch.NewCommandInvalidator(s.cfg.General.CacheFlushCommand, 0); cmd != nil {
		chain = append(chain, cmd)
	}
	return chain
}

// label names a host after its DNS list entry when one exists.
func (s *ServeCommand) label(host string) string {
	if entry := s.findServer(host); entry != nil {
		return fmt.Sprintf("%s (%s)", entry.Name, config.Label(host))
	}
	return config.Label(host)
}

func (s *ServeCommand) findServer(host string) *config.DNSServerEntry {
	s.serversMu.RLock()
	defer s.serversMu.RUnlock()
	return s.cfg.FindDNSServer(host)
}

// startAPIServer runs the control API under a restartable runner so a failed bind is retried.
func (s *ServeCommand) startAPIServer(ctx context.Context) {
	token, err := s.issueAPIToken()
	if err != nil {
		log.Errorf("Failed to issue API token: %v", err)
		log.Warnf("The browser shell will not be able to switch DNS servers")
	}

	s.apiServer = components.NewAPIServer(s.cfg.General.GetAPIBindAddress(), api.Dependencies{
		ConfigPath:     s.cfg.GetConfigPath(),
		DNS:            s.coordinator,
		Events:         s.hub,
		Proxy:          s.proxy.Server(),
		Token:          token,
		AllowedOrigins: s.cfg.General.APIAllowedOrigins,
	})

	s.apiRunner = NewRestartableRunner(RunnerConfig{
		Name:           s.apiServer.Name(),
		RestartBackoff: 2 * time.Second,
		MaxBackoff:     30 * time.Second,
	}, s.apiServer.Run)

	if err := s.apiRunner.Start(ctx); err != nil {
		log.Errorf("Failed to start API server: %v", err)
		log.Warnf("The browser shell will not be able to switch DNS servers")
	}
}

// issueAPIToken creates a fresh token for this process and writes it next to the config file.
func (s *ServeCommand) issueAPIToken() (string, error) {
	token, err := api.NewToken()
	if err != nil {
		return "", err
	}
	path := s.tokenPath()
	if err := api.WriteTokenFile(path, token); err != nil {
		return "", err
	}
	log.Infof("Control API token written to %s", path)
	return token, nil
}

func (s *ServeCommand) tokenPath() string {
	return filepath.Join(s.cfg.GetConfigDir(), api.TokenFileName)
}

// reloadServers re-reads the DNS server list. The active selection is kept.
func (s *ServeCommand) reloadServers() {
	cfg, err := loadAndValidateConfigOrFail(s.ctx.ConfigPath)
	if err != nil {
		log.Errorf("Failed to reload configuration: %v", err)
		return
	}
	s.serversMu.Lock()
	s.cfg.SetDNSServers(cfg.DNSServers)
	count := len(s.cfg.DNSServers)
	s.serversMu.Unlock()
	log.Infof("Loaded %d DNS servers", count)

	if host := s.coordinator.Selection(); s.findServer(host) == nil {
		log.Warnf("Active DNS server %s is no longer in the list; keeping it until the next switch", config.Label(host))
	}
}

// shutdown stops the API first so no switch races the proxy going away.
func (s *ServeCommand) shutdown() {
	if s.apiRunner != nil {
		if err := s.apiRunner.Stop(); err != nil {
			log.Errorf("Failed to stop API server: %v", err)
		}
	}

	if err := s.proxy.Stop(); err != nil {
		log.Errorf("Failed to stop proxy: %v", err)
	}

	s.hub.CloseAll()

	if s.apiServer != nil {
		if err := os.Remove(s.tokenPath()); err != nil && !os.IsNotExist(err) {
			log.Warnf("Failed to remove API token file: %v", err)
		}
	}
	log.Infof("dns-browser stopped after %s", time.Since(s.startTime).Truncate(time.Second))
}
