package components

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dns-browser/dns-browser/src/internal/api"
	"github.com/dns-browser/dns-browser/src/internal/log"
)

// APIServer manages the HTTP control API server
type APIServer struct {
	bindAddr   string
	deps       api.Dependencies
	httpServer *http.Server
	listener   net.Listener
	errs       chan error
	running    bool
	mu         sync.Mutex
}

// NewAPIServer creates a new API server component
func NewAPIServer(bindAddr string, deps api.Dependencies) *APIServer {
	return &APIServer{
		bindAddr: bindAddr,
		deps:     deps,
	}
}

// Name returns the component name for logging.
func (a *APIServer) Name() string {
	return "API server"
}

// Start binds the API address and serves in the background.
// It may be called again after Stop.
func (a *APIServer) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return fmt.Errorf("API server is already running")
	}

	ln, err := net.Listen("tcp", a.bindAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.bindAddr, err)
	}

	a.httpServer = &http.Server{
		Handler:           api.NewRouter(a.deps),
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	a.listener = ln
	a.errs = make(chan error, 1)

	httpServer, errs := a.httpServer, a.errs
	go func() {
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	a.running = true
	log.Infof("API server listening on http://%s/api/v1", ln.Addr())
	return nil
}

// Stop shuts the server down, waiting up to 5 seconds for requests to finish.
func (a *APIServer) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.running {
		return fmt.Errorf("API server is not running")
	}

	log.Infof("Stopping API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.httpServer.Shutdown(ctx); err != nil {
		log.Errorf("Error shutting down HTTP server: %v", err)
		_ = a.httpServer.Close()
	}

	a.running = false
	log.Infof("API server stopped")
	return nil
}

// Run starts the server and blocks until ctx is done or the server fails.
func (a *APIServer) Run(ctx context.Context) error {
	if err := a.Start(); err != nil {
		return err
	}

	a.mu.Lock()
	errs := a.errs
	a.mu.Unlock()

	select {
	case <-ctx.Done():
		return a.Stop()
	case err, ok := <-errs:
		_ = a.Stop()
		if !ok {
			return nil
		}
		return fmt.Errorf("API server failed: %w", err)
	}
}

// Addr returns the bound address, or nil when not running.
func (a *APIServer) Addr() net.Addr {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.running {
		return nil
	}
	return a.listener.Addr()
}

// IsRunning returns whether the API server is running
func (a *APIServer) IsRunning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}
