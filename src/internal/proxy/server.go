package proxy

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	domainerrors "github.com/dns-browser/dns-browser/src/internal/errors"
	"github.com/dns-browser/dns-browser/src/internal/log"
	"github.com/dns-browser/dns-browser/src/internal/utils"
)

const defaultDialTimeout = 30 * time.Second

// HostResolver resolves a hostname to the IPv4 address the proxy connects to.
type HostResolver interface {
	Resolve(ctx context.Context, hostname string) (net.IP, error)
}

// LoadError describes a relay failure for display by the browser shell.
type LoadError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// LoadErrorReporter receives relay failures. Implementations must not block.
type LoadErrorReporter interface {
	ReportLoadError(e LoadError)
}

// Options configures a Server.
type Options struct {
	// ListenAddr is the "ip:port" to bind.
	ListenAddr string
	// DialTimeout bounds the TCP connect to the resolved destination.
	DialTimeout time.Duration
	// LoadErrors optionally receives relay failures.
	LoadErrors LoadErrorReporter
}

// Server is the forward proxy listener.
type Server struct {
	opts     Options
	resolver HostResolver
	dialer   *net.Dialer
	stats    *Stats
	// tunnelPort is dialed when a CONNECT target has no usable port.
	tunnelPort string

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewServer creates a proxy server. It does not listen until Start or Serve is called.
func NewServer(opts Options, resolver HostResolver) *Server {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = defaultDialTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		opts:       opts,
		resolver:   resolver,
		dialer:     &net.Dialer{Timeout: opts.DialTimeout},
		stats:      &Stats{},
		tunnelPort: defaultTunnelPort,
		conns:      make(map[net.Conn]struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Name returns the component name for logging.
func (s *Server) Name() string {
	return "proxy"
}

// Stats returns the live counters.
func (s *Server) Stats() *Stats {
	return s.stats
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start binds ListenAddr and serves in the background. A stopped server may be started again.
// The listener is installed before Start returns, so a following Stop always closes it.
func (s *Server) Start() error {
	lc := net.ListenConfig{Control: listenControl}
	ln, err := lc.Listen(context.Background(), "tcp", s.opts.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.opts.ListenAddr, err)
	}

	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.ctx, s.cancel = context.WithCancel(context.Background())
	}
	ctx, err := s.installLocked(ln)
	s.mu.Unlock()
	if err != nil {
		utils.CloseOrWarn(ln)
		return err
	}

	go func() {
		if err := s.serve(ctx, ln); err != nil {
			log.Errorf("[proxy] Listener stopped: %v", err)
		}
	}()
	return nil
}

// Serve accepts connections on ln until Stop is called. Each connection gets its own goroutine.
// ln is closed when Serve returns; a server that was already stopped refuses it.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	ctx, err := s.installLocked(ln)
	s.mu.Unlock()
	if err != nil {
		utils.CloseOrWarn(ln)
		return err
	}
	return s.serve(ctx, ln)
}

func (s *Server) installLocked(ln net.Listener) (context.Context, error) {
	if s.ctx.Err() != nil {
		return nil, fmt.Errorf("proxy is stopped")
	}
	if s.listener != nil {
		return nil, fmt.Errorf("proxy is already serving on %s", s.listener.Addr())
	}
	s.listener = ln
	return s.ctx, nil
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	defer utils.CloseOrWarn(ln)

	log.Infof("[proxy] Listening on %s", ln.Addr())

	var tempDelay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				if tempDelay == 0 {
					tempDelay = 5 * time.Millisecond
				} else {
					tempDelay *= 2
				}
				if tempDelay > time.Second {
					tempDelay = time.Second
				}
				log.Warnf("[proxy] Accept error: %v; retrying in %v", err, tempDelay)
				time.Sleep(tempDelay)
				continue
			}
			return err
		}
		tempDelay = 0

		if !s.track(ctx, conn) {
			_ = conn.Close()
			return nil
		}
		s.stats.accepted.Add(1)
		go s.handleConn(ctx, conn)
	}
}

// Stop closes the listener and every open client connection, then waits for relays to finish.
func (s *Server) Stop() error {
	s.mu.Lock()
	s.cancel()
	var err error
	if s.listener != nil {
		err = s.listener.Close()
		s.listener = nil
	}
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		return fmt.Errorf("proxy: timeout waiting for connections to close")
	}

	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// track registers conn unless the run that accepted it has been stopped.
func (s *Server) track(ctx context.Context, conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ctx.Err() != nil {
		return false
	}
	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	s.wg.Done()
}

// handleConn owns one client socket for its whole life.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer s.untrack(conn)
	defer utils.CloseOrWarn(conn)

	s.stats.active.add()
	defer s.stats.active.done()

	br := bufio.NewReader(conn)
	req, err := http.ReadRequest(br)
	if err != nil {
		if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
			s.stats.parseFailures.Add(1)
			log.Debugf("[proxy] %v", domainerrors.NewParseError("unreadable request from "+conn.RemoteAddr().String(), err))
		}
		return
	}

	if req.Method == http.MethodConnect {
		s.relayTunnel(ctx, conn, br, req)
		return
	}
	s.relayHTTP(ctx, conn, br, req)
}

func (s *Server) reportLoadError(err error, url string) {
	if s.opts.LoadErrors == nil {
		return
	}
	s.opts.LoadErrors.ReportLoadError(LoadError{
		Code:        string(domainerrors.CodeOf(err)),
		Description: reason(err),
		URL:         url,
	})
}

// reason returns the error text shown to users, without the code prefix.
func reason(err error) string {
	var de *domainerrors.Error
	if errors.As(err, &de) {
		return de.Reason()
	}
	return err.Error()
}
