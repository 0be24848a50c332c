package mocks

import (
	"context"
	"io"
	"net"
	"sync"
	"testing"
)

// EchoServer is a loopback TCP server that writes back everything it reads.
type EchoServer struct {
	listener net.Listener

	mu    sync.Mutex
	conns []net.Conn
}

// NewEchoServer starts an echo server and registers its shutdown with t.Cleanup.
func NewEchoServer(t testing.TB) *EchoServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen for echo server: %v", err)
	}

	e := &EchoServer{listener: ln}
	go e.serve()
	t.Cleanup(e.Close)
	return e
}

// Addr returns the server's "ip:port".
func (e *EchoServer) Addr() string {
	return e.listener.Addr().String()
}

// Port returns the server's port.
func (e *EchoServer) Port() string {
	_, port, _ := net.SplitHostPort(e.Addr())
	return port
}

// Close stops accepting and closes every accepted connection.
func (e *EchoServer) Close() {
	_ = e.listener.Close()
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, c := range e.conns {
		_ = c.Close()
	}
}

func (e *EchoServer) serve() {
	for {
		conn, err := e.listener.Accept()
		if err != nil {
			return
		}
		e.mu.Lock()
		e.conns = append(e.conns, conn)
		e.mu.Unlock()

		go func() {
			defer conn.Close()
			_, _ = io.Copy(conn, conn)
		}()
	}
}

// MockSystemLookup is a mock of the OS resolver.
//
// If LookupIPFunc is nil, every lookup returns 127.0.0.1.
type MockSystemLookup struct {
	LookupIPFunc func(ctx context.Context, network, host string) ([]net.IP, error)

	mu    sync.Mutex
	hosts []string
}

// LookupIP records the host and delegates to LookupIPFunc.
func (m *MockSystemLookup) LookupIP(ctx context.Context, network, host string) ([]net.IP, error) {
	m.mu.Lock()
	m.hosts = append(m.hosts, host)
	m.mu.Unlock()

	if m.LookupIPFunc != nil {
		return m.LookupIPFunc(ctx, network, host)
	}
	return []net.IP{net.IPv4(127, 0, 0, 1)}, nil
}

// Hosts returns the hosts looked up so far.
func (m *MockSystemLookup) Hosts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.hosts...)
}

// MockCacheInvalidator counts invalidation requests and returns Err.
type MockCacheInvalidator struct {
	Err error

	mu    sync.Mutex
	calls int
}

// InvalidateCache records the call.
func (m *MockCacheInvalidator) InvalidateCache(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.Err
}

// Calls returns how many times InvalidateCache ran.
func (m *MockCacheInvalidator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
