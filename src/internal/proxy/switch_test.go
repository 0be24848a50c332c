package proxy

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"sync"
	"testing"

	"github.com/dns-browser/dns-browser/src/internal/mocks"
	"github.com/dns-browser/dns-browser/src/internal/resolver"
)

func openTunnel(t *testing.T, proxyAddr, target string) net.Conn {
	t.Helper()
	conn := dialProxy(t, proxyAddr)
	_, _ = io.WriteString(conn, "CONNECT "+target+" HTTP/1.1\r\nHost: "+target+"\r\n\r\n")
	status := make([]byte, len(connectEstablished))
	if _, err := io.ReadFull(conn, status); err != nil || !bytes.Equal(status, connectEstablished) {
		t.Fatalf("tunnel to %s not established: %q, %v", target, status, err)
	}
	return conn
}

func roundTrip(conn net.Conn, payload []byte) error {
	if _, err := conn.Write(payload); err != nil {
		return err
	}
	back := make([]byte, len(payload))
	if _, err := io.ReadFull(conn, back); err != nil {
		return err
	}
	if !bytes.Equal(back, payload) {
		return fmt.Errorf("payload mismatch: %q", back)
	}
	return nil
}

func TestTunnel_SurvivesDNSSwitch(t *testing.T) {
	before := mocks.NewFakeDNSServer(t, map[string][]string{
		"a.example": {"127.0.0.1"},
		"b.example": {"127.0.0.1"},
	})
	after := mocks.NewFakeDNSServer(t, nil)
	servers := map[string]string{
		"192.0.2.1": before.Addr(),
		"192.0.2.2": after.Addr(),
	}

	res := resolver.New(resolver.Options{
		ServerAddress: func(host string) string { return servers[host] },
	})
	res.SetServer("192.0.2.1")

	echoA := mocks.NewEchoServer(t)
	echoB := mocks.NewEchoServer(t)
	_, proxyAddr := startProxy(t, res, nil)

	tunnels := []net.Conn{
		openTunnel(t, proxyAddr, "a.example:"+echoA.Port()),
		openTunnel(t, proxyAddr, "b.example:"+echoB.Port()),
	}
	for i, c := range tunnels {
		if err := roundTrip(c, []byte(fmt.Sprintf("before-%d", i))); err != nil {
			t.Fatalf("tunnel %d before switch: %v", i, err)
		}
	}

	// Both tunnels keep exchanging data while the selection changes underneath them.
	const roundsAfterSwitch = 20
	switched := make(chan struct{})
	var running, wg sync.WaitGroup
	errs := make([]error, len(tunnels))
	for i, c := range tunnels {
		wg.Add(1)
		running.Add(1)
		go func(i int, c net.Conn) {
			defer wg.Done()
			signalled := false
			rounds := 0
			for j := 0; ; j++ {
				if err := roundTrip(c, []byte(fmt.Sprintf("tunnel-%d-%d", i, j))); err != nil {
					errs[i] = err
					if !signalled {
						running.Done()
					}
					return
				}
				if !signalled {
					signalled = true
					running.Done()
				}
				select {
				case <-switched:
					if rounds++; rounds >= roundsAfterSwitch {
						return
					}
				default:
				}
			}
		}(i, c)
	}

	running.Wait()
	res.SetServer("192.0.2.2")
	close(switched)

	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Errorf("tunnel %d broken by DNS switch: %v", i, err)
		}
	}

	// New tunnels use the new server, which does not know a.example.
	conn := dialProxy(t, proxyAddr)
	_, _ = io.WriteString(conn, "CONNECT a.example:"+echoA.Port()+" HTTP/1.1\r\n\r\n")
	if data, _ := io.ReadAll(conn); len(data) != 0 {
		t.Errorf("expected silent close after switch, got %q", data)
	}
	if q := after.Queries(); len(q) != 1 || q[0] != "a.example" {
		t.Errorf("new server queries = %v, want [a.example]", q)
	}
}
