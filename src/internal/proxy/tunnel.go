package proxy

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"

	domainerrors "github.com/dns-browser/dns-browser/src/internal/errors"
	"github.com/dns-browser/dns-browser/src/internal/log"
	"github.com/dns-browser/dns-browser/src/internal/utils"
)

const defaultTunnelPort = "443"

// connectEstablished is the only response line a tunnel ever gets.
var connectEstablished = []byte("HTTP/1.1 200 Connection Established\r\n\r\n")

// relayTunnel serves a CONNECT request. On any failure before the tunnel is up
// the client socket is closed by the caller without a response line.
func (s *Server) relayTunnel(ctx context.Context, client net.Conn, clientBuf *bufio.Reader, req *http.Request) {
	s.stats.tunnels.Add(1)

	host, port, err := utils.SplitHostPortDefault(req.RequestURI, s.tunnelPort)
	if err != nil {
		s.stats.parseFailures.Add(1)
		log.Debugf("[tunnel] %v", domainerrors.NewParseError("bad CONNECT target", err))
		return
	}

	// Bytes the client sent after the CONNECT head, already pulled into the buffer.
	head, err := clientBuf.Peek(clientBuf.Buffered())
	if err != nil {
		log.Debugf("[tunnel] Client %s error: %v", client.RemoteAddr(), err)
		return
	}
	head = append([]byte(nil), head...)

	ip, err := s.resolver.Resolve(ctx, host)
	if err != nil {
		s.stats.resolutionFailures.Add(1)
		log.Warnf("[tunnel] DNS resolution failed for %s: %v", host, err)
		s.reportLoadError(err, net.JoinHostPort(host, port))
		return
	}

	upstreamAddr := net.JoinHostPort(ip.String(), port)
	upstream, err := s.dialer.DialContext(ctx, "tcp", upstreamAddr)
	if err != nil {
		s.stats.upstreamFailures.Add(1)
		cerr := domainerrors.NewUpstreamConnectError("could not connect to "+upstreamAddr, err)
		log.Warnf("[tunnel] %v (target: %s)", cerr, req.RequestURI)
		s.reportLoadError(cerr, net.JoinHostPort(host, port))
		return
	}
	defer utils.CloseOrWarn(upstream)

	if _, err := client.Write(connectEstablished); err != nil {
		log.Debugf("[tunnel] Client %s went away: %v", client.RemoteAddr(), err)
		return
	}
	if len(head) > 0 {
		if _, err := upstream.Write(head); err != nil {
			log.Debugf("[tunnel] Failed to forward head to %s: %v", upstreamAddr, err)
			return
		}
	}

	log.Debugf("[tunnel] %s <-> %s (%s)", client.RemoteAddr(), upstreamAddr, req.RequestURI)

	up, down := splice(client, client, upstream, upstream)
	s.stats.bytesUp.Add(uint64(up + int64(len(head))))
	s.stats.bytesDown.Add(uint64(down))
}

// splice copies clientSrc to upstream and upstreamSrc to client concurrently.
// When either direction ends both connections are closed, which ends the other.
func splice(client net.Conn, clientSrc io.Reader, upstream net.Conn, upstreamSrc io.Reader) (up, down int64) {
	var once sync.Once
	closeBoth := func() {
		once.Do(func() {
			_ = client.Close()
			_ = upstream.Close()
		})
	}

	var g errgroup.Group
	g.Go(func() error {
		defer closeBoth()
		n, err := io.Copy(upstream, clientSrc)
		up = n
		return err
	})
	g.Go(func() error {
		defer closeBoth()
		n, err := io.Copy(client, upstreamSrc)
		down = n
		return err
	})

	if err := g.Wait(); err != nil && !errors.Is(err, net.ErrClosed) {
		log.Debugf("[tunnel] %s closed: %v", client.RemoteAddr(), err)
	}
	return up, down
}
