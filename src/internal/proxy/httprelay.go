package proxy

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"golang.org/x/net/http/httpguts"

	domainerrors "github.com/dns-browser/dns-browser/src/internal/errors"
	"github.com/dns-browser/dns-browser/src/internal/log"
	"github.com/dns-browser/dns-browser/src/internal/utils"
)

const defaultHTTPPort = "80"

// relayHTTP forwards one absolute-form request and streams the response back.
// The client connection is closed by the caller when this returns.
func (s *Server) relayHTTP(ctx context.Context, client net.Conn, clientBuf *bufio.Reader, req *http.Request) {
	s.stats.httpRequests.Add(1)

	target := req.URL
	if target == nil || target.Host == "" || target.Hostname() == "" {
		s.stats.parseFailures.Add(1)
		log.Debugf("[proxy] %v", domainerrors.NewParseError(fmt.Sprintf("%s %s is not an absolute-form proxy request", req.Method, req.RequestURI), nil))
		return
	}
	hostname := target.Hostname()
	port := target.Port()
	if port == "" {
		port = defaultHTTPPort
	}

	ip, err := s.resolver.Resolve(ctx, hostname)
	if err != nil {
		s.stats.resolutionFailures.Add(1)
		log.Warnf("[proxy] DNS resolution failed for %s: %v", hostname, err)
		s.reportLoadError(err, target.String())
		body := renderResolutionFailed(hostname, reason(err), string(domainerrors.CodeOf(err)))
		if werr := writeErrorPage(client, http.StatusInternalServerError, body); werr != nil {
			log.Debugf("[proxy] Failed to write error page to %s: %v", client.RemoteAddr(), werr)
		}
		return
	}

	upstreamAddr := net.JoinHostPort(ip.String(), port)
	upstream, err := s.dialer.DialContext(ctx, "tcp", upstreamAddr)
	if err != nil {
		s.failUpstream(client, target, upstreamAddr, err)
		return
	}
	defer utils.CloseOrWarn(upstream)

	log.Debugf("[proxy] %s %s -> %s", req.Method, target, upstreamAddr)

	upgrade := isUpgradeRequest(req.Header)
	out := outboundRequest(ctx, req, target, upgrade)

	// The request body is streamed while the response is read so an early upstream
	// answer cannot deadlock against a large upload.
	written := make(chan error, 1)
	go func() {
		written <- out.Write(upstream)
	}()
	watch := watchClient(clientBuf, upstream, written)

	upstreamBuf := bufio.NewReader(upstream)
	resp, err := readFinalResponse(client, upstreamBuf, out)
	if err != nil {
		if watch.clientGone() {
			log.Debugf("[proxy] Client %s went away before %s answered", client.RemoteAddr(), upstreamAddr)
			return
		}
		if werr := watch.writeError(); werr != nil {
			err = werr
		}
		s.failUpstream(client, target, upstreamAddr, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusSwitchingProtocols && upgrade {
		// The splice reads the client from here on.
		watch.stop(client)
		if watch.clientGone() {
			return
		}
		if err := resp.Write(client); err != nil {
			log.Debugf("[proxy] Failed to write upgrade response to %s: %v", client.RemoteAddr(), err)
			return
		}
		up, down := splice(client, clientBuf, upstream, upstreamBuf)
		s.stats.bytesUp.Add(uint64(up))
		s.stats.bytesDown.Add(uint64(down))
		return
	}

	// One request per client connection; both sides close after the body.
	resp.Close = true
	if err := resp.Write(client); err != nil {
		log.Debugf("[proxy] Response relay to %s interrupted: %v", client.RemoteAddr(), err)
	}
}

func (s *Server) failUpstream(client net.Conn, target *url.URL, upstreamAddr string, err error) {
	s.stats.upstreamFailures.Add(1)
	cerr := domainerrors.NewUpstreamConnectError(fmt.Sprintf("could not connect to %s", upstreamAddr), err)
	log.Warnf("[proxy] %v (url: %s)", cerr, target)
	s.reportLoadError(cerr, target.String())

	body := renderUpstreamFailed(target.String(), upstreamAddr, err.Error())
	if werr := writeErrorPage(client, http.StatusBadGateway, body); werr != nil {
		log.Debugf("[proxy] Failed to write error page to %s: %v", client.RemoteAddr(), werr)
	}
}

// outboundRequest builds the origin-form request sent to the destination.
func outboundRequest(ctx context.Context, req *http.Request, target *url.URL, upgrade bool) *http.Request {
	out := req.Clone(ctx)
	out.URL = &url.URL{
		Path:     target.Path,
		RawPath:  target.RawPath,
		RawQuery: target.RawQuery,
	}
	if out.URL.Path == "" {
		out.URL.Path = "/"
	}
	// Host stays the original name so virtual hosts route correctly. The port is kept
	// when the URL carries one, as browsers and net/http do for non-default ports.
	out.Host = target.Host
	out.RequestURI = ""
	out.Header.Del("Proxy-Connection")
	if _, ok := out.Header["User-Agent"]; !ok {
		// An empty value stops net/http from adding its own User-Agent.
		out.Header.Set("User-Agent", "")
	}

	if !upgrade {
		out.Header.Del("Connection")
		out.Close = true
	}
	return out
}

// readFinalResponse reads the upstream response, passing interim 1xx responses
// (other than 101) through to the client.
func readFinalResponse(client net.Conn, upstream *bufio.Reader, out *http.Request) (*http.Response, error) {
	for {
		resp, err := http.ReadResponse(upstream, out)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 100 && resp.StatusCode < 200 && resp.StatusCode != http.StatusSwitchingProtocols {
			if err := resp.Write(client); err != nil {
				return nil, err
			}
			continue
		}
		return resp, nil
	}
}

func isUpgradeRequest(h http.Header) bool {
	return h.Get("Upgrade") != "" && httpguts.HeaderValuesContainsToken(h["Connection"], "upgrade")
}

// clientWatch closes the upstream connection when the client hangs up while the relay
// waits on upstream, for the response head or for body bytes. It starts peeking the
// client only after the request body has been consumed.
type clientWatch struct {
	stopping atomic.Bool
	gone     atomic.Bool
	written  chan struct{}
	writeErr error // set before written is closed
	done     chan struct{}
}

func watchClient(clientBuf *bufio.Reader, upstream net.Conn, written <-chan error) *clientWatch {
	w := &clientWatch{written: make(chan struct{}), done: make(chan struct{})}
	go func() {
		defer close(w.done)
		w.writeErr = <-written
		close(w.written)
		if w.stopping.Load() {
			return
		}
		// Peek does not consume, so bytes sent after an upgrade stay for the splice.
		if _, err := clientBuf.Peek(1); err != nil && !w.stopping.Load() {
			w.gone.Store(true)
			_ = upstream.Close()
		}
	}()
	return w
}

func (w *clientWatch) clientGone() bool {
	return w.gone.Load()
}

// writeError returns the request write error, or nil while the write is still running.
func (w *clientWatch) writeError() error {
	select {
	case <-w.written:
		return w.writeErr
	default:
		return nil
	}
}

// stop ends the watch and waits for it, interrupting a pending Peek through the read deadline.
func (w *clientWatch) stop(client net.Conn) {
	w.stopping.Store(true)
	_ = client.SetReadDeadline(time.Now())
	<-w.done
	_ = client.SetReadDeadline(time.Time{})
}
