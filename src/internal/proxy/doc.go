// Package proxy implements the local forward proxy the browser session is routed through.
//
// One TCP listener accepts both request shapes a browser sends to an HTTP proxy:
//
//   - CONNECT host:port is answered with "HTTP/1.1 200 Connection Established"
//     and then spliced byte-for-byte to the resolved destination. TLS inside
//     the tunnel is never inspected.
//   - Any other method with an absolute-form URL is forwarded to the resolved
//     destination with the Host header kept as the original hostname, and the
//     upstream response is streamed back.
//
// Hostnames are resolved per request through a HostResolver, so a DNS switch
// applies to every connection accepted after it.
//
// # Failures
//
// Plain requests get a text/plain 500 page when resolution fails and a 502 page
// when the destination cannot be reached. Tunnels never get an error status
// line; the client socket is just closed. Malformed requests are closed
// silently. Nothing here is fatal to the listener.
//
// Every connection runs in its own goroutine. There is no connection pool and
// no cache.
package proxy
