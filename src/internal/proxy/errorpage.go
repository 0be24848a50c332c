package proxy

import (
	"bytes"
	"io"
	"net/http"
	"strconv"

	"github.com/valyala/fasttemplate"
)

const (
	tmplHost   = "host"
	tmplReason = "reason"
	tmplCode   = "code"
	tmplURL    = "url"
	tmplIP     = "ip"
)

var (
	resolutionFailedPage = fasttemplate.New(
		"DNS Resolution Failed for \"{{host}}\"\n\nReason: {{reason}}\nError Code: {{code}}\n",
		"{{", "}}")

	upstreamFailedPage = fasttemplate.New(
		"Proxy connection error: Could not connect to the destination server.\n\nURL: {{url}}\nIP: {{ip}}\nReason: {{reason}}\n",
		"{{", "}}")
)

func renderResolutionFailed(host, reason, code string) string {
	return resolutionFailedPage.ExecuteString(map[string]interface{}{
		tmplHost:   host,
		tmplReason: reason,
		tmplCode:   code,
	})
}

func renderUpstreamFailed(url, ipPort, reason string) string {
	return upstreamFailedPage.ExecuteString(map[string]interface{}{
		tmplURL:    url,
		tmplIP:     ipPort,
		tmplReason: reason,
	})
}

// writeErrorPage writes a complete plain-text response and marks the connection for closing.
func writeErrorPage(w io.Writer, status int, body string) error {
	resp := &http.Response{
		Status:        strconv.Itoa(status) + " " + http.StatusText(status),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        make(http.Header),
		ContentLength: int64(len(body)),
		Body:          io.NopCloser(bytes.NewBufferString(body)),
		Close:         true,
	}
	resp.Header.Set("Content-Type", "text/plain; charset=utf-8")
	return resp.Write(w)
}
