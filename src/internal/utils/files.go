package utils

import (
	"errors"
	"io"
	"net"

	"github.com/dns-browser/dns-browser/src/internal/log"
)

// CloseOrWarn closes c and logs any error other than an already-closed connection.
func CloseOrWarn(c io.Closer) {
	if err := c.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		log.Warnf("Failed to close: %v", err)
	}
}
