package utils

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// IsValidPort reports whether port is a decimal number in 1..65535.
func IsValidPort(port string) bool {
	n, err := strconv.Atoi(port)
	return err == nil && n >= 1 && n <= 65535
}

// SplitHostPortDefault splits "host[:port]" and substitutes defaultPort when the
// port is absent or invalid. An empty host is an error.
func SplitHostPortDefault(target, defaultPort string) (host, port string, err error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", "", fmt.Errorf("empty target")
	}

	host, port, err = net.SplitHostPort(target)
	if err != nil {
		// No port at all, e.g. "example.com" or "[::1]"
		host = strings.TrimSuffix(strings.TrimPrefix(target, "["), "]")
		port = ""
	}

	if host == "" || strings.ContainsAny(host, " /") {
		return "", "", fmt.Errorf("invalid host in %q", target)
	}
	if !IsValidPort(port) {
		port = defaultPort
	}
	return host, port, nil
}
