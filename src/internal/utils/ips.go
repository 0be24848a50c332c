package utils

import "net"

// IsIPv4 reports whether s is an IPv4 literal.
func IsIPv4(s string) bool {
	ip := net.ParseIP(s)
	return ip != nil && ip.To4() != nil
}

// FirstIPv4 returns the first IPv4 address of ips in order, or nil.
func FirstIPv4(ips []net.IP) net.IP {
	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			return v4
		}
	}
	return nil
}
