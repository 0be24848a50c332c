// Package utils provides small helpers shared by dns-browser packages.
//
// # Components
//
//   - Host/port utilities: split proxy targets with a default port
//   - IP utilities: IPv4 checks and first-address selection
//   - Path utilities: default configuration location
//   - Close helpers that log instead of failing
//
// # Example Usage
//
//	host, port, err := utils.SplitHostPortDefault("example.com", "443")
//	// host = "example.com", port = "443"
//
//	ip := utils.FirstIPv4(addrs) // nil when the list holds no IPv4 address
package utils
