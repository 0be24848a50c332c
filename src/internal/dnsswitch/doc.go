// Package dnsswitch applies DNS server selections at runtime.
//
// A Coordinator stores the new selection in the resolver, asks the configured
// CacheInvalidator to drop stale resolver state and tells the browser shell to
// reload through the Hub. Invalidation failures are logged and never block the
// selection or the reload.
package dnsswitch
