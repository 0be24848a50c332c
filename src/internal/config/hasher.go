package config

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
)

// HashDNSServers returns a stable fingerprint of the DNS server list.
// Order is part of the hash because it is the display order.
// The API hands it out as a revision so concurrent editors do not overwrite each other.
func HashDNSServers(entries []*DNSServerEntry) string {
	if entries == nil {
		entries = []*DNSServerEntry{}
	}
	// Marshalling a slice of plain structs cannot fail.
	data, _ := json.Marshal(entries)
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}
