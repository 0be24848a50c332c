// Package resolver turns proxy target hostnames into IPv4 addresses.
//
// A Resolver holds the process-wide DNS selection. When nothing is selected
// the OS resolver is used; otherwise an A query is sent only to the selected
// server on port 53. In both cases the first returned address wins.
//
// The selection is a single atomic pointer. Resolve loads it once at the start
// of a lookup, so a switch only affects lookups that begin after it.
//
//	r := resolver.New(resolver.Options{QueryTimeout: 5 * time.Second})
//	r.SetServer("1.1.1.1")
//	ip, err := r.Resolve(ctx, "example.com")
package resolver
