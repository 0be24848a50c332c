// Package api provides the control surface used by the browser shell.
//
// The shell drives the proxy through a small REST API bound to a loopback address:
//   - reading and saving the named DNS server list
//   - switching the active DNS server
//   - reporting the page it currently displays
//   - receiving reload notifications over Server-Sent Events
//   - reading the proxy settings and runtime status
//
// # Response Format
//
// All successful responses wrap data in a "data" field:
//
//	{
//	  "data": { /* response payload */ }
//	}
//
// Error responses use the following format:
//
//	{
//	  "error": {
//	    "code": "ERROR_CODE",
//	    "message": "Human-readable error message",
//	    "details": { /* optional context */ }
//	  }
//	}
//
// # Access Control
//
// Clients must connect from a loopback address. Requests carrying an Origin header
// are refused unless the origin is listed in api_allowed_origins, so pages shown in
// the shell cannot call the API. Every PUT must also carry the per-process token in
// the X-DNS-Browser-Token header; serve writes it to api.token next to the config file.
//
// # Concurrent Edits
//
// GET /api/v1/dns-servers returns a hash of the list. A PUT carrying that hash is
// rejected with 409 when the list on disk has changed since it was read.
package api
