// Package config handles the dns-browser configuration file.
//
// The file is TOML and holds two things: general proxy settings and the
// ordered list of selectable DNS servers. The proxy never edits the list
// itself; the browser shell replaces it through the control API.
//
// # Configuration Structure
//
//	[general]
//	listen_port = 8899
//	api_bind_addr = "127.0.0.1:8898"
//	initial_dns = ""
//
//	[[dns_server]]
//	name = "Google DNS"
//	host = "8.8.8.8"
//
//	[[dns_server]]
//	name = "OS Default"
//	host = ""
//
// # Example Usage
//
//	cfg, err := config.LoadConfig(path) // creates the file with defaults if missing
//	if err != nil {
//	    log.Fatalf("%v", err)
//	}
//	if err := cfg.ValidateConfig(); err != nil {
//	    log.Fatalf("%v", err)
//	}
//
// An empty host means "use the OS resolver". Names must be unique.
package config
