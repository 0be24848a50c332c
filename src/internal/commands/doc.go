// Package commands implements CLI command handlers for dns-browser.
//
// Each command implements the Runner interface:
//   - Init(): Parse arguments and load configuration
//   - Run(): Execute the command
//   - Name(): Return command name for routing
//
// # Available Commands
//
//   - serve: Run the proxy, the DNS switch coordinator and the control API
//   - servers: Print the configured DNS server list
//   - resolve: Resolve a hostname the way the proxy would
//
// # Example Usage
//
//	cmd := commands.CreateResolveCommand()
//	ctx := &commands.AppContext{ConfigPath: "/home/user/.config/dns-browser/dns-browser.toml"}
//	if err := cmd.Init([]string{"example.com", "1.1.1.1"}, ctx); err != nil {
//	    log.Fatalf("%v", err)
//	}
//	if err := cmd.Run(); err != nil {
//	    log.Fatalf("%v", err)
//	}
package commands
