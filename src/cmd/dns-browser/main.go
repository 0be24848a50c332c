package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/gops/agent"

	"github.com/dns-browser/dns-browser/src/internal/api"
	"github.com/dns-browser/dns-browser/src/internal/commands"
	"github.com/dns-browser/dns-browser/src/internal/log"
	"github.com/dns-browser/dns-browser/src/internal/utils"
)

var (
	version = "dev"
	commit  = "n/a"
	date    = "n/a"
)

func main() {
	ctx := &commands.AppContext{}
	var gops bool

	// Define flags
	flag.StringVar(&ctx.ConfigPath, "config", utils.DefaultConfigPath(), "Path to configuration file")
	flag.BoolVar(&ctx.Verbose, "verbose", false, "Enable debug logging")
	flag.BoolVar(&gops, "gops", false, "Start github.com/google/gops agent")

	// Custom usage message
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "DNS Browser: browse through a user-selectable DNS server\n")
		fmt.Fprintf(os.Stderr, "Version: %s (Commit: %s, Date: %s)\n\n", version, commit, date)
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <command>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  serve                   Run the forward proxy and the control API\n")
		fmt.Fprintf(os.Stderr, "  servers                 Print the configured DNS servers\n")
		fmt.Fprintf(os.Stderr, "  resolve <host> [server] Resolve a hostname the way the proxy does\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if ctx.Verbose {
		log.SetVerbose(true)
	}

	api.Version, api.Commit, api.Date = version, commit, date

	if gops {
		if err := agent.Listen(agent.Options{}); err != nil {
			log.Fatalf("Failed to start gops agent: %v", err)
		}
		defer agent.Close()
	}

	cmds := []commands.Runner{
		commands.CreateServeCommand(),
		commands.CreateServersCommand(),
		commands.CreateResolveCommand(),
	}

	args := flag.Args()

	if len(args) < 1 {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(cmds, args, ctx))
}

// run returns the exit code so deferred cleanup in main still happens.
func run(cmds []commands.Runner, args []string, ctx *commands.AppContext) int {
	subcommand := args[0]
	for _, cmd := range cmds {
		if cmd.Name() != subcommand {
			continue
		}
		if err := cmd.Init(args[1:], ctx); err != nil {
			log.Errorf("Failed to initialize command: %v", err)
			return 1
		}
		if err := cmd.Run(); err != nil {
			log.Errorf("Failed to run command: %v", err)
			return 1
		}
		return 0
	}

	log.Errorf("Unknown subcommand: %s", subcommand)
	return 1
}
