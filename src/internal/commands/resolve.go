package commands

import (
	"context"
	"flag"
	"fmt"

	"github.com/dns-browser/dns-browser/src/internal/config"
	"github.com/dns-browser/dns-browser/src/internal/resolver"
	"github.com/dns-browser/dns-browser/src/internal/utils"
)

// ResolveCommand resolves a hostname through the same code path the proxy uses.
type ResolveCommand struct {
	fs  *flag.FlagSet
	ctx *AppContext
	cfg *config.Config

	hostname string
	server   string

	resolverOpts resolver.Options
}

func CreateResolveCommand() *ResolveCommand {
	return &ResolveCommand{
		fs: flag.NewFlagSet("resolve", flag.ContinueOnError),
	}
}

func (c *ResolveCommand) Name() string {
	return c.fs.Name()
}

// Init accepts "<host> [server]" where server is an IPv4 address, a DNS list entry name,
// or omitted for the startup selection.
func (c *ResolveCommand) Init(args []string, ctx *AppContext) error {
	c.ctx = ctx
	if err := c.fs.Parse(args); err != nil {
		return err
	}

	rest := c.fs.Args()
	if len(rest) < 1 || len(rest) > 2 {
		return fmt.Errorf("usage: resolve <host> [server]")
	}
	c.hostname = rest[0]

	cfg, err := loadAndValidateConfigOrFail(ctx.ConfigPath)
	if err != nil {
		return err
	}
	c.cfg = cfg

	c.server = cfg.General.InitialDNS
	if len(rest) == 2 {
		server, err := c.lookupServer(rest[1])
		if err != nil {
			return err
		}
		c.server = server
	}

	if c.resolverOpts.QueryTimeout == 0 {
		c.resolverOpts.QueryTimeout = cfg.General.GetDNSQueryTimeout()
	}
	return nil
}

func (c *ResolveCommand) lookupServer(arg string) (string, error) {
	if utils.IsIPv4(arg) {
		return arg, nil
	}
	for _, entry := range c.cfg.DNSServers {
		if entry.Name == arg {
			return entry.Host, nil
		}
	}
	return "", fmt.Errorf("%q is neither an IPv4 address nor a configured DNS server name", arg)
}

func (c *ResolveCommand) Run() error {
	res := resolver.New(c.resolverOpts)

	ip, err := res.ResolveWith(context.Background(), c.hostname, c.server)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.ctx.stdout(), "%s -> %s (via %s)\n", c.hostname, ip, config.Label(c.server))
	return nil
}
