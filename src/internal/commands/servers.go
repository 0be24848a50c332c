package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/dns-browser/dns-browser/src/internal/config"
)

// ServersCommand prints the configured DNS server list.
type ServersCommand struct {
	ctx *AppContext
	cfg *config.Config
}

func CreateServersCommand() *ServersCommand {
	return &ServersCommand{}
}

func (c *ServersCommand) Name() string {
	return "servers"
}

func (c *ServersCommand) Init(args []string, ctx *AppContext) error {
	c.ctx = ctx
	if len(args) > 0 {
		return fmt.Errorf("servers takes no arguments")
	}

	cfg, err := loadAndValidateConfigOrFail(ctx.ConfigPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}

func (c *ServersCommand) Run() error {
	out := c.ctx.stdout()

	if len(c.cfg.DNSServers) == 0 {
		fmt.Fprintln(out, "No DNS servers configured")
		return nil
	}

	fmt.Fprintf(out, "DNS servers (%s):\n", c.cfg.GetConfigPath())

	// "*" marks the server selected at startup
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, entry := range c.cfg.DNSServers {
		marker := " "
		if entry.Host == c.cfg.General.InitialDNS {
			marker = "*"
		}
		host := entry.Host
		if host == "" {
			host = "(system resolver)"
		}
		fmt.Fprintf(w, "  %s %s\t%s\n", marker, entry.Name, host)
	}
	return w.Flush()
}
