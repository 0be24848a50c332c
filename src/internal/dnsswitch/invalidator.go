package dnsswitch

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	domainerrors "github.com/dns-browser/dns-browser/src/internal/errors"
	"github.com/dns-browser/dns-browser/src/internal/log"
)

const defaultCommandTimeout = 10 * time.Second

// CacheInvalidator drops resolver state that may still point at the previous DNS server.
type CacheInvalidator interface {
	InvalidateCache(ctx context.Context) error
}

// ShellNotifier asks the browser shell to clear its host resolver and HTTP caches.
type ShellNotifier struct {
	hub *Hub
}

// NewShellNotifier creates a notifier that emits clear-cache events on hub.
func NewShellNotifier(hub *Hub) *ShellNotifier {
	return &ShellNotifier{hub: hub}
}

func (n *ShellNotifier) InvalidateCache(ctx context.Context) error {
	n.hub.Notify(ActionClearCache, "")
	return nil
}

// CommandInvalidator runs an external command, e.g. "resolvectl flush-caches".
type CommandInvalidator struct {
	args    []string
	timeout time.Duration
}

// NewCommandInvalidator returns nil when args is empty.
func NewCommandInvalidator(args []string, timeout time.Duration) *CommandInvalidator {
	if len(args) == 0 {
		return nil
	}
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}
	return &CommandInvalidator{args: append([]string(nil), args...), timeout: timeout}
}

func (c *CommandInvalidator) InvalidateCache(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmdline := strings.Join(c.args, " ")
	log.Debugf("Running cache flush command: %s", cmdline)

	out, err := exec.CommandContext(ctx, c.args[0], c.args[1:]...).CombinedOutput()
	if err != nil {
		if output := strings.TrimSpace(string(out)); output != "" {
			return fmt.Errorf("%s: %w: %s", cmdline, err, output)
		}
		return fmt.Errorf("%s: %w", cmdline, err)
	}
	return nil
}

// Chain runs every invalidator even when earlier ones fail.
type Chain []CacheInvalidator

func (c Chain) InvalidateCache(ctx context.Context) error {
	var errs []error
	for _, inv := range c {
		if inv == nil {
			continue
		}
		if err := inv.InvalidateCache(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return domainerrors.NewCacheInvalidationError("failed to invalidate resolver caches", errors.Join(errs...))
}
