package dnsswitch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	domainerrors "github.com/dns-browser/dns-browser/src/internal/errors"
	"github.com/dns-browser/dns-browser/src/internal/log"
	"github.com/dns-browser/dns-browser/src/internal/utils"
)

const osDefaultLabel = "OS Default"

// Selector holds the active DNS server. *resolver.Resolver satisfies it.
type Selector interface {
	SetServer(host string)
	Server() string
}

// Options configures a Coordinator.
type Options struct {
	// Invalidator is asked to drop stale caches after every switch. Optional.
	Invalidator CacheInvalidator
	// Label turns a host into a display name for logs. Defaults to the host itself.
	Label func(host string) string
}

// Coordinator applies DNS selections and notifies the browser shell.
type Coordinator struct {
	selector    Selector
	hub         *Hub
	invalidator CacheInvalidator
	label       func(host string) string

	// switchMu keeps the invalidate and notify steps of concurrent switches in order.
	switchMu sync.Mutex

	pageMu sync.RWMutex
	page   string

	switches atomic.Uint64
}

// NewCoordinator creates a coordinator driving selector and hub.
func NewCoordinator(selector Selector, hub *Hub, opts Options) *Coordinator {
	c := &Coordinator{
		selector:    selector,
		hub:         hub,
		invalidator: opts.Invalidator,
		label:       opts.Label,
	}
	if c.label == nil {
		c.label = func(host string) string {
			if host == "" {
				return osDefaultLabel
			}
			return host
		}
	}
	return c
}

// ApplyDNSSelection switches resolution to host, where "" selects the OS resolver.
// Only a malformed host is an error; invalidation failures are logged.
func (c *Coordinator) ApplyDNSSelection(ctx context.Context, host string) error {
	if host != "" && !utils.IsIPv4(host) {
		return domainerrors.NewValidationError("DNS server host must be an IPv4 address or empty: "+host, nil)
	}

	c.switchMu.Lock()
	defer c.switchMu.Unlock()

	c.selector.SetServer(host)
	c.switches.Add(1)
	log.Infof("Proxy DNS updated to: %s", c.label(host))

	if c.invalidator != nil {
		if err := c.invalidator.InvalidateCache(ctx); err != nil {
			if !domainerrors.HasCode(err, domainerrors.ErrCodeCacheInvalidation) {
				err = domainerrors.NewCacheInvalidationError("failed to invalidate resolver caches", err)
			}
			log.Warnf("%v", err)
		}
	}

	if c.CurrentPage() != "" {
		c.hub.Notify(ActionForceReload, host)
	} else {
		c.hub.Notify(ActionResetBlank, host)
	}
	return nil
}

// Selection returns the active host, "" for the OS resolver.
func (c *Coordinator) Selection() string {
	return c.selector.Server()
}

// Label returns the display name of the active selection.
func (c *Coordinator) Label() string {
	return c.label(c.selector.Server())
}

// SetCurrentPage records the URL the shell displays. "" means nothing is loaded.
func (c *Coordinator) SetCurrentPage(url string) {
	c.pageMu.Lock()
	defer c.pageMu.Unlock()
	c.page = url
}

// CurrentPage returns the URL last reported by the shell.
func (c *Coordinator) CurrentPage() string {
	c.pageMu.RLock()
	defer c.pageMu.RUnlock()
	return c.page
}

// Name implements the status reporter contract.
func (c *Coordinator) Name() string {
	return "dns"
}

// Report returns the active selection and the number of switches since the last reset.
func (c *Coordinator) Report(resetCounters bool) string {
	var switches uint64
	if resetCounters {
		switches = c.switches.Swap(0)
	} else {
		switches = c.switches.Load()
	}
	return fmt.Sprintf("server=%s switches=%d subscribers=%d", c.Label(), switches, c.hub.SubscriberCount())
}
