package dnsswitch

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"testing"

	domainerrors "github.com/dns-browser/dns-browser/src/internal/errors"
	"github.com/dns-browser/dns-browser/src/internal/log"
	"github.com/dns-browser/dns-browser/src/internal/mocks"
	"github.com/dns-browser/dns-browser/src/internal/proxy"
)

func init() {
	log.DisableLogs()
}

type fakeSelector struct {
	mu      sync.Mutex
	current string
	history []string
}

func (s *fakeSelector) SetServer(host string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = host
	s.history = append(s.history, host)
}

func (s *fakeSelector) Server() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func drain(ch chan Event) []Event {
	var events []Event
	for {
		select {
		case ev := <-ch:
			events = append(events, ev)
		default:
			return events
		}
	}
}

func actions(events []Event) []Action {
	out := make([]Action, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Action)
	}
	return out
}

func TestCoordinator_ApplyReloadsCurrentPage(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe()
	sel := &fakeSelector{}
	inv := &mocks.MockCacheInvalidator{}
	c := NewCoordinator(sel, hub, Options{Invalidator: Chain{NewShellNotifier(hub), inv}})

	c.SetCurrentPage("https://example.com/")
	if err := c.ApplyDNSSelection(context.Background(), "1.1.1.1"); err != nil {
		t.Fatalf("ApplyDNSSelection() error = %v", err)
	}

	if sel.Server() != "1.1.1.1" || c.Selection() != "1.1.1.1" {
		t.Errorf("selection = %q, want 1.1.1.1", sel.Server())
	}
	if inv.Calls() != 1 {
		t.Errorf("invalidator calls = %d, want 1", inv.Calls())
	}

	events := drain(sub)
	got := actions(events)
	if len(got) != 2 || got[0] != ActionClearCache || got[1] != ActionForceReload {
		t.Fatalf("events = %v, want [clear-cache force-reload]", got)
	}
	if events[1].Host != "1.1.1.1" || events[1].Seq <= events[0].Seq {
		t.Errorf("unexpected reload event %+v", events[1])
	}
}

func TestCoordinator_ApplyResetsBlankWithoutPage(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe()
	sel := &fakeSelector{current: "8.8.8.8"}
	c := NewCoordinator(sel, hub, Options{})

	if err := c.ApplyDNSSelection(context.Background(), ""); err != nil {
		t.Fatalf("ApplyDNSSelection() error = %v", err)
	}
	if sel.Server() != "" {
		t.Errorf("selection = %q, want OS default", sel.Server())
	}
	if c.Label() != "OS Default" {
		t.Errorf("Label() = %q", c.Label())
	}
	if got := actions(drain(sub)); len(got) != 1 || got[0] != ActionResetBlank {
		t.Errorf("events = %v, want [reset-blank]", got)
	}
}

func TestCoordinator_InvalidationFailureDoesNotBlock(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe()
	sel := &fakeSelector{}
	inv := &mocks.MockCacheInvalidator{Err: errors.New("flush failed")}
	c := NewCoordinator(sel, hub, Options{Invalidator: inv})
	c.SetCurrentPage("http://example.com/")

	if err := c.ApplyDNSSelection(context.Background(), "9.9.9.9"); err != nil {
		t.Fatalf("ApplyDNSSelection() error = %v", err)
	}
	if sel.Server() != "9.9.9.9" {
		t.Errorf("selection not applied after invalidation failure")
	}
	if got := actions(drain(sub)); len(got) != 1 || got[0] != ActionForceReload {
		t.Errorf("events = %v, want [force-reload]", got)
	}
}

func TestCoordinator_RejectsInvalidHost(t *testing.T) {
	sel := &fakeSelector{current: "8.8.8.8"}
	c := NewCoordinator(sel, NewHub(), Options{})

	for _, host := range []string{"dns.google", "::1", "300.1.1.1"} {
		err := c.ApplyDNSSelection(context.Background(), host)
		if !domainerrors.HasCode(err, domainerrors.ErrCodeValidation) {
			t.Errorf("ApplyDNSSelection(%q) error = %v, want validation error", host, err)
		}
	}
	if len(sel.history) != 0 {
		t.Errorf("selector changed on invalid input: %v", sel.history)
	}
}

func TestChain_JoinsFailures(t *testing.T) {
	first := &mocks.MockCacheInvalidator{Err: errors.New("first")}
	second := &mocks.MockCacheInvalidator{}
	third := &mocks.MockCacheInvalidator{Err: errors.New("third")}

	err := Chain{first, nil, second, third}.InvalidateCache(context.Background())
	if !domainerrors.HasCode(err, domainerrors.ErrCodeCacheInvalidation) {
		t.Fatalf("error = %v, want cache invalidation error", err)
	}
	if second.Calls() != 1 || third.Calls() != 1 {
		t.Errorf("later invalidators skipped after failure")
	}
	if err := (Chain{second}).InvalidateCache(context.Background()); err != nil {
		t.Errorf("successful chain error = %v", err)
	}
}

func TestCommandInvalidator(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires POSIX true/false")
	}
	if NewCommandInvalidator(nil, 0) != nil {
		t.Errorf("empty command should produce no invalidator")
	}
	if err := NewCommandInvalidator([]string{"true"}, 0).InvalidateCache(context.Background()); err != nil {
		t.Errorf("true: %v", err)
	}
	if err := NewCommandInvalidator([]string{"false"}, 0).InvalidateCache(context.Background()); err == nil {
		t.Errorf("false: expected error")
	}
}

func TestHub_DropsWhenFull(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe()
	for i := 0; i < subscriberBuffer+5; i++ {
		hub.Notify(ActionForceReload, "")
	}
	if got := len(drain(sub)); got != subscriberBuffer {
		t.Errorf("received %d events, want %d", got, subscriberBuffer)
	}
}

func TestHub_LoadErrorAndClose(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe()
	other := hub.Subscribe()

	hub.ReportLoadError(proxy.LoadError{Code: "RESOLUTION_ERROR", Description: "no A records", URL: "http://x.example/"})
	ev := <-sub
	if ev.Action != ActionLoadError || ev.LoadError == nil || ev.LoadError.URL != "http://x.example/" {
		t.Errorf("unexpected event %+v", ev)
	}

	hub.Unsubscribe(other)
	hub.Unsubscribe(other)
	if hub.SubscriberCount() != 1 {
		t.Errorf("SubscriberCount() = %d, want 1", hub.SubscriberCount())
	}

	hub.CloseAll()
	if _, ok := <-sub; ok {
		t.Errorf("expected closed channel after CloseAll")
	}
	if _, ok := <-hub.Subscribe(); ok {
		t.Errorf("Subscribe after CloseAll must return a closed channel")
	}
}

func TestCoordinator_Report(t *testing.T) {
	hub := NewHub()
	hub.Subscribe()
	c := NewCoordinator(&fakeSelector{}, hub, Options{})

	_ = c.ApplyDNSSelection(context.Background(), "8.8.8.8")
	_ = c.ApplyDNSSelection(context.Background(), "1.1.1.1")

	if c.Name() != "dns" {
		t.Errorf("Name() = %q", c.Name())
	}
	if got, want := c.Report(true), "server=1.1.1.1 switches=2 subscribers=1"; got != want {
		t.Errorf("Report(true) = %q, want %q", got, want)
	}
	if got, want := c.Report(false), "server=1.1.1.1 switches=0 subscribers=1"; got != want {
		t.Errorf("Report(false) after reset = %q, want %q", got, want)
	}
}
