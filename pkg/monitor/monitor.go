// Package monitor drives the full cycle: scrape, merge, reconcile,
// render, sync.
package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/pyrowatch/pyrowatch/pkg/catalog"
	"github.com/pyrowatch/pyrowatch/pkg/publish"
	"github.com/pyrowatch/pyrowatch/pkg/reconcile"
	"github.com/pyrowatch/pyrowatch/pkg/report"
	"github.com/pyrowatch/pyrowatch/pkg/rules"
	"github.com/pyrowatch/pyrowatch/pkg/storage"
)

// Logger abstracts logging so callers can use logrus, stdlib log, or any
// other logger that satisfies this interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// nopLogger silently discards all messages.
type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// Fetcher downloads one search page.
type Fetcher interface {
	FetchPage(ctx context.Context, url string) (string, error)
}

// Config holds everything one cycle needs.
type Config struct {
	// Sources are fetched per cycle; their order is the merge order, so a
	// later source wins a title collision.
	Sources []string

	Rules   *rules.Ruleset
	Fetcher Fetcher

	// DB is the snapshot store. Nil runs a stateless cycle: every item
	// reports as new and nothing is persisted.
	DB *storage.DB

	// Messenger posts the report. Nil skips the sync stage.
	Messenger publish.Messenger

	MaxBlockChars int
	MaxBlocks     int

	Log Logger
}

// CycleResult is the outcome of one full cycle.
type CycleResult struct {
	Items   map[string]catalog.Item
	Changes []reconcile.Change
	Reports []report.FamilyReport

	// Errors are the non-fatal failures (skipped sources, family sync
	// errors). The cycle completed despite them.
	Errors []error
}

// RunCycle executes one full cycle. Per-source fetch failures and
// per-family sync failures are collected, not fatal; the only hard errors
// are snapshot load/persist failures.
func RunCycle(ctx context.Context, cfg Config) (*CycleResult, error) {
	log := cfg.Log
	if log == nil {
		log = nopLogger{}
	}
	rs := cfg.Rules
	if rs == nil {
		rs = rules.Default()
	}

	result := &CycleResult{}

	// Fetch and extract every source in declared order.
	lists := make([][]catalog.Item, 0, len(cfg.Sources))
	for _, src := range cfg.Sources {
		items, err := fetchSource(ctx, cfg.Fetcher, rs, src, log)
		if err != nil {
			log.Warnf("source skipped: %s: %v", src, err)
			result.Errors = append(result.Errors, fmt.Errorf("source %s: %w", src, err))
			continue
		}
		lists = append(lists, items)
	}

	result.Items = catalog.Merge(lists...)
	log.Infof("scraped %d matching products from %d/%d sources",
		len(result.Items), len(lists), len(cfg.Sources))

	// An empty scrape is more likely a site outage than a sold-out-and-
	// delisted catalog; do not wipe the snapshot over it.
	if len(result.Items) == 0 {
		log.Warnf("no products found this cycle, keeping previous snapshot")
		return result, nil
	}

	// Reconcile against the previous snapshot.
	prev := map[string]string{}
	if cfg.DB != nil {
		var err error
		prev, err = cfg.DB.LoadStock(ctx)
		if err != nil {
			return result, fmt.Errorf("load snapshot: %w", err)
		}
	}
	firstRun := len(prev) == 0

	changes, _ := reconcile.Reconcile(rs.SoldOut, prev, result.Items)
	result.Changes = changes

	if cfg.DB != nil {
		if err := cfg.DB.ApplyCycle(ctx, result.Items, changes); err != nil {
			return result, fmt.Errorf("persist snapshot: %w", err)
		}
	}

	if firstRun {
		log.Infof("first cycle, baselined %d products", len(result.Items))
	} else {
		for _, line := range report.RenderChanges(changes) {
			log.Infof("change: %s", line)
		}
	}

	result.Reports = report.Render(rs, result.Items, report.Options{
		MaxBlockChars: cfg.MaxBlockChars,
		MaxBlocks:     cfg.MaxBlocks,
		Now:           time.Now,
	})

	if cfg.Messenger != nil && cfg.DB != nil {
		pub := &publish.Publisher{Store: cfg.DB, Messenger: cfg.Messenger, Log: log}
		result.Errors = append(result.Errors, pub.Sync(ctx, result.Reports)...)
	}

	return result, nil
}

func fetchSource(ctx context.Context, f Fetcher, rs *rules.Ruleset, src string, log Logger) ([]catalog.Item, error) {
	body, err := f.FetchPage(ctx, src)
	if err != nil {
		return nil, err
	}
	if title := catalog.PageTitle(body); title != "" {
		log.Debugf("fetched %s (%q)", src, title)
	}
	return catalog.ParsePage(rs, body, src)
}

// Run drives RunCycle on a fixed interval until ctx is canceled. Cycles
// are single-flight: the loop blocks on the running cycle, so a slow one
// delays the next tick instead of overlapping it.
func Run(ctx context.Context, cfg Config, interval time.Duration) error {
	log := cfg.Log
	if log == nil {
		log = nopLogger{}
	}

	runOnce := func() {
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("cycle panicked: %v", r)
			}
		}()
		start := time.Now()
		if _, err := RunCycle(ctx, cfg); err != nil {
			log.Errorf("cycle failed: %v", err)
			return
		}
		log.Infof("cycle finished in %s", time.Since(start).Round(time.Millisecond))
	}

	runOnce()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Infof("monitor stopping: %v", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			runOnce()
		}
	}
}
