// Package poller waits for dynamic content. Every wait is a polling loop over
// fresh document snapshots that yields between checks; callers treat a false
// result as "carry on with what is rendered", never as an error.
package poller

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"realtor-extractor/dom"
	"realtor-extractor/utils"
)

// Config bounds one wait. Whichever ceiling is hit first ends it.
type Config struct {
	Interval    time.Duration
	MaxAttempts int
	Timeout     time.Duration
}

// Condition is a predicate over the current document state.
type Condition func(doc *goquery.Document) bool

// Reason explains how a wait ended.
type Reason string

// Wait outcomes.
const (
	Ready     Reason = "ready"
	Exhausted Reason = "attempts_exhausted"
	TimedOut  Reason = "timed_out"
	Cancelled Reason = "cancelled"
)

// Outcome describes a finished wait.
type Outcome struct {
	Reason   Reason
	Attempts int
	Elapsed  time.Duration
}

// Ready reports whether the condition was met.
func (o Outcome) Ready() bool { return o.Reason == Ready }

// Poller polls a page.
type Poller struct {
	page   dom.Page
	cfg    Config
	logger utils.Logger
}

// New creates a Poller. Zero config fields fall back to 250ms / 120 / 15s.
func New(page dom.Page, cfg Config, logger utils.Logger) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 250 * time.Millisecond
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 120
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Poller{page: page, cfg: cfg, logger: logger}
}

// Config returns the effective configuration.
func (p *Poller) Config() Config { return p.cfg }

// Wait polls cond until it holds, the attempt ceiling is reached, the
// timeout elapses, or ctx is done.
func (p *Poller) Wait(ctx context.Context, name string, cond Condition) Outcome {
	start := time.Now()
	deadline := start.Add(p.cfg.Timeout)

	timer := time.NewTimer(0)
	defer timer.Stop()

	attempts := 0
	for {
		select {
		case <-ctx.Done():
			return p.finish(name, Outcome{Reason: Cancelled, Attempts: attempts, Elapsed: time.Since(start)})
		case <-timer.C:
		}

		attempts++
		doc, err := p.page.Snapshot(ctx)
		if err != nil {
			p.logger.Debug("[poller] snapshot failed", zap.String("wait", name), zap.Error(err))
		} else if cond(doc) {
			return p.finish(name, Outcome{Reason: Ready, Attempts: attempts, Elapsed: time.Since(start)})
		}

		if attempts >= p.cfg.MaxAttempts {
			return p.finish(name, Outcome{Reason: Exhausted, Attempts: attempts, Elapsed: time.Since(start)})
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return p.finish(name, Outcome{Reason: TimedOut, Attempts: attempts, Elapsed: time.Since(start)})
		}
		next := p.cfg.Interval
		if next > remaining {
			next = remaining
		}
		timer.Reset(next)
	}
}

func (p *Poller) finish(name string, o Outcome) Outcome {
	level := p.logger.Debug
	if !o.Ready() {
		level = p.logger.Info
	}
	level("[poller] wait finished",
		zap.String("wait", name),
		zap.String("reason", string(o.Reason)),
		zap.Int("attempts", o.Attempts),
		zap.Duration("elapsed", o.Elapsed),
	)
	return o
}

// Until is Wait reduced to the ready signal.
func (p *Poller) Until(ctx context.Context, name string, cond Condition) bool {
	return p.Wait(ctx, name, cond).Ready()
}

// ElementPresent waits until any selector matches.
func (p *Poller) ElementPresent(ctx context.Context, selectors ...string) bool {
	return p.Until(ctx, "element_present", func(doc *goquery.Document) bool {
		return dom.AnyPresent(doc, selectors)
	})
}

// ElementAbsent waits until no selector matches, typically loading indicators.
func (p *Poller) ElementAbsent(ctx context.Context, selectors ...string) bool {
	return p.Until(ctx, "element_absent", func(doc *goquery.Document) bool {
		return !dom.AnyPresent(doc, selectors)
	})
}

// ContentStable waits until the text under selector is non-empty and has
// not changed for at least dwell.
func (p *Poller) ContentStable(ctx context.Context, selector string, dwell time.Duration) bool {
	var (
		last  string
		since time.Time
	)
	return p.Until(ctx, "content_stable", func(doc *goquery.Document) bool {
		text := dom.Text(doc.Find(selector))
		now := time.Now()
		if text == "" || text != last {
			last, since = text, now
			return false
		}
		return now.Sub(since) >= dwell
	})
}

// ListingContent waits until loading indicators are gone and listing
// elements are present. The outcome tells a settled empty section apart
// from one that never finished loading.
func (p *Poller) ListingContent(ctx context.Context, loading, listings []string) Outcome {
	return p.Wait(ctx, "listing_content", func(doc *goquery.Document) bool {
		return !dom.AnyPresent(doc, loading) && dom.AnyPresent(doc, listings)
	})
}
