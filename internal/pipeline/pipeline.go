package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/radar-rain-etl/internal/config"
	"github.com/couchcryptid/radar-rain-etl/internal/domain"
	"github.com/couchcryptid/radar-rain-etl/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Fetcher downloads and decodes one radar image.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*domain.Raster, error)
}

// HistoryStore persists the full history table after every round.
type HistoryStore interface {
	Save(ctx context.Context, t *domain.HistoryTable) error
}

// Publisher forwards a completed round's samples downstream.
type Publisher interface {
	PublishRound(ctx context.Context, round domain.Round) (int, error)
}

// Collector samples every configured radar site on a fixed interval and
// accumulates the results into a history table.
type Collector struct {
	urls      []string
	stations  domain.StationTable
	circle    domain.Circle
	ignore    domain.IgnoreSet
	threshold int
	noise     domain.NoiseFloor
	interval  time.Duration
	policy    config.FailurePolicy

	fetcher   Fetcher
	store     HistoryStore
	publisher Publisher
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics

	history atomic.Pointer[domain.HistoryTable]
	ready   atomic.Bool
}

// New creates a Collector. store and publisher may be nil; a nil store is
// only valid for callers that use RunRound or Sample directly.
func New(cfg *config.Config, f Fetcher, store HistoryStore, pub Publisher, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Collector {
	c := &Collector{
		urls:      cfg.URLs,
		stations:  cfg.Stations,
		circle:    cfg.Circle,
		ignore:    cfg.Ignore,
		threshold: cfg.Threshold,
		noise:     cfg.NoiseFloor,
		interval:  cfg.SampleInterval,
		policy:    cfg.FailurePolicy,
		fetcher:   f,
		store:     store,
		publisher: pub,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
	}
	c.history.Store(domain.NewHistoryTable())
	return c
}

// SetHistory replaces the current table, e.g. with one loaded at startup.
func (c *Collector) SetHistory(t *domain.HistoryTable) {
	if t == nil {
		t = domain.NewHistoryTable()
	}
	c.history.Store(t)
	c.metrics.HistoryColumns.Set(float64(len(t.Columns())))
}

// History returns the current table. Tables are immutable, so the result
// is safe to read while the collector keeps running.
func (c *Collector) History() *domain.HistoryTable {
	return c.history.Load()
}

// CheckReadiness returns nil once a round has been persisted, or an error
// describing why the service is not yet ready.
func (c *Collector) CheckReadiness(_ context.Context) error {
	if !c.ready.Load() {
		return errors.New("collector has not persisted a round yet")
	}
	return nil
}

// Run samples all sites, accumulates, persists and publishes, then waits
// for the interval, until the context is cancelled.
func (c *Collector) Run(ctx context.Context) error {
	if c.store == nil {
		return errors.New("collector has no history store")
	}

	c.logger.Info("collector started",
		"sites", len(c.urls),
		"interval", c.interval,
		"failure_policy", c.policy,
	)
	c.metrics.CollectorRunning.Set(1)
	defer c.metrics.CollectorRunning.Set(0)

	for {
		if ctx.Err() != nil {
			c.logger.Info("collector stopping", "reason", ctx.Err())
			return nil
		}

		c.collect(ctx)

		if !sleepWithContext(ctx, c.clock, c.interval) {
			c.logger.Info("collector stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// collect runs one round and folds it into the history.
func (c *Collector) collect(ctx context.Context) {
	start := c.clock.Now()

	round, err := c.RunRound(ctx)
	if ctx.Err() != nil {
		// A round cut short by shutdown is not persisted.
		return
	}
	if err != nil {
		c.metrics.RoundsFailed.Inc()
		c.logger.Error("round failed", "error", err)
		return
	}

	next := domain.Accumulate(c.History(), round)
	c.history.Store(next)

	c.metrics.RoundsCompleted.Inc()
	c.metrics.RoundDuration.Observe(c.clock.Since(start).Seconds())
	c.metrics.HistoryColumns.Set(float64(len(next.Columns())))
	c.recordRain(round)

	if err := c.store.Save(ctx, next); err != nil {
		c.metrics.SnapshotErrors.Inc()
		c.logger.Error("save history failed", "round", round.Label, "error", err)
	} else {
		c.ready.Store(true)
	}

	if c.publisher != nil {
		n, err := c.publisher.PublishRound(ctx, round)
		if err != nil {
			c.metrics.PublishErrors.Inc()
			c.logger.Error("publish round failed", "round", round.Label, "error", err)
		} else {
			c.metrics.SamplesPublished.Add(float64(n))
		}
	}

	c.logger.Info("round complete",
		"round", round.Label,
		"sites", len(round.Samples),
		"failed", round.Failed(),
		"columns", len(next.Columns()),
	)
}

// RunRound samples every site once, in configured order, labelled with the
// clock's current time. Under the abort policy the first failing site ends
// the round with its error; under isolate it is recorded as a failed sample.
func (c *Collector) RunRound(ctx context.Context) (domain.Round, error) {
	at := c.clock.Now()
	samples := make([]domain.SiteSample, 0, len(c.urls))

	for _, url := range c.urls {
		if err := ctx.Err(); err != nil {
			return domain.Round{}, err
		}

		s := c.Sample(ctx, url)
		if s.Err != nil {
			c.metrics.SiteErrors.WithLabelValues(domain.ErrorKind(s.Err)).Inc()
			if c.policy == config.PolicyAbort {
				return domain.Round{}, fmt.Errorf("round aborted at %s: %w", s.Site, s.Err)
			}
			c.logger.Warn("site sample failed",
				"site", s.Site,
				"url", url,
				"kind", domain.ErrorKind(s.Err),
				"error", s.Err,
			)
		}
		samples = append(samples, s)
	}

	return domain.NewRound(at, samples), nil
}

// Sample resolves, fetches, masks and classifies a single site. Failures
// are reported in the sample's Err.
func (c *Collector) Sample(ctx context.Context, url string) domain.SiteSample {
	s := domain.SiteSample{Site: domain.ResolveStation(url, c.stations), URL: url}

	raster, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		s.Err = err
		return s
	}

	raw, err := c.analyze(s.Site, raster)
	if err != nil {
		s.Err = err
		return s
	}

	s.Raw = raw
	s.Rain = c.noise.Apply(raw)
	c.logger.Debug("site sampled",
		"site", s.Site,
		"red", raw.Red,
		"green", raw.Green,
		"blue", raw.Blue,
	)
	return s
}

// analyze masks and classifies r, converting any panic into a
// ProcessingError.
func (c *Collector) analyze(site string, r *domain.Raster) (counts domain.ChannelCounts, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &domain.ProcessingError{Site: site, Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	masked := domain.MaskCircle(r, c.circle)
	return domain.Classify(masked, c.ignore, c.threshold), nil
}

func (c *Collector) recordRain(round domain.Round) {
	for _, s := range round.Samples {
		if !s.OK() {
			continue
		}
		for _, cat := range domain.Categories() {
			c.metrics.RainPixels.WithLabelValues(s.Site, string(cat)).Set(float64(s.Rain.Get(cat)))
		}
	}
}

func sleepWithContext(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
