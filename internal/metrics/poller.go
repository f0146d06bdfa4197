package metrics

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/normienation/normie/internal/data"
	"github.com/normienation/normie/internal/models"
)

// Subscriber is notified after every poll cycle.
type Subscriber interface {
	OnMetrics(m models.TokenMetrics, dataSource string)
}

// PollerConfig holds poller configuration.
type PollerConfig struct {
	Interval time.Duration // Poll interval (default: 10s)
	Timeout  time.Duration // Upstream timeout per cycle (default: 10s)
}

// DefaultPollerConfig returns the production cadence.
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		Interval: 10 * time.Second,
		Timeout:  10 * time.Second,
	}
}

// Poller refreshes the cache on a fixed interval and samples each result
// into the price history.
type Poller struct {
	cfg         PollerConfig
	cache       *Cache
	archive     data.PriceArchive
	subscribers []Subscriber
	logger      *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPoller creates a Poller. archive may be nil.
func NewPoller(cfg PollerConfig, cache *Cache, archive data.PriceArchive, logger *zap.Logger, subscribers ...Subscriber) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultPollerConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = defaults.Interval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	return &Poller{
		cfg:         cfg,
		cache:       cache,
		archive:     archive,
		subscribers: subscribers,
		logger:      logger,
	}
}

// Start begins the polling loop.
func (p *Poller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("metrics poller started", zap.Duration("interval", p.cfg.Interval))
	return nil
}

// Stop cancels the loop and waits for the in-flight cycle, bounded by ctx.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("metrics poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// Poll immediately on start.
	p.poll()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.poll()
		}
	}
}

// poll runs one refresh cycle.
func (p *Poller) poll() {
	ctx, cancel := context.WithTimeout(p.ctx, p.cfg.Timeout)
	defer cancel()

	m := p.cache.Refresh(ctx)
	point := p.cache.AddPricePoint(m)

	if p.archive != nil {
		if err := p.archive.SavePricePoint(ctx, &point); err != nil {
			p.logger.Warn("failed to archive price point", zap.Error(err))
		}
	}

	source := p.cache.DataSource()
	for _, s := range p.subscribers {
		s.OnMetrics(m, source)
	}
}
