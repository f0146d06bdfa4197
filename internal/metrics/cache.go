package metrics

import (
	"context"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/normienation/normie/internal/data"
	"github.com/normienation/normie/internal/models"
)

const (
	// MinRefreshInterval bounds how often Refresh reaches upstream.
	MinRefreshInterval = 10 * time.Second

	// MaxHistoryPoints is the retained history length (nominally 24h of
	// 5-minute samples).
	MaxHistoryPoints = 288

	SeedHistoryPoints = 48
	SeedSpacing       = 5 * time.Minute

	fallbackPriceJitter = 0.00002
	seedPriceJitter     = 0.00003
	seedVolumeMin       = 500
	seedVolumeSpread    = 1000
)

const (
	DataSourceLive     = "live"
	DataSourceFallback = "fallback"
)

type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithRand sets the random source used for jitter.
func WithRand(rng *rand.Rand) Option {
	return func(c *Cache) { c.rng = rng }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// Cache owns the current token metrics, the price history and the
// live/fallback flag. mu guards the state and is never held across upstream
// calls; the rate gate stamp taken under mu makes one refresh the writer.
type Cache struct {
	prices  data.PriceSource
	holders data.HolderSource
	logger  *zap.Logger
	now     func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand

	mu            sync.RWMutex
	current       models.TokenMetrics
	history       []models.PricePoint
	lastFetch     time.Time
	usingRealData bool
}

// NewCache builds the cache with fallback metrics and a seeded history.
// holders may be nil.
func NewCache(prices data.PriceSource, holders data.HolderSource, opts ...Option) *Cache {
	c := &Cache{
		prices:  prices,
		holders: holders,
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	c.current = models.FallbackMetrics()
	c.current.LastUpdated = models.FormatTimestamp(c.now())
	c.history = make([]models.PricePoint, 0, MaxHistoryPoints)
	c.InitializePriceHistory()

	return c
}

// Refresh returns the current metrics, pulling from upstream when at least
// MinRefreshInterval has passed since the last attempt. It never panics:
// upstream errors produce a jittered fallback record, and anything
// unexpected keeps the previous record with a fresh timestamp.
func (c *Cache) Refresh(ctx context.Context) (metrics models.TokenMetrics) {
	now := c.now()

	c.mu.Lock()
	if !c.lastFetch.IsZero() && now.Sub(c.lastFetch) < MinRefreshInterval {
		metrics = c.current
		c.mu.Unlock()
		return metrics
	}
	c.lastFetch = now
	c.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("metrics refresh failed", zap.Any("panic", r))

			c.mu.Lock()
			if c.lastFetch.Equal(now) {
				c.usingRealData = false
				c.current.LastUpdated = models.FormatTimestamp(c.now())
			}
			metrics = c.current
			c.mu.Unlock()
		}
	}()

	quote, err := c.prices.FetchQuote(ctx)
	if err != nil {
		c.logger.Warn("price source unavailable", zap.String("source", c.prices.Name()), zap.Error(err))
		quote = nil
	}

	holders, haveHolders := c.holderCount(ctx)

	var (
		next models.TokenMetrics
		live bool
	)
	if quote != nil {
		next = models.FallbackMetrics()
		next.Price = quote.Price
		next.PriceChange24h = quote.PriceChange24h
		next.MarketCap = quote.MarketCap
		next.MarketCapChange24h = quote.PriceChange24h
		next.Volume24h = quote.Volume24h
		next.Liquidity = quote.Liquidity
		if haveHolders {
			next.Holders = holders
		}
		live = true
	} else {
		next = models.FallbackMetrics()
		next.Price += (c.random() - 0.5) * fallbackPriceJitter
	}
	next.LastUpdated = models.FormatTimestamp(c.now())

	c.mu.Lock()
	if !c.lastFetch.Equal(now) {
		// a newer refresh started while this one waited on upstream
		metrics = c.current
		c.mu.Unlock()
		return metrics
	}
	c.current = next
	c.usingRealData = live
	c.mu.Unlock()

	if live {
		c.logger.Info("metrics updated with live data", zap.Float64("price", next.Price), zap.Int64("holders", next.Holders))
	} else {
		c.logger.Info("metrics using fallback data", zap.Float64("price", next.Price))
	}

	return next
}

func (c *Cache) holderCount(ctx context.Context) (int64, bool) {
	if c.holders == nil {
		return 0, false
	}
	count, ok, err := c.holders.HolderCount(ctx)
	if err != nil {
		c.logger.Warn("holder count unavailable", zap.Error(err))
		return 0, false
	}
	return count, ok
}

// Metrics returns the cached record without touching upstream.
func (c *Cache) Metrics() models.TokenMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// IsUsingRealData reports whether the latest refresh used live data.
func (c *Cache) IsUsingRealData() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.usingRealData
}

func (c *Cache) DataSource() string {
	if c.IsUsingRealData() {
		return DataSourceLive
	}
	return DataSourceFallback
}

// AddPricePoint samples m into the history, dropping the oldest points
// beyond MaxHistoryPoints. It returns the appended point.
func (c *Cache) AddPricePoint(m models.TokenMetrics) models.PricePoint {
	point := models.PricePoint{
		Timestamp: c.now().UnixMilli(),
		Price:     m.Price,
		Volume:    m.Volume24h / 24,
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, point)
	c.trimHistory()
	return point
}

// PriceHistory returns a copy of the retained history, oldest first.
func (c *Cache) PriceHistory() []models.PricePoint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.history)
}

// InitializePriceHistory seeds synthetic points at SeedSpacing ending now,
// so the chart has data before the first poll lands.
func (c *Cache) InitializePriceHistory() {
	now := c.now()

	points := make([]models.PricePoint, 0, SeedHistoryPoints)
	for i := SeedHistoryPoints - 1; i >= 0; i-- {
		points = append(points, models.PricePoint{
			Timestamp: now.Add(-time.Duration(i) * SeedSpacing).UnixMilli(),
			Price:     models.FallbackPrice + (c.random()-0.5)*seedPriceJitter,
			Volume:    c.random()*seedVolumeSpread + seedVolumeMin,
		})
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, points...)
	c.trimHistory()
}

// trimHistory must be called with mu held.
func (c *Cache) trimHistory() {
	if n := len(c.history) - MaxHistoryPoints; n > 0 {
		copy(c.history, c.history[n:])
		c.history = c.history[:MaxHistoryPoints]
	}
}

func (c *Cache) random() float64 {
	c.rngMu.Lock()
	defer c.rngMu.Unlock()
	return c.rng.Float64()
}
