package metrics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/normienation/normie/internal/models"
)

type recordingArchive struct {
	mu     sync.Mutex
	points []models.PricePoint
	err    error
}

func (a *recordingArchive) SavePricePoint(ctx context.Context, point *models.PricePoint) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.points = append(a.points, *point)
	return a.err
}

func (a *recordingArchive) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.points)
}

type recordingSubscriber struct {
	mu      sync.Mutex
	sources []string
	last    models.TokenMetrics
}

func (s *recordingSubscriber) OnMetrics(m models.TokenMetrics, dataSource string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources = append(s.sources, dataSource)
	s.last = m
}

func (s *recordingSubscriber) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sources)
}

func TestPoller_Poll(t *testing.T) {
	clock := newFakeClock()
	prices := &fakePriceSource{quote: liveQuote()}
	c := newTestCache(prices, nil, clock)
	archive := &recordingArchive{}
	sub := &recordingSubscriber{}

	p := NewPoller(PollerConfig{Interval: time.Hour}, c, archive, nil, sub)
	p.ctx = context.Background()

	p.poll()

	history := c.PriceHistory()
	require.Len(t, history, SeedHistoryPoints+1)
	last := history[len(history)-1]
	assert.Equal(t, 0.00001234, last.Price)
	assert.Equal(t, 100.0, last.Volume)

	require.Equal(t, 1, archive.Len())
	assert.Equal(t, last, archive.points[0])

	require.Equal(t, 1, sub.Count())
	assert.Equal(t, DataSourceLive, sub.sources[0])
	assert.Equal(t, c.Metrics(), sub.last)
}

func TestPoller_ArchiveErrorIsAbsorbed(t *testing.T) {
	c := newTestCache(&fakePriceSource{}, nil, newFakeClock())
	archive := &recordingArchive{err: errors.New("db down")}
	sub := &recordingSubscriber{}

	p := NewPoller(PollerConfig{}, c, archive, nil, sub)
	p.ctx = context.Background()

	assert.NotPanics(t, p.poll)
	assert.Equal(t, 1, sub.Count())
	assert.Equal(t, DataSourceFallback, sub.sources[0])
}

func TestPoller_Defaults(t *testing.T) {
	p := NewPoller(PollerConfig{}, nil, nil, nil)
	assert.Equal(t, DefaultPollerConfig(), p.cfg)
}

func TestPoller_StartStop(t *testing.T) {
	prices := &fakePriceSource{quote: liveQuote()}
	c := NewCache(prices, nil)
	sub := &recordingSubscriber{}

	p := NewPoller(PollerConfig{Interval: 10 * time.Millisecond, Timeout: time.Second}, c, nil, nil, sub)
	require.NoError(t, p.Start(context.Background()))

	require.Eventually(t, func() bool {
		return sub.Count() >= 3
	}, 2*time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, p.Stop(ctx))

	// later ticks hit the rate gate but still sample the cached record
	assert.Equal(t, 1, prices.Calls())
	assert.GreaterOrEqual(t, len(c.PriceHistory()), SeedHistoryPoints+3)

	stopped := sub.Count()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, sub.Count())
}
