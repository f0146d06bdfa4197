package collector

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/normienation/normie/internal/data"
	"github.com/normienation/normie/internal/models"
)

// MultiSourceCollector implements data.PriceSource by trying several
// sources in order
type MultiSourceCollector struct {
	sources []data.PriceSource
	logger  *zap.Logger
}

func NewMultiSourceCollector(sources []data.PriceSource, logger *zap.Logger) *MultiSourceCollector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MultiSourceCollector{
		sources: sources,
		logger:  logger,
	}
}

func (c *MultiSourceCollector) Name() string {
	return "multi"
}

// FetchQuote returns the first usable quote. When no source has one the
// quote is nil, and the error joins every source failure (nil if every
// source simply had no data).
func (c *MultiSourceCollector) FetchQuote(ctx context.Context) (*models.Quote, error) {
	var errs []error

	for _, source := range c.sources {
		quote, err := source.FetchQuote(ctx)
		if err != nil {
			c.logger.Error("failed to fetch quote", zap.String("source", source.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", source.Name(), err))
			continue
		}
		if quote == nil {
			c.logger.Info("no pairs found for token", zap.String("source", source.Name()))
			continue
		}

		c.logger.Info("collected live quote",
			zap.String("source", source.Name()),
			zap.Float64("price", quote.Price),
		)
		return quote, nil
	}

	return nil, errors.Join(errs...)
}
