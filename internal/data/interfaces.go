package data

import (
	"context"

	"github.com/normienation/normie/internal/models"
)

// PriceSource 提供实时价格数据
type PriceSource interface {
	// Name identifies the source in logs
	Name() string

	// FetchQuote retrieves the latest live quote. A nil quote with a nil
	// error means the source answered but had nothing usable.
	FetchQuote(ctx context.Context) (*models.Quote, error)
}

// HolderSource 提供持有人数量
type HolderSource interface {
	// HolderCount returns the best-known holder count; ok is false when
	// the chain gave no signal.
	HolderCount(ctx context.Context) (count int64, ok bool, err error)
}

// PriceArchive 持久化历史价格采样
type PriceArchive interface {
	// SavePricePoint stores one sampled point
	SavePricePoint(ctx context.Context, point *models.PricePoint) error
}
