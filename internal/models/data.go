package models

import "time"

// TokenInfo 代币静态描述
type TokenInfo struct {
	Address  string `json:"address"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
	Telegram string `json:"telegram"`
	Twitter  string `json:"twitter"`
}

// NormieToken is the token this backend serves.
var NormieToken = TokenInfo{
	Address:  "FrSFwE2BxWADEyUWFXDMAeomzuB4r83ZvzdG9sevpump",
	Name:     "NORMIE",
	Symbol:   "$NORMIE",
	Decimals: 6,
	Telegram: "@TheNormieNation",
	Twitter:  "@NormieCEO",
}

// TokenMetrics 代币市场指标
type TokenMetrics struct {
	Price              float64 `json:"price"`
	PriceChange24h     float64 `json:"priceChange24h"`
	MarketCap          float64 `json:"marketCap"`
	MarketCapChange24h float64 `json:"marketCapChange24h"`
	Volume24h          float64 `json:"volume24h"`
	Liquidity          float64 `json:"liquidity"`
	TotalSupply        float64 `json:"totalSupply"`
	CirculatingSupply  float64 `json:"circulatingSupply"`
	BurnedTokens       float64 `json:"burnedTokens"`
	LockedTokens       float64 `json:"lockedTokens"`
	Holders            int64   `json:"holders"`
	LastUpdated        string  `json:"lastUpdated"`
}

// PricePoint 历史价格采样
type PricePoint struct {
	Timestamp int64   `json:"timestamp"` // epoch ms
	Price     float64 `json:"price"`
	Volume    float64 `json:"volume"`
}

// Quote is the live subset of TokenMetrics a price source can provide.
type Quote struct {
	Price          float64 `json:"price"`
	PriceChange24h float64 `json:"priceChange24h"`
	MarketCap      float64 `json:"marketCap"`
	Volume24h      float64 `json:"volume24h"`
	Liquidity      float64 `json:"liquidity"`
}

// 备用数据: 上游不可用时使用
const (
	FallbackPrice              = 0.0000285
	FallbackPriceChange24h     = 12.5
	FallbackMarketCap          = 28500
	FallbackMarketCapChange24h = 12.5
	FallbackVolume24h          = 8420
	FallbackLiquidity          = 15200
	FallbackTotalSupply        = 1_000_000_000
	FallbackCirculatingSupply  = 1_000_000_000
	FallbackBurnedTokens       = 0
	FallbackLockedTokens       = 0
	FallbackHolders            = 1247
)

// FallbackMetrics returns the static default record. LastUpdated is left
// empty; callers stamp it.
func FallbackMetrics() TokenMetrics {
	return TokenMetrics{
		Price:              FallbackPrice,
		PriceChange24h:     FallbackPriceChange24h,
		MarketCap:          FallbackMarketCap,
		MarketCapChange24h: FallbackMarketCapChange24h,
		Volume24h:          FallbackVolume24h,
		Liquidity:          FallbackLiquidity,
		TotalSupply:        FallbackTotalSupply,
		CirculatingSupply:  FallbackCirculatingSupply,
		BurnedTokens:       FallbackBurnedTokens,
		LockedTokens:       FallbackLockedTokens,
		Holders:            FallbackHolders,
	}
}

// FormatTimestamp renders t the way lastUpdated and _meta.timestamp are
// serialised (ISO-8601, UTC, millisecond precision).
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
