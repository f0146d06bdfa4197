package dexscreener

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/normienation/normie/internal/models"
	"github.com/normienation/normie/internal/utils/request"
)

const DefaultBaseURL = "https://api.dexscreener.com"

type DexScreenerDataSource struct {
	baseURL    string
	address    string
	httpClient *resty.Client
}

func NewDexScreenerDataSource(baseURL, address string, timeout time.Duration, retryCount int) *DexScreenerDataSource {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &DexScreenerDataSource{
		baseURL:    baseURL,
		address:    address,
		httpClient: request.New(timeout, retryCount),
	}
}

func (d *DexScreenerDataSource) Name() string {
	return "dexscreener"
}

type tokenPairsResponse struct {
	Pairs []pair `json:"pairs"`
}

type pair struct {
	PriceUsd    string `json:"priceUsd"`
	PriceChange struct {
		H24 float64 `json:"h24"`
	} `json:"priceChange"`
	MarketCap float64 `json:"marketCap"`
	Fdv       float64 `json:"fdv"`
	Volume    struct {
		H24 float64 `json:"h24"`
	} `json:"volume"`
	Liquidity *struct {
		Usd float64 `json:"usd"`
	} `json:"liquidity"`
}

// FetchQuote reads the first (most liquid) pair for the token. An empty
// pairs list is not an error: it yields a nil quote.
func (d *DexScreenerDataSource) FetchQuote(ctx context.Context) (*models.Quote, error) {
	url := fmt.Sprintf("%s/latest/dex/tokens/%s", d.baseURL, d.address)

	resp, err := d.httpClient.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode())
	}

	var result tokenPairsResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Pairs) == 0 {
		return nil, nil
	}

	return toQuote(result.Pairs[0]), nil
}

// toQuote treats zero and missing fields alike and substitutes the
// fallback constant, except for the 24h change which defaults to 0.
func toQuote(p pair) *models.Quote {
	q := &models.Quote{
		Price:          models.FallbackPrice,
		PriceChange24h: p.PriceChange.H24,
		MarketCap:      models.FallbackMarketCap,
		Volume24h:      models.FallbackVolume24h,
		Liquidity:      models.FallbackLiquidity,
	}

	if price, err := decimal.NewFromString(p.PriceUsd); err == nil && !price.IsZero() {
		q.Price = price.InexactFloat64()
	}

	switch {
	case p.MarketCap != 0:
		q.MarketCap = p.MarketCap
	case p.Fdv != 0:
		q.MarketCap = p.Fdv
	}

	if p.Volume.H24 != 0 {
		q.Volume24h = p.Volume.H24
	}

	if p.Liquidity != nil && p.Liquidity.Usd != 0 {
		q.Liquidity = p.Liquidity.Usd
	}

	return q
}
