package domain

import (
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ErrMalformedRecord is returned by Validate when the remote source sent a
// record that can't be keyed.
var ErrMalformedRecord = errors.New("malformed record")

// TrackedAssetIDs is the fixed universe the market list asks for.
var TrackedAssetIDs = []string{
	"bitcoin",
	"ethereum",
	"solana",
	"dogecoin",
	"cardano",
	"ripple",
	"polkadot",
	"tron",
	"litecoin",
	"chainlink",
}

// MarketSummary is one row of the market list as returned by /coins/markets.
type MarketSummary struct {
	ID                           string           `json:"id"`
	Symbol                       string           `json:"symbol"`
	Name                         string           `json:"name"`
	Image                        string           `json:"image"`
	CurrentPrice                 decimal.Decimal  `json:"current_price"`
	MarketCap                    decimal.Decimal  `json:"market_cap"`
	MarketCapRank                int              `json:"market_cap_rank"`
	FullyDilutedValuation        *decimal.Decimal `json:"fully_diluted_valuation"`
	TotalVolume                  decimal.Decimal  `json:"total_volume"`
	High24h                      decimal.Decimal  `json:"high_24h"`
	Low24h                       decimal.Decimal  `json:"low_24h"`
	PriceChange24h               decimal.Decimal  `json:"price_change_24h"`
	PriceChangePercentage24h     float64          `json:"price_change_percentage_24h"`
	MarketCapChange24h           decimal.Decimal  `json:"market_cap_change_24h"`
	MarketCapChangePercentage24h float64          `json:"market_cap_change_percentage_24h"`
	CirculatingSupply            decimal.Decimal  `json:"circulating_supply"`
	TotalSupply                  *decimal.Decimal `json:"total_supply"`
	MaxSupply                    *decimal.Decimal `json:"max_supply"`
	ATH                          decimal.Decimal  `json:"ath"`
	ATHChangePercentage          float64          `json:"ath_change_percentage"`
	ATHDate                      time.Time        `json:"ath_date"`
	ATL                          decimal.Decimal  `json:"atl"`
	ATLChangePercentage          float64          `json:"atl_change_percentage"`
	ATLDate                      time.Time        `json:"atl_date"`
	ROI                          *ROI             `json:"roi"`
	LastUpdated                  time.Time        `json:"last_updated"`
}

type ROI struct {
	Times      float64 `json:"times"`
	Currency   string  `json:"currency"`
	Percentage float64 `json:"percentage"`
}

func (m MarketSummary) Validate() error {
	if m.ID == "" {
		return errors.Wrapf(ErrMalformedRecord, "market summary %q has no id", m.Name)
	}
	return nil
}

// IsGaining reports whether the price is flat or up over the last 24h.
func (m MarketSummary) IsGaining() bool {
	return m.PriceChangePercentage24h >= 0
}
