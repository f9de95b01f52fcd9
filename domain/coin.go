package domain

import (
	"regexp"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const coinGeckoWebURL = "https://www.coingecko.com/en/coins/"

var htmlTag = regexp.MustCompile(`</?[^>]+(>|$)`)

// AssetDetail is the record returned by /coins/{id} with market data enabled.
type AssetDetail struct {
	ID            string      `json:"id"`
	Symbol        string      `json:"symbol"`
	Name          string      `json:"name"`
	Description   Description `json:"description"`
	Image         ImageSet    `json:"image"`
	MarketCapRank int         `json:"market_cap_rank"`
	MarketData    MarketData  `json:"market_data"`
	GenesisDate   *string     `json:"genesis_date"`
	LastUpdated   string      `json:"last_updated"`
}

type Description struct {
	EN string `json:"en"`
}

type ImageSet struct {
	Thumb string `json:"thumb"`
	Small string `json:"small"`
	Large string `json:"large"`
}

// USD picks the usd quote out of CoinGecko's per-currency maps.
type USD struct {
	USD decimal.Decimal `json:"usd"`
}

type USDDate struct {
	USD string `json:"usd"`
}

type MarketData struct {
	CurrentPrice             USD              `json:"current_price"`
	MarketCap                USD              `json:"market_cap"`
	High24h                  USD              `json:"high_24h"`
	Low24h                   USD              `json:"low_24h"`
	PriceChange24h           decimal.Decimal  `json:"price_change_24h"`
	PriceChangePercentage24h float64          `json:"price_change_percentage_24h"`
	PriceChangePercentage7d  float64          `json:"price_change_percentage_7d"`
	PriceChangePercentage30d float64          `json:"price_change_percentage_30d"`
	ATH                      USD              `json:"ath"`
	ATHDate                  USDDate          `json:"ath_date"`
	ATL                      USD              `json:"atl"`
	ATLDate                  USDDate          `json:"atl_date"`
	TotalVolume              USD              `json:"total_volume"`
	CirculatingSupply        decimal.Decimal  `json:"circulating_supply"`
	TotalSupply              *decimal.Decimal `json:"total_supply"`
	MaxSupply                *decimal.Decimal `json:"max_supply"`
}

func (d AssetDetail) Validate() error {
	if d.ID == "" {
		return errors.Wrapf(ErrMalformedRecord, "asset detail %q has no id", d.Name)
	}
	return nil
}

// Clone returns a copy of d that shares no pointers with it.
func (d AssetDetail) Clone() AssetDetail {
	if d.GenesisDate != nil {
		genesis := *d.GenesisDate
		d.GenesisDate = &genesis
	}
	if d.MarketData.TotalSupply != nil {
		total := *d.MarketData.TotalSupply
		d.MarketData.TotalSupply = &total
	}
	if d.MarketData.MaxSupply != nil {
		maxSupply := *d.MarketData.MaxSupply
		d.MarketData.MaxSupply = &maxSupply
	}
	return d
}

func (d AssetDetail) IsGaining() bool {
	return d.MarketData.PriceChangePercentage24h >= 0
}

// PlainDescription returns the english description with html markup removed.
func (d AssetDetail) PlainDescription() string {
	return htmlTag.ReplaceAllString(d.Description.EN, "")
}

func (d AssetDetail) WebURL() string {
	return coinGeckoWebURL + d.ID
}
