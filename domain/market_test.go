package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarketSummary_UnmarshalNullableFields(t *testing.T) {
	body := `{
		"id": "ethereum",
		"symbol": "eth",
		"name": "Ethereum",
		"current_price": 3456.78,
		"market_cap_rank": 2,
		"fully_diluted_valuation": null,
		"total_supply": null,
		"max_supply": null,
		"price_change_percentage_24h": -1.25,
		"ath_date": "2021-11-10T14:24:19.604Z",
		"roi": {"times": 42.1, "currency": "btc", "percentage": 4210}
	}`

	var m MarketSummary
	require.NoError(t, json.Unmarshal([]byte(body), &m))
	assert.Equal(t, "3456.78", m.CurrentPrice.String())
	assert.Nil(t, m.FullyDilutedValuation)
	assert.Nil(t, m.TotalSupply)
	assert.Nil(t, m.MaxSupply)
	require.NotNil(t, m.ROI)
	assert.Equal(t, "btc", m.ROI.Currency)
	assert.Equal(t, 2021, m.ATHDate.Year())
	assert.False(t, m.IsGaining())
	assert.NoError(t, m.Validate())
}

func TestValidate_EmptyID(t *testing.T) {
	assert.ErrorIs(t, MarketSummary{Name: "x"}.Validate(), ErrMalformedRecord)
	assert.ErrorIs(t, AssetDetail{Name: "x"}.Validate(), ErrMalformedRecord)
}

func TestAssetDetail_PlainDescription(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "links",
			in:   `Bitcoin is the first <a href="https://www.coingecko.com/en?hashing_algorithm=SHA-256">SHA-256</a> coin.`,
			want: "Bitcoin is the first SHA-256 coin.",
		},
		{
			name: "unterminated tag",
			in:   "Plain text <br",
			want: "Plain text ",
		},
		{
			name: "no markup",
			in:   "Nothing to strip",
			want: "Nothing to strip",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := AssetDetail{Description: Description{EN: tt.in}}
			assert.Equal(t, tt.want, d.PlainDescription())
		})
	}
}

func TestAssetDetail_WebURL(t *testing.T) {
	assert.Equal(t, "https://www.coingecko.com/en/coins/bitcoin", AssetDetail{ID: "bitcoin"}.WebURL())
}

func TestAssetDetail_CloneSharesNoPointers(t *testing.T) {
	genesis := "2009-01-03"
	total := decimal.NewFromInt(19000000)
	d := AssetDetail{ID: "bitcoin", GenesisDate: &genesis}
	d.MarketData.TotalSupply = &total

	c := d.Clone()
	require.NotNil(t, c.GenesisDate)
	require.NotNil(t, c.MarketData.TotalSupply)
	assert.NotSame(t, d.GenesisDate, c.GenesisDate)
	assert.NotSame(t, d.MarketData.TotalSupply, c.MarketData.TotalSupply)
	assert.Equal(t, genesis, *c.GenesisDate)
	assert.Nil(t, c.MarketData.MaxSupply)

	assert.Nil(t, AssetDetail{ID: "tron"}.Clone().GenesisDate)
}
