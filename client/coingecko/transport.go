package coingecko

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"bitbucket.org/novatechnologies/marketview/domain"
)

type marketsResponse []domain.MarketSummary

// MarketsTransport transport interface
type MarketsTransport interface {
	EncodeRequest(ctx context.Context, r *resty.Request, ids []string) (err error)
	DecodeResponse(ctx context.Context, r *resty.Response) (markets []domain.MarketSummary, err error)
}

type marketsTransport struct {
	errorProcessor errorProcessor
}

// EncodeRequest method for encoding requests on client side
func (t *marketsTransport) EncodeRequest(ctx context.Context, r *resty.Request, ids []string) (err error) {
	if len(ids) == 0 {
		return &FetchError{Endpoint: endpointMarkets, Err: errors.New("no asset ids requested")}
	}
	r.SetContext(ctx)
	r.SetQueryParams(map[string]string{
		"vs_currency": "usd",
		"ids":         strings.Join(ids, ","),
		"order":       "market_cap_desc",
		"sparkline":   "false",
	})
	return
}

// DecodeResponse method for decoding response on client side
func (t *marketsTransport) DecodeResponse(ctx context.Context, r *resty.Response) (markets []domain.MarketSummary, err error) {
	if !r.IsSuccess() {
		err = t.errorProcessor.Decode(endpointMarkets, r)
		return
	}

	var theResponse marketsResponse
	if err = json.Unmarshal(r.Body(), &theResponse); err != nil {
		err = &FetchError{Endpoint: endpointMarkets, StatusCode: r.StatusCode(), Err: errors.Wrap(err, "decode body")}
		return
	}
	if theResponse == nil {
		err = &FetchError{Endpoint: endpointMarkets, StatusCode: r.StatusCode(), Err: errors.New("empty body")}
		return
	}
	for i := range theResponse {
		if err = theResponse[i].Validate(); err != nil {
			err = &FetchError{Endpoint: endpointMarkets, StatusCode: r.StatusCode(), Err: err}
			return
		}
	}

	markets = theResponse
	return
}

// NewMarketsTransport the transport creator for http requests
func NewMarketsTransport(errorProcessor errorProcessor) MarketsTransport {
	return &marketsTransport{
		errorProcessor: errorProcessor,
	}
}

// CoinTransport transport interface
type CoinTransport interface {
	EncodeRequest(ctx context.Context, r *resty.Request, id string) (err error)
	DecodeResponse(ctx context.Context, r *resty.Response) (detail *domain.AssetDetail, err error)
}

type coinTransport struct {
	errorProcessor errorProcessor
}

// EncodeRequest method for encoding requests on client side
func (t *coinTransport) EncodeRequest(ctx context.Context, r *resty.Request, id string) (err error) {
	if strings.TrimSpace(id) == "" {
		return &FetchError{Endpoint: endpointCoin, Err: errors.New("empty asset id")}
	}
	r.SetContext(ctx)
	r.SetPathParam("id", id)
	r.SetQueryParams(map[string]string{
		"localization":   "false",
		"tickers":        "false",
		"market_data":    "true",
		"community_data": "false",
		"developer_data": "false",
	})
	return
}

// DecodeResponse method for decoding response on client side
func (t *coinTransport) DecodeResponse(ctx context.Context, r *resty.Response) (detail *domain.AssetDetail, err error) {
	if !r.IsSuccess() {
		err = t.errorProcessor.Decode(endpointCoin, r)
		return
	}

	var theResponse domain.AssetDetail
	if err = json.Unmarshal(r.Body(), &theResponse); err != nil {
		err = &FetchError{Endpoint: endpointCoin, StatusCode: r.StatusCode(), Err: errors.Wrap(err, "decode body")}
		return
	}
	if err = theResponse.Validate(); err != nil {
		err = &FetchError{Endpoint: endpointCoin, StatusCode: r.StatusCode(), Err: err}
		return
	}

	detail = &theResponse
	return
}

// NewCoinTransport the transport creator for http requests
func NewCoinTransport(errorProcessor errorProcessor) CoinTransport {
	return &coinTransport{
		errorProcessor: errorProcessor,
	}
}
