package coingecko

import (
	"context"
	"net/url"
	"time"

	"github.com/go-http-utils/headers"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"bitbucket.org/novatechnologies/marketview/domain"
	"bitbucket.org/novatechnologies/marketview/infra/metrics"
)

const (
	httpMethodGet = "GET"

	uriPathMarkets = "/coins/markets"
	uriPathCoin    = "/coins/{id}"

	endpointMarkets = "markets"
	endpointCoin    = "coin"

	headerDemoAPIKey = "x-cg-demo-api-key"

	defaultTimeout = 10 * time.Second
)

// Client is the read-only view of the CoinGecko REST API the viewer needs.
type Client interface {
	Markets(ctx context.Context, ids []string) (markets []domain.MarketSummary, err error)
	Coin(ctx context.Context, id string) (detail *domain.AssetDetail, err error)
}

type client struct {
	cli              *resty.Client
	limiter          *rate.Limiter
	transportMarkets MarketsTransport
	transportCoin    CoinTransport
}

// Markets ...
func (s *client) Markets(ctx context.Context, ids []string) (markets []domain.MarketSummary, err error) {
	defer func() { observe(endpointMarkets, err) }()
	if err = s.wait(ctx, endpointMarkets); err != nil {
		return
	}
	req := s.cli.R()
	if err = s.transportMarkets.EncodeRequest(ctx, req, ids); err != nil {
		return
	}
	res, err := req.Execute(httpMethodGet, uriPathMarkets)
	if err != nil {
		err = &FetchError{Endpoint: endpointMarkets, Err: err}
		return
	}
	return s.transportMarkets.DecodeResponse(ctx, res)
}

// Coin ...
func (s *client) Coin(ctx context.Context, id string) (detail *domain.AssetDetail, err error) {
	defer func() { observe(endpointCoin, err) }()
	if err = s.wait(ctx, endpointCoin); err != nil {
		return
	}
	req := s.cli.R()
	if err = s.transportCoin.EncodeRequest(ctx, req, id); err != nil {
		return
	}
	res, err := req.Execute(httpMethodGet, uriPathCoin)
	if err != nil {
		err = &FetchError{Endpoint: endpointCoin, Err: err}
		return
	}
	return s.transportCoin.DecodeResponse(ctx, res)
}

func (s *client) wait(ctx context.Context, endpoint string) error {
	if s.limiter == nil {
		return nil
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return &FetchError{Endpoint: endpoint, Err: errors.Wrap(err, "rate limiter")}
	}
	return nil
}

func observe(endpoint string, err error) {
	if err != nil {
		metrics.ObserveRequest(endpoint, "failed")
		return
	}
	metrics.ObserveRequest(endpoint, "ok")
}

type Config struct {
	ServerURL string
	// APIKey is sent as the demo plan key when set.
	APIKey  string
	Timeout *time.Duration
	// RatePerMinute caps outgoing requests; zero disables the limiter.
	RatePerMinute int
}

func New(
	config Config,
	errorProcessor errorProcessor,
) (client Client, err error) {
	parsedServerURL, err := url.Parse(config.ServerURL)
	if err != nil {
		err = errors.Wrap(err, "failed to parse server url")
		return
	}
	if parsedServerURL.Scheme == "" || parsedServerURL.Host == "" {
		err = errors.Errorf("server url %q must be absolute", config.ServerURL)
		return
	}

	cli := resty.New()
	cli.SetBaseURL(parsedServerURL.Scheme + "://" + parsedServerURL.Host + parsedServerURL.Path)
	cli.SetTimeout(defaultTimeout)
	if config.Timeout != nil {
		cli.SetTimeout(*config.Timeout)
	}
	cli.SetHeader(headers.Accept, "application/json")
	if config.APIKey != "" {
		cli.SetHeader(headerDemoAPIKey, config.APIKey)
	}

	var limiter *rate.Limiter
	if config.RatePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(config.RatePerMinute)), 1)
	}

	client = newClient(
		cli,
		limiter,
		NewMarketsTransport(errorProcessor),
		NewCoinTransport(errorProcessor),
	)
	return
}

func newClient(
	cli *resty.Client,
	limiter *rate.Limiter,
	transportMarkets MarketsTransport,
	transportCoin CoinTransport,
) Client {
	return &client{
		cli:              cli,
		limiter:          limiter,
		transportMarkets: transportMarkets,
		transportCoin:    transportCoin,
	}
}
