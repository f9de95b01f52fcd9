package infra

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

type CoinGeckoConfig struct {
	BaseURL       string        `envconfig:"COINGECKO_BASE_URL" default:"https://api.coingecko.com/api/v3"`
	APIKey        string        `envconfig:"COINGECKO_API_KEY"`
	Timeout       time.Duration `envconfig:"COINGECKO_TIMEOUT" default:"10s"`
	RatePerMinute int           `envconfig:"COINGECKO_RATE_PER_MINUTE" default:"30"`
}

type MarketConfig struct {
	RefreshInterval time.Duration `envconfig:"MARKET_REFRESH_INTERVAL" default:"60s"`
	TrackedAssets   []string      `envconfig:"TRACKED_ASSETS" default:"bitcoin,ethereum,solana,dogecoin,cardano,ripple,polkadot,tron,litecoin,chainlink"`
}

type DetailConfig struct {
	CacheTTL time.Duration `envconfig:"DETAIL_CACHE_TTL" default:"5m"`
}

type HttpConfig struct {
	Port int `envconfig:"HTTP_PORT" default:"8080"`
}

type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"text"`
}

type Config struct {
	CoinGecko  CoinGeckoConfig
	Market     MarketConfig
	Detail     DetailConfig
	HttpConfig HttpConfig
	Log        LogConfig
}

// SetConfig reads the optional env file at configPath and then the process
// environment, which wins over the file.
func SetConfig(configPath string) (Config, error) {
	if configPath != "" {
		err := godotenv.Load(configPath)
		if err != nil && !os.IsNotExist(err) {
			return Config{}, errors.Wrapf(err, "failed to load env file %s", configPath)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to load configuration")
	}
	if cfg.CoinGecko.BaseURL == "" {
		return Config{}, errors.New("COINGECKO_BASE_URL must not be empty")
	}
	if len(cfg.Market.TrackedAssets) == 0 {
		return Config{}, errors.New("TRACKED_ASSETS must not be empty")
	}

	return cfg, nil
}

func GetContext() context.Context {
	return context.Background()
}
