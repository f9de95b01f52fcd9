package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"bitbucket.org/novatechnologies/marketview/api/http"
	"bitbucket.org/novatechnologies/marketview/client/coingecko"
	"bitbucket.org/novatechnologies/marketview/coin"
	"bitbucket.org/novatechnologies/marketview/domain"
	"bitbucket.org/novatechnologies/marketview/infra"
	"bitbucket.org/novatechnologies/marketview/infra/broker"
	"bitbucket.org/novatechnologies/marketview/market"
)

func main() {
	configPath := flag.String("config", "./config/.env", "optional env file")
	flag.Parse()

	conf, err := infra.SetConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	logger, err := infra.NewLogger(conf.Log)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(infra.GetContext(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := coingecko.New(
		coingecko.Config{
			ServerURL:     conf.CoinGecko.BaseURL,
			APIKey:        conf.CoinGecko.APIKey,
			Timeout:       &conf.CoinGecko.Timeout,
			RatePerMinute: conf.CoinGecko.RatePerMinute,
		},
		coingecko.NewErrorProcessor(map[int]string{}),
	)
	if err != nil {
		logger.Fatal("can't coingecko.New:" + err.Error())
	}

	eventsBroker := broker.NewInMemory().WithLogger(logger)
	subscribeForLogs(eventsBroker, logger)

	// one detail cache for the life of the process, shared by every detail screen
	detailCache := coin.NewCache(conf.Detail.CacheTTL)

	marketScreen := market.NewScreen(
		market.Config{
			IDs:      conf.Market.TrackedAssets,
			Interval: conf.Market.RefreshInterval,
		},
		client,
		eventsBroker,
		logger,
	)
	coinScreen := coin.NewScreen(detailCache, client, eventsBroker, logger)

	server := http.NewServer(marketScreen, coinScreen, conf.HttpConfig.Port, logger)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return server.Start(ctx)
	})
	group.Go(func() error {
		marketScreen.Mount(ctx)
		<-ctx.Done()
		marketScreen.Unmount()
		marketScreen.Wait()
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Stop(shutdownCtx)
		return nil
	})

	if err := group.Wait(); err != nil {
		logger.Errorf("stopped with error: %v", err)
		os.Exit(1)
	}
	logger.Info("bye")
}

func subscribeForLogs(b domain.EventsBroker, logger log.FieldLogger) {
	b.Subscribe(domain.EvTypeMarkets, func(ev *domain.Event) error {
		logger.
			WithField("trigger", ev.GetMeta("trigger")).
			WithField("count", len(ev.MustGetMarkets())).
			Info("market list updated")
		return nil
	})
	b.Subscribe(domain.EvTypeCoinLoaded, func(ev *domain.Event) error {
		logger.
			WithField("id", ev.MustGetCoin().ID).
			Info("coin details fetched")
		return nil
	})
}
