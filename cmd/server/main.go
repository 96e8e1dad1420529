package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"

	"github.com/dya-app/dya-go/internal/clients/coingecko"
	"github.com/dya-app/dya-go/internal/clients/subgraph"
	"github.com/dya-app/dya-go/internal/config"
	"github.com/dya-app/dya-go/internal/database"
	"github.com/dya-app/dya-go/internal/modules/alerts"
	"github.com/dya-app/dya-go/internal/modules/portfolio"
	"github.com/dya-app/dya-go/internal/modules/prices"
	"github.com/dya-app/dya-go/internal/notify"
	"github.com/dya-app/dya-go/internal/providers"
	"github.com/dya-app/dya-go/internal/scheduler"
	"github.com/dya-app/dya-go/internal/server"
	"github.com/dya-app/dya-go/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting DYA backend")

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Price lookup
	quoteClient := coingecko.NewClient(coingecko.Config{
		BaseURL:   cfg.CoinGeckoBaseURL,
		DemoKey:   cfg.CoinGeckoDemoKey,
		ProKey:    cfg.CoinGeckoProKey,
		ProxyHost: cfg.ProxyHost,
		ProxyPort: cfg.ProxyPort,
		Timeout:   cfg.FetchTimeout,
	}, log)
	priceService := prices.NewService(quoteClient, prices.DefaultRegistry(), cfg.PriceCacheTTL, log)

	// Position providers, in portfolio display order
	thresholds := portfolio.DefaultRiskThresholds()
	providerList := buildProviders(cfg, thresholds, priceService, log)

	portfolioService := portfolio.NewService(providerList, cfg.FetchTimeout, log)

	// Alerting
	aprStore := alerts.NewAPRStore()
	if cfg.AprSnapshotPath != "" {
		if err := aprStore.LoadSnapshot(cfg.AprSnapshotPath); err != nil {
			log.Warn().Err(err).Msg("Failed to restore APR baselines, starting empty")
		}
	}
	evaluator := alerts.NewEvaluator(aprStore, thresholds, log)
	subscriptions := alerts.NewSubscriptionRepository(db.Conn(), log)

	var dispatcher alerts.Dispatcher
	if cfg.SendGridAPIKey != "" {
		dispatcher = notify.NewNotifier([]notify.Sender{
			notify.NewSendGridSender(cfg.SendGridAPIKey, cfg.AlertFromEmail),
		}, log)
	} else {
		log.Info().Msg("SENDGRID_API_KEY not set, alert delivery disabled")
	}

	// Background jobs
	sched := scheduler.New(log)
	registerJobs(sched, cfg, priceService, aprStore, log)
	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
		Log:       log,
		Portfolio: portfolio.NewHandler(portfolioService, log),
		Alerts:    alerts.NewHandler(portfolioService, evaluator, subscriptions, dispatcher, log),
		Prices:    prices.NewHandler(priceService, log),
		System:    server.NewSystemHandlers(log, sched, priceService, aprStore),
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

func buildProviders(
	cfg *config.Config,
	thresholds portfolio.RiskThresholds,
	priceService *prices.Service,
	log zerolog.Logger,
) []portfolio.Provider {
	aaveGraph := subgraph.NewClient(cfg.AaveSubgraphURL, cfg.FetchTimeout, log)
	uniswapGraph := subgraph.NewClient(cfg.UniswapSubgraphURL, cfg.FetchTimeout, log)

	list := []portfolio.Provider{
		providers.NewAaveProvider(aaveGraph, thresholds, log),
	}

	if rpcURL := cfg.RPCURL(); rpcURL != "" {
		eth, err := ethclient.Dial(rpcURL)
		if err != nil {
			log.Warn().Err(err).Msg("Ethereum RPC unavailable, Compound provider disabled")
		} else {
			list = append(list, providers.NewCompoundProvider(eth, providers.DefaultCompoundTokens(), priceService, log))
		}
	} else {
		log.Info().Msg("No Ethereum RPC configured, Compound provider disabled")
	}

	list = append(list, providers.NewUniswapProvider(uniswapGraph, log))
	return list
}

func registerJobs(
	sched *scheduler.Scheduler,
	cfg *config.Config,
	priceService *prices.Service,
	aprStore *alerts.APRStore,
	log zerolog.Logger,
) {
	if cfg.PriceRefreshEvery > 0 {
		schedule := fmt.Sprintf("@every %s", cfg.PriceRefreshEvery)
		job := prices.NewRefreshJob(priceService, cfg.FetchTimeout, log)
		if err := sched.AddJob(schedule, job); err != nil {
			log.Error().Err(err).Msg("Failed to register price refresh job")
		}
	}

	maintenance := alerts.NewMaintenanceJob(aprStore, cfg.AprRetention, cfg.AprSnapshotPath, log)
	if err := sched.AddJob("@hourly", maintenance); err != nil {
		log.Error().Err(err).Msg("Failed to register APR maintenance job")
	}
}
