package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"kairos/internal/app/vault"
	"kairos/internal/config"
	"kairos/internal/ledger"
	"kairos/internal/logging"
	"kairos/internal/oracle"
	"kairos/internal/resolver"
	"kairos/internal/settle"
	"kairos/internal/store"
	httptransport "kairos/internal/transport/http"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

func main() {
	logCfg, err := config.LoadLog()
	if err != nil {
		panic(err)
	}
	logging.Init(logCfg)
	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatal().Err(err).Msg("load server config failed")
	}
	if len(cfg.Symbols) == 0 {
		log.Fatal().Msg("at least one symbol required")
	}

	st, err := store.New(cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	if err := st.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("db ping failed")
	}
	if cfg.AutoMigrate {
		if err := applyMigrations(st); err != nil {
			log.Fatal().Err(err).Msg("auto migrate failed")
		}
	}

	tieEpsilon, err := decimal.NewFromString(cfg.TieEpsilon)
	if err != nil {
		log.Fatal().Err(err).Str("tie_epsilon", cfg.TieEpsilon).Msg("invalid tie epsilon")
	}

	tickerClient := &http.Client{Timeout: 10 * time.Second}
	prices := oracle.New([]oracle.Source{
		oracle.NewBinanceSource(cfg.BinanceBaseURL, tickerClient),
		oracle.NewCoinbaseSource(cfg.CoinbaseBaseURL, tickerClient),
		oracle.NewOKXSource(cfg.OKXBaseURL, tickerClient),
	}, oracle.Options{
		SourceTimeout: time.Duration(cfg.OracleSourceTimeoutMS) * time.Millisecond,
		Budget:        time.Duration(cfg.OracleBudgetMS) * time.Millisecond,
		MaxAge:        time.Duration(cfg.OracleMaxAgeSec) * time.Second,
	})

	led := ledger.New(st, cfg.StakeUnit, time.Duration(cfg.FutureBufferSec)*time.Second)
	engine := settle.New(st, prices, settle.Options{
		FeeBps:     cfg.FeeBps,
		TieEpsilon: tieEpsilon,
	})
	engine.Start(context.Background())
	defer engine.Close()

	if cfg.ResolverEnabled {
		worker := resolver.New(st, engine, prices, resolver.Config{
			Symbol:       cfg.Symbols[0],
			TimeframeSec: cfg.RoundDurationSec,
			PollInterval: time.Duration(cfg.ResolverPollSec) * time.Second,
		})
		worker.Start(context.Background())
		defer worker.Close()
	}

	svc := vault.NewService(st, led, engine, prices, cfg.Symbols, cfg.RoundDurationSec)
	r := httptransport.NewRouter(httptransport.Deps{
		Vault:       svc,
		Public:      httptransport.NewPublicHandlers(svc, st),
		AdminAPIKey: cfg.AdminAPIKey,
	})
	httptransport.LogRoutes(r)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Info().Str("addr", cfg.HTTPAddr).Str("market", cfg.Symbols[0]).Msg("http listening")
	log.Fatal().Err(server.ListenAndServe()).Msg("server stopped")
}

func applyMigrations(st *store.Store) error {
	b, err := os.ReadFile("migrations/000001_init.up.sql")
	if err != nil {
		return err
	}
	_, err = st.DB.ExecContext(context.Background(), string(b))
	return err
}
