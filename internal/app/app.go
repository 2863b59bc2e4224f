package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"customer-insights-engine/internal/api"
	"customer-insights-engine/internal/config"
	"customer-insights-engine/internal/dataset"
	"customer-insights-engine/internal/engine"
	"customer-insights-engine/internal/listener"
	"customer-insights-engine/internal/storage"
)

// Run wires the service together and blocks until SIGINT/SIGTERM.
func Run(cfg config.Config) {
	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Backing source
	var (
		src   dataset.Source
		store *storage.Store
	)
	switch cfg.Dataset.Source {
	case "postgres":
		st, err := storage.New(rootCtx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("init storage")
		}
		defer st.Close()
		src, store = st, st
	default:
		src = dataset.NewFileSource(cfg.Dataset.Path)
	}

	// Loader + engine
	ld := dataset.NewLoader(src)
	eng := engine.NewEngine(ld, cfg.Engine.Workers)

	// Warm the cache up front; a failure is not fatal since every query
	// retries the load lazily until the source becomes readable.
	if cs, err := ld.ReadCustomers(rootCtx); err != nil {
		log.Warn().Err(err).Msg("initial dataset load failed; queries will retry")
	} else {
		log.Info().Str("source", ld.Source()).Int("customers", len(cs)).Msg("dataset loaded")
	}

	// HTTP
	h := api.NewHandler(eng, ld)
	r := api.Router(h)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Reload on LISTEN/NOTIFY when the dataset lives in Postgres
	if store != nil {
		go listener.ListenAndReload(rootCtx, store, ld, cfg.Listener.Channel, cfg.Backoff())
	}

	// Server goroutine
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("http server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server crashed")
		}
	}()

	// Wait for signal
	waitForSignal()
	log.Info().Msg("shutdown...")

	// Graceful shutdown
	shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	cancel() // stop background goroutines
	_ = srv.Shutdown(shCtx)
}

func waitForSignal() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
}
