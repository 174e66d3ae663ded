package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/gommon/log"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"meatdash/internal/api"
	"meatdash/internal/config"
	"meatdash/internal/engine"
)

func main() {
	logger := log.New("meatdash")
	logger.SetHeader(`${time_rfc3339} ${level} ${prefix} ${short_file}:${line}`)

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	logger.SetLevel(cfg.Level())

	// 1. Initialize Echo (Starts Instantly)
	// The API is "live" but answers 503 until the dataset is published.
	h := api.NewHandler(nil, logger)
	e := api.NewServer(h, logger, cfg.RateLimit)

	// 2. Load the dataset in the background. A bad dataset is fatal.
	go func() {
		t0 := time.Now()
		store, err := loadStore(cfg, logger)
		if err != nil {
			logger.Fatalf("dataset: %v", err)
		}
		h.SetData(store)
		logger.Infof("dataset ready in %v, API is fully ready", time.Since(t0))
	}()

	// 3. Start Server
	go func() {
		logger.Infof("server ready on %s (data loading in background...)", cfg.Addr())
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}

func loadStore(cfg *config.Config, logger *log.Logger) (*engine.Store, error) {
	loader := engine.NewLoader(logger)
	if cfg.DataDriver == "" {
		return loader.LoadCSV(cfg.DataPath)
	}

	db, err := sql.Open(cfg.DataDriver, cfg.DataDSN)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	return loader.LoadSQL(ctx, db, cfg.DataTable)
}
