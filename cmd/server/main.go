package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/example/foodshare/internal/analytics"
	"github.com/example/foodshare/internal/auth"
	"github.com/example/foodshare/internal/config"
	"github.com/example/foodshare/internal/coordinator"
	"github.com/example/foodshare/internal/events"
	httpapi "github.com/example/foodshare/internal/http"
	"github.com/example/foodshare/internal/lifecycle"
	"github.com/example/foodshare/internal/logging"
	"github.com/example/foodshare/internal/storage"
)

func main() {
	cfg, cfgErr := config.LoadServerConfig()
	logger := logging.NewLogger(cfg.LogLevel)
	if cfgErr != nil {
		logger.Error("invalid configuration", "error", cfgErr)
		os.Exit(1)
	}

	var store storage.Store
	if cfg.PGDSN != "" {
		pg, err := storage.NewPostgres(cfg.PGDSN)
		if err != nil {
			logger.Error("postgres connect failed", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		if cfg.RunMigrations {
			if b, err := os.ReadFile(filepath.Join("migrations", "001_create_tables.sql")); err != nil {
				logger.Error("migration read failed", "error", err)
			} else if err := pg.Exec(string(b)); err != nil {
				logger.Error("migration exec failed", "error", err)
				os.Exit(1)
			} else {
				logger.Info("migration applied", "file", "001_create_tables.sql")
			}
		}
		store = pg
	} else {
		logger.Warn("PG_DSN not set, using in-memory store")
		store = storage.NewMemory()
	}

	var resolver auth.Resolver
	var directory auth.Directory
	if cfg.RedisAddr != "" {
		rr := auth.NewRedisResolver(cfg.RedisAddr, cfg.RedisPassword)
		resolver, directory = rr, rr
	} else {
		logger.Warn("REDIS_ADDR not set, using in-memory sessions")
		mr := auth.NewMemoryResolver()
		resolver, directory = mr, mr
	}

	var pub events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kp.Close()
		pub = kp
	}

	donations := lifecycle.NewEngine(store, pub, logger)
	coord := coordinator.New(store, pub, logger)
	orders := analytics.NewAggregator(store, directory, logger)
	orders.FeedbackListLimit = cfg.FeedbackListLimit

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpapi.NewServer(donations, coord, orders, resolver, logger),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		logger.Info("foodshare api listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("server stopped")
}
