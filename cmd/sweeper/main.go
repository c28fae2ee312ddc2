// Command sweeper marks past-due donations as expired on a fixed interval.
// The API filters expired rows out of reads lazily; this process makes the
// stored status catch up so stats and external consumers see the truth.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/foodshare/internal/config"
	"github.com/example/foodshare/internal/events"
	"github.com/example/foodshare/internal/lifecycle"
	"github.com/example/foodshare/internal/logging"
	"github.com/example/foodshare/internal/storage"
)

func main() {
	var (
		interval    time.Duration
		once        bool
		metricsAddr string
	)
	flag.DurationVar(&interval, "interval", time.Minute, "sweep interval")
	flag.BoolVar(&once, "once", false, "run a single sweep and exit")
	flag.StringVar(&metricsAddr, "metrics-addr", ":2112", "address to serve prometheus metrics on")
	flag.Parse()

	cfg, cfgErr := config.LoadServerConfig()
	logger := logging.NewLogger(cfg.LogLevel)
	if cfgErr != nil {
		logger.Error("invalid configuration", "error", cfgErr)
		os.Exit(1)
	}
	if cfg.PGDSN == "" {
		logger.Error("PG_DSN is required for the sweeper")
		os.Exit(1)
	}

	pg, err := storage.NewPostgres(cfg.PGDSN)
	if err != nil {
		logger.Error("postgres connect failed", "error", err)
		os.Exit(1)
	}
	defer pg.Close()

	var pub events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kp.Close()
		pub = kp
	}

	engine := lifecycle.NewEngine(pg, pub, logger)

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
		logger.Info("metrics listening", "addr", metricsAddr)
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			logger.Error("metrics server stopped", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweep := func() {
		n, err := engine.SweepExpired(ctx)
		if err != nil {
			logger.Error("sweep failed", "error", err)
			return
		}
		if n > 0 {
			logger.Info("donations expired", "count", n)
		}
	}

	sweep()
	if once {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			sweep()
		}
	}
}
