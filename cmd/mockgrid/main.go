package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/meftunca/mockgrid/pkg/api"
	"github.com/meftunca/mockgrid/pkg/config"
	"github.com/meftunca/mockgrid/pkg/harness"
	"github.com/meftunca/mockgrid/pkg/logging"
	"github.com/meftunca/mockgrid/pkg/metrics"
	"github.com/meftunca/mockgrid/pkg/version"
)

func main() {
	configPath := flag.String("config", "", "path to config file (yaml)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting mockgrid",
		zap.String("version", version.Version),
		zap.Int("nodes", cfg.Harness.NodeCount()),
		zap.String("default_host", cfg.Harness.DefaultHost),
		zap.Int("base_port", cfg.Harness.BasePort))

	var harnessMetrics *metrics.HarnessMetrics
	if cfg.Monitoring.Enabled {
		harnessMetrics = metrics.NewHarnessMetrics("mockgrid")

		metricsAddr := fmt.Sprintf(":%d", cfg.Monitoring.MetricsPort)
		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.Monitoring.MetricsPath, harnessMetrics.GetHTTPHandler())
		go func() {
			logger.Info("metrics endpoint listening",
				zap.String("addr", metricsAddr),
				zap.String("path", cfg.Monitoring.MetricsPath))
			if err := http.ListenAndServe(metricsAddr, metricsMux); err != nil {
				logger.Error("metrics endpoint failed", zap.Error(err))
			}
		}()
	}

	opts := []harness.Option{harness.WithLogger(logger.Named("harness"))}
	if harnessMetrics != nil {
		opts = append(opts, harness.WithMetrics(harnessMetrics))
	}
	h := harness.New(cfg.Harness, opts...)

	server := api.NewServer(cfg.API, h, logger.Named("api"))
	h.AddListener(server.Feed())

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("API server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")
	if err := server.Stop(); err != nil {
		logger.Error("API server shutdown fault", zap.Error(err))
	}
	h.StopAll()
	logger.Info("stopped")
}
