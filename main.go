package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ocpp-monitor/analytics"
	"ocpp-monitor/cache"
	"ocpp-monitor/config"
	"ocpp-monitor/export"
	"ocpp-monitor/handlers"
	"ocpp-monitor/influx"
	"ocpp-monitor/logging"
	"ocpp-monitor/monitor"
	"ocpp-monitor/source"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logging.Init(cfg.Logging.Format != "text", logging.ParseLevel(cfg.Logging.Level))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Log and overstay sources
	httpSource := source.NewHTTPSource(cfg.Source.ServerURL, cfg.Source.Timeout)
	var logSource source.LogSource = httpSource
	if cfg.Source.Kind == "kafka" {
		kafkaSource, err := source.NewKafkaSource(cfg.Kafka, cfg.Source.LogLimit)
		if err != nil {
			log.Fatalf("Failed to create Kafka consumer: %v", err)
		}
		defer kafkaSource.Close()
		go func() {
			if err := kafkaSource.Run(ctx); err != nil {
				slog.Error("kafka consumer stopped", "error", err)
			}
		}()
		logSource = kafkaSource
	}

	// Snapshot publishers
	var publishers []monitor.Publisher
	var snapshotReader handlers.SnapshotReader
	if cfg.Redis.Addr != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.TTL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis at %s: %v", cfg.Redis.Addr, err)
		}
		slog.Info("connected to redis", "addr", cfg.Redis.Addr)
		publishers = append(publishers, redisClient)
		snapshotReader = redisClient
	}
	if cfg.InfluxDB.URL != "" {
		writer, err := influx.NewWriter(ctx, cfg.InfluxDB)
		if err != nil {
			log.Fatalf("Failed to create InfluxDB writer: %v", err)
		}
		slog.Info("connected to influxdb", "url", cfg.InfluxDB.URL)
		publishers = append(publishers, writer)
	}

	var archiver handlers.Archiver
	if cfg.Report.Bucket != "" {
		s3Archiver, err := export.NewS3Archiver(ctx, cfg.Report.Bucket, cfg.Report.Prefix, cfg.Report.Endpoint)
		if err != nil {
			log.Fatalf("Failed to create report archiver: %v", err)
		}
		archiver = s3Archiver
	}

	mon := monitor.New(logSource, httpSource, monitor.Options{
		LogLimit:      cfg.Source.LogLimit,
		OverstayLimit: cfg.Source.OverstayLimit,
		Interval:      cfg.Analysis.RefreshInterval,
		Analysis: analytics.Options{
			MaxPoints:       cfg.Analysis.MaxPoints,
			MaxAnomalies:    cfg.Analysis.MaxAnomalies,
			MaxTransactions: cfg.Analysis.MaxTransactions,
		},
	}, publishers...)
	defer func() {
		if err := mon.Close(); err != nil {
			slog.Warn("close monitor", "error", err)
		}
	}()

	if cfg.Analysis.AutoRefresh {
		mon.StartAutoRefresh(ctx)
	}

	r := handlers.NewRouter(handlers.NewMonitorHandler(ctx, mon, snapshotReader, archiver, httpSource))

	srv := &http.Server{
		Addr:           cfg.HTTP.Addr,
		Handler:        r,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	go func() {
		slog.Info("server starting", "addr", cfg.HTTP.Addr, "source", cfg.Source.Kind)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("server exited")
}
