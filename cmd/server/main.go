package main

import (
	"context"
	"log"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Edgar-Del/malaria-predict-mono/internal/alerts"
	"github.com/Edgar-Del/malaria-predict-mono/internal/api"
	"github.com/Edgar-Del/malaria-predict-mono/internal/config"
	"github.com/Edgar-Del/malaria-predict-mono/internal/db"
	"github.com/Edgar-Del/malaria-predict-mono/internal/kafka"
	"github.com/Edgar-Del/malaria-predict-mono/internal/logging"
	"github.com/Edgar-Del/malaria-predict-mono/internal/ml/store"
	"github.com/Edgar-Del/malaria-predict-mono/internal/observability"
	"github.com/Edgar-Del/malaria-predict-mono/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Dir, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbConn, err := db.New(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	defer dbConn.Close()

	if err := dbConn.ApplySchema(ctx); err != nil {
		log.Fatalf("Schema migration failed: %v", err)
	}

	metrics := observability.New(prometheus.DefaultRegisterer)

	artifacts := store.NewFileStore(cfg.Model.Path)
	svc := service.New(dbConn, artifacts, cfg.ML, logger, metrics)
	if err := svc.LoadModel(); err != nil {
		logger.Errorf("Failed to load model artifact: %v", err)
	}

	var wg sync.WaitGroup
	alertSvc := alerts.New(dbConn, logger, cfg, metrics)
	alertSvc.Start(&wg)
	defer alertSvc.Stop()

	if cfg.Kafka.Enabled {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, dbConn, logger, metrics)
		defer consumer.Close()
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Run(ctx); err != nil {
				logger.Errorf("Kafka consumer stopped: %v", err)
			}
		}()
		logger.Infof("Kafka consumer started on topic %s", cfg.Kafka.Topic)
	}

	router := api.NewRouter(dbConn, svc, alertSvc, logger, cfg)
	logger.Infof("Starting API server on %s", cfg.API.Addr)
	if err := router.Run(cfg.API.Addr); err != nil {
		logger.Errorf("API server failed: %v", err)
	}
}
