package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/stewardrx/platform/pkg/alerts"
	"github.com/stewardrx/platform/pkg/common/config"
	"github.com/stewardrx/platform/pkg/common/database"
	"github.com/stewardrx/platform/pkg/common/kafka"
	"github.com/stewardrx/platform/pkg/common/logger"
	"github.com/stewardrx/platform/pkg/coverage"
	"github.com/stewardrx/platform/pkg/microbiology"
	"github.com/stewardrx/platform/pkg/stewardship"
	"github.com/stewardrx/platform/pkg/surveillance"
)

func main() {
	logger.Init()
	cfg := config.Load()

	db, err := database.GetPostgres()
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to postgres")
	}

	alertRepo := alerts.NewRepository(db)
	if err := alertRepo.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate alert tables")
	}

	catalog := microbiology.DefaultCatalog()
	if err := catalog.Validate(); err != nil {
		logger.Log.WithError(err).Fatal("coverage catalog is inconsistent")
	}

	alertProducer := kafka.NewProducer(cfg.AlertTopic)
	defer alertProducer.Close()

	alertSvc := alerts.NewService(alertRepo, alertProducer)

	rdb := database.GetRedis()
	defer database.CloseRedis()

	detector := surveillance.NewDetector(cfg.ClusterWindow, cfg.ClusterThreshold)
	worker := stewardship.NewService(
		coverage.NewAssessor(catalog),
		coverage.NewMatcher(),
		alertSvc,
		rdb,
		detector,
	)

	consumer := kafka.NewConsumer(cfg.CultureTopic, cfg.KafkaGroupID)
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		logger.Log.WithField("topic", cfg.CultureTopic).Info("Stewardship Service started")
		if err := consumer.Consume(ctx, worker.HandleEvent); err != nil && err != context.Canceled {
			logger.Log.WithError(err).Fatal("culture consumer stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Stewardship Service...")
	cancel()
	logger.Log.Info("Stewardship Service stopped")
}
