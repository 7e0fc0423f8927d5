package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/stewardrx/platform/pkg/common/config"
	"github.com/stewardrx/platform/pkg/common/kafka"
	"github.com/stewardrx/platform/pkg/common/logger"
	"github.com/stewardrx/platform/pkg/common/models"
	"github.com/stewardrx/platform/pkg/notify"
	"github.com/stewardrx/platform/pkg/observability/metrics"
)

func main() {
	logger.Init()
	cfg := config.Load()

	channels, err := notify.LoadChannels(cfg.NotifyChannelsPath)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to load notification channels")
	}

	redactor, err := notify.NewRedactor(notify.DefaultRedactionRules())
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to compile redaction rules")
	}

	dispatcher := notify.NewDispatcher(channels, redactor, cfg.NotifyTimeout)

	consumer := kafka.NewConsumer(cfg.AlertTopic, cfg.KafkaGroupID+"-notifier")
	defer consumer.Close()

	handler := func(ctx context.Context, event models.Event) error {
		alertEvent, err := decodeAlertEvent(event)
		if err != nil {
			logger.Log.WithError(err).Error("dropping undecodable alert event")
			return nil
		}

		if err := dispatcher.Dispatch(ctx, alertEvent); err != nil {
			metrics.IncNotificationsFailed()
			logger.Log.WithError(err).Error("alert dispatch failed")
			return nil
		}
		metrics.IncNotificationsSent()
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"topic":    cfg.AlertTopic,
			"channels": len(channels.Channels),
		}).Info("Notifier Service started")

		if err := consumer.Consume(ctx, handler); err != nil && err != context.Canceled {
			logger.Log.WithError(err).Fatal("alert consumer stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Notifier Service...")
	cancel()
	logger.Log.Info("Notifier Service stopped")
}

func decodeAlertEvent(event models.Event) (models.AlertEvent, error) {
	var alertEvent models.AlertEvent

	raw, err := json.Marshal(event.Data)
	if err != nil {
		return alertEvent, fmt.Errorf("re-encoding event data: %w", err)
	}
	if err := json.Unmarshal(raw, &alertEvent); err != nil {
		return alertEvent, fmt.Errorf("decoding alert event: %w", err)
	}
	if alertEvent.AlertID == "" {
		return alertEvent, fmt.Errorf("alert event missing alert id")
	}
	return alertEvent, nil
}
