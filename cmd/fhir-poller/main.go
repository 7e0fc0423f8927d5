package main

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stewardrx/platform/pkg/common/config"
	"github.com/stewardrx/platform/pkg/common/kafka"
	"github.com/stewardrx/platform/pkg/common/logger"
	"github.com/stewardrx/platform/pkg/fhir"
	"github.com/stewardrx/platform/pkg/observability/metrics"
)

func main() {
	logger.Init()
	cfg := config.Load()

	client := fhir.NewClient(fhir.Options{
		BaseURL:      cfg.FHIRBaseURL,
		TokenURL:     cfg.FHIRTokenURL,
		ClientID:     cfg.FHIRClientID,
		ClientSecret: cfg.FHIRClientSecret,
		Scopes:       cfg.FHIRScopes,
		Timeout:      cfg.FHIRTimeout,
	})

	producer := kafka.NewProducer(cfg.CultureTopic)
	defer producer.Close()

	poller := fhir.NewPoller(client, fhir.NewTransformer(), producer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runPoll := func() {
		// Small jitter so multiple pollers never hit the FHIR server in
		// lockstep.
		time.Sleep(time.Duration(rand.Int63n(int64(5 * time.Second))))

		pollCtx, pollCancel := context.WithTimeout(ctx, cfg.PollInterval)
		defer pollCancel()

		published, err := poller.Poll(pollCtx)
		if err != nil {
			logger.Log.WithError(err).Error("poll cycle failed")
			return
		}
		metrics.IncPollsCompleted()
		logger.Log.WithField("published", published).Info("Poll cycle complete")
	}

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"fhir_base": cfg.FHIRBaseURL,
			"interval":  cfg.PollInterval.String(),
		}).Info("FHIR Poller started")

		runPoll()

		ticker := time.NewTicker(cfg.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				runPoll()
			case <-ctx.Done():
				return
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down FHIR Poller...")
	cancel()
	logger.Log.Info("FHIR Poller stopped")
}
