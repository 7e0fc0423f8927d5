package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/stewardrx/platform/pkg/common/logger"
	"github.com/stewardrx/platform/pkg/common/models"
)

// Dispatcher fans an alert event out to every matching channel. Delivery is
// best-effort per channel: one failing webhook does not block the others.
type Dispatcher struct {
	channels []Channel
	redactor *Redactor
	client   *http.Client
}

func NewDispatcher(cfg ChannelsConfig, redactor *Redactor, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		channels: cfg.Channels,
		redactor: redactor,
		client:   &http.Client{Timeout: timeout},
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, alert models.AlertEvent) error {
	payload := map[string]interface{}{
		"alert_id":   alert.AlertID,
		"severity":   alert.Severity,
		"category":   alert.Category,
		"location":   alert.Location,
		"summary":    alert.Summary,
		"details":    alert.Details,
		"patient":    alert.Patient,
		"created_at": alert.CreatedAt,
	}
	payload = d.redactor.RedactMap(payload)

	var failures int
	for _, channel := range d.channels {
		if !channel.Matches(alert.Severity) {
			continue
		}
		if err := d.deliver(ctx, channel, payload); err != nil {
			failures++
			logger.Log.WithError(err).WithFields(map[string]interface{}{
				"channel":  channel.Name,
				"alert_id": alert.AlertID,
			}).Error("notification delivery failed")
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d channel deliveries failed", failures)
	}
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, channel Channel, payload map[string]interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, channel.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("channel %s returned %d", channel.Name, resp.StatusCode)
	}

	logger.Log.WithFields(map[string]interface{}{
		"channel": channel.Name,
	}).Info("notification delivered")
	return nil
}
