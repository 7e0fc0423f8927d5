package fhir

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/stewardrx/platform/pkg/common/config"
	"github.com/stewardrx/platform/pkg/common/kafka"
	"github.com/stewardrx/platform/pkg/common/logger"
	"github.com/stewardrx/platform/pkg/common/models"
)

// Poller pulls finalized microbiology DiagnosticReports from the FHIR
// server and publishes one culture event per report. It keeps only the
// last poll timestamp as state; everything downstream dedupes, so an
// overlap between cycles is safe.
type Poller struct {
	client      *Client
	transformer *Transformer
	producer    *kafka.Producer
	maxBatch    int
	lastPoll    time.Time
}

func NewPoller(client *Client, transformer *Transformer, producer *kafka.Producer) *Poller {
	cfg := config.Load()
	return &Poller{
		client:      client,
		transformer: transformer,
		producer:    producer,
		maxBatch:    cfg.MaxAssessBatch,
		lastPoll:    time.Now().Add(-cfg.PollLookback),
	}
}

// Poll fetches reports updated since the previous cycle and publishes a
// culture event for each one it can assemble. Returns the number published.
func (p *Poller) Poll(ctx context.Context) (int, error) {
	since := p.lastPoll
	cycleStart := time.Now()

	params := url.Values{}
	params.Set("category", "microbiology")
	params.Set("status", "final,preliminary")
	params.Set("_lastUpdated", "gt"+since.UTC().Format(time.RFC3339))

	bundle, err := p.client.Search(ctx, "DiagnosticReport", params)
	if err != nil {
		return 0, fmt.Errorf("searching diagnostic reports: %w", err)
	}

	entries := bundle.Entries
	capped := p.maxBatch > 0 && len(entries) > p.maxBatch
	if capped {
		logger.Log.WithFields(map[string]interface{}{
			"total": len(entries),
			"cap":   p.maxBatch,
		}).Warn("capping poll batch")
		entries = entries[:p.maxBatch]
	}

	published := 0
	for _, entry := range entries {
		event, err := p.assemble(ctx, entry)
		if err != nil {
			logger.Log.WithError(err).Warn("skipping diagnostic report")
			continue
		}

		payload, err := eventPayload(event)
		if err != nil {
			logger.Log.WithError(err).Warn("skipping unencodable culture event")
			continue
		}

		if err := p.producer.PublishEvent(ctx, "culture", "fhir-poller", payload); err != nil {
			return published, fmt.Errorf("publishing culture event: %w", err)
		}
		published++
	}

	// A capped cycle keeps its window so the remainder is retried next
	// time; the worker's dedupe makes the overlap harmless.
	if !capped {
		p.lastPoll = cycleStart
	}
	return published, nil
}

// assemble builds the full assessment payload for one report: the culture
// itself, the patient it belongs to and the patient's active medication
// orders.
func (p *Poller) assemble(ctx context.Context, report map[string]interface{}) (models.CultureEvent, error) {
	var event models.CultureEvent

	culture, err := p.transformer.Culture(report)
	if err != nil {
		return event, err
	}
	if culture.PatientID == "" {
		return event, fmt.Errorf("diagnostic report %s has no patient reference", culture.FHIRID)
	}

	patientData, err := p.client.Read(ctx, "Patient", culture.PatientID)
	if err != nil {
		return event, fmt.Errorf("reading patient %s: %w", culture.PatientID, err)
	}
	patient := p.transformer.Patient(patientData)

	orders, err := p.activeOrders(ctx, culture.PatientID)
	if err != nil {
		return event, err
	}

	event.Patient = patient
	event.Culture = culture
	event.Antibiotics = orders
	return event, nil
}

func (p *Poller) activeOrders(ctx context.Context, patientID string) ([]models.Antibiotic, error) {
	params := url.Values{}
	params.Set("patient", patientID)
	params.Set("status", "active")

	bundle, err := p.client.Search(ctx, "MedicationRequest", params)
	if err != nil {
		return nil, fmt.Errorf("searching medication requests for %s: %w", patientID, err)
	}

	var orders []models.Antibiotic
	for _, entry := range bundle.Entries {
		order, err := p.transformer.Antibiotic(entry)
		if err != nil {
			logger.Log.WithError(err).Debug("skipping malformed medication request")
			continue
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func eventPayload(event models.CultureEvent) (map[string]interface{}, error) {
	raw, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}
