package stewardship

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"

	"github.com/stewardrx/platform/pkg/alerts"
	"github.com/stewardrx/platform/pkg/common/config"
	"github.com/stewardrx/platform/pkg/common/logger"
	"github.com/stewardrx/platform/pkg/common/models"
	"github.com/stewardrx/platform/pkg/coverage"
	"github.com/stewardrx/platform/pkg/observability/metrics"
	"github.com/stewardrx/platform/pkg/surveillance"
)

// Service is the assessment worker. It consumes culture events, runs the
// coverage assessor and the drug-bug matcher over each one, and hands any
// findings to the alerts service. Evaluation itself is pure; everything
// stateful (dedupe, persistence, publishing) lives at the edges.
type Service struct {
	assessor *coverage.Assessor
	matcher  *coverage.Matcher
	alerts   *alerts.Service
	redis    *redis.Client
	detector *surveillance.Detector
	cfg      *config.Config

	mu       sync.Mutex
	isolates []surveillance.Isolate
}

func NewService(assessor *coverage.Assessor, matcher *coverage.Matcher, alertSvc *alerts.Service, rdb *redis.Client, detector *surveillance.Detector) *Service {
	return &Service{
		assessor: assessor,
		matcher:  matcher,
		alerts:   alertSvc,
		redis:    rdb,
		detector: detector,
		cfg:      config.Load(),
	}
}

// HandleEvent is the Kafka consumer callback for the culture topic.
func (s *Service) HandleEvent(ctx context.Context, event models.Event) error {
	cultureEvent, err := decodeCultureEvent(event)
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"event_id": event.ID,
			"error":    err.Error(),
		}).Error("Dropping undecodable culture event")
		return nil
	}
	return s.Process(ctx, cultureEvent)
}

// Process runs one (patient, culture, orders) evaluation end to end.
func (s *Service) Process(ctx context.Context, event models.CultureEvent) error {
	if event.Culture.FHIRID == "" {
		return fmt.Errorf("culture event missing culture id")
	}

	if s.alreadyAssessed(ctx, event.Culture.FHIRID) {
		metrics.IncDedupeSkips()
		logger.WithField("culture_id", event.Culture.FHIRID).Debug("Culture already assessed, skipping")
		return nil
	}

	assessment := s.assessor.Assess(event.Patient, event.Culture, event.Antibiotics)
	metrics.IncAssessments()
	if assessment.Status == coverage.StatusUnknown {
		metrics.IncUnknownVerdicts()
	}

	logger.WithFields(map[string]interface{}{
		"culture_id": event.Culture.FHIRID,
		"patient_id": event.Patient.FHIRID,
		"category":   assessment.Category,
		"status":     assessment.Status,
	}).Info("Coverage assessment complete")

	if alert, ok := alerts.FromCoverage(assessment); ok {
		created, err := s.alerts.Create(ctx, alert)
		if err != nil {
			return fmt.Errorf("creating coverage alert: %w", err)
		}
		if created {
			metrics.IncCoverageAlerts()
		}
	}

	mismatch := s.matcher.AssessMismatch(event.Patient, event.Culture, event.Antibiotics)
	hasEffective := s.matcher.HasAnyEffectiveCoverage(event.Culture, event.Antibiotics)
	if alert, ok := alerts.FromMismatch(mismatch, hasEffective); ok {
		created, err := s.alerts.Create(ctx, alert)
		if err != nil {
			return fmt.Errorf("creating mismatch alert: %w", err)
		}
		if created {
			metrics.IncMismatchAlerts()
		}
	}

	if err := s.surveil(ctx, event); err != nil {
		// Cluster detection is opportunistic. An error here must not nack
		// the culture event.
		logger.WithField("error", err.Error()).Warn("Cluster detection failed")
	}

	return nil
}

// alreadyAssessed checks the fast dedupe layer. A Redis outage fails open:
// the (culture, category) unique index in Postgres still prevents duplicate
// alerts, we just redo some work.
func (s *Service) alreadyAssessed(ctx context.Context, cultureID string) bool {
	if s.redis == nil {
		return false
	}

	key := s.cfg.DedupePrefix + cultureID
	set, err := s.redis.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), s.cfg.DedupeTTL).Result()
	if err != nil {
		logger.WithField("error", err.Error()).Warn("Dedupe check failed, assessing anyway")
		return false
	}
	return !set
}

// surveil feeds the culture into the rolling isolate set and raises an
// outbreak alert for any cluster crossing the threshold.
func (s *Service) surveil(ctx context.Context, event models.CultureEvent) error {
	if s.detector == nil {
		return nil
	}

	s.mu.Lock()
	s.isolates = append(s.isolates, surveillance.Isolate{
		Culture:  event.Culture,
		Location: event.Patient.Location,
	})
	s.isolates = trimIsolates(s.isolates, s.cfg.ClusterWindow)
	snapshot := make([]surveillance.Isolate, len(s.isolates))
	copy(snapshot, s.isolates)
	s.mu.Unlock()

	for _, cluster := range s.detector.Detect(snapshot) {
		created, err := s.alerts.Create(ctx, clusterAlert(cluster))
		if err != nil {
			return err
		}
		if created {
			metrics.IncClustersDetected()
			logger.WithFields(map[string]interface{}{
				"category": cluster.Category,
				"location": cluster.Location,
				"patients": len(cluster.Patients),
			}).Warn("Outbreak cluster detected")
		}
	}
	return nil
}

// clusterAlert builds the outbreak alert for a cluster. The synthetic
// culture id keys the (culture, category) unique index so the same cluster
// raised on successive cycles collapses to one row.
func clusterAlert(cluster surveillance.Cluster) *alerts.Alert {
	return &alerts.Alert{
		ID:       uuid.New().String(),
		Location: cluster.Location,
		CultureID: fmt.Sprintf("cluster:%s:%s:%s",
			cluster.Category, cluster.Location, cluster.FirstSeen.UTC().Format("2006-01-02")),
		Category: alerts.CategoryOutbreak,
		Severity: alerts.SeverityWarning,
		Status:   alerts.StatusOpen,
		Summary: fmt.Sprintf("%d patients with %s on %s since %s",
			len(cluster.Patients), cluster.Category, cluster.Location,
			cluster.FirstSeen.Format("Jan 2")),
		Details: datatypes.JSONMap{
			"category":   string(cluster.Category),
			"location":   cluster.Location,
			"cultures":   cluster.Cultures,
			"patients":   cluster.Patients,
			"first_seen": cluster.FirstSeen,
			"last_seen":  cluster.LastSeen,
		},
	}
}

// trimIsolates drops isolates older than the window so the in-memory set
// stays bounded between restarts of the detector cycle.
func trimIsolates(isolates []surveillance.Isolate, window time.Duration) []surveillance.Isolate {
	cutoff := time.Now().Add(-window)
	kept := isolates[:0]
	for _, iso := range isolates {
		if iso.Culture.CollectedAt.After(cutoff) {
			kept = append(kept, iso)
		}
	}
	return kept
}

func decodeCultureEvent(event models.Event) (models.CultureEvent, error) {
	var cultureEvent models.CultureEvent

	raw, err := json.Marshal(event.Data)
	if err != nil {
		return cultureEvent, fmt.Errorf("re-encoding event data: %w", err)
	}
	if err := json.Unmarshal(raw, &cultureEvent); err != nil {
		return cultureEvent, fmt.Errorf("decoding culture event: %w", err)
	}
	if cultureEvent.Culture.FHIRID == "" {
		return cultureEvent, fmt.Errorf("culture event missing culture id")
	}
	return cultureEvent, nil
}
