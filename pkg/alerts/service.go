package alerts

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/stewardrx/platform/pkg/common/kafka"
	"github.com/stewardrx/platform/pkg/common/logger"
	"github.com/stewardrx/platform/pkg/common/models"
	"github.com/stewardrx/platform/pkg/coverage"
	"gorm.io/datatypes"
)

// Service turns assessment verdicts into persisted alerts and publishes
// alert events for the notifier. Severity is assigned here and nowhere else:
// the assessment core stays verdict-only.
type Service struct {
	repo     *Repository
	producer *kafka.Producer
}

func NewService(repo *Repository, producer *kafka.Producer) *Service {
	return &Service{repo: repo, producer: producer}
}

// FromCoverage maps a coverage assessment to an alert. Unknown and adequate
// verdicts produce none: "can't tell" must never page anyone.
func FromCoverage(assessment coverage.CoverageAssessment) (*Alert, bool) {
	if assessment.Status != coverage.StatusInadequate {
		return nil, false
	}

	details := datatypes.JSONMap{
		"category":       string(assessment.Category),
		"organism":       assessment.Culture.Organism,
		"recommendation": assessment.Recommendation,
		"antibiotics":    antibioticNames(assessment.Antibiotics),
	}
	if len(assessment.MissingCoverage) > 0 {
		details["missing_coverage"] = assessment.MissingCoverage
	}

	return &Alert{
		ID:          uuid.New().String(),
		PatientID:   assessment.Patient.FHIRID,
		PatientName: assessment.Patient.Name,
		Location:    assessment.Patient.Location,
		CultureID:   assessment.Culture.FHIRID,
		Category:    CategoryCoverage,
		Severity:    SeverityCritical,
		Status:      StatusOpen,
		Summary: fmt.Sprintf("Inadequate antimicrobial coverage for %s (%s)",
			assessment.Culture.Organism, assessment.Category),
		Details: details,
	}, true
}

// FromMismatch maps a drug-bug mismatch assessment to an alert. Severity is
// graded: resistant conflicts or a complete coverage gap are critical,
// intermediate-only findings are a warning, and anything is downgraded to a
// warning when another current agent already tested susceptible.
func FromMismatch(assessment coverage.MismatchAssessment, hasEffectiveCoverage bool) (*Alert, bool) {
	if !coverage.ShouldAlert(assessment) {
		return nil, false
	}

	severity := SeverityWarning
	for _, mm := range assessment.Mismatches {
		if mm.Type == coverage.MismatchResistant || mm.Type == coverage.MismatchNoCoverage {
			severity = SeverityCritical
			break
		}
	}
	if hasEffectiveCoverage {
		severity = SeverityWarning
	}

	var conflicts []string
	for _, mm := range assessment.Mismatches {
		switch mm.Type {
		case coverage.MismatchNoCoverage:
			conflicts = append(conflicts, "no effective agent on board")
		default:
			conflicts = append(conflicts, fmt.Sprintf("%s (%s)", mm.Antibiotic.Name, mm.Type))
		}
	}

	return &Alert{
		ID:          uuid.New().String(),
		PatientID:   assessment.Patient.FHIRID,
		PatientName: assessment.Patient.Name,
		Location:    assessment.Patient.Location,
		CultureID:   assessment.Culture.FHIRID,
		Category:    CategoryMismatch,
		Severity:    severity,
		Status:      StatusOpen,
		Summary: fmt.Sprintf("Drug-bug mismatch for %s: %s",
			assessment.Culture.Organism, strings.Join(conflicts, ", ")),
		Details: datatypes.JSONMap{
			"organism":       assessment.Culture.Organism,
			"recommendation": assessment.Recommendation,
			"mismatches":     len(assessment.Mismatches),
			"antibiotics":    antibioticNames(assessment.Antibiotics),
		},
	}, true
}

// Create persists the alert and publishes an alert event. The unique
// (culture, category) index makes redundant worker invocations harmless.
func (s *Service) Create(ctx context.Context, alert *Alert) (bool, error) {
	created, err := s.repo.Create(ctx, alert)
	if err != nil {
		return false, fmt.Errorf("persisting alert: %w", err)
	}
	if !created {
		logger.Log.WithFields(map[string]interface{}{
			"culture_id": alert.CultureID,
			"category":   alert.Category,
		}).Debug("alert already exists, skipping")
		return false, nil
	}

	_ = s.repo.Audit(ctx, &AuditEntry{
		AlertID: alert.ID,
		Actor:   "stewardship-service",
		Action:  "created",
	})

	if s.producer != nil {
		payload := map[string]interface{}{
			"alert_id":   alert.ID,
			"patient_id": alert.PatientID,
			"patient":    alert.PatientName,
			"location":   alert.Location,
			"culture_id": alert.CultureID,
			"severity":   alert.Severity,
			"category":   alert.Category,
			"summary":    alert.Summary,
			"details":    alert.Details,
			"created_at": alert.CreatedAt,
		}
		if err := s.producer.PublishEvent(ctx, "alert", "stewardship-service", payload); err != nil {
			// The alert is persisted; notification delivery is best-effort.
			logger.Log.WithError(err).Warn("failed to publish alert event")
		}
	}

	return true, nil
}

func (s *Service) Acknowledge(ctx context.Context, id, actor string) error {
	if err := s.repo.UpdateStatus(ctx, id, StatusAcknowledged, actor); err != nil {
		return err
	}
	return s.repo.Audit(ctx, &AuditEntry{AlertID: id, Actor: actor, Action: "acknowledged"})
}

func (s *Service) Resolve(ctx context.Context, id, actor string) error {
	if err := s.repo.UpdateStatus(ctx, id, StatusResolved, actor); err != nil {
		return err
	}
	return s.repo.Audit(ctx, &AuditEntry{AlertID: id, Actor: actor, Action: "resolved"})
}

func antibioticNames(antibiotics []models.Antibiotic) []string {
	names := make([]string, 0, len(antibiotics))
	for _, ab := range antibiotics {
		names = append(names, ab.Name)
	}
	return names
}
