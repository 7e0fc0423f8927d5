package alerts

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("alert not found")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&Alert{}, &AuditEntry{})
}

// Create inserts the alert unless one already exists for the same
// (culture, category) pair. Returns false when the insert was skipped.
func (r *Repository) Create(ctx context.Context, alert *Alert) (bool, error) {
	alert.CreatedAt = time.Now().UTC()
	alert.UpdatedAt = alert.CreatedAt
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(alert)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) Get(ctx context.Context, id string) (*Alert, error) {
	var alert Alert
	result := r.db.WithContext(ctx).First(&alert, "id = ?", id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &alert, result.Error
}

type ListFilter struct {
	Status    string
	Severity  string
	PatientID string
	Limit     int
}

func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Alert, error) {
	query := r.db.WithContext(ctx).Model(&Alert{}).Order("created_at DESC")
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Severity != "" {
		query = query.Where("severity = ?", filter.Severity)
	}
	if filter.PatientID != "" {
		query = query.Where("patient_id = ?", filter.PatientID)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var rows []Alert
	err := query.Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *Repository) UpdateStatus(ctx context.Context, id, status, actor string) error {
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": now,
	}
	if status == StatusAcknowledged {
		updates["acked_by"] = actor
		updates["acked_at"] = now
	}
	result := r.db.WithContext(ctx).Model(&Alert{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) Summarize(ctx context.Context, window time.Duration) (Summary, error) {
	var summary Summary
	cutoff := time.Now().UTC().Add(-window)
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			SUM(CASE WHEN severity = 'critical' THEN 1 ELSE 0 END) AS critical,
			SUM(CASE WHEN severity = 'warning' THEN 1 ELSE 0 END) AS warning,
			SUM(CASE WHEN status = 'open' THEN 1 ELSE 0 END) AS open
		FROM stewardship_alerts
		WHERE created_at > ?
	`, cutoff).Scan(&summary).Error
	return summary, err
}

func (r *Repository) Audit(ctx context.Context, entry *AuditEntry) error {
	entry.CreatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Create(entry).Error
}
