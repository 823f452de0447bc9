package santimpaywebhook

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sooqly/sooqly-backend/pkg/db/models"
)

// LogRepository persists the webhook audit trail.
type LogRepository interface {
	Create(ctx context.Context, log *models.WebhookLog) error
	MarkProcessed(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
	ListUnprocessed(ctx context.Context, limit int) ([]models.WebhookLog, error)
}

type logRepository struct {
	db *gorm.DB
}

func NewLogRepository(db *gorm.DB) LogRepository {
	return &logRepository{db: db}
}

func (r *logRepository) Create(ctx context.Context, log *models.WebhookLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *logRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.WebhookLog{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"processed":           true,
			"processing_attempts": gorm.Expr("processing_attempts + 1"),
			"last_error":          nil,
		}).Error
}

func (r *logRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	return r.db.WithContext(ctx).Model(&models.WebhookLog{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"processing_attempts": gorm.Expr("processing_attempts + 1"),
			"last_error":          reason,
		}).Error
}

func (r *logRepository) ListUnprocessed(ctx context.Context, limit int) ([]models.WebhookLog, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []models.WebhookLog
	err := r.db.WithContext(ctx).
		Where("processed = ?", false).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
