package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sooqly/sooqly-backend/pkg/db/models"
	"github.com/sooqly/sooqly-backend/pkg/enums"
	pkgerrors "github.com/sooqly/sooqly-backend/pkg/errors"
	"github.com/sooqly/sooqly-backend/pkg/logger"
	"github.com/sooqly/sooqly-backend/pkg/types"
)

// Repository persists notification rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, notification *models.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a notifications repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repository) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read_at", time.Now())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Service persists notifications. Notify is fire-and-forget: persistence
// failures are logged and swallowed so callers never fail on a side
// channel.
type Service interface {
	Notify(ctx context.Context, userID uuid.UUID, kind enums.NotificationType, title, message string, payload map[string]any)
	List(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService builds the notification service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) Notify(ctx context.Context, userID uuid.UUID, kind enums.NotificationType, title, message string, payload map[string]any) {
	if userID == uuid.Nil {
		return
	}
	notification := &models.Notification{
		ID:      uuid.New(),
		UserID:  userID,
		Type:    kind,
		Title:   title,
		Message: message,
		Payload: types.JSONMap(payload),
	}
	if err := s.repo.Create(ctx, notification); err != nil && s.logg != nil {
		s.logg.Error(ctx, "persisting notification", err)
	}
}

func (s *service) List(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	rows, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	return rows, nil
}

func (s *service) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	err := s.repo.MarkRead(ctx, id, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	return nil
}
