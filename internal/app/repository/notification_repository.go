package repository

import (
	"context"

	"github.com/hyunjae-dev/prooflink/internal/app/model"
	"gorm.io/gorm"
)

// NotificationRepository defines the data access contract for notification
// audit rows.
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	Update(ctx context.Context, n *model.Notification) error
	ListByOrder(ctx context.Context, orderID uint) ([]model.Notification, error)
	CountByOrderAndRole(ctx context.Context, orderID uint, role model.NotificationRole) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository returns a GORM-backed NotificationRepository.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepository) Update(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).Save(n).Error
}

func (r *notificationRepository) ListByOrder(ctx context.Context, orderID uint) ([]model.Notification, error) {
	var result []model.Notification
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (r *notificationRepository) CountByOrderAndRole(ctx context.Context, orderID uint, role model.NotificationRole) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("order_id = ? AND role = ?", orderID, role).
		Count(&count).Error
	return count, err
}
