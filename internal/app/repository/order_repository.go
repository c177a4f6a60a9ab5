package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hyunjae-dev/prooflink/internal/app/model"
	"gorm.io/gorm"
)

var (
	// ErrOrderNotFound signals that the requested order does not exist.
	ErrOrderNotFound = errors.New("order not found")
)

// OrderRepository defines the data access contract for orders.
type OrderRepository interface {
	GetByID(ctx context.Context, id uint) (*model.Order, error)
	UpdateStatus(ctx context.Context, id uint, status model.OrderStatus) error
	ListAwaitingProof(ctx context.Context, organizationID uint, tokenIssuedBefore time.Time) ([]model.Order, error)
}

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository returns a GORM-backed OrderRepository.
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) GetByID(ctx context.Context, id uint) (*model.Order, error) {
	var order model.Order
	if err := r.db.WithContext(ctx).
		Preload("Organization").
		First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uint, status model.OrderStatus) error {
	result := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// ListAwaitingProof returns orders whose valid token was issued before the
// cutoff and that have not progressed past TOKEN_ISSUED. Used by the
// reminder sweep.
func (r *orderRepository) ListAwaitingProof(ctx context.Context, organizationID uint, tokenIssuedBefore time.Time) ([]model.Order, error) {
	var result []model.Order
	if err := r.db.WithContext(ctx).
		Preload("Organization").
		Joins("JOIN proof_tokens ON proof_tokens.order_id = orders.id").
		Where("orders.organization_id = ?", organizationID).
		Where("orders.status IN ?", []model.OrderStatus{model.OrderStatusPending, model.OrderStatusTokenIssued}).
		Where("proof_tokens.is_valid = ?", true).
		Where("proof_tokens.created_at < ?", tokenIssuedBefore).
		Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}
