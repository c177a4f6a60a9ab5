package repository

import (
	"context"
	"errors"

	"github.com/hyunjae-dev/prooflink/internal/app/model"
	"gorm.io/gorm"
)

// ProofRepository defines the data access contract for proof records.
type ProofRepository interface {
	Create(ctx context.Context, proof *model.Proof) error
	ListByOrder(ctx context.Context, orderID uint) ([]model.Proof, error)
	ExistsByOrderAndType(ctx context.Context, orderID uint, proofType model.ProofType) (bool, error)
}

type proofRepository struct {
	db *gorm.DB
}

// NewProofRepository returns a GORM-backed ProofRepository.
func NewProofRepository(db *gorm.DB) ProofRepository {
	return &proofRepository{db: db}
}

func (r *proofRepository) Create(ctx context.Context, proof *model.Proof) error {
	return r.db.WithContext(ctx).Create(proof).Error
}

func (r *proofRepository) ListByOrder(ctx context.Context, orderID uint) ([]model.Proof, error) {
	var result []model.Proof
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("uploaded_at ASC").
		Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (r *proofRepository) ExistsByOrderAndType(ctx context.Context, orderID uint, proofType model.ProofType) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Proof{}).
		Where("order_id = ? AND proof_type = ?", orderID, proofType).
		Count(&count).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	return count > 0, nil
}
