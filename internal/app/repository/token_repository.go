package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hyunjae-dev/prooflink/internal/app/model"
	"gorm.io/gorm"
)

var (
	// ErrTokenNotFound signals that no token row matches the lookup.
	ErrTokenNotFound = errors.New("token not found")
)

// TokenRepository defines the data access contract for proof tokens.
type TokenRepository interface {
	Create(ctx context.Context, token *model.ProofToken) error
	GetByToken(ctx context.Context, token string) (*model.ProofToken, error)
	GetByOrderID(ctx context.Context, orderID uint) (*model.ProofToken, error)
	DeleteByOrderID(ctx context.Context, orderID uint) error
	Invalidate(ctx context.Context, token string, revokedAt *time.Time) error
}

type tokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository returns a GORM-backed TokenRepository.
func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Create(ctx context.Context, token *model.ProofToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *tokenRepository) GetByToken(ctx context.Context, token string) (*model.ProofToken, error) {
	var row model.ProofToken
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (r *tokenRepository) GetByOrderID(ctx context.Context, orderID uint) (*model.ProofToken, error) {
	var row model.ProofToken
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (r *tokenRepository) DeleteByOrderID(ctx context.Context, orderID uint) error {
	return r.db.WithContext(ctx).Where("order_id = ?", orderID).Delete(&model.ProofToken{}).Error
}

// Invalidate flips is_valid to false. The transition is one-way; rows are
// never reactivated.
func (r *tokenRepository) Invalidate(ctx context.Context, token string, revokedAt *time.Time) error {
	updates := map[string]interface{}{"is_valid": false}
	if revokedAt != nil {
		updates["revoked_at"] = revokedAt
	}
	result := r.db.WithContext(ctx).
		Model(&model.ProofToken{}).
		Where("token = ?", token).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTokenNotFound
	}
	return nil
}
