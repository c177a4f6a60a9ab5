package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hyunjae-dev/prooflink/internal/app/model"
	"gorm.io/gorm"
)

var (
	// ErrShortLinkNotFound signals that the requested short link does not exist.
	ErrShortLinkNotFound = errors.New("short link not found")
)

// ShortLinkRepository defines the data access contract for short links.
type ShortLinkRepository interface {
	Create(ctx context.Context, link *model.ShortLink) error
	GetByCode(ctx context.Context, code string) (*model.ShortLink, error)
	GetByOrderID(ctx context.Context, orderID uint) (*model.ShortLink, error)
	UpdateTargetToken(ctx context.Context, id uint, token string) error
	RecordClick(ctx context.Context, id uint, at time.Time) error
}

type shortLinkRepository struct {
	db *gorm.DB
}

// NewShortLinkRepository returns a GORM-backed ShortLinkRepository.
func NewShortLinkRepository(db *gorm.DB) ShortLinkRepository {
	return &shortLinkRepository{db: db}
}

func (r *shortLinkRepository) Create(ctx context.Context, link *model.ShortLink) error {
	return r.db.WithContext(ctx).Create(link).Error
}

func (r *shortLinkRepository) GetByCode(ctx context.Context, code string) (*model.ShortLink, error) {
	var link model.ShortLink
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShortLinkNotFound
		}
		return nil, err
	}
	return &link, nil
}

func (r *shortLinkRepository) GetByOrderID(ctx context.Context, orderID uint) (*model.ShortLink, error) {
	var link model.ShortLink
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShortLinkNotFound
		}
		return nil, err
	}
	return &link, nil
}

func (r *shortLinkRepository) UpdateTargetToken(ctx context.Context, id uint, token string) error {
	result := r.db.WithContext(ctx).
		Model(&model.ShortLink{}).
		Where("id = ?", id).
		Update("target_token", token)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrShortLinkNotFound
	}
	return nil
}

// RecordClick bumps the click counter and last-click timestamp. Callers
// treat failures as best-effort; resolution never depends on this write.
func (r *shortLinkRepository) RecordClick(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.ShortLink{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"click_count":     gorm.Expr("click_count + 1"),
			"last_clicked_at": at,
		}).Error
}
