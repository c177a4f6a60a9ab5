package repository

import (
	"context"
	"errors"

	"github.com/hyunjae-dev/prooflink/internal/app/model"
	"gorm.io/gorm"
)

var (
	// ErrOrganizationNotFound signals that the requested organization does not exist.
	ErrOrganizationNotFound = errors.New("organization not found")
)

// OrganizationRepository defines the data access contract for organizations.
type OrganizationRepository interface {
	GetByID(ctx context.Context, id uint) (*model.Organization, error)
}

type organizationRepository struct {
	db *gorm.DB
}

// NewOrganizationRepository returns a GORM-backed OrganizationRepository.
func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &organizationRepository{db: db}
}

func (r *organizationRepository) GetByID(ctx context.Context, id uint) (*model.Organization, error) {
	var org model.Organization
	if err := r.db.WithContext(ctx).First(&org, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, err
	}
	return &org, nil
}
