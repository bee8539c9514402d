package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/nicnocquee/spanduck/internal/domain"
)

// PremiumRepository reads premium entitlements.
type PremiumRepository struct {
	db *gorm.DB
}

func NewPremiumRepository(db *gorm.DB) *PremiumRepository {
	return &PremiumRepository{db: db}
}

// FindByUserID returns the entitlement of userID, or nil when there is none.
func (r *PremiumRepository) FindByUserID(ctx context.Context, userID string) (*domain.Premium, error) {
	var entity PremiumEntity
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find premium for %s: %w", userID, err)
	}
	return &domain.Premium{
		UserID:    entity.UserID,
		ExpiredAt: entity.ExpiredAt,
		CreatedAt: entity.CreatedAt,
		UpdatedAt: entity.UpdatedAt,
	}, nil
}
