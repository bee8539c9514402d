package usecases

import (
	"context"
	"time"

	"github.com/nicnocquee/spanduck/internal/domain"
	"github.com/nicnocquee/spanduck/pkg/log"
)

// PremiumRepository looks up entitlement records. A missing record returns nil, nil.
type PremiumRepository interface {
	FindByUserID(ctx context.Context, userID string) (*domain.Premium, error)
}

// PremiumUseCase decides whether a user currently has premium.
type PremiumUseCase struct {
	repo PremiumRepository
	now  func() time.Time
}

// NewPremiumUseCase creates a new PremiumUseCase.
func NewPremiumUseCase(repo PremiumRepository) *PremiumUseCase {
	return &PremiumUseCase{repo: repo, now: time.Now}
}

// WithClock replaces the time source.
func (uc *PremiumUseCase) WithClock(now func() time.Time) *PremiumUseCase {
	uc.now = now
	return uc
}

// IsPremium reports the entitlement of userID.
// Lookup failures degrade to non-premium instead of failing the request.
func (uc *PremiumUseCase) IsPremium(ctx context.Context, userID string) bool {
	if userID == "" || uc.repo == nil {
		return false
	}
	p, err := uc.repo.FindByUserID(ctx, userID)
	if err != nil {
		log.GlobalWarnCtx(ctx, "premium lookup failed", "user_id", userID, "error", err)
		return false
	}
	return p.IsActive(uc.now())
}
