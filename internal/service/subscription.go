package service

import (
	"fmt"
	"time"

	"github.com/souschef-app/souschef-api/internal/config"
	"github.com/souschef-app/souschef-api/internal/logger"
	"github.com/souschef-app/souschef-api/internal/models"
	"github.com/souschef-app/souschef-api/internal/repository"
	"go.uber.org/zap"
)

// SubscriptionService handles entitlements and the free-tier import
// allowance.
type SubscriptionService struct {
	Cfg  *config.Config
	Repo repository.UserRepo
}

// NewSubscriptionService creates a new SubscriptionService.
func NewSubscriptionService(cfg *config.Config, repo repository.UserRepo) *SubscriptionService {
	return &SubscriptionService{
		Cfg:  cfg,
		Repo: repo,
	}
}

// GetSubscription retrieves the subscription for a user, rolling the
// monthly usage window forward when it has lapsed.
func (s *SubscriptionService) GetSubscription(userID uint) (*models.Subscription, error) {
	sub, err := s.Repo.GetSubscription(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	if time.Now().After(sub.MonthlyResetAt) {
		nextReset := time.Now().AddDate(0, 1, 0)
		if err := s.Repo.ResetSubscriptionUsage(userID, nextReset); err != nil {
			return nil, err
		}
		sub.ImportsUsed = 0
		sub.MonthlyResetAt = nextReset
	}

	return sub, nil
}

// CheckImportAllowance is the hard stop before any extraction work: a
// free-tier user past the monthly cap gets ErrImportLimitReached.
func (s *SubscriptionService) CheckImportAllowance(userID uint) error {
	sub, err := s.GetSubscription(userID)
	if err != nil {
		return err
	}
	if !sub.CanImport() {
		return ErrImportLimitReached
	}
	return nil
}

// RecordImport counts one completed import against the monthly allowance.
// Best-effort; a counting failure never fails the import itself.
func (s *SubscriptionService) RecordImport(userID uint) {
	if err := s.Repo.IncrementImportsUsed(userID); err != nil {
		logger.Get().Warn("failed to record import usage", zap.Uint("user_id", userID), zap.Error(err))
	}
}

// Purchase upgrades a user to premium for one billing period. The payment
// itself is handled by the store; this records the entitlement.
func (s *SubscriptionService) Purchase(userID uint) (*models.Subscription, error) {
	expires := time.Now().AddDate(0, 1, 0)
	if err := s.Repo.UpdateSubscriptionTier(userID, models.TierPremium, &expires); err != nil {
		return nil, err
	}
	return s.GetSubscription(userID)
}

// Restore re-applies a previously purchased entitlement, or downgrades an
// expired one back to free.
func (s *SubscriptionService) Restore(userID uint) (*models.Subscription, error) {
	sub, err := s.GetSubscription(userID)
	if err != nil {
		return nil, err
	}

	if sub.Tier == models.TierPremium && sub.ExpiresAt != nil && time.Now().After(*sub.ExpiresAt) {
		if err := s.Repo.UpdateSubscriptionTier(userID, models.TierFree, nil); err != nil {
			return nil, err
		}
		return s.GetSubscription(userID)
	}

	return sub, nil
}
