package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// User is the model for a user.
type User struct {
	gorm.Model
	Username     string        `gorm:"unique;index"`
	FirstName    string        `gorm:"default:null"`
	Email        string        `gorm:"unique;default:null"`
	Auth         *UserAuth     `gorm:"foreignKey:UserID"`
	Subscription *Subscription `gorm:"foreignKey:UserID"`
	Recipes      []*Recipe     `gorm:"foreignKey:OwnerID"`
}

// UserAuth is the model for a user's authentication information.
type UserAuth struct {
	gorm.Model
	UserID         uint `gorm:"unique;index"`
	HashedPassword string
	AuthType       UserAuthType `gorm:"type:text"`
}

// UserAuthType is the type for the UserAuthType enum.
type UserAuthType string

// UserAuthType enum values.
const (
	Standard UserAuthType = "standard"
)

// IsValidAuthType checks if the AuthType is valid.
func (ua *UserAuth) IsValidAuthType() bool {
	switch ua.AuthType {
	case Standard:
		return true
	default:
		return false
	}
}

// BeforeCreate is a GORM hook that runs before creating a new UserAuth.
func (ua *UserAuth) BeforeCreate(tx *gorm.DB) (err error) {
	if !ua.IsValidAuthType() {
		// Cancel transaction
		return errors.New("invalid AuthType provided")
	}

	return nil
}

// BeforeUpdate is a GORM hook that runs before updating a UserAuth.
func (ua *UserAuth) BeforeUpdate(tx *gorm.DB) (err error) {
	if !ua.IsValidAuthType() {
		// Cancel transaction
		return errors.New("invalid AuthType provided")
	}

	return nil
}

// SubscriptionTier is the type for the SubscriptionTier enum.
type SubscriptionTier string

// SubscriptionTier enum values.
const (
	TierFree    SubscriptionTier = "free"
	TierPremium SubscriptionTier = "premium"
)

// FreeTierMonthlyImports is the number of recipe imports a free-tier user
// may run per calendar month.
const FreeTierMonthlyImports = 10

// Subscription is the model for a user's subscription.
type Subscription struct {
	gorm.Model
	UserID         uint             `gorm:"uniqueIndex;not null"`
	Tier           SubscriptionTier `gorm:"type:text;default:'free'"`
	ExpiresAt      *time.Time
	ImportsUsed    int `gorm:"default:0"`
	MonthlyResetAt time.Time
}

// CanImport checks if the user can run another recipe import.
func (s *Subscription) CanImport() bool {
	if s.Tier == TierPremium {
		return true
	}
	return s.ImportsUsed < FreeTierMonthlyImports
}

// IsValidSubscriptionTier checks if the SubscriptionTier is valid.
func (s *Subscription) IsValidSubscriptionTier() bool {
	switch s.Tier {
	case TierFree, TierPremium:
		return true
	default:
		return false
	}
}

// BeforeCreate is a GORM hook that runs before creating a new user Subscription.
func (s *Subscription) BeforeCreate(tx *gorm.DB) (err error) {
	if !s.IsValidSubscriptionTier() {
		s.Tier = TierFree
	}

	return nil
}

// BeforeUpdate is a GORM hook that runs before updating a user Subscription.
func (s *Subscription) BeforeUpdate(tx *gorm.DB) (err error) {
	if !s.IsValidSubscriptionTier() {
		return errors.New("invalid SubscriptionTier provided")
	}

	return nil
}
