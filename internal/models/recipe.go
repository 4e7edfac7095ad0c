package models

import (
	"errors"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// RecipeStatus is the type for the RecipeStatus enum.
type RecipeStatus string

// RecipeStatus enum values.
const (
	RecipeStatusDraft      RecipeStatus = "draft"
	RecipeStatusProcessing RecipeStatus = "processing"
	RecipeStatusReady      RecipeStatus = "ready"
)

// Recipe is the model for a recipe in a user's library.
//
// A recipe imported from photos is created as a placeholder with
// StatusProcessing and empty ingredient/instruction lists; the extraction
// pipeline transitions it to StatusReady exactly once, or deletes it on
// unrecoverable failure. URL imports are created StatusReady synchronously.
type Recipe struct {
	gorm.Model
	Title        string         `gorm:"not null"`
	Ingredients  pq.StringArray `gorm:"type:text[]"`
	Instructions pq.StringArray `gorm:"type:text[]"`
	ImageURL     string
	SourceURL    string
	Status       RecipeStatus `gorm:"type:text;default:'draft';index"`
	OwnerID      uint         `gorm:"index;not null"`
	Owner        *User        `gorm:"foreignKey:OwnerID"`
}

// IsValidStatus checks if the Status is valid.
func (r *Recipe) IsValidStatus() bool {
	switch r.Status {
	case RecipeStatusDraft, RecipeStatusProcessing, RecipeStatusReady:
		return true
	default:
		return false
	}
}

// CanStartCooking reports whether a cooking session may be started for this
// recipe. Placeholder rows awaiting extraction are not cookable.
func (r *Recipe) CanStartCooking() bool {
	return r.Status == RecipeStatusReady && len(r.Instructions) > 0
}

// BeforeCreate is a GORM hook that runs before creating a new Recipe.
func (r *Recipe) BeforeCreate(tx *gorm.DB) (err error) {
	if !r.IsValidStatus() {
		r.Status = RecipeStatusDraft
	}

	return nil
}

// BeforeUpdate is a GORM hook that runs before updating a Recipe.
func (r *Recipe) BeforeUpdate(tx *gorm.DB) (err error) {
	if !r.IsValidStatus() {
		// Cancel transaction
		return errors.New("invalid RecipeStatus provided")
	}

	return nil
}
