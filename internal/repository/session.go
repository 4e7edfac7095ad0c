package repository

import (
	"errors"
	"time"

	"github.com/souschef-app/souschef-api/internal/logger"
	"github.com/souschef-app/souschef-api/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionRepository is a repository for interacting with cooking sessions.
type SessionRepository struct {
	DB *gorm.DB
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

// GetSession retrieves the cooking session for a (user, recipe) pair.
func (r *SessionRepository) GetSession(userID, recipeID uint) (*models.CookingSession, error) {
	var session models.CookingSession

	err := r.DB.Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError{message: "Cooking session not found"}
		}
		return nil, err
	}

	return &session, nil
}

// GetLatestActiveSession retrieves the user's most recently updated active
// session, used for the resume flow.
func (r *SessionRepository) GetLatestActiveSession(userID uint) (*models.CookingSession, error) {
	var session models.CookingSession

	err := r.DB.Preload("Recipe").
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("last_updated DESC").
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError{message: "No active cooking session"}
		}
		return nil, err
	}

	return &session, nil
}

// UpsertSession inserts or fully overwrites the session row for its
// (recipe, user) pair. Last writer wins; there is no merge.
func (r *SessionRepository) UpsertSession(session *models.CookingSession) error {
	session.LastUpdated = time.Now()

	err := r.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "recipe_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"current_step", "chat_history", "is_active", "last_updated", "updated_at",
		}),
	}).Create(session).Error
	if err != nil {
		logger.Get().Error("failed to upsert cooking session",
			zap.Uint("recipe_id", session.RecipeID), zap.Uint("user_id", session.UserID), zap.Error(err))
	}
	return err
}

// UpdateSessionStep updates the current step of an existing session.
func (r *SessionRepository) UpdateSessionStep(userID, recipeID uint, step int) error {
	err := r.DB.Model(&models.CookingSession{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Updates(map[string]interface{}{
			"current_step": step,
			"is_active":    true,
			"last_updated": time.Now(),
		}).Error
	if err != nil {
		logger.Get().Error("failed to update session step",
			zap.Uint("recipe_id", recipeID), zap.Uint("user_id", userID), zap.Error(err))
	}
	return err
}

// UpdateSessionChatHistory overwrites the session's chat history with the
// given snapshot.
func (r *SessionRepository) UpdateSessionChatHistory(userID, recipeID uint, history models.ChatMessages) error {
	err := r.DB.Model(&models.CookingSession{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Updates(map[string]interface{}{
			"chat_history": history,
			"last_updated": time.Now(),
		}).Error
	if err != nil {
		logger.Get().Error("failed to update session chat history",
			zap.Uint("recipe_id", recipeID), zap.Uint("user_id", userID), zap.Error(err))
	}
	return err
}

// FinishSession marks a session inactive, preserving step and history.
func (r *SessionRepository) FinishSession(userID, recipeID uint) error {
	err := r.DB.Model(&models.CookingSession{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Updates(map[string]interface{}{
			"is_active":    false,
			"last_updated": time.Now(),
		}).Error
	if err != nil {
		logger.Get().Error("failed to finish cooking session",
			zap.Uint("recipe_id", recipeID), zap.Uint("user_id", userID), zap.Error(err))
	}
	return err
}
