package repository

import (
	"time"

	"github.com/souschef-app/souschef-api/internal/models"
)

// RecipeRepo is the interface for recipe repository operations.
type RecipeRepo interface {
	GetUserRecipes(userID uint, page, pageSize int) ([]models.Recipe, int64, error)
	GetRecipeByID(recipeID uint) (*models.Recipe, error)
	CreateRecipe(recipe *models.Recipe) error
	DeleteRecipe(recipeID uint) error
	UpdateRecipeExtraction(recipeID uint, title string, ingredients, instructions []string, status models.RecipeStatus) error
	UpdateRecipeImageURL(recipeID uint, imageURL string) error
}

// SessionRepo is the interface for cooking session repository operations.
type SessionRepo interface {
	GetSession(userID, recipeID uint) (*models.CookingSession, error)
	GetLatestActiveSession(userID uint) (*models.CookingSession, error)
	UpsertSession(session *models.CookingSession) error
	UpdateSessionStep(userID, recipeID uint, step int) error
	UpdateSessionChatHistory(userID, recipeID uint, history models.ChatMessages) error
	FinishSession(userID, recipeID uint) error
}

// UserRepo is the interface for user repository operations.
type UserRepo interface {
	CreateUser(user *models.User) (*models.User, error)
	GetUserByID(userID uint) (*models.User, error)
	GetUserAuthByUsername(username string) (*models.User, error)
	UsernameExists(username string) (bool, error)
	GetSubscription(userID uint) (*models.Subscription, error)
	IncrementImportsUsed(userID uint) error
	ResetSubscriptionUsage(userID uint, nextReset time.Time) error
	UpdateSubscriptionTier(userID uint, tier models.SubscriptionTier, expiresAt *time.Time) error
}
