package repository

import (
	"errors"

	"github.com/lib/pq"
	"github.com/souschef-app/souschef-api/internal/logger"
	"github.com/souschef-app/souschef-api/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RecipeRepository is a repository for interacting with recipes.
type RecipeRepository struct {
	DB *gorm.DB
}

// NewRecipeRepository creates a new RecipeRepository.
func NewRecipeRepository(db *gorm.DB) *RecipeRepository {
	return &RecipeRepository{DB: db}
}

// GetUserRecipes retrieves a page of a user's recipes, newest first.
func (r *RecipeRepository) GetUserRecipes(userID uint, page, pageSize int) ([]models.Recipe, int64, error) {
	var recipes []models.Recipe
	var total int64

	if err := r.DB.Model(&models.Recipe{}).
		Where("owner_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.DB.Where("owner_id = ?", userID).
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, err
	}

	return recipes, total, nil
}

// GetRecipeByID retrieves a recipe by its ID.
func (r *RecipeRepository) GetRecipeByID(recipeID uint) (*models.Recipe, error) {
	var recipe models.Recipe

	err := r.DB.Where("id = ?", recipeID).
		First(&recipe).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError{message: "Recipe not found"}
		}
		logger.Get().Error("failed to retrieve recipe", zap.Uint("recipe_id", recipeID), zap.Error(err))
		return nil, err
	}

	return &recipe, nil
}

// CreateRecipe creates a new recipe.
func (r *RecipeRepository) CreateRecipe(recipe *models.Recipe) error {
	tx := r.DB.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	if err := tx.Create(recipe).Error; err != nil {
		tx.Rollback()
		logger.Get().Error("failed to create recipe", zap.Error(err))
		return err
	}

	return tx.Commit().Error
}

// DeleteRecipe deletes a recipe.
func (r *RecipeRepository) DeleteRecipe(recipeID uint) error {
	err := r.DB.Delete(&models.Recipe{}, recipeID).Error
	if err != nil {
		logger.Get().Error("failed to delete recipe", zap.Uint("recipe_id", recipeID), zap.Error(err))
	}
	return err
}

// UpdateRecipeExtraction writes the extraction result onto an existing
// recipe row in a single update, transitioning its status. This is the only
// write path that moves a placeholder out of the processing state.
func (r *RecipeRepository) UpdateRecipeExtraction(recipeID uint, title string, ingredients, instructions []string, status models.RecipeStatus) error {
	err := r.DB.Model(&models.Recipe{}).
		Where("id = ?", recipeID).
		Updates(map[string]interface{}{
			"title":        title,
			"ingredients":  pq.StringArray(ingredients),
			"instructions": pq.StringArray(instructions),
			"status":       status,
		}).Error
	if err != nil {
		logger.Get().Error("failed to update recipe extraction", zap.Uint("recipe_id", recipeID), zap.Error(err))
	}
	return err
}

// UpdateRecipeImageURL updates the image URL of a recipe.
func (r *RecipeRepository) UpdateRecipeImageURL(recipeID uint, imageURL string) error {
	err := r.DB.Model(&models.Recipe{}).
		Where("id = ?", recipeID).
		Update("ImageURL", imageURL).Error
	if err != nil {
		logger.Get().Error("failed to update recipe image URL", zap.Uint("recipe_id", recipeID), zap.Error(err))
	}
	return err
}
