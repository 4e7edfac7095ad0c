package service

import (
	"fmt"
	"strconv"
	"time"

	"github.com/souschef-app/souschef-api/internal/config"
	"github.com/souschef-app/souschef-api/internal/logger"
	"github.com/souschef-app/souschef-api/internal/models"
	"github.com/souschef-app/souschef-api/internal/repository"
	"go.uber.org/zap"
)

// RecipeService is the business logic layer for recipe-related operations.
type RecipeService struct {
	Cfg    *config.Config
	Repo   repository.RecipeRepo
	Events RecipeEventSink
}

// RecipeResponse is the response object for recipe-related operations.
type RecipeResponse struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	OwnerID      string   `json:"ownerId"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	ImageURL     string   `json:"imageUrl,omitempty"`
	SourceURL    string   `json:"sourceUrl,omitempty"`
	Status       string   `json:"status"`
	CreatedAt    string   `json:"createdAt"`
	UpdatedAt    string   `json:"updatedAt"`
}

// NewRecipeService is the constructor function for initializing a new RecipeService
func NewRecipeService(cfg *config.Config, repo repository.RecipeRepo, events RecipeEventSink) *RecipeService {
	return &RecipeService{
		Cfg:    cfg,
		Repo:   repo,
		Events: events,
	}
}

// GetUserRecipes returns a paginated list of recipes for a user, newest
// first.
func (s *RecipeService) GetUserRecipes(userID uint, page, pageSize int) ([]RecipeResponse, int64, error) {
	recipes, total, err := s.Repo.GetUserRecipes(userID, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get user recipes: %w", err)
	}

	items := make([]RecipeResponse, len(recipes))
	for i := range recipes {
		items[i] = *ToRecipeResponse(&recipes[i])
	}

	return items, total, nil
}

// GetRecipeByID fetches a recipe by its ID. Only the owner may read it.
func (s *RecipeService) GetRecipeByID(userID, recipeID uint) (*RecipeResponse, error) {
	recipe, err := s.Repo.GetRecipeByID(recipeID)
	if err != nil {
		return nil, err
	}
	if recipe.OwnerID != userID {
		return nil, ErrNotRecipeOwner
	}

	return ToRecipeResponse(recipe), nil
}

// DeleteRecipe deletes a recipe owned by the user and pushes the deletion
// to the realtime feed.
func (s *RecipeService) DeleteRecipe(userID, recipeID uint) error {
	recipe, err := s.Repo.GetRecipeByID(recipeID)
	if err != nil {
		return err
	}
	if recipe.OwnerID != userID {
		return ErrNotRecipeOwner
	}

	if err := s.Repo.DeleteRecipe(recipeID); err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}

	if s.Events != nil {
		s.Events.RecipeDeleted(userID, recipeID)
	}

	logger.Get().Info("recipe deleted", zap.Uint("user_id", userID), zap.Uint("recipe_id", recipeID))
	return nil
}

// ToRecipeResponse converts a Recipe to a RecipeResponse.
func ToRecipeResponse(recipe *models.Recipe) *RecipeResponse {
	return &RecipeResponse{
		ID:           strconv.FormatUint(uint64(recipe.ID), 10),
		Title:        recipe.Title,
		OwnerID:      strconv.FormatUint(uint64(recipe.OwnerID), 10),
		Ingredients:  []string(recipe.Ingredients),
		Instructions: []string(recipe.Instructions),
		ImageURL:     recipe.ImageURL,
		SourceURL:    recipe.SourceURL,
		Status:       string(recipe.Status),
		CreatedAt:    recipe.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    recipe.UpdatedAt.Format(time.RFC3339),
	}
}
