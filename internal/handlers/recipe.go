package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/souschef-app/souschef-api/internal/logger"
	"github.com/souschef-app/souschef-api/internal/repository"
	"github.com/souschef-app/souschef-api/internal/service"
	"github.com/souschef-app/souschef-api/internal/util"
	"go.uber.org/zap"
)

// RecipeHandler is the handler for recipe-related requests.
type RecipeHandler struct {
	Service *service.RecipeService
}

// NewRecipeHandler is the constructor function for initializing a new RecipeHandler.
func NewRecipeHandler(recipeService *service.RecipeService) *RecipeHandler {
	return &RecipeHandler{Service: recipeService}
}

// ListRecipes returns a paginated list of the authenticated user's recipes.
func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	user, err := util.GetUserFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	page := 1
	pageSize := 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}
	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	recipes, total, err := h.Service.GetUserRecipes(user.ID, page, pageSize)
	if err != nil {
		logger.Get().Error("failed to list recipes", zap.Uint("user_id", user.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list recipes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recipes":  recipes,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}

// GetRecipe returns a recipe by ID.
func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	user, err := util.GetUserFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	recipeIDStr := c.Param("recipe_id")
	recipeID, err := parseUintParam(recipeIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid recipe ID"})
		return
	}

	recipeResponse, err := h.Service.GetRecipeByID(user.ID, recipeID)
	if err != nil {
		logger.Get().Error("failed to get recipe", zap.String("recipe_id", recipeIDStr), zap.Error(err))
		switch {
		case errors.As(err, &repository.NotFoundError{}):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrNotRecipeOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "You can only view your own recipes"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipe": recipeResponse})
}

// DeleteRecipe deletes a recipe by ID.
func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	user, err := util.GetUserFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	recipeIDStr := c.Param("recipe_id")
	recipeID, err := parseUintParam(recipeIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid recipe ID"})
		return
	}

	if err := h.Service.DeleteRecipe(user.ID, recipeID); err != nil {
		logger.Get().Error("failed to delete recipe", zap.String("recipe_id", recipeIDStr), zap.Error(err))
		switch {
		case errors.As(err, &repository.NotFoundError{}):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrNotRecipeOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own recipes"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete recipe"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Recipe deleted successfully"})
}
