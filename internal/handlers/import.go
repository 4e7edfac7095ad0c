package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/souschef-app/souschef-api/internal/logger"
	"github.com/souschef-app/souschef-api/internal/service"
	"github.com/souschef-app/souschef-api/internal/util"
	"go.uber.org/zap"
)

// Per-page upload limit for cookbook photo imports.
const maxPageBytes = 10 * 1024 * 1024

// ImportHandler handles recipe import requests.
type ImportHandler struct {
	Service *service.ImportService
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(importService *service.ImportService) *ImportHandler {
	return &ImportHandler{Service: importService}
}

// ImportFromURL handles POST /v1/recipes/import/url
func (h *ImportHandler) ImportFromURL(c *gin.Context) {
	user, err := util.GetUserFromContext(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var request struct {
		URL string `json:"url" binding:"required"`
	}
	if err := c.BindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	url := strings.TrimSpace(request.URL)
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL is required"})
		return
	}

	recipe, err := h.Service.ImportFromURL(c.Request.Context(), user, url)
	if err != nil {
		h.respondImportError(c, err, "failed to import recipe from URL")
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipe": service.ToRecipeResponse(recipe)})
}

// ImportFromPhotos handles POST /v1/recipes/import/photos. Pages arrive as a
// multipart form with one or more files under the "pages" field, in reading
// order. The response carries the processing placeholder; the finished
// recipe arrives over the feed.
func (h *ImportHandler) ImportFromPhotos(c *gin.Context) {
	user, err := util.GetUserFromContext(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Multipart form is required"})
		return
	}

	files := form.File["pages"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one page image is required"})
		return
	}

	pages := make([][]byte, 0, len(files))
	for _, fh := range files {
		file, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read page image"})
			return
		}
		data, err := io.ReadAll(io.LimitReader(file, maxPageBytes))
		file.Close()
		if err != nil || len(data) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read page image"})
			return
		}
		pages = append(pages, data)
	}

	recipe, err := h.Service.ImportFromPhotos(c.Request.Context(), user, pages)
	if err != nil {
		h.respondImportError(c, err, "failed to start photo import")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"recipe": service.ToRecipeResponse(recipe)})
}

// ProcessCookbook handles POST /v1/internal/process-cookbook. Internal
// endpoint for re-driving extraction of already-uploaded pages.
func (h *ImportHandler) ProcessCookbook(c *gin.Context) {
	var request struct {
		RecipeID   uint     `json:"recipeId" binding:"required"`
		ImagePaths []string `json:"imagePaths" binding:"required"`
	}
	if err := c.BindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "recipeId and imagePaths are required"})
		return
	}

	if err := h.Service.ProcessCookbook(c.Request.Context(), request.RecipeID, request.ImagePaths); err != nil {
		logger.Get().Error("cookbook processing failed", zap.Uint("recipe_id", request.RecipeID), zap.Error(err))
		var extractionErr *service.ExtractionFailedError
		if errors.As(err, &extractionErr) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": extractionErr.Reason})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process cookbook pages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// respondImportError maps import pipeline errors onto user-facing responses.
func (h *ImportHandler) respondImportError(c *gin.Context, err error, logMsg string) {
	logger.Get().Error(logMsg, zap.Error(err))

	var extractionErr *service.ExtractionFailedError
	switch {
	case errors.Is(err, service.ErrImportLimitReached):
		c.JSON(http.StatusForbidden, gin.H{"error": "You've reached your free imports for this month. Upgrade for unlimited imports."})
	case errors.As(err, &extractionErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": extractionErr.Reason})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to import recipe"})
	}
}
