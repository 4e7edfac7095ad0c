package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/souschef-app/souschef-api/internal/ai"
	"github.com/souschef-app/souschef-api/internal/logger"
	"github.com/souschef-app/souschef-api/internal/models"
	"github.com/souschef-app/souschef-api/internal/repository"
	"github.com/souschef-app/souschef-api/internal/scraper"
	"go.uber.org/zap"
)

// RecipeEventSink receives recipe change notifications for the realtime
// feed. Implementations must not block.
type RecipeEventSink interface {
	RecipeInserted(userID uint, recipe *models.Recipe)
	RecipeUpdated(userID uint, recipe *models.Recipe)
	RecipeDeleted(userID uint, recipeID uint)
}

// PageStore persists cookbook page images between upload and extraction.
type PageStore interface {
	UploadPage(ctx context.Context, recipeID uint, pageNum int, imgBytes []byte) (string, error)
	DownloadPage(ctx context.Context, key string) ([]byte, error)
	PresignPageURL(ctx context.Context, key string) (string, error)
	DeletePages(ctx context.Context, keys []string) error
}

const photoExtractionTimeout = 3 * time.Minute

// ImportService handles recipe import from URLs and cookbook photos.
type ImportService struct {
	RecipeRepo    repository.RecipeRepo
	Scraper       *scraper.Scraper
	Vision        ai.VisionProvider
	Pages         PageStore
	Subscriptions *SubscriptionService
	Events        RecipeEventSink
}

// NewImportService creates a new ImportService.
func NewImportService(recipeRepo repository.RecipeRepo, sc *scraper.Scraper, vision ai.VisionProvider, pages PageStore, subscriptions *SubscriptionService, events RecipeEventSink) *ImportService {
	return &ImportService{
		RecipeRepo:    recipeRepo,
		Scraper:       sc,
		Vision:        vision,
		Pages:         pages,
		Subscriptions: subscriptions,
		Events:        events,
	}
}

// ImportFromURL scrapes structured recipe data from a web page and persists
// it synchronously. A scrape failure is reported to the user with guidance
// to try the photo path; it is not escalated to the vision pipeline.
func (s *ImportService) ImportFromURL(ctx context.Context, user *models.User, url string) (*models.Recipe, error) {
	log := logger.Get().With(zap.Uint("user_id", user.ID), zap.String("source_url", url))

	if err := s.Subscriptions.CheckImportAllowance(user.ID); err != nil {
		return nil, err
	}

	draft, err := s.Scraper.Scrape(ctx, url)
	if err != nil {
		log.Warn("URL scrape failed", zap.Error(err))
		return nil, &ExtractionFailedError{
			Reason: "We couldn't read a recipe from that link. Try importing a photo of the recipe instead.",
			Err:    err,
		}
	}

	draft.ApplyDefaults()

	recipe := &models.Recipe{
		Title:        draft.Title,
		Ingredients:  pq.StringArray(draft.Ingredients),
		Instructions: pq.StringArray(draft.Instructions),
		ImageURL:     draft.ImageURL,
		SourceURL:    url,
		Status:       models.RecipeStatusReady,
		OwnerID:      user.ID,
	}

	if err := s.RecipeRepo.CreateRecipe(recipe); err != nil {
		return nil, fmt.Errorf("failed to save imported recipe: %w", err)
	}

	s.Subscriptions.RecordImport(user.ID)
	if s.Events != nil {
		s.Events.RecipeInserted(user.ID, recipe)
	}

	log.Info("recipe imported from URL", zap.Uint("recipe_id", recipe.ID), zap.String("title", recipe.Title))
	return recipe, nil
}

// ImportFromPhotos starts a cookbook-photo import. A placeholder row is
// created and returned immediately; page upload and extraction continue in
// the background, with completion pushed over the realtime feed.
func (s *ImportService) ImportFromPhotos(ctx context.Context, user *models.User, pages [][]byte) (*models.Recipe, error) {
	log := logger.Get().With(zap.Uint("user_id", user.ID), zap.Int("pages", len(pages)))

	if err := s.Subscriptions.CheckImportAllowance(user.ID); err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, &ExtractionFailedError{Reason: "No pages were provided."}
	}

	// Placeholder first so the client shows immediate feedback. Empty
	// fields and processing status keep it ineligible for cooking.
	placeholder := &models.Recipe{
		Title:        ai.DefaultRecipeTitle,
		Ingredients:  pq.StringArray{},
		Instructions: pq.StringArray{},
		Status:       models.RecipeStatusProcessing,
		OwnerID:      user.ID,
	}
	if err := s.RecipeRepo.CreateRecipe(placeholder); err != nil {
		return nil, fmt.Errorf("failed to create placeholder recipe: %w", err)
	}
	if s.Events != nil {
		s.Events.RecipeInserted(user.ID, placeholder)
	}

	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), photoExtractionTimeout)
		defer cancel()

		keys, err := s.uploadPages(bgCtx, placeholder.ID, pages)
		if err != nil {
			log.Error("page upload failed", zap.Uint("recipe_id", placeholder.ID), zap.Error(err))
			s.compensate(bgCtx, user.ID, placeholder.ID, keys)
			return
		}

		if err := s.ProcessCookbook(bgCtx, placeholder.ID, keys); err != nil {
			log.Error("photo extraction failed", zap.Uint("recipe_id", placeholder.ID), zap.Error(err))
			return
		}

		s.Subscriptions.RecordImport(user.ID)
	}()

	log.Info("photo import started", zap.Uint("recipe_id", placeholder.ID))
	return placeholder, nil
}

// ProcessCookbook downloads the given page images from storage, runs the
// extraction pipeline and writes the result back. On unrecoverable failure
// the placeholder row and uploaded pages are removed so no orphaned
// processing row remains.
func (s *ImportService) ProcessCookbook(ctx context.Context, recipeID uint, imagePaths []string) error {
	log := logger.Get().With(zap.Uint("recipe_id", recipeID), zap.Int("pages", len(imagePaths)))

	recipe, err := s.RecipeRepo.GetRecipeByID(recipeID)
	if err != nil {
		return err
	}

	pages := make([][]byte, 0, len(imagePaths))
	for _, path := range imagePaths {
		data, err := s.Pages.DownloadPage(ctx, path)
		if err != nil {
			s.compensate(ctx, recipe.OwnerID, recipeID, imagePaths)
			return fmt.Errorf("failed to download page %s: %w", path, err)
		}
		pages = append(pages, data)
	}

	// Signed URLs for the fallback strategy. Best-effort: extraction can
	// still run inline-only without them.
	signedURLs := make([]string, 0, len(imagePaths))
	for _, path := range imagePaths {
		u, err := s.Pages.PresignPageURL(ctx, path)
		if err != nil {
			log.Warn("failed to presign page URL", zap.String("path", path), zap.Error(err))
			signedURLs = nil
			break
		}
		signedURLs = append(signedURLs, u)
	}

	draft, err := s.Vision.ExtractRecipe(ctx, ai.ExtractionRequest{
		Pages:      pages,
		SignedURLs: signedURLs,
	})
	if err != nil {
		var forbidden *ai.UpstreamForbiddenError
		if errors.As(err, &forbidden) {
			// Credential-level failure. Logged verbatim for the operator;
			// the user sees a generic failure.
			log.Error("extraction credentials rejected", zap.Error(err))
		}
		s.compensate(ctx, recipe.OwnerID, recipeID, imagePaths)
		return &ExtractionFailedError{
			Reason: "We couldn't read a recipe from those pages. Try clearer photos.",
			Err:    err,
		}
	}

	// Partially empty drafts still persist as ready; defaults were applied
	// by the provider.
	if err := s.RecipeRepo.UpdateRecipeExtraction(recipeID, draft.Title, draft.Ingredients, draft.Instructions, models.RecipeStatusReady); err != nil {
		s.compensate(ctx, recipe.OwnerID, recipeID, imagePaths)
		return fmt.Errorf("failed to finalize extracted recipe: %w", err)
	}

	if s.Events != nil {
		if updated, err := s.RecipeRepo.GetRecipeByID(recipeID); err == nil {
			s.Events.RecipeUpdated(recipe.OwnerID, updated)
		}
	}

	log.Info("cookbook extraction complete", zap.String("title", draft.Title))
	return nil
}

// uploadPages stores each page image under the placeholder's key prefix.
// Returns the keys uploaded so far even on failure so the caller can clean
// them up.
func (s *ImportService) uploadPages(ctx context.Context, recipeID uint, pages [][]byte) ([]string, error) {
	keys := make([]string, 0, len(pages))
	for i, page := range pages {
		key, err := s.Pages.UploadPage(ctx, recipeID, i+1, page)
		if err != nil {
			return keys, fmt.Errorf("failed to upload page %d: %w", i+1, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// compensate deletes the placeholder row and any uploaded pages after an
// unrecoverable failure, and pushes the deletion to the feed.
func (s *ImportService) compensate(ctx context.Context, ownerID, recipeID uint, keys []string) {
	log := logger.Get().With(zap.Uint("recipe_id", recipeID))

	if err := s.RecipeRepo.DeleteRecipe(recipeID); err != nil {
		log.Error("failed to delete placeholder recipe", zap.Error(err))
	}
	if len(keys) > 0 {
		if err := s.Pages.DeletePages(ctx, keys); err != nil {
			log.Error("failed to delete uploaded pages", zap.Error(err))
		}
	}
	if s.Events != nil {
		s.Events.RecipeDeleted(ownerID, recipeID)
	}
}
