package service

import (
	"sync"
	"time"

	"github.com/souschef-app/souschef-api/internal/logger"
	"github.com/souschef-app/souschef-api/internal/models"
	"github.com/souschef-app/souschef-api/internal/repository"
	"go.uber.org/zap"
)

// Quiescence window for chat-history writes. Rapid appends within the
// window collapse into a single write of the latest snapshot.
const chatFlushWindow = 400 * time.Millisecond

// SessionService is the business logic layer for cooking sessions.
type SessionService struct {
	Repo       repository.SessionRepo
	RecipeRepo repository.RecipeRepo

	mu      sync.Mutex
	pending map[sessionKey]*time.Timer
	window  time.Duration
}

type sessionKey struct {
	userID   uint
	recipeID uint
}

// NewSessionService creates a new SessionService.
func NewSessionService(repo repository.SessionRepo, recipeRepo repository.RecipeRepo) *SessionService {
	return &SessionService{
		Repo:       repo,
		RecipeRepo: recipeRepo,
		pending:    make(map[sessionKey]*time.Timer),
		window:     chatFlushWindow,
	}
}

// GetOrCreateSession returns the session for a recipe, creating a fresh one
// on first entry into cooking mode. Processing placeholders cannot start a
// session.
func (s *SessionService) GetOrCreateSession(userID, recipeID uint) (*models.CookingSession, error) {
	recipe, err := s.RecipeRepo.GetRecipeByID(recipeID)
	if err != nil {
		return nil, err
	}
	if recipe.OwnerID != userID {
		return nil, ErrNotRecipeOwner
	}

	session, err := s.Repo.GetSession(userID, recipeID)
	if err == nil {
		return session, nil
	}
	if _, ok := err.(repository.NotFoundError); !ok {
		return nil, err
	}

	if !recipe.CanStartCooking() {
		return nil, ErrRecipeNotReady
	}

	session = &models.CookingSession{
		RecipeID:    recipeID,
		UserID:      userID,
		CurrentStep: 0,
		ChatHistory: models.ChatMessages{},
		IsActive:    true,
	}
	if err := s.Repo.UpsertSession(session); err != nil {
		return nil, err
	}
	return session, nil
}

// Resume returns the user's most recently updated active session, or nil
// when there is nothing to resume.
func (s *SessionService) Resume(userID uint) (*models.CookingSession, error) {
	session, err := s.Repo.GetLatestActiveSession(userID)
	if err != nil {
		if _, ok := err.(repository.NotFoundError); ok {
			return nil, nil
		}
		return nil, err
	}
	return session, nil
}

// SetStep persists a step change from either the voice pipeline or explicit
// UI navigation. The write is best-effort: a failure is logged and the
// caller's optimistic state stays authoritative for the rest of the run.
func (s *SessionService) SetStep(userID, recipeID uint, step int) {
	if step < 0 {
		step = 0
	}
	if err := s.Repo.UpdateSessionStep(userID, recipeID, step); err != nil {
		logger.Get().Warn("session step write failed",
			zap.Uint("recipe_id", recipeID), zap.Int("step", step), zap.Error(err))
	}
}

// AppendChat schedules a debounced write of the session's chat history.
// history must be the caller's full current transcript, not a diff: the
// last snapshot scheduled before the window elapses is the one written, so
// it always carries every pending message.
func (s *SessionService) AppendChat(userID, recipeID uint, history models.ChatMessages) {
	key := sessionKey{userID: userID, recipeID: recipeID}
	snapshot := make(models.ChatMessages, len(history))
	copy(snapshot, history)

	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.pending[key]; ok {
		timer.Stop()
	}
	s.pending[key] = time.AfterFunc(s.window, func() {
		s.mu.Lock()
		delete(s.pending, key)
		s.mu.Unlock()

		if err := s.Repo.UpdateSessionChatHistory(userID, recipeID, snapshot); err != nil {
			logger.Get().Warn("chat history write failed",
				zap.Uint("recipe_id", recipeID), zap.Error(err))
		}
	})
}

// FlushChat cancels any pending debounce for the session and writes the
// given snapshot immediately. Used on finish so no messages are lost.
func (s *SessionService) FlushChat(userID, recipeID uint, history models.ChatMessages) {
	key := sessionKey{userID: userID, recipeID: recipeID}

	s.mu.Lock()
	if timer, ok := s.pending[key]; ok {
		timer.Stop()
		delete(s.pending, key)
	}
	s.mu.Unlock()

	if err := s.Repo.UpdateSessionChatHistory(userID, recipeID, history); err != nil {
		logger.Get().Warn("chat history flush failed",
			zap.Uint("recipe_id", recipeID), zap.Error(err))
	}
}

// Finish deactivates the session, preserving step and history for resume.
func (s *SessionService) Finish(userID, recipeID uint) error {
	return s.Repo.FinishSession(userID, recipeID)
}

// CookAgain starts a fresh run of a previously cooked recipe: step zero,
// empty history, active. Idempotent regardless of prior session state.
func (s *SessionService) CookAgain(userID, recipeID uint) (*models.CookingSession, error) {
	recipe, err := s.RecipeRepo.GetRecipeByID(recipeID)
	if err != nil {
		return nil, err
	}
	if recipe.OwnerID != userID {
		return nil, ErrNotRecipeOwner
	}
	if !recipe.CanStartCooking() {
		return nil, ErrRecipeNotReady
	}

	session := &models.CookingSession{
		RecipeID:    recipeID,
		UserID:      userID,
		CurrentStep: 0,
		ChatHistory: models.ChatMessages{},
		IsActive:    true,
	}
	if err := s.Repo.UpsertSession(session); err != nil {
		return nil, err
	}
	return session, nil
}
