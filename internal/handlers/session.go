package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/souschef-app/souschef-api/internal/logger"
	"github.com/souschef-app/souschef-api/internal/models"
	"github.com/souschef-app/souschef-api/internal/repository"
	"github.com/souschef-app/souschef-api/internal/service"
	"github.com/souschef-app/souschef-api/internal/util"
	"go.uber.org/zap"
)

// SessionHandler handles cooking session requests.
type SessionHandler struct {
	Service *service.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{Service: sessionService}
}

// SessionResponse is the response object for cooking session operations.
type SessionResponse struct {
	RecipeID    string                  `json:"recipeId"`
	CurrentStep int                     `json:"currentStep"`
	ChatHistory models.ChatMessages     `json:"chatHistory"`
	IsActive    bool                    `json:"isActive"`
	LastUpdated time.Time               `json:"lastUpdated"`
	Recipe      *service.RecipeResponse `json:"recipe,omitempty"`
}

func toSessionResponse(session *models.CookingSession) *SessionResponse {
	resp := &SessionResponse{
		RecipeID:    strconv.FormatUint(uint64(session.RecipeID), 10),
		CurrentStep: session.CurrentStep,
		ChatHistory: session.ChatHistory,
		IsActive:    session.IsActive,
		LastUpdated: session.LastUpdated,
	}
	if resp.ChatHistory == nil {
		resp.ChatHistory = models.ChatMessages{}
	}
	if session.Recipe != nil {
		resp.Recipe = service.ToRecipeResponse(session.Recipe)
	}
	return resp
}

// GetOrCreateSession handles POST /v1/sessions/:recipe_id. Returns the
// existing session for the recipe or starts a fresh one.
func (h *SessionHandler) GetOrCreateSession(c *gin.Context) {
	user, recipeID, ok := h.sessionParams(c)
	if !ok {
		return
	}

	session, err := h.Service.GetOrCreateSession(user.ID, recipeID)
	if err != nil {
		h.respondSessionError(c, err, "failed to start cooking session")
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": toSessionResponse(session)})
}

// ResumeSession handles GET /v1/sessions/resume. Returns the most recently
// updated active session, or an empty body when there is nothing to resume.
func (h *SessionHandler) ResumeSession(c *gin.Context) {
	user, err := util.GetUserFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	session, err := h.Service.Resume(user.ID)
	if err != nil {
		logger.Get().Error("failed to resume session", zap.Uint("user_id", user.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resume session"})
		return
	}
	if session == nil {
		c.JSON(http.StatusOK, gin.H{"session": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": toSessionResponse(session)})
}

// UpdateStep handles PUT /v1/sessions/:recipe_id/step.
func (h *SessionHandler) UpdateStep(c *gin.Context) {
	user, recipeID, ok := h.sessionParams(c)
	if !ok {
		return
	}

	var request struct {
		Step *int `json:"step" binding:"required"`
	}
	if err := c.BindJSON(&request); err != nil || *request.Step < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "step must be a non-negative integer"})
		return
	}

	h.Service.SetStep(user.ID, recipeID, *request.Step)
	c.JSON(http.StatusOK, gin.H{"message": "Step updated"})
}

// UpdateChat handles PUT /v1/sessions/:recipe_id/chat. The body carries the
// full transcript; writes are debounced server-side.
func (h *SessionHandler) UpdateChat(c *gin.Context) {
	user, recipeID, ok := h.sessionParams(c)
	if !ok {
		return
	}

	var request struct {
		History models.ChatMessages `json:"history" binding:"required"`
	}
	if err := c.BindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "history is required"})
		return
	}

	h.Service.AppendChat(user.ID, recipeID, request.History)
	c.JSON(http.StatusOK, gin.H{"message": "Chat history queued"})
}

// FinishSession handles POST /v1/sessions/:recipe_id/finish. Any history in
// the body is flushed immediately before the session is deactivated.
func (h *SessionHandler) FinishSession(c *gin.Context) {
	user, recipeID, ok := h.sessionParams(c)
	if !ok {
		return
	}

	var request struct {
		History models.ChatMessages `json:"history"`
	}
	// Body is optional on finish.
	if err := c.BindJSON(&request); err == nil && request.History != nil {
		h.Service.FlushChat(user.ID, recipeID, request.History)
	}

	if err := h.Service.Finish(user.ID, recipeID); err != nil {
		h.respondSessionError(c, err, "failed to finish cooking session")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Session finished"})
}

// CookAgain handles POST /v1/sessions/:recipe_id/cook-again.
func (h *SessionHandler) CookAgain(c *gin.Context) {
	user, recipeID, ok := h.sessionParams(c)
	if !ok {
		return
	}

	session, err := h.Service.CookAgain(user.ID, recipeID)
	if err != nil {
		h.respondSessionError(c, err, "failed to restart cooking session")
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": toSessionResponse(session)})
}

// sessionParams pulls the authenticated user and recipe ID out of the
// request, writing the error response itself when either is missing.
func (h *SessionHandler) sessionParams(c *gin.Context) (*models.User, uint, bool) {
	user, err := util.GetUserFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, 0, false
	}

	recipeID, err := parseUintParam(c.Param("recipe_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid recipe ID"})
		return nil, 0, false
	}

	return user, recipeID, true
}

func (h *SessionHandler) respondSessionError(c *gin.Context, err error, logMsg string) {
	logger.Get().Error(logMsg, zap.Error(err))

	switch {
	case errors.As(err, &repository.NotFoundError{}):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotRecipeOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only cook your own recipes"})
	case errors.Is(err, service.ErrRecipeNotReady):
		c.JSON(http.StatusConflict, gin.H{"error": "This recipe is still processing"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
	}
}
