package handlers

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/souschef-app/souschef-api/internal/ai"
	"github.com/souschef-app/souschef-api/internal/logger"
	"github.com/souschef-app/souschef-api/internal/service"
	"github.com/souschef-app/souschef-api/internal/util"
	"go.uber.org/zap"
)

// Upload limit for a single voice clip. Push-to-talk recordings run a few
// seconds; anything near this size is not a voice command.
const maxAudioBytes = 5 * 1024 * 1024

// VoiceHandler handles voice turns and cooking Q&A requests.
type VoiceHandler struct {
	Service *service.VoiceService
}

// NewVoiceHandler creates a new VoiceHandler.
func NewVoiceHandler(voiceService *service.VoiceService) *VoiceHandler {
	return &VoiceHandler{Service: voiceService}
}

// ProcessVoice handles POST /v1/voice/process. The clip arrives as a
// multipart form: "file" holds the audio, "current_step" and
// "recipe_context" carry the cooking state the model needs.
func (h *VoiceHandler) ProcessVoice(c *gin.Context) {
	user, err := util.GetUserFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Audio file is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read audio file"})
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(io.LimitReader(file, maxAudioBytes))
	if err != nil || len(audio) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read audio file"})
		return
	}

	currentStep := 0
	if cs := c.PostForm("current_step"); cs != "" {
		if v, err := strconv.Atoi(cs); err == nil && v >= 0 {
			currentStep = v
		}
	}
	recipeContext := c.PostForm("recipe_context")

	mimeType := fileHeader.Header.Get("Content-Type")

	turn, err := h.Service.ProcessVoiceTurn(c.Request.Context(), ai.VoiceRequest{
		Audio:         audio,
		MIMEType:      mimeType,
		CurrentStep:   currentStep,
		RecipeContext: recipeContext,
	})
	if err != nil {
		logger.Get().Error("voice turn failed", zap.Uint("user_id", user.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Sorry, I didn't catch that. Try again."})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transcript": turn.Transcript,
		"action":     string(turn.Action),
		"answer":     turn.Answer,
	})
}

// AskAssistant handles POST /v1/assistant/ask for typed cooking questions.
func (h *VoiceHandler) AskAssistant(c *gin.Context) {
	user, err := util.GetUserFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var request struct {
		Question      string `json:"question" binding:"required"`
		RecipeContext string `json:"recipe_context"`
	}
	if err := c.BindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}

	question := strings.TrimSpace(request.Question)
	if question == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}

	answer, err := h.Service.AnswerCookingQuestion(c.Request.Context(), question, request.RecipeContext)
	if err != nil {
		logger.Get().Error("cooking question failed", zap.Uint("user_id", user.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get an answer"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"answer": answer})
}
